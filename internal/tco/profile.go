package tco

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/joelkehle/nac-tco/internal/catalog"
)

const (
	DefaultYearsToProject = 3
	MaxYearsToProject     = 10
	MaxDeviceCount        = 1000000
	MaxSweepSteps         = 1000
	deviceMixTolerance    = 0.01
)

type RiskProfile string

const (
	RiskStandard  RiskProfile = "standard"
	RiskElevated  RiskProfile = "elevated"
	RiskHigh      RiskProfile = "high"
	RiskRegulated RiskProfile = "regulated"
)

var riskMultipliers = map[RiskProfile]float64{
	RiskStandard:  1.0,
	RiskElevated:  1.2,
	RiskHigh:      1.5,
	RiskRegulated: 1.3,
}

type InsuranceTier string

const (
	InsuranceNone     InsuranceTier = "none"
	InsuranceBasic    InsuranceTier = "basic"
	InsuranceStandard InsuranceTier = "standard"
	InsurancePremium  InsuranceTier = "premium"
)

var insuranceMultipliers = map[InsuranceTier]float64{
	InsuranceNone:     0,
	InsuranceBasic:    0.8,
	InsuranceStandard: 1.0,
	InsurancePremium:  1.3,
}

// Bound is the documented range of a cost parameter override.
type Bound struct {
	Min float64
	Max float64
}

func (b Bound) Contains(v float64) bool { return v >= b.Min && v <= b.Max }

const (
	ParamFTECost             = "fte_cost"
	ParamFTEAllocation       = "fte_allocation"
	ParamMaintenancePct      = "maintenance_pct"
	ParamDiscountPct         = "discount_pct"
	ParamDowntimeCostPerHour = "downtime_cost_per_hour"
	ParamInflationRate       = "inflation_rate"
	ParamCurrencyRate        = "currency_rate"
	ParamUnitPrice           = "unit_price"
	ParamImplementationDays  = "implementation_days"
)

var ParameterBounds = map[string]Bound{
	ParamFTECost:             {Min: 30000, Max: 300000},
	ParamFTEAllocation:       {Min: 0, Max: 1},
	ParamMaintenancePct:      {Min: 0, Max: 0.5},
	ParamDiscountPct:         {Min: 0, Max: 0.5},
	ParamDowntimeCostPerHour: {Min: 0, Max: 100000},
	ParamInflationRate:       {Min: 0, Max: 0.2},
	ParamCurrencyRate:        {Min: 0.01, Max: 1000},
	ParamUnitPrice:           {Min: 0, Max: 1000},
	ParamImplementationDays:  {Min: 1, Max: 730},
}

const (
	defaultFTECost             = 120000
	defaultFTEAllocation       = 1.0
	defaultDowntimeCostPerHour = 5000
	defaultInflationRate       = 0.03
	defaultCurrencyRate        = 1.0
)

// Overrides are optional cost-parameter overrides. Nil means "use default".
type Overrides struct {
	FTECost             *float64 `json:"fte_cost,omitempty" yaml:"fte_cost,omitempty"`
	FTEAllocation       *float64 `json:"fte_allocation,omitempty" yaml:"fte_allocation,omitempty"`
	MaintenancePct      *float64 `json:"maintenance_pct,omitempty" yaml:"maintenance_pct,omitempty"`
	DiscountPct         *float64 `json:"discount_pct,omitempty" yaml:"discount_pct,omitempty"`
	DowntimeCostPerHour *float64 `json:"downtime_cost_per_hour,omitempty" yaml:"downtime_cost_per_hour,omitempty"`
	InflationEnabled    bool     `json:"inflation_enabled,omitempty" yaml:"inflation_enabled,omitempty"`
	InflationRate       *float64 `json:"inflation_rate,omitempty" yaml:"inflation_rate,omitempty"`
	CurrencyEnabled     bool     `json:"currency_enabled,omitempty" yaml:"currency_enabled,omitempty"`
	CurrencyRate        *float64 `json:"currency_rate,omitempty" yaml:"currency_rate,omitempty"`
	UnitPrice           *float64 `json:"unit_price,omitempty" yaml:"unit_price,omitempty"`
	ImplementationDays  *int     `json:"implementation_days,omitempty" yaml:"implementation_days,omitempty"`
}

// Organization is the raw organization input as supplied by a host, a YAML
// file or an HTTP request.
type Organization struct {
	Name                   string                      `json:"name,omitempty" yaml:"name,omitempty"`
	DeviceCount            int                         `json:"device_count" yaml:"device_count" validate:"gt=0,lte=1000000"`
	SizeTier               string                      `json:"size_tier,omitempty" yaml:"size_tier,omitempty" validate:"omitempty,oneof=small medium large enterprise"`
	Industry               string                      `json:"industry,omitempty" yaml:"industry,omitempty"`
	YearsToProject         int                         `json:"years_to_project,omitempty" yaml:"years_to_project,omitempty" validate:"gte=0,lte=10"`
	RiskProfile            string                      `json:"risk_profile,omitempty" yaml:"risk_profile,omitempty" validate:"omitempty,oneof=standard elevated high regulated"`
	CyberInsuranceTier     string                      `json:"cyber_insurance_tier,omitempty" yaml:"cyber_insurance_tier,omitempty" validate:"omitempty,oneof=none basic standard premium"`
	ComplianceRequirements []string                    `json:"compliance_requirements,omitempty" yaml:"compliance_requirements,omitempty"`
	NetworkRequirements    catalog.NetworkRequirements `json:"network_requirements" yaml:"network_requirements"`
	DeviceMix              map[string]float64          `json:"device_mix,omitempty" yaml:"device_mix,omitempty" validate:"omitempty,dive,gte=0,lte=100"`
	CurrentVendor          string                      `json:"current_vendor,omitempty" yaml:"current_vendor,omitempty"`
	Overrides              Overrides                   `json:"overrides" yaml:"overrides,omitempty"`
}

// CostParams are the fully resolved cost parameters.
type CostParams struct {
	FTECost             float64  `json:"fte_cost"`
	FTEAllocation       float64  `json:"fte_allocation"`
	MaintenancePct      *float64 `json:"maintenance_pct,omitempty"`
	DiscountPct         float64  `json:"discount_pct"`
	DowntimeCostPerHour float64  `json:"downtime_cost_per_hour"`
	InflationEnabled    bool     `json:"inflation_enabled"`
	InflationRate       float64  `json:"inflation_rate"`
	CurrencyEnabled     bool     `json:"currency_enabled"`
	CurrencyRate        float64  `json:"currency_rate"`
	UnitPrice           *float64 `json:"unit_price,omitempty"`
	ImplementationDays  *int     `json:"implementation_days,omitempty"`
}

// Profile is a validated organization profile with every default applied.
// Models only ever see a Profile.
type Profile struct {
	Name                   string                      `json:"name,omitempty"`
	DeviceCount            int                         `json:"device_count"`
	SizeTier               catalog.SizeTier            `json:"size_tier"`
	TierExplicit           bool                        `json:"tier_explicit,omitempty"`
	Industry               catalog.Industry            `json:"industry"`
	UsedDefaultIndustry    bool                        `json:"used_default_industry"`
	YearsToProject         int                         `json:"years_to_project"`
	RiskProfile            RiskProfile                 `json:"risk_profile"`
	InsuranceTier          InsuranceTier               `json:"cyber_insurance_tier"`
	ComplianceRequirements []string                    `json:"compliance_requirements"`
	Network                catalog.NetworkRequirements `json:"network_requirements"`
	DeviceMix              map[string]float64          `json:"device_mix,omitempty"`
	BaselineVendorID       string                      `json:"baseline_vendor_id"`
	Params                 CostParams                  `json:"params"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Resolve validates raw input and applies every default in one place.
func Resolve(org Organization, cat *catalog.Catalog) (Profile, error) {
	if cat == nil {
		return Profile{}, errors.New("resolve profile: nil catalog")
	}
	if org.DeviceCount <= 0 {
		return Profile{}, &ValidationError{Field: "device_count", Reason: fmt.Sprintf("must be a positive integer, got %d", org.DeviceCount)}
	}
	if err := validate.Struct(org); err != nil {
		return Profile{}, validationFromTags(err)
	}

	p := Profile{
		Name:             strings.TrimSpace(org.Name),
		DeviceCount:      org.DeviceCount,
		SizeTier:         catalog.TierForDevices(org.DeviceCount),
		YearsToProject:   org.YearsToProject,
		RiskProfile:      RiskStandard,
		InsuranceTier:    InsuranceStandard,
		Network:          org.NetworkRequirements,
		BaselineVendorID: catalog.BaselineVendorID,
	}
	if org.SizeTier != "" {
		p.SizeTier = catalog.SizeTier(org.SizeTier)
		p.TierExplicit = true
	}
	if p.YearsToProject == 0 {
		p.YearsToProject = DefaultYearsToProject
	}
	if org.RiskProfile != "" {
		p.RiskProfile = RiskProfile(org.RiskProfile)
	}
	if org.CyberInsuranceTier != "" {
		p.InsuranceTier = InsuranceTier(org.CyberInsuranceTier)
	}

	if ind, ok := cat.Industry(org.Industry); ok {
		p.Industry = ind
	} else {
		p.Industry = cat.DefaultIndustry()
		p.UsedDefaultIndustry = true
	}

	p.ComplianceRequirements = normalizeFrameworks(org.ComplianceRequirements)

	if len(org.DeviceMix) > 0 {
		total := 0.0
		mix := make(map[string]float64, len(org.DeviceMix))
		for k, v := range org.DeviceMix {
			total += v
			mix[k] = v
		}
		if math.Abs(total-100) > deviceMixTolerance {
			return Profile{}, &ValidationError{Field: "device_mix", Reason: fmt.Sprintf("percentages must sum to 100, got %.2f", total)}
		}
		p.DeviceMix = mix
	}

	if cv := strings.TrimSpace(org.CurrentVendor); cv != "" {
		if _, ok := cat.Vendor(cv); !ok {
			return Profile{}, &ValidationError{Field: "current_vendor", Reason: fmt.Sprintf("unknown vendor %q", cv)}
		}
		p.BaselineVendorID = cv
	}

	params, err := resolveParams(org.Overrides)
	if err != nil {
		return Profile{}, err
	}
	p.Params = params
	return p, nil
}

func resolveParams(o Overrides) (CostParams, error) {
	params := CostParams{
		FTECost:             defaultFTECost,
		FTEAllocation:       defaultFTEAllocation,
		DowntimeCostPerHour: defaultDowntimeCostPerHour,
		InflationEnabled:    o.InflationEnabled,
		InflationRate:       defaultInflationRate,
		CurrencyEnabled:     o.CurrencyEnabled,
		CurrencyRate:        defaultCurrencyRate,
	}
	floats := []struct {
		name string
		in   *float64
		dst  *float64
	}{
		{ParamFTECost, o.FTECost, &params.FTECost},
		{ParamFTEAllocation, o.FTEAllocation, &params.FTEAllocation},
		{ParamDiscountPct, o.DiscountPct, &params.DiscountPct},
		{ParamDowntimeCostPerHour, o.DowntimeCostPerHour, &params.DowntimeCostPerHour},
		{ParamInflationRate, o.InflationRate, &params.InflationRate},
		{ParamCurrencyRate, o.CurrencyRate, &params.CurrencyRate},
	}
	for _, f := range floats {
		if f.in == nil {
			continue
		}
		if err := checkBound(f.name, *f.in); err != nil {
			return CostParams{}, err
		}
		*f.dst = *f.in
	}
	if o.MaintenancePct != nil {
		if err := checkBound(ParamMaintenancePct, *o.MaintenancePct); err != nil {
			return CostParams{}, err
		}
		v := *o.MaintenancePct
		params.MaintenancePct = &v
	}
	if o.UnitPrice != nil {
		if err := checkBound(ParamUnitPrice, *o.UnitPrice); err != nil {
			return CostParams{}, err
		}
		v := *o.UnitPrice
		params.UnitPrice = &v
	}
	if o.ImplementationDays != nil {
		if err := checkBound(ParamImplementationDays, float64(*o.ImplementationDays)); err != nil {
			return CostParams{}, err
		}
		v := *o.ImplementationDays
		params.ImplementationDays = &v
	}
	return params, nil
}

func checkBound(name string, v float64) error {
	b := ParameterBounds[name]
	if math.IsNaN(v) || !b.Contains(v) {
		return &ValidationError{Field: "overrides." + name, Reason: fmt.Sprintf("%g outside [%g, %g]", v, b.Min, b.Max)}
	}
	return nil
}

func normalizeFrameworks(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, fw := range in {
		fw = strings.ToLower(strings.TrimSpace(fw))
		if fw == "" {
			continue
		}
		if _, dup := seen[fw]; dup {
			continue
		}
		seen[fw] = struct{}{}
		out = append(out, fw)
	}
	sort.Strings(out)
	return out
}

func validationFromTags(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "organization", Reason: err.Error()}
	}
	fe := verrs[0]
	reason := "failed " + fe.Tag()
	if fe.Param() != "" {
		reason += "=" + fe.Param()
	}
	return &ValidationError{Field: fe.Field(), Reason: fmt.Sprintf("%s (got %v)", reason, fe.Value())}
}

// WithDeviceCount returns a copy with a new device count. The size tier is
// re-derived unless the caller pinned it.
func (p Profile) WithDeviceCount(n int) Profile {
	p.DeviceCount = n
	if !p.TierExplicit {
		p.SizeTier = catalog.TierForDevices(n)
	}
	return p
}

// WithYears returns a copy projecting over n years.
func (p Profile) WithYears(n int) Profile {
	p.YearsToProject = n
	return p
}

func (p Profile) riskMultiplier() float64 {
	if m, ok := riskMultipliers[p.RiskProfile]; ok {
		return m
	}
	return 1
}

func (p Profile) insuranceMultiplier() float64 {
	if m, ok := insuranceMultipliers[p.InsuranceTier]; ok {
		return m
	}
	return 1
}
