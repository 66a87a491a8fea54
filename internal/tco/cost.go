package tco

import (
	"fmt"
	"math"

	"github.com/joelkehle/nac-tco/internal/catalog"
)

const (
	// Ancillary tooling and training on top of a cloud subscription.
	cloudOperationalFactor = 0.05
	// Facility overhead (power, rack space, cooling) on appliance hardware.
	hardwareOverheadFactor = 0.10
)

type YearCost struct {
	Year           int     `json:"year"`
	Cost           float64 `json:"cost"`
	CumulativeCost float64 `json:"cumulative_cost"`
}

// CostBreakdown components are pre-adjustment figures; AdjustmentFactor is the
// economic multiplier already folded into AnnualCosts.
type CostBreakdown struct {
	VendorID         string     `json:"vendor_id"`
	Architecture     string     `json:"architecture"`
	Hardware         float64    `json:"hardware"`
	Software         float64    `json:"software"`
	Implementation   float64    `json:"implementation"`
	Maintenance      float64    `json:"maintenance"`
	Personnel        float64    `json:"personnel"`
	Downtime         float64    `json:"downtime"`
	Operational      float64    `json:"operational"`
	InitialCosts     float64    `json:"initial_costs"`
	AnnualCosts      float64    `json:"annual_costs"`
	AdjustmentFactor float64    `json:"adjustment_factor"`
	TotalTCO         float64    `json:"total_tco"`
	Yearly           []YearCost `json:"yearly"`
	Degraded         bool       `json:"degraded,omitempty"`
	Issues           []string   `json:"issues,omitempty"`
}

// Available is false for zero-filled fallbacks. A zero TCO from a degraded
// breakdown means "unknown", never "free".
func (c CostBreakdown) Available() bool { return !c.Degraded }

// ComputeCost builds the initial and recurring cost breakdown for one vendor.
// Missing vendor or pricing data yields a zero-filled degraded breakdown
// together with a *DataIntegrityError; callers log it and carry on.
func ComputeCost(v catalog.Vendor, p Profile) (CostBreakdown, error) {
	out := CostBreakdown{VendorID: v.ID, Architecture: string(v.Architecture)}
	if v.ID == "" {
		return degraded(out, &DataIntegrityError{VendorID: "", Reason: "vendor missing from catalog"})
	}
	years := p.YearsToProject
	if years <= 0 {
		years = DefaultYearsToProject
	}

	out.Personnel = p.Params.FTECost * v.FTE.Required * p.Params.FTEAllocation
	out.Downtime = v.Maintenance.DowntimeHours * p.Params.DowntimeCostPerHour

	switch v.Architecture {
	case catalog.ArchNone:
		// manual controls: people and outages only
	case catalog.ArchCloud:
		unit, err := unitPrice(v, p)
		if err != nil {
			return degraded(out, err)
		}
		subscription := unit * float64(p.DeviceCount) * 12
		out.Software = subscription
		out.Implementation = subscription * v.Implementation.CostPct * implementationScale(v, p)
		out.Operational = subscription * cloudOperationalFactor
	case catalog.ArchOnPremises, catalog.ArchHybrid:
		unit, err := unitPrice(v, p)
		if err != nil {
			return degraded(out, err)
		}
		license := unit * float64(p.DeviceCount)
		out.Hardware = v.Hardware[p.SizeTier]
		out.Software = license
		out.Implementation = license * v.Implementation.CostPct * implementationScale(v, p)
		maintPct := v.Maintenance.Pct
		if p.Params.MaintenancePct != nil {
			maintPct = *p.Params.MaintenancePct
		}
		out.Maintenance = license * maintPct
		out.Operational = out.Hardware * hardwareOverheadFactor / float64(years)
	default:
		return degraded(out, &DataIntegrityError{VendorID: v.ID, Reason: fmt.Sprintf("unknown architecture %q", v.Architecture)})
	}

	var recurring float64
	if v.Architecture == catalog.ArchCloud {
		out.InitialCosts = out.Implementation
		recurring = out.Software + out.Personnel + out.Downtime + out.Operational
	} else {
		out.InitialCosts = out.Hardware + out.Software + out.Implementation
		recurring = out.Maintenance + out.Personnel + out.Downtime + out.Operational
	}
	out.AdjustmentFactor = adjustmentFactor(p.Params)
	out.AnnualCosts = recurring * out.AdjustmentFactor
	out.Yearly = yearlySchedule(out.InitialCosts, out.AnnualCosts, years, p.Params)
	out.TotalTCO = out.Yearly[len(out.Yearly)-1].CumulativeCost
	return out, nil
}

func unitPrice(v catalog.Vendor, p Profile) (float64, *DataIntegrityError) {
	price, ok := v.Pricing[p.SizeTier]
	if p.Params.UnitPrice != nil {
		price, ok = *p.Params.UnitPrice, true
	}
	if !ok {
		return 0, &DataIntegrityError{VendorID: v.ID, Reason: fmt.Sprintf("no pricing for tier %q", p.SizeTier)}
	}
	return price * (1 - v.SubscriptionDiscountPct), nil
}

func implementationScale(v catalog.Vendor, p Profile) float64 {
	if p.Params.ImplementationDays == nil || v.Implementation.Days <= 0 {
		return 1
	}
	return float64(*p.Params.ImplementationDays) / float64(v.Implementation.Days)
}

// adjustmentFactor folds currency and negotiated discount into one
// multiplier; each is 1 when disabled.
func adjustmentFactor(params CostParams) float64 {
	f := 1.0
	if params.CurrencyEnabled {
		f *= params.CurrencyRate
	}
	f *= 1 - params.DiscountPct
	return f
}

func yearlySchedule(initial, annual float64, years int, params CostParams) []YearCost {
	out := make([]YearCost, 0, years)
	cumulative := 0.0
	for year := 1; year <= years; year++ {
		cost := annual
		if params.InflationEnabled {
			cost = annual * math.Pow(1+params.InflationRate, float64(year-1))
		}
		if year == 1 {
			cost += initial
		}
		cumulative += cost
		out = append(out, YearCost{Year: year, Cost: cost, CumulativeCost: cumulative})
	}
	return out
}

func degraded(out CostBreakdown, err *DataIntegrityError) (CostBreakdown, error) {
	zero := CostBreakdown{
		VendorID:     out.VendorID,
		Architecture: out.Architecture,
		Degraded:     true,
		Issues:       []string{err.Error()},
	}
	return zero, err
}
