package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type SizeTier string

const (
	TierSmall      SizeTier = "small"
	TierMedium     SizeTier = "medium"
	TierLarge      SizeTier = "large"
	TierEnterprise SizeTier = "enterprise"
)

var SizeTiers = []SizeTier{TierSmall, TierMedium, TierLarge, TierEnterprise}

// TierForDevices buckets an organization by device count.
func TierForDevices(devices int) SizeTier {
	switch {
	case devices < 1000:
		return TierSmall
	case devices < 5000:
		return TierMedium
	case devices < 20000:
		return TierLarge
	default:
		return TierEnterprise
	}
}

func (t SizeTier) Valid() bool {
	for _, s := range SizeTiers {
		if s == t {
			return true
		}
	}
	return false
}

type Architecture string

const (
	ArchCloud      Architecture = "cloud"
	ArchOnPremises Architecture = "on-premises"
	ArchHybrid     Architecture = "hybrid"
	ArchNone       Architecture = "none"
)

type ThreatCategory string

const (
	ThreatUnauthorizedAccess ThreatCategory = "unauthorized_access"
	ThreatLateralMovement    ThreatCategory = "lateral_movement"
	ThreatCompromisedDevice  ThreatCategory = "compromised_device"
	ThreatRansomware         ThreatCategory = "ransomware"
	ThreatIoTExploitation    ThreatCategory = "iot_exploitation"
	ThreatInsider            ThreatCategory = "insider_threat"
)

var ThreatCategories = []ThreatCategory{
	ThreatUnauthorizedAccess,
	ThreatLateralMovement,
	ThreatCompromisedDevice,
	ThreatRansomware,
	ThreatIoTExploitation,
	ThreatInsider,
}

// NetworkRequirements doubles as the organization's needs and a vendor's
// supported capabilities.
type NetworkRequirements struct {
	CloudIntegration bool `yaml:"cloud_integration" json:"cloud_integration"`
	LegacyDevices    bool `yaml:"legacy_devices" json:"legacy_devices"`
	BYOD             bool `yaml:"byod" json:"byod"`
	IoT              bool `yaml:"iot" json:"iot"`
	Wireless         bool `yaml:"wireless" json:"wireless"`
	RemoteWork       bool `yaml:"remote_work" json:"remote_work"`
}

// Flags returns the requirement flags keyed by their wire names.
func (n NetworkRequirements) Flags() map[string]bool {
	return map[string]bool{
		"cloud_integration": n.CloudIntegration,
		"legacy_devices":    n.LegacyDevices,
		"byod":              n.BYOD,
		"iot":               n.IoT,
		"wireless":          n.Wireless,
		"remote_work":       n.RemoteWork,
	}
}

type Implementation struct {
	Days    int     `yaml:"days" json:"days" validate:"gte=0,lte=730"`
	CostPct float64 `yaml:"cost_pct" json:"cost_pct" validate:"gte=0,lte=2"`
}

type FTE struct {
	Required float64 `yaml:"required" json:"required" validate:"gte=0,lte=20"`
}

type Maintenance struct {
	Pct           float64 `yaml:"pct" json:"pct" validate:"gte=0,lte=1"`
	DowntimeHours float64 `yaml:"downtime_hours" json:"downtime_hours" validate:"gte=0,lte=8760"`
}

// SecurityScores are 0-100 sub-scores.
type SecurityScores struct {
	ZeroTrust        float64 `yaml:"zero_trust" json:"zero_trust" validate:"gte=0,lte=100"`
	DeviceAuth       float64 `yaml:"device_auth" json:"device_auth" validate:"gte=0,lte=100"`
	RiskAssessment   float64 `yaml:"risk_assessment" json:"risk_assessment" validate:"gte=0,lte=100"`
	RemediationSpeed float64 `yaml:"remediation_speed" json:"remediation_speed" validate:"gte=0,lte=100"`
}

// Coverage is a compliance coverage fraction in [0,1]. YAML input accepts
// booleans or percentages.
type Coverage float64

func (c *Coverage) UnmarshalYAML(node *yaml.Node) error {
	trimmed := strings.TrimSpace(node.Value)
	pct := strings.HasSuffix(trimmed, "%")
	raw := strings.TrimSpace(strings.TrimSuffix(trimmed, "%"))
	switch strings.ToLower(raw) {
	case "true", "yes":
		*c = 1
		return nil
	case "false", "no", "":
		*c = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("coverage %q: %w", node.Value, err)
	}
	// A bare number above one is a percentage; a suffixed one always is.
	if pct || v > 1 {
		v = v / 100
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("coverage %q out of range", node.Value)
	}
	*c = Coverage(v)
	return nil
}

type Vendor struct {
	ID                      string                     `yaml:"id" json:"id" validate:"required"`
	Name                    string                     `yaml:"name" json:"name" validate:"required"`
	Architecture            Architecture               `yaml:"architecture" json:"architecture" validate:"oneof=cloud on-premises hybrid none"`
	Pricing                 map[SizeTier]float64       `yaml:"pricing" json:"pricing,omitempty" validate:"omitempty,dive,gte=0"`
	SubscriptionDiscountPct float64                    `yaml:"subscription_discount_pct" json:"subscription_discount_pct" validate:"gte=0,lt=1"`
	Hardware                map[SizeTier]float64       `yaml:"hardware" json:"hardware,omitempty" validate:"omitempty,dive,gte=0"`
	Implementation          Implementation             `yaml:"implementation" json:"implementation"`
	FTE                     FTE                        `yaml:"fte" json:"fte"`
	Maintenance             Maintenance                `yaml:"maintenance" json:"maintenance"`
	Security                SecurityScores             `yaml:"security" json:"security"`
	Mitigation              map[ThreatCategory]float64 `yaml:"mitigation" json:"mitigation,omitempty" validate:"omitempty,dive,gte=0,lte=1"`
	Compliance              map[string]Coverage        `yaml:"compliance" json:"compliance,omitempty"`
	Features                map[string]bool            `yaml:"features" json:"features,omitempty"`
	Capabilities            NetworkRequirements        `yaml:"capabilities" json:"capabilities"`
}

// ProvidesNAC reports whether the vendor is an actual access-control product
// rather than the manual baseline.
func (v Vendor) ProvidesNAC() bool { return v.Architecture != ArchNone }

type ThreatVector struct {
	Category  ThreatCategory `yaml:"category" json:"category" validate:"required"`
	Impact    float64        `yaml:"impact" json:"impact" validate:"gte=0,lte=100"`
	Frequency float64        `yaml:"frequency" json:"frequency" validate:"gte=0,lte=100"`
}

type Industry struct {
	ID                          string         `yaml:"id" json:"id" validate:"required"`
	Name                        string         `yaml:"name" json:"name" validate:"required"`
	AverageDeviceCount          int            `yaml:"average_device_count" json:"average_device_count" validate:"gt=0"`
	BreachProbabilityWithoutNAC float64        `yaml:"breach_probability_without_nac" json:"breach_probability_without_nac" validate:"gt=0,lte=1"`
	BreachProbabilityWithNAC    float64        `yaml:"breach_probability_with_nac" json:"breach_probability_with_nac" validate:"gte=0,lte=1,ltefield=BreachProbabilityWithoutNAC"`
	CostPerRecord               float64        `yaml:"cost_per_record" json:"cost_per_record" validate:"gte=0"`
	RecordsAtRisk               float64        `yaml:"records_at_risk" json:"records_at_risk" validate:"gte=0"`
	InsurancePremiumWithoutNAC  float64        `yaml:"insurance_premium_without_nac" json:"insurance_premium_without_nac" validate:"gte=0"`
	InsurancePremiumWithNAC     float64        `yaml:"insurance_premium_with_nac" json:"insurance_premium_with_nac" validate:"gte=0,ltefield=InsurancePremiumWithoutNAC"`
	ThreatVectors               []ThreatVector `yaml:"threat_vectors" json:"threat_vectors" validate:"required,min=1,dive"`
	ComplianceFrameworks        []string       `yaml:"compliance_frameworks" json:"compliance_frameworks"`
}
