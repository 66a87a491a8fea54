package tco

import (
	"github.com/joelkehle/nac-tco/internal/catalog"
)

const maxBreachProbability = 0.95

// Network exposure raises the frequency of specific threat categories.
var requirementFrequencyBoost = []struct {
	enabled  func(catalog.NetworkRequirements) bool
	category catalog.ThreatCategory
	factor   float64
}{
	{func(n catalog.NetworkRequirements) bool { return n.IoT }, catalog.ThreatIoTExploitation, 1.25},
	{func(n catalog.NetworkRequirements) bool { return n.BYOD }, catalog.ThreatCompromisedDevice, 1.2},
	{func(n catalog.NetworkRequirements) bool { return n.RemoteWork }, catalog.ThreatUnauthorizedAccess, 1.15},
}

type RiskAssessment struct {
	VendorID                   string                             `json:"vendor_id"`
	Industry                   string                             `json:"industry"`
	UsedDefaultIndustry        bool                               `json:"used_default_industry"`
	HasNAC                     bool                               `json:"has_nac"`
	MitigationEffectiveness    float64                            `json:"mitigation_effectiveness"`
	BreachProbability          float64                            `json:"breach_probability"`
	BaselineBreachProbability  float64                            `json:"baseline_breach_probability"`
	RecordsAtRisk              float64                            `json:"records_at_risk"`
	BreachImpact               float64                            `json:"breach_impact"`
	ExpectedAnnualBreachCost   float64                            `json:"expected_annual_breach_cost"`
	InsurancePremium           float64                            `json:"insurance_premium"`
	InsurancePremiumWithNAC    float64                            `json:"insurance_premium_with_nac"`
	InsurancePremiumWithoutNAC float64                            `json:"insurance_premium_without_nac"`
	CompositeRiskScore         float64                            `json:"composite_risk_score"`
	ThreatScores               map[catalog.ThreatCategory]float64 `json:"threat_scores"`
}

// AssessRisk scores the residual breach exposure of an organization running
// vendor v. With hasNAC false the vendor's controls are ignored, which gives
// the unprotected baseline for the same industry and size.
func AssessRisk(v catalog.Vendor, p Profile, hasNAC bool) RiskAssessment {
	ind := p.Industry
	out := RiskAssessment{
		VendorID:            v.ID,
		Industry:            ind.ID,
		UsedDefaultIndustry: p.UsedDefaultIndustry,
		HasNAC:              hasNAC && v.ProvidesNAC(),
		ThreatScores:        make(map[catalog.ThreatCategory]float64, len(ind.ThreatVectors)),
	}

	mitigation := map[catalog.ThreatCategory]float64{}
	if out.HasNAC {
		mitigation = Mitigation(v)
	}

	exposure := 0.0
	effectiveness := 0.0
	for _, tv := range ind.ThreatVectors {
		freq := tv.Frequency
		for _, boost := range requirementFrequencyBoost {
			if boost.category == tv.Category && boost.enabled(p.Network) {
				freq *= boost.factor
			}
		}
		if freq > 100 {
			freq = 100
		}
		m := mitigation[tv.Category]
		score := tv.Impact * freq / 100 * (1 - m)
		out.ThreatScores[tv.Category] = score
		exposure += score
		effectiveness += m
	}
	if n := len(ind.ThreatVectors); n > 0 {
		exposure /= float64(n)
		effectiveness /= float64(n)
	}
	out.MitigationEffectiveness = effectiveness

	ratio := deviceRatio(p)
	riskMult := p.riskMultiplier()
	out.BaselineBreachProbability = clamp(ind.BreachProbabilityWithoutNAC*ratio*riskMult, 0, maxBreachProbability)
	out.BreachProbability = clamp(interpolate(ind.BreachProbabilityWithoutNAC, ind.BreachProbabilityWithNAC, effectiveness)*ratio*riskMult, 0, maxBreachProbability)

	if ind.BreachProbabilityWithoutNAC > 0 {
		out.CompositeRiskScore = clamp(exposure*out.BreachProbability/ind.BreachProbabilityWithoutNAC, 0, 100)
	}

	out.RecordsAtRisk = ind.RecordsAtRisk * ratio
	out.BreachImpact = out.RecordsAtRisk * ind.CostPerRecord
	out.ExpectedAnnualBreachCost = out.BreachImpact * out.BreachProbability

	tierMult := p.insuranceMultiplier()
	out.InsurancePremiumWithoutNAC = ind.InsurancePremiumWithoutNAC * ratio * tierMult
	out.InsurancePremiumWithNAC = interpolate(ind.InsurancePremiumWithoutNAC, ind.InsurancePremiumWithNAC, effectiveness) * ratio * tierMult
	out.InsurancePremium = out.InsurancePremiumWithoutNAC
	if out.HasNAC {
		out.InsurancePremium = out.InsurancePremiumWithNAC
	}
	return out
}

// Mitigation returns the vendor's per-category mitigation fraction. Explicit
// catalog entries win; the rest derive from the security sub-scores.
func Mitigation(v catalog.Vendor) map[catalog.ThreatCategory]float64 {
	s := v.Security
	derived := map[catalog.ThreatCategory]float64{
		catalog.ThreatUnauthorizedAccess: s.DeviceAuth,
		catalog.ThreatLateralMovement:    s.ZeroTrust,
		catalog.ThreatCompromisedDevice:  s.RiskAssessment,
		catalog.ThreatRansomware:         s.RemediationSpeed,
		catalog.ThreatIoTExploitation:    (s.DeviceAuth + s.RiskAssessment) / 2,
		catalog.ThreatInsider:            s.ZeroTrust,
	}
	out := make(map[catalog.ThreatCategory]float64, len(derived))
	for cat, score := range derived {
		out[cat] = clamp(score/100, 0, 1)
	}
	for cat, m := range v.Mitigation {
		out[cat] = clamp(m, 0, 1)
	}
	return out
}

func deviceRatio(p Profile) float64 {
	if p.Industry.AverageDeviceCount <= 0 {
		return 1
	}
	return float64(p.DeviceCount) / float64(p.Industry.AverageDeviceCount)
}

// interpolate moves from the unprotected figure toward the protected one in
// proportion to effectiveness.
func interpolate(without, with, effectiveness float64) float64 {
	return without - (without-with)*clamp(effectiveness, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
