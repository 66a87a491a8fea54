package tco

// BenefitPolicy holds the empirical constants behind the auxiliary benefit
// lines. Nil fractions fall back to values derived from the risk assessment.
type BenefitPolicy struct {
	ProductivityPerDevice      float64  `json:"productivity_per_device" yaml:"productivity_per_device" mapstructure:"productivity_per_device"`
	CompliancePerFramework     float64  `json:"compliance_per_framework" yaml:"compliance_per_framework" mapstructure:"compliance_per_framework"`
	RiskReductionFraction      *float64 `json:"risk_reduction_fraction,omitempty" yaml:"risk_reduction_fraction" mapstructure:"risk_reduction_fraction"`
	InsuranceReductionFraction *float64 `json:"insurance_reduction_fraction,omitempty" yaml:"insurance_reduction_fraction" mapstructure:"insurance_reduction_fraction"`
}

func DefaultBenefitPolicy() BenefitPolicy {
	return BenefitPolicy{
		ProductivityPerDevice:  50,
		CompliancePerFramework: 10000,
	}
}

type ROIResult struct {
	VendorID             string  `json:"vendor_id"`
	BaselineID           string  `json:"baseline_id"`
	CostSavings          float64 `json:"cost_savings"`
	RiskReductionBenefit float64 `json:"risk_reduction_benefit"`
	InsuranceSavings     float64 `json:"insurance_savings"`
	ProductivityBenefit  float64 `json:"productivity_benefit"`
	ComplianceSavings    float64 `json:"compliance_savings"`
	TotalBenefits        float64 `json:"total_benefits"`
	ROIPercentage        Metric  `json:"roi_percentage"`
	PaybackMonths        Metric  `json:"payback_months"`
	AnnualSavings        float64 `json:"annual_savings"`
}

// ComputeROI compares a vendor against the baseline. ROI and payback are
// undefined, not infinite, when the vendor's TCO is zero.
func ComputeROI(vendorCost, baselineCost CostBreakdown, vendorRisk RiskAssessment, p Profile, policy BenefitPolicy) ROIResult {
	years := float64(p.YearsToProject)
	if years <= 0 {
		years = DefaultYearsToProject
	}
	out := ROIResult{
		VendorID:    vendorCost.VendorID,
		BaselineID:  baselineCost.VendorID,
		CostSavings: baselineCost.TotalTCO - vendorCost.TotalTCO,
	}

	if vendorRisk.HasNAC {
		riskFraction := vendorRisk.MitigationEffectiveness
		if policy.RiskReductionFraction != nil {
			riskFraction = *policy.RiskReductionFraction
		}
		out.RiskReductionBenefit = vendorRisk.BreachImpact * vendorRisk.BaselineBreachProbability * riskFraction * years

		insuranceFraction := 0.0
		if vendorRisk.InsurancePremiumWithoutNAC > 0 {
			insuranceFraction = 1 - vendorRisk.InsurancePremiumWithNAC/vendorRisk.InsurancePremiumWithoutNAC
		}
		if policy.InsuranceReductionFraction != nil {
			insuranceFraction = *policy.InsuranceReductionFraction
		}
		out.InsuranceSavings = vendorRisk.InsurancePremiumWithoutNAC * insuranceFraction * years

		out.ProductivityBenefit = float64(p.DeviceCount) * policy.ProductivityPerDevice * years
		out.ComplianceSavings = float64(len(p.ComplianceRequirements)) * policy.CompliancePerFramework * years
	}

	out.TotalBenefits = out.CostSavings + out.RiskReductionBenefit + out.InsuranceSavings + out.ProductivityBenefit + out.ComplianceSavings
	out.AnnualSavings = out.CostSavings / years

	investment := vendorCost.TotalTCO
	if investment <= 0 {
		out.ROIPercentage = Undefined()
		out.PaybackMonths = Undefined()
		return out
	}
	out.ROIPercentage = Defined(out.TotalBenefits / investment * 100)

	monthlyBenefit := out.TotalBenefits / (years * 12)
	if monthlyBenefit <= 0 {
		out.PaybackMonths = Undefined()
		return out
	}
	payback := investment / monthlyBenefit
	if payback < 1 {
		payback = 1
	}
	out.PaybackMonths = Defined(payback)
	return out
}
