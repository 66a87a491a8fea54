package tco

import (
	"testing"

	"github.com/joelkehle/nac-tco/internal/catalog"
)

func TestComputeROIAgainstBaseline(t *testing.T) {
	p := mustResolve(t, Organization{DeviceCount: 1000, ComplianceRequirements: []string{"pci-dss", "hipaa"}})
	v := mustVendor(t, "portnox")
	b := mustVendor(t, catalog.BaselineVendorID)
	vc, _ := ComputeCost(v, p)
	bc, _ := ComputeCost(b, p)
	risk := AssessRisk(v, p, true)

	got := ComputeROI(vc, bc, risk, p, DefaultBenefitPolicy())
	if diff(got.CostSavings, bc.TotalTCO-vc.TotalTCO) > 0.001 {
		t.Fatalf("cost savings: got=%f", got.CostSavings)
	}
	if diff(got.ProductivityBenefit, 1000*50*3) > 0.001 {
		t.Fatalf("productivity: got=%f want=150000", got.ProductivityBenefit)
	}
	if diff(got.ComplianceSavings, 2*10000*3) > 0.001 {
		t.Fatalf("compliance: got=%f want=60000", got.ComplianceSavings)
	}
	sum := got.CostSavings + got.RiskReductionBenefit + got.InsuranceSavings + got.ProductivityBenefit + got.ComplianceSavings
	if diff(got.TotalBenefits, sum) > 0.001 {
		t.Fatalf("total benefits %f != sum of lines %f", got.TotalBenefits, sum)
	}
	if !got.ROIPercentage.Defined || diff(got.ROIPercentage.Value, sum/vc.TotalTCO*100) > 1e-6 {
		t.Fatalf("roi: %+v", got.ROIPercentage)
	}
	if !got.PaybackMonths.Defined || got.PaybackMonths.Value < 1 {
		t.Fatalf("payback: %+v", got.PaybackMonths)
	}
	if diff(got.AnnualSavings, got.CostSavings/3) > 0.001 {
		t.Fatalf("annual savings: got=%f", got.AnnualSavings)
	}
}

func TestComputeROIUndefinedOnZeroTCO(t *testing.T) {
	p := mustResolve(t, Organization{DeviceCount: 1000})
	b := mustVendor(t, catalog.BaselineVendorID)
	bc, _ := ComputeCost(b, p)
	free := CostBreakdown{VendorID: "free"}
	got := ComputeROI(free, bc, AssessRisk(mustVendor(t, "portnox"), p, true), p, DefaultBenefitPolicy())
	if got.ROIPercentage.Defined || got.PaybackMonths.Defined {
		t.Fatalf("expected undefined ROI and payback, got roi=%v payback=%v", got.ROIPercentage, got.PaybackMonths)
	}
}

func TestComputeROIBaselineAgainstItself(t *testing.T) {
	p := mustResolve(t, Organization{DeviceCount: 1000, ComplianceRequirements: []string{"sox"}})
	b := mustVendor(t, catalog.BaselineVendorID)
	bc, _ := ComputeCost(b, p)
	got := ComputeROI(bc, bc, AssessRisk(b, p, true), p, DefaultBenefitPolicy())
	if got.TotalBenefits != 0 {
		t.Fatalf("baseline should have no benefits, got %f", got.TotalBenefits)
	}
	if !got.ROIPercentage.Defined || got.ROIPercentage.Value != 0 {
		t.Fatalf("expected 0%% ROI, got %v", got.ROIPercentage)
	}
	if got.PaybackMonths.Defined {
		t.Fatal("payback must be undefined without benefits")
	}
}

func TestComputeROIPolicyOverridesFractions(t *testing.T) {
	p := mustResolve(t, Organization{DeviceCount: 5000})
	v := mustVendor(t, "portnox")
	vc, _ := ComputeCost(v, p)
	bc, _ := ComputeCost(mustVendor(t, catalog.BaselineVendorID), p)
	risk := AssessRisk(v, p, true)

	policy := DefaultBenefitPolicy()
	policy.RiskReductionFraction = floatPtr(0.5)
	policy.InsuranceReductionFraction = floatPtr(0.2)
	got := ComputeROI(vc, bc, risk, p, policy)
	if diff(got.RiskReductionBenefit, risk.BreachImpact*risk.BaselineBreachProbability*0.5*3) > 0.01 {
		t.Fatalf("risk reduction: got=%f", got.RiskReductionBenefit)
	}
	if diff(got.InsuranceSavings, risk.InsurancePremiumWithoutNAC*0.2*3) > 0.01 {
		t.Fatalf("insurance savings: got=%f", got.InsuranceSavings)
	}
}
