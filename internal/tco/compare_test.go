package tco

import (
	"testing"

	"github.com/joelkehle/nac-tco/internal/catalog"
)

func result(id string, tco float64, roi Metric, degraded bool) VendorResult {
	return VendorResult{
		Vendor: catalog.Vendor{ID: id, Architecture: catalog.ArchCloud},
		Cost:   CostBreakdown{VendorID: id, TotalTCO: tco, Degraded: degraded},
		ROI:    ROIResult{VendorID: id, ROIPercentage: roi},
	}
}

func TestAggregateRanking(t *testing.T) {
	p := mustResolve(t, Organization{DeviceCount: 100})
	in := []VendorResult{
		result("broken", 0, Undefined(), true),
		result("b", 200, Defined(10), false),
		result("a", 200, Defined(10), false),
		result("c", 200, Defined(50), false),
		result("d", 200, Undefined(), false),
		result("cheap", 100, Defined(1), false),
	}
	got := Aggregate(in, p).Ranking
	want := []string{"cheap", "c", "a", "b", "d", "broken"}
	if len(got) != len(want) {
		t.Fatalf("ranking length: got=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking: got=%v want=%v", got, want)
		}
	}
}

func TestAggregateSecurityImprovement(t *testing.T) {
	p := mustResolve(t, Organization{DeviceCount: 100})
	base := result(catalog.BaselineVendorID, 10, Defined(0), false)
	base.Risk.CompositeRiskScore = 40
	nac := result("nac", 20, Defined(5), false)
	nac.Risk.CompositeRiskScore = 10
	got := Aggregate([]VendorResult{base, nac}, p)
	if diff(got.SecurityImprovement["nac"], 75) > 1e-9 {
		t.Fatalf("security improvement: got=%f want=75", got.SecurityImprovement["nac"])
	}
	if got.SecurityImprovement[catalog.BaselineVendorID] != 0 {
		t.Fatalf("baseline improvement should be 0, got %f", got.SecurityImprovement[catalog.BaselineVendorID])
	}

	alone := Aggregate([]VendorResult{nac}, p)
	if alone.SecurityImprovement["nac"] != 0 {
		t.Fatalf("improvement without a baseline should be 0, got %f", alone.SecurityImprovement["nac"])
	}
}

func TestAggregateCoverage(t *testing.T) {
	p := mustResolve(t, Organization{
		DeviceCount:            100,
		ComplianceRequirements: []string{"pci-dss", "fedramp"},
		NetworkRequirements:    catalog.NetworkRequirements{IoT: true, CloudIntegration: true},
	})
	r := result("v", 1, Defined(1), false)
	r.Vendor.Features = map[string]bool{"a": true, "b": false, "c": true, "d": true}
	r.Vendor.Compliance = map[string]catalog.Coverage{"pci-dss": 1, "fedramp": 0.5}
	r.Vendor.Capabilities = catalog.NetworkRequirements{IoT: true}
	got := Aggregate([]VendorResult{r}, p)
	if got.FeatureCoverage["v"] != 75 {
		t.Fatalf("feature coverage: got=%f want=75", got.FeatureCoverage["v"])
	}
	if got.ComplianceCoverage["v"] != 75 {
		t.Fatalf("compliance coverage: got=%f want=75", got.ComplianceCoverage["v"])
	}
	if got.RequirementFit["v"] != 50 {
		t.Fatalf("requirement fit: got=%f want=50", got.RequirementFit["v"])
	}
}
