package catalog

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultCatalogContents(t *testing.T) {
	c := Default()
	want := []string{"portnox", "cisco-ise", "aruba-clearpass", "forescout", "fortinac", "juniper-mist", "arista-agni", "securew2", BaselineVendorID}
	got := c.VendorIDs()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("vendor ids: got=%v want=%v", got, want)
	}
	if len(c.Industries()) != 7 {
		t.Fatalf("expected 7 industries, got %d", len(c.Industries()))
	}
	if c.DefaultIndustry().ID != DefaultIndustryID {
		t.Fatalf("default industry: got=%q", c.DefaultIndustry().ID)
	}
	for _, v := range c.Vendors() {
		if !v.ProvidesNAC() {
			continue
		}
		for _, tier := range SizeTiers {
			if _, ok := v.Pricing[tier]; !ok {
				t.Fatalf("%s: missing %s pricing", v.ID, tier)
			}
		}
		if v.Architecture != ArchCloud {
			for _, tier := range SizeTiers {
				if _, ok := v.Hardware[tier]; !ok {
					t.Fatalf("%s: missing %s hardware", v.ID, tier)
				}
			}
		}
	}
}

func TestCatalogLookupsReturnCopies(t *testing.T) {
	c := Default()
	v, _ := c.Vendor("portnox")
	v.Pricing[TierSmall] = 999
	again, _ := c.Vendor("portnox")
	if again.Pricing[TierSmall] == 999 {
		t.Fatal("catalog mutated through a returned vendor")
	}
	ind, ok := c.Industry("  HealthCare ")
	if !ok || ind.ID != "healthcare" {
		t.Fatalf("case-insensitive industry lookup failed: %+v", ind.ID)
	}
}

func TestTierForDevices(t *testing.T) {
	cases := map[int]SizeTier{1: TierSmall, 999: TierSmall, 1000: TierMedium, 4999: TierMedium, 5000: TierLarge, 19999: TierLarge, 20000: TierEnterprise}
	for n, want := range cases {
		if got := TierForDevices(n); got != want {
			t.Fatalf("%d devices: got=%s want=%s", n, got, want)
		}
	}
}

const sampleCatalog = `
vendors:
  - id: acme
    name: Acme NAC
    architecture: cloud
    pricing: {small: 5, medium: 4, large: 3, enterprise: 2}
    implementation: {days: 10, cost_pct: 0.1}
    fte: {required: 0.5}
    maintenance: {downtime_hours: 3}
    security: {zero_trust: 80, device_auth: 80, risk_assessment: 70, remediation_speed: 60}
    compliance:
      pci-dss: true
      hipaa: 85
      gdpr: "50%"
      sox: no
    capabilities: {cloud_integration: true, iot: true}
  - id: no-nac
    name: Nothing
    architecture: none
    fte: {required: 1}
`

func TestParseCatalog(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v, ok := c.Vendor("acme")
	if !ok {
		t.Fatal("acme missing")
	}
	want := map[string]Coverage{"pci-dss": 1, "hipaa": 0.85, "gdpr": 0.5, "sox": 0}
	for fw, cov := range want {
		if v.Compliance[fw] != cov {
			t.Fatalf("%s coverage: got=%v want=%v", fw, v.Compliance[fw], cov)
		}
	}
	if !v.Capabilities.IoT || v.Capabilities.BYOD {
		t.Fatalf("capabilities: %+v", v.Capabilities)
	}
	if len(c.Industries()) != len(defaultIndustries) {
		t.Fatal("expected built-in industries when the section is absent")
	}
}

func TestCoveragePercentSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want Coverage
	}{
		{`"50%"`, 0.5},
		{`"1%"`, 0.01},
		{`"0.5%"`, 0.005},
		{`"100%"`, 1},
		{`" 25 % "`, 0.25},
		{`0.85`, 0.85},
		{`85`, 0.85},
		{`1`, 1},
	}
	for _, tc := range cases {
		var c Coverage
		if err := yaml.Unmarshal([]byte(tc.in), &c); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if math.Abs(float64(c-tc.want)) > 1e-12 {
			t.Fatalf("%s: got=%v want=%v", tc.in, c, tc.want)
		}
	}
	var c Coverage
	if err := yaml.Unmarshal([]byte(`"150%"`), &c); err == nil {
		t.Fatal("expected out of range error for 150%")
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Vendors()) != 2 {
		t.Fatalf("expected 2 vendors, got %d", len(c.Vendors()))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewRejectsInvalidData(t *testing.T) {
	base := func() Vendor {
		v, _ := Default().Vendor("portnox")
		return v
	}
	cases := []struct {
		name   string
		mutate func(*Vendor)
		want   string
	}{
		{"missing id", func(v *Vendor) { v.ID = " " }, "ID"},
		{"bad architecture", func(v *Vendor) { v.Architecture = "mainframe" }, "Architecture"},
		{"negative price", func(v *Vendor) { v.Pricing[TierSmall] = -1 }, "Pricing"},
		{"unknown tier", func(v *Vendor) { v.Pricing["galactic"] = 1 }, "unknown pricing tier"},
		{"security above 100", func(v *Vendor) { v.Security.ZeroTrust = 140 }, "ZeroTrust"},
		{"unknown category", func(v *Vendor) { v.Mitigation = map[ThreatCategory]float64{"meteor": 0.5} }, "unknown threat category"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := base()
			tc.mutate(&v)
			_, err := New([]Vendor{v}, Default().Industries())
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}

	dup := base()
	if _, err := New([]Vendor{dup, dup}, Default().Industries()); err == nil {
		t.Fatal("expected duplicate vendor error")
	}

	ind := Default().Industries()[0]
	ind.BreachProbabilityWithNAC = ind.BreachProbabilityWithoutNAC + 0.1
	if _, err := New([]Vendor{base()}, []Industry{ind}); err == nil {
		t.Fatal("expected error when protected probability exceeds unprotected")
	}
}

func TestCoverageRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("vendors:\n  - id: x\n    name: X\n    architecture: none\n    compliance: {pci-dss: lots}\n"))
	if err == nil {
		t.Fatal("expected coverage parse error")
	}
}
