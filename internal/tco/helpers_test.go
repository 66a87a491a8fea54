package tco

import (
	"math"
	"testing"

	"github.com/joelkehle/nac-tco/internal/catalog"
)

func diff(a, b float64) float64 { return math.Abs(a - b) }

func mustResolve(t *testing.T, org Organization) Profile {
	t.Helper()
	p, err := Resolve(org, catalog.Default())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return p
}

func mustVendor(t *testing.T, id string) catalog.Vendor {
	t.Helper()
	v, ok := catalog.Default().Vendor(id)
	if !ok {
		t.Fatalf("vendor %q missing from default catalog", id)
	}
	return v
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
