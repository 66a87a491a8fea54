package tco

import (
	"sort"

	"github.com/joelkehle/nac-tco/internal/catalog"
)

// VendorResult bundles every model output for one vendor.
type VendorResult struct {
	Vendor catalog.Vendor `json:"vendor"`
	Cost   CostBreakdown  `json:"cost"`
	Risk   RiskAssessment `json:"risk"`
	ROI    ROIResult      `json:"roi"`
}

func (r VendorResult) ID() string { return r.Vendor.ID }

type ComparisonTable struct {
	TCO                 map[string]float64 `json:"tco"`
	ImplementationDays  map[string]int     `json:"implementation_days"`
	SecurityImprovement map[string]float64 `json:"security_improvement"`
	FeatureCoverage     map[string]float64 `json:"feature_coverage"`
	ComplianceCoverage  map[string]float64 `json:"compliance_coverage"`
	RequirementFit      map[string]float64 `json:"requirement_fit"`
	Ranking             []string           `json:"ranking"`
}

// Aggregate folds per-vendor results into the comparison table. Security
// improvement is measured against the no-NAC result when present.
func Aggregate(results []VendorResult, p Profile) ComparisonTable {
	out := ComparisonTable{
		TCO:                 make(map[string]float64, len(results)),
		ImplementationDays:  make(map[string]int, len(results)),
		SecurityImprovement: make(map[string]float64, len(results)),
		FeatureCoverage:     make(map[string]float64, len(results)),
		ComplianceCoverage:  make(map[string]float64, len(results)),
		RequirementFit:      make(map[string]float64, len(results)),
	}

	baselineRisk := -1.0
	for _, r := range results {
		if r.ID() == catalog.BaselineVendorID {
			baselineRisk = r.Risk.CompositeRiskScore
		}
	}

	for _, r := range results {
		id := r.ID()
		out.TCO[id] = r.Cost.TotalTCO
		days := r.Vendor.Implementation.Days
		if p.Params.ImplementationDays != nil && r.Vendor.ProvidesNAC() {
			days = *p.Params.ImplementationDays
		}
		out.ImplementationDays[id] = days
		if baselineRisk > 0 {
			out.SecurityImprovement[id] = (baselineRisk - r.Risk.CompositeRiskScore) / baselineRisk * 100
		} else {
			out.SecurityImprovement[id] = 0
		}
		out.FeatureCoverage[id] = featureCoverage(r.Vendor)
		out.ComplianceCoverage[id] = complianceCoverage(r.Vendor, p.ComplianceRequirements)
		out.RequirementFit[id] = requirementFit(r.Vendor, p.Network)
		out.Ranking = append(out.Ranking, id)
	}

	byID := make(map[string]VendorResult, len(results))
	for _, r := range results {
		byID[r.ID()] = r
	}
	sort.SliceStable(out.Ranking, func(i, j int) bool {
		a, b := byID[out.Ranking[i]], byID[out.Ranking[j]]
		if a.Cost.Degraded != b.Cost.Degraded {
			return !a.Cost.Degraded
		}
		if a.Cost.TotalTCO != b.Cost.TotalTCO {
			return a.Cost.TotalTCO < b.Cost.TotalTCO
		}
		ra, rb := a.ROI.ROIPercentage, b.ROI.ROIPercentage
		if ra.Defined != rb.Defined {
			return ra.Defined
		}
		if ra.Defined && ra.Value != rb.Value {
			return ra.Value > rb.Value
		}
		return a.ID() < b.ID()
	})
	return out
}

func featureCoverage(v catalog.Vendor) float64 {
	if len(v.Features) == 0 {
		return 0
	}
	on := 0
	for _, enabled := range v.Features {
		if enabled {
			on++
		}
	}
	return float64(on) / float64(len(v.Features)) * 100
}

// complianceCoverage is the mean coverage, in percent, of the required
// frameworks. With no requirements it falls back to every framework the
// vendor lists.
func complianceCoverage(v catalog.Vendor, required []string) float64 {
	if len(required) == 0 {
		if len(v.Compliance) == 0 {
			return 0
		}
		total := 0.0
		for _, c := range v.Compliance {
			total += float64(c)
		}
		return total / float64(len(v.Compliance)) * 100
	}
	total := 0.0
	for _, fw := range required {
		total += float64(v.Compliance[fw])
	}
	return total / float64(len(required)) * 100
}

func requirementFit(v catalog.Vendor, need catalog.NetworkRequirements) float64 {
	have := v.Capabilities.Flags()
	wanted, met := 0, 0
	for name, on := range need.Flags() {
		if !on {
			continue
		}
		wanted++
		if have[name] {
			met++
		}
	}
	if wanted == 0 {
		return 100
	}
	return float64(met) / float64(wanted) * 100
}
