package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joelkehle/nac-tco/internal/catalog"
	"github.com/joelkehle/nac-tco/internal/tco"
)

const Disclaimer = "Estimates are modelled from published list pricing and industry breach benchmarks. " +
	"They are not vendor quotes. Validate pricing and assumptions before purchasing decisions."

// Input is everything a report can show. Only Result is required.
type Input struct {
	Result      *tco.Result
	Drivers     map[string][]tco.SensitivityDriver
	Sweep       *tco.SeriesByVendor
	Summary     string
	GeneratedAt time.Time
}

// Markdown renders a comparison run as a markdown document.
func Markdown(in Input) string {
	res := in.Result
	if res == nil {
		return "# NAC Total Cost of Ownership Report\n\nNo results.\n"
	}
	p := res.Profile
	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# NAC Total Cost of Ownership Report\n\n")
	if p.Name != "" {
		fmt.Fprintf(&b, "- Organization: %s\n", sanitize(p.Name))
	}
	fmt.Fprintf(&b, "- Devices: %s (%s tier)\n", groupDigits(int64(p.DeviceCount)), p.SizeTier)
	industry := p.Industry.Name
	if p.UsedDefaultIndustry {
		industry += " (default)"
	}
	fmt.Fprintf(&b, "- Industry: %s\n", industry)
	fmt.Fprintf(&b, "- Projection: %d years\n", p.YearsToProject)
	fmt.Fprintf(&b, "- Risk profile: %s; cyber insurance: %s\n", p.RiskProfile, p.InsuranceTier)
	if len(p.ComplianceRequirements) > 0 {
		fmt.Fprintf(&b, "- Compliance: %s\n", strings.Join(p.ComplianceRequirements, ", "))
	}
	fmt.Fprintf(&b, "- Baseline: %s\n", vendorName(res, res.BaselineID))
	fmt.Fprintf(&b, "- Date: %s\n\n", generated.Format(time.RFC3339))
	fmt.Fprintf(&b, "%s\n\n", Disclaimer)

	if len(res.Warnings) > 0 {
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "> WARNING: %s\n", sanitize(w))
		}
		b.WriteString("\n")
	}

	if s := strings.TrimSpace(in.Summary); s != "" {
		fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n", s)
	}

	writeComparison(&b, res)
	writeCostBreakdown(&b, res)
	writeRisk(&b, res)
	writeROI(&b, res)
	if len(in.Drivers) > 0 {
		writeDrivers(&b, res, in.Drivers)
	}
	if in.Sweep != nil {
		writeSweep(&b, res, *in.Sweep)
	}
	writeMethodology(&b, p)
	return b.String()
}

func writeComparison(b *strings.Builder, res *tco.Result) {
	c := res.Comparison
	fmt.Fprintf(b, "## Vendor Comparison\n\n")
	fmt.Fprintf(b, "| Rank | Vendor | %d-Year TCO | ROI | Payback (months) | Security Improvement | Features | Compliance | Requirement Fit | Deploy (days) |\n", res.Profile.YearsToProject)
	fmt.Fprintf(b, "|---:|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for i, r := range res.Ranked() {
		id := r.ID()
		tcoCell := USD(c.TCO[id])
		if r.Cost.Degraded {
			tcoCell = "unavailable"
		}
		fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s | %d |\n",
			i+1,
			sanitizeCell(r.Vendor.Name),
			tcoCell,
			MetricPercent(r.ROI.ROIPercentage),
			Months(r.ROI.PaybackMonths),
			Percent(c.SecurityImprovement[id]),
			Percent(c.FeatureCoverage[id]),
			Percent(c.ComplianceCoverage[id]),
			Percent(c.RequirementFit[id]),
			c.ImplementationDays[id],
		)
	}
	b.WriteString("\n")
}

func writeCostBreakdown(b *strings.Builder, res *tco.Result) {
	fmt.Fprintf(b, "## Cost Breakdown\n\n")
	fmt.Fprintf(b, "| Vendor | Hardware | Software | Implementation | Maintenance | Personnel | Downtime | Operational | Initial | Annual |\n")
	fmt.Fprintf(b, "|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, r := range res.Ranked() {
		c := r.Cost
		if c.Degraded {
			fmt.Fprintf(b, "| %s | unavailable | | | | | | | | |\n", sanitizeCell(r.Vendor.Name))
			continue
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			sanitizeCell(r.Vendor.Name),
			USD(c.Hardware), USD(c.Software), USD(c.Implementation), USD(c.Maintenance),
			USD(c.Personnel), USD(c.Downtime), USD(c.Operational),
			USD(c.InitialCosts), USD(c.AnnualCosts),
		)
	}
	b.WriteString("\n")

	years := res.Profile.YearsToProject
	fmt.Fprintf(b, "### Cumulative Cost by Year\n\n| Vendor |")
	for y := 1; y <= years; y++ {
		fmt.Fprintf(b, " Year %d |", y)
	}
	b.WriteString("\n|---|")
	for y := 1; y <= years; y++ {
		b.WriteString("---:|")
	}
	b.WriteString("\n")
	for _, r := range res.Ranked() {
		if r.Cost.Degraded {
			continue
		}
		fmt.Fprintf(b, "| %s |", sanitizeCell(r.Vendor.Name))
		for _, yc := range r.Cost.Yearly {
			fmt.Fprintf(b, " %s |", USD(yc.CumulativeCost))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeRisk(b *strings.Builder, res *tco.Result) {
	fmt.Fprintf(b, "## Security Risk\n\n")
	fmt.Fprintf(b, "| Vendor | Composite Risk | Breach Probability | Expected Annual Breach Cost | Insurance Premium | Mitigation |\n")
	fmt.Fprintf(b, "|---|---:|---:|---:|---:|---:|\n")
	for _, r := range res.Ranked() {
		k := r.Risk
		fmt.Fprintf(b, "| %s | %.1f | %s | %s | %s | %s |\n",
			sanitizeCell(r.Vendor.Name),
			k.CompositeRiskScore,
			Percent(k.BreachProbability*100),
			USD(k.ExpectedAnnualBreachCost),
			USD(k.InsurancePremium),
			Percent(k.MitigationEffectiveness*100),
		)
	}
	b.WriteString("\n")

	if base, ok := res.Vendor(catalog.BaselineVendorID); ok && len(base.Risk.ThreatScores) > 0 {
		fmt.Fprintf(b, "### Unprotected Threat Exposure\n\n| Threat | Score |\n|---|---:|\n")
		cats := make([]string, 0, len(base.Risk.ThreatScores))
		for c := range base.Risk.ThreatScores {
			cats = append(cats, string(c))
		}
		sort.Strings(cats)
		for _, c := range cats {
			fmt.Fprintf(b, "| %s | %.1f |\n", strings.ReplaceAll(c, "_", " "), base.Risk.ThreatScores[catalog.ThreatCategory(c)])
		}
		b.WriteString("\n")
	}
}

func writeROI(b *strings.Builder, res *tco.Result) {
	fmt.Fprintf(b, "## Return on Investment vs %s\n\n", sanitize(vendorName(res, res.BaselineID)))
	fmt.Fprintf(b, "| Vendor | Cost Savings | Risk Reduction | Insurance | Productivity | Compliance | Total Benefits | ROI | Payback (months) |\n")
	fmt.Fprintf(b, "|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, r := range res.Ranked() {
		if r.ID() == res.BaselineID {
			continue
		}
		o := r.ROI
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			sanitizeCell(r.Vendor.Name),
			USD(o.CostSavings), USD(o.RiskReductionBenefit), USD(o.InsuranceSavings),
			USD(o.ProductivityBenefit), USD(o.ComplianceSavings), USD(o.TotalBenefits),
			MetricPercent(o.ROIPercentage), Months(o.PaybackMonths),
		)
	}
	b.WriteString("\n")
}

func writeDrivers(b *strings.Builder, res *tco.Result, drivers map[string][]tco.SensitivityDriver) {
	fmt.Fprintf(b, "## Cost Drivers\n\n")
	ids := make([]string, 0, len(drivers))
	for id := range drivers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(b, "### %s\n\n| Variable | Low | High | TCO at Low | TCO at High | Swing | Effect |\n|---|---:|---:|---:|---:|---:|---|\n", sanitize(vendorName(res, id)))
		for _, d := range drivers[id] {
			if d.Degraded {
				fmt.Fprintf(b, "| %s | %g | %g | n/a | n/a | n/a | %s |\n", d.Variable, d.Low, d.High, sanitizeCell(d.Direction))
				continue
			}
			fmt.Fprintf(b, "| %s | %g | %g | %s | %s | %s | %s |\n",
				d.Variable, d.Low, d.High, USD(d.TCOLow), USD(d.TCOHigh), USD(d.DeltaUSD), sanitizeCell(d.Direction))
		}
		b.WriteString("\n")
	}
}

func writeSweep(b *strings.Builder, res *tco.Result, s tco.SeriesByVendor) {
	fmt.Fprintf(b, "## Sensitivity: %s\n\n| %s |", s.Variable, s.Variable)
	ids := make([]string, 0, len(s.Series))
	for id := range s.Series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(b, " %s |", sanitizeCell(vendorName(res, id)))
	}
	b.WriteString("\n|---:|")
	for range ids {
		b.WriteString("---:|")
	}
	b.WriteString("\n")
	for i, x := range s.Points {
		fmt.Fprintf(b, "| %g |", x)
		for _, id := range ids {
			fmt.Fprintf(b, " %s |", USD(s.Series[id][i]))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeMethodology(b *strings.Builder, p tco.Profile) {
	fmt.Fprintf(b, "## How This Report Works\n\n")
	fmt.Fprintf(b, "- **TCO** is initial costs (hardware, licenses, implementation) plus %d years of recurring costs "+
		"(subscription or maintenance, staff time at %s per FTE, downtime at %s per hour, operations).\n",
		p.YearsToProject, USD(p.Params.FTECost), USD(p.Params.DowntimeCostPerHour))
	if p.Params.InflationEnabled {
		fmt.Fprintf(b, "- Recurring costs inflate at %s per year.\n", Percent(p.Params.InflationRate*100))
	}
	if p.Params.DiscountPct > 0 {
		fmt.Fprintf(b, "- A negotiated discount of %s applies to recurring costs.\n", Percent(p.Params.DiscountPct*100))
	}
	fmt.Fprintf(b, "- **Risk** scales the %s breach benchmarks by device count and risk profile, "+
		"then reduces threat exposure by each vendor's mitigation effectiveness.\n", p.Industry.Name)
	fmt.Fprintf(b, "- **ROI** counts cost savings against the baseline plus avoided breach losses, insurance savings, "+
		"productivity and compliance effort. ROI is shown as n/a when a vendor's TCO is zero.\n\n")
}

func vendorName(res *tco.Result, id string) string {
	if r, ok := res.Vendor(id); ok && r.Vendor.Name != "" {
		return r.Vendor.Name
	}
	return id
}
