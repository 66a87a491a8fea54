package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/joelkehle/nac-tco/internal/tco"
)

var (
	brand       = lipgloss.Color("#0F766E")
	muted       = lipgloss.Color("#6B7280")
	warn        = lipgloss.Color("#FFB800")
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(brand).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(brand).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = cellStyle.Bold(true)
	mutedStyle  = cellStyle.Foreground(muted)
	warnStyle   = lipgloss.NewStyle().Foreground(warn)
)

// Terminal renders the ranked comparison as a bordered table for a console.
func Terminal(res *tco.Result) string {
	if res == nil {
		return "no results\n"
	}
	p := res.Profile
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("NAC TCO: %s devices, %s, %d years", groupDigits(int64(p.DeviceCount)), p.Industry.Name, p.YearsToProject)))
	b.WriteString("\n")

	ranked := res.Ranked()
	rows := make([][]string, 0, len(ranked))
	degraded := map[int]bool{}
	for i, r := range ranked {
		id := r.ID()
		tcoCell := USD(res.Comparison.TCO[id])
		if r.Cost.Degraded {
			tcoCell = "unavailable"
			degraded[i] = true
		}
		roi := MetricPercent(r.ROI.ROIPercentage)
		payback := Months(r.ROI.PaybackMonths)
		if id == res.BaselineID {
			roi, payback = "baseline", "-"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.Vendor.Name,
			tcoCell,
			roi,
			payback,
			fmt.Sprintf("%.1f", r.Risk.CompositeRiskScore),
			Percent(res.Comparison.RequirementFit[id]),
			fmt.Sprintf("%d", res.Comparison.ImplementationDays[id]),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(muted)).
		Headers("#", "Vendor", fmt.Sprintf("%d-yr TCO", p.YearsToProject), "ROI", "Payback", "Risk", "Fit", "Days").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case degraded[row]:
				return mutedStyle
			case row == 0:
				return bestStyle
			default:
				return cellStyle
			}
		})
	b.WriteString(t.Render())
	b.WriteString("\n")
	for _, w := range res.Warnings {
		b.WriteString(warnStyle.Render("warning: " + w))
		b.WriteString("\n")
	}
	return b.String()
}
