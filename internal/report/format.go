package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/joelkehle/nac-tco/internal/tco"
)

// USD formats a dollar amount with comma separators and no decimals.
func USD(n float64) string {
	return "$" + groupDigits(int64(math.Round(n)))
}

func groupDigits(n int64) string {
	if n < 0 {
		return "-" + groupDigits(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	rem := len(s) % 3
	if rem > 0 {
		b.WriteString(s[:rem])
	}
	for i := rem; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// MetricPercent renders an optional percentage, "n/a" when undefined.
func MetricPercent(m tco.Metric) string {
	if !m.Defined {
		return "n/a"
	}
	return Percent(m.Value)
}

func Months(m tco.Metric) string {
	if !m.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", m.Value)
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// sanitizeCell escapes pipes that would break a markdown table row.
func sanitizeCell(s string) string {
	return strings.ReplaceAll(sanitize(s), "|", "\\|")
}
