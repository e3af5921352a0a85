package dataset

import (
	"fmt"
	"strings"

	"hr-insights-go/internal/types"
)

// contextLabelMax caps a single ranking label inside the context block.
const contextLabelMax = 80

// BuildContext renders a snapshot as the compact text block handed to the
// completion model. Its size depends on TopN, never on the record count.
func BuildContext(s types.StatsSnapshot, label string) string {
	var b strings.Builder
	if label != "" {
		fmt.Fprintf(&b, "[%s] ", label)
	}
	fmt.Fprintf(&b, "Total: %d, Completed: %d, Errors: %d, Success rate: %.1f%%.\n",
		s.Total, s.Completed, s.Error, s.SuccessRate)
	fmt.Fprintf(&b, "Date range: %s - %s.\n", orDash(s.DateMin), orDash(s.DateMax))
	fmt.Fprintf(&b, "Average duration: %.1f s, Total duration: %.1f h, P95 duration: %.1f s.\n",
		s.AvgSec, s.TotalSec/3600, s.P95Sec)
	fmt.Fprintf(&b, "Daily average: %.1f.\n", s.DailyAvg)
	fmt.Fprintf(&b, "Top departments: %s\n", formatTop(s.TopDepartments, s.TopN))
	fmt.Fprintf(&b, "Top positions: %s\n", formatTop(s.TopPositions, s.TopN))
	fmt.Fprintf(&b, "Top sites: %s\n", formatTop(s.TopSites, s.TopN))
	fmt.Fprintf(&b, "Top errors: %s", formatTop(s.TopErrors, s.TopN))
	if s.HasExitReasons() {
		fmt.Fprintf(&b, "\nTop exit reasons: %s", formatTop(s.TopExitReasons, s.TopN))
	}
	return b.String()
}

func formatTop(items []types.Count, n int) string {
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	if len(items) == 0 {
		return "-"
	}
	parts := make([]string, len(items))
	for i, c := range items {
		v := c.Value
		if v == "" {
			v = types.Placeholder
		}
		parts[i] = fmt.Sprintf("%s(%d)", truncate(v, contextLabelMax), c.Count)
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes-3]) + "..."
}
