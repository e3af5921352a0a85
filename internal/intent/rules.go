package intent

import (
	"fmt"
	"strings"

	"hr-insights-go/internal/aggregator"
	"hr-insights-go/internal/types"
)

// keywordRules is the canonical rule order. More specific phrasings come
// before the generic words they contain ("error causes" before "error").
func keywordRules() []rule {
	return []rule{
		{
			intent:  "total_records",
			trigger: newTrigger(allOf{"toplam", "kayıt"}, allOf{"total", "record"}),
			answer:  func(in Input) string { return fmt.Sprintf("Total records: %d", in.Stats.Total) },
		},
		{
			intent:  "success_rate",
			trigger: words("başarı oran", "basari oran", "success rate"),
			answer:  func(in Input) string { return fmt.Sprintf("Success rate: %.1f%%", in.Stats.SuccessRate) },
		},
		{
			intent:  "completed_count",
			trigger: words("başarılı", "basarili", "completed", "successful"),
			answer:  func(in Input) string { return fmt.Sprintf("Completed runs: %d", in.Stats.Completed) },
		},
		{
			intent: "error_causes",
			trigger: newTrigger(
				allOf{"hata", "neden"}, allOf{"hata", "sebep"}, allOf{"hata", "tip"},
				allOf{"error", "cause"}, allOf{"error", "reason"}, allOf{"error", "type"},
			),
			answer: func(in Input) string { return bulleted("Top error causes", in.Stats.TopErrors) },
		},
		{
			intent:  "exit_reasons",
			trigger: words("çıkış neden", "cikis neden", "exit reason"),
			answer:  func(in Input) string { return bulleted("Top exit reasons", in.Stats.TopExitReasons) },
		},
		{
			intent:  "error_count",
			trigger: words("hatalı", "error", "failed"),
			answer:  func(in Input) string { return fmt.Sprintf("Failed runs: %d", in.Stats.Error) },
		},
		{
			intent:  "fte_saved",
			trigger: words("fte"),
			answer:  func(in Input) string { return fmt.Sprintf("FTE-months saved: %.2f", in.Stats.FTESaved) },
		},
		{
			intent:  "hours_saved",
			trigger: words("kazanılan", "kazanım", "kazanim", "time saved", "hours saved", "saved time", "saved hours"),
			answer:  func(in Input) string { return fmt.Sprintf("Manual time saved: %.1f h", in.Stats.SavedTimeHours) },
		},
		{
			intent: "avg_duration",
			trigger: newTrigger(
				allOf{"ortalama", "süre"}, allOf{"ortalama", "sure"},
				allOf{"average", "duration"}, allOf{"average", "processing time"},
			),
			answer: func(in Input) string { return fmt.Sprintf("Average processing time: %.1f s", in.Stats.AvgSec) },
		},
		{
			intent:  "total_duration",
			trigger: words("toplam süre", "toplam sure", "total duration", "total processing time"),
			answer: func(in Input) string {
				return fmt.Sprintf("Total processing time: %.1f h", in.Stats.TotalSec/aggregator.SecondsPerHour)
			},
		},
		{
			intent:  "daily_avg",
			trigger: newTrigger(allOf{"günlük", "ort"}, allOf{"gunluk", "ort"}, allOf{"daily"}, allOf{"per day"}),
			answer:  func(in Input) string { return fmt.Sprintf("Daily average: %.1f records", in.Stats.DailyAvg) },
		},
		{
			intent:  "latest_month",
			trigger: newTrigger(allOf{"bu ay", "özet"}, allOf{"bu ay", "ozet"}, allOf{"this month"}, allOf{"latest month"}, allOf{"monthly summary"}),
			answer:  latestMonthAnswer,
		},
		{
			intent:  "top_department",
			trigger: newTrigger(allOf{"en yoğun departman"}, allOf{"departman", " en "}, allOf{"most", "department"}, allOf{"busiest", "department"}, allOf{"top", "department"}),
			answer:  func(in Input) string { return leader("Most common department", in.Stats.TopDepartments) },
		},
		{
			intent:  "top_position",
			trigger: newTrigger(allOf{"en yoğun pozisyon"}, allOf{"pozisyon", " en "}, allOf{"most", "position"}, allOf{"busiest", "position"}, allOf{"top", "position"}),
			answer:  func(in Input) string { return leader("Most common position", in.Stats.TopPositions) },
		},
		{
			intent: "top_site",
			trigger: newTrigger(
				allOf{"en yoğun işyeri"}, allOf{"işyeri", " en "}, allOf{"isyeri", " en "},
				allOf{"most", "site"}, allOf{"busiest", "site"}, allOf{"top", "site"}, allOf{"most", "workplace"},
			),
			answer: func(in Input) string { return leader("Most common site", in.Stats.TopSites) },
		},
		{
			intent:  "date_range",
			trigger: newTrigger(allOf{"tarih", "aral"}, allOf{"tarih", "range"}, allOf{"date range"}, allOf{"date", "range"}),
			answer: func(in Input) string {
				return fmt.Sprintf("Date range: %s - %s", dash(in.Stats.DateMin), dash(in.Stats.DateMax))
			},
		},
	}
}

func bulleted(title string, items []types.Count) string {
	if len(items) == 0 {
		return title + ": none recorded."
	}
	var b strings.Builder
	b.WriteString(title + ":")
	for _, c := range items {
		fmt.Fprintf(&b, "\n- %s (%d)", c.Value, c.Count)
	}
	return b.String()
}

func leader(title string, items []types.Count) string {
	top := types.Count{Value: "-"}
	if len(items) > 0 {
		top = items[0]
	}
	return fmt.Sprintf("%s: %s (%d records)", title, top.Value, top.Count)
}

func latestMonthAnswer(in Input) string {
	if in.LatestMonth == nil {
		return "Not enough dated records for a monthly summary."
	}
	m := in.LatestMonth
	return fmt.Sprintf("Summary for %s: total %d, completed %d, errors %d, success rate %.1f%%, average duration %.1f s.",
		m.Key(), m.Stats.Total, m.Stats.Completed, m.Stats.Error, m.Stats.SuccessRate, m.Stats.AvgSec)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
