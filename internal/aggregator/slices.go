package aggregator

import (
	"sort"
	"time"

	"hr-insights-go/internal/types"
)

type monthKey struct{ year, month int }

func (a monthKey) less(b monthKey) bool {
	if a.year != b.year {
		return a.year < b.year
	}
	return a.month < b.month
}

// LatestMonthSummary computes stats for the most recent (year, month) bucket.
// Records without a parseable date are ignored; ok is false when none remain.
func LatestMonthSummary(records []types.NormalizedRecord, topN int) (types.MonthSummary, bool) {
	buckets := map[monthKey][]types.NormalizedRecord{}
	var latest monthKey
	found := false
	for _, r := range records {
		t, err := time.Parse(dateLayout, r.DateKey)
		if err != nil {
			continue
		}
		k := monthKey{t.Year(), int(t.Month())}
		buckets[k] = append(buckets[k], r)
		if !found || latest.less(k) {
			latest, found = k, true
		}
	}
	if !found {
		return types.MonthSummary{}, false
	}
	return types.MonthSummary{
		Year:  latest.year,
		Month: latest.month,
		Stats: ComputeStats(buckets[latest], topN),
	}, true
}

// Filter narrows a record set the way the dashboard filters do. Empty fields match everything.
type Filter struct {
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Site       string `json:"site,omitempty"`
	Department string `json:"department,omitempty"`
	Status     string `json:"status,omitempty"`
}

// IsZero reports whether f filters nothing.
func (f Filter) IsZero() bool { return f == Filter{} }

func (f Filter) match(r types.NormalizedRecord) bool {
	if f.From != "" || f.To != "" {
		if r.DateKey == "" {
			return false
		}
		if f.From != "" && r.DateKey < f.From {
			return false
		}
		if f.To != "" && r.DateKey > f.To {
			return false
		}
	}
	if f.Site != "" && r.Isyeri != f.Site {
		return false
	}
	if f.Department != "" && r.DepartmanClean != f.Department {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// Apply returns the matching records in their original order.
func (f Filter) Apply(records []types.NormalizedRecord) []types.NormalizedRecord {
	if f.IsZero() {
		return records
	}
	out := make([]types.NormalizedRecord, 0, len(records))
	for _, r := range records {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SubsetCounts counts total / completed / error records accepted by match.
func SubsetCounts(records []types.NormalizedRecord, match func(types.NormalizedRecord) bool) (total, completed, errs int) {
	for _, r := range records {
		if !match(r) {
			continue
		}
		total++
		switch {
		case r.IsCompleted():
			completed++
		case r.IsError():
			errs++
		}
	}
	return total, completed, errs
}

// DailyTrend counts completed and failed runs per valid date, oldest first.
func DailyTrend(records []types.NormalizedRecord) []types.DayCount {
	byDay := map[string]*types.DayCount{}
	for _, r := range records {
		if !ValidDate(r.DateKey) {
			continue
		}
		d, ok := byDay[r.DateKey]
		if !ok {
			d = &types.DayCount{DateKey: r.DateKey}
			byDay[r.DateKey] = d
		}
		switch {
		case r.IsCompleted():
			d.Completed++
		case r.IsError():
			d.Error++
		}
	}
	out := make([]types.DayCount, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out
}

// TopErrorSites ranks workplaces by number of ERROR records.
func TopErrorSites(records []types.NormalizedRecord, n int) []types.Count {
	errs := make([]types.NormalizedRecord, 0)
	for _, r := range records {
		if r.IsError() {
			errs = append(errs, r)
		}
	}
	return TopCounts(errs, func(r types.NormalizedRecord) string { return r.Isyeri }, n)
}
