package aggregator

import (
	"math"
	"sort"
	"time"

	"hr-insights-go/internal/dataset"
	"hr-insights-go/internal/types"
)

const (
	DefaultTopN = 5

	// ManualSecondsPerRecord is the measured manual handling time of one notification.
	ManualSecondsPerRecord = 240
	SecondsPerHour         = 3600
	WorkingHoursPerDay     = 8
	WorkingDaysPerMonth    = 22
	WorkingSecondsPerMonth = WorkingHoursPerDay * WorkingDaysPerMonth * SecondsPerHour
)

const dateLayout = "2006-01-02"

// ValidDate reports whether key is a real YYYY-MM-DD calendar date.
func ValidDate(key string) bool {
	if key == "" {
		return false
	}
	_, err := time.Parse(dateLayout, key)
	return err == nil
}

// ComputeStats aggregates any record sequence; it keeps no state between calls.
func ComputeStats(records []types.NormalizedRecord, topN int) types.StatsSnapshot {
	if topN <= 0 {
		topN = DefaultTopN
	}
	s := types.StatsSnapshot{Total: len(records), TopN: topN}

	var positive int
	nonNegative := make([]float64, 0, len(records))
	days := map[string]struct{}{}
	errLabels := make([]types.NormalizedRecord, 0)

	for _, r := range records {
		switch {
		case r.IsCompleted():
			s.Completed++
		case r.IsError():
			s.Error++
			errLabels = append(errLabels, r)
		}
		if r.Duration > 0 {
			s.TotalSec += r.Duration
			positive++
		}
		if r.Duration >= 0 {
			nonNegative = append(nonNegative, r.Duration)
		}
		if ValidDate(r.DateKey) {
			days[r.DateKey] = struct{}{}
			if s.DateMin == "" || r.DateKey < s.DateMin {
				s.DateMin = r.DateKey
			}
			if r.DateKey > s.DateMax {
				s.DateMax = r.DateKey
			}
		}
	}

	if s.Total > 0 {
		s.SuccessRate = float64(s.Completed) / float64(s.Total) * 100
	}
	if positive > 0 {
		s.AvgSec = s.TotalSec / float64(positive)
	}
	sort.Float64s(nonNegative)
	s.P95Sec = percentile(nonNegative, 0.95)

	if len(days) > 0 {
		s.DailyAvg = float64(s.Total) / float64(len(days))
	} else {
		s.DailyAvg = float64(s.Total)
	}

	saved := float64(s.Total*ManualSecondsPerRecord) - s.TotalSec
	s.SavedTimeHours = saved / SecondsPerHour
	s.FTESaved = saved / WorkingSecondsPerMonth

	s.TopDepartments = TopCounts(records, dataset.DimDepartment.Value, topN)
	s.TopPositions = TopCounts(records, dataset.DimPosition.Value, topN)
	s.TopSites = TopCounts(records, dataset.DimSite.Value, topN)
	s.TopExitReasons = TopCounts(records, dataset.DimExitReason.Value, topN)
	s.TopErrors = TopCounts(errLabels, func(r types.NormalizedRecord) string {
		return dataset.ClassifyError(r.ErrorComment)
	}, topN)
	return s
}

// TopCounts ranks key values by descending count. Ties keep first-seen order;
// empty keys count under types.Placeholder.
func TopCounts(records []types.NormalizedRecord, key func(types.NormalizedRecord) string, n int) []types.Count {
	counts := map[string]int{}
	order := make([]string, 0)
	for _, r := range records {
		k := key(r)
		if k == "" {
			k = types.Placeholder
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]types.Count, len(order))
	for i, k := range order {
		out[i] = types.Count{Value: k, Count: counts[k]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// percentile interpolates linearly over an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := float64(n-1) * p
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	w := idx - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
