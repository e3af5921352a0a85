package types

import (
	"fmt"
	"math"
	"strconv"
)

// Record is one raw automation log entry as it arrives from the data source.
// Values are kept untyped: exports mix numbers and strings for the same field.
type Record map[string]any

// Str returns the field as text. Non-string scalars are formatted, anything
// else (objects, arrays, null) yields "".
func (r Record) Str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// Text is like Str but only accepts real strings, matching the cleaning rules
// for categorical labels.
func (r Record) Text(key string) string {
	s, _ := r[key].(string)
	return s
}

type NormalizedRecord struct {
	Status         string  `json:"status"`
	Duration       float64 `json:"duration_sec"`
	DateKey        string  `json:"date_key,omitempty"`
	Departman      string  `json:"departman,omitempty"`
	DepartmanClean string  `json:"departman_clean,omitempty"`
	Pozisyon       string  `json:"pozisyon,omitempty"`
	PozisyonClean  string  `json:"pozisyon_clean,omitempty"`
	Isyeri         string  `json:"isyeri,omitempty"`
	ErrorComment   string  `json:"error_comment,omitempty"`
	CikisNedeni    string  `json:"cikis_nedeni,omitempty"`
	ExitReason     string  `json:"exit_reason,omitempty"`
}

const (
	StatusCompleted = "COMPLETED"
	StatusError     = "ERROR"
)

func (r NormalizedRecord) IsCompleted() bool { return r.Status == StatusCompleted }
func (r NormalizedRecord) IsError() bool     { return r.Status == StatusError }

// Count is one row of a top-N ranking.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Placeholder stands in for a missing categorical value in rankings.
const Placeholder = "—"

// StatsSnapshot is the immutable aggregate over a record set.
type StatsSnapshot struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Error          int     `json:"error"`
	SuccessRate    float64 `json:"success_rate"`
	TotalSec       float64 `json:"total_sec"`
	AvgSec         float64 `json:"avg_sec"`
	P95Sec         float64 `json:"p95_sec"`
	DateMin        string  `json:"date_min,omitempty"`
	DateMax        string  `json:"date_max,omitempty"`
	DailyAvg       float64 `json:"daily_avg"`
	SavedTimeHours float64 `json:"saved_time_hours"`
	FTESaved       float64 `json:"fte_saved"`
	TopN           int     `json:"top_n"`

	TopDepartments []Count `json:"top_departman"`
	TopPositions   []Count `json:"top_pozisyon"`
	TopSites       []Count `json:"top_isyeri"`
	TopErrors      []Count `json:"top_errors"`
	TopExitReasons []Count `json:"top_cikis_nedeni"`
}

// HasDates reports whether any record carried a valid date key.
func (s StatsSnapshot) HasDates() bool { return s.DateMin != "" }

// HasExitReasons reports whether the ranking holds anything beyond the placeholder.
func (s StatsSnapshot) HasExitReasons() bool {
	for _, c := range s.TopExitReasons {
		if c.Value != Placeholder {
			return true
		}
	}
	return false
}

// MonthSummary is the snapshot of the latest calendar month in a record set.
type MonthSummary struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Stats StatsSnapshot `json:"stats"`
}

// Key renders the bucket as YYYY-MM.
func (m MonthSummary) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// DayCount is one point of the daily outcome trend.
type DayCount struct {
	DateKey   string `json:"date_key"`
	Completed int    `json:"completed"`
	Error     int    `json:"error"`
}
