package aggregator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hr-insights-go/internal/dataset"
	"hr-insights-go/internal/types"
)

func tenRecords() []types.NormalizedRecord {
	statuses := []string{
		types.StatusCompleted, types.StatusCompleted, types.StatusCompleted,
		types.StatusCompleted, types.StatusCompleted, types.StatusCompleted,
		types.StatusError, types.StatusError, "RUNNING", "",
	}
	durations := []float64{100, 100, 100, 100, 100, 100, 0, 0, 50, 50}
	out := make([]types.NormalizedRecord, len(statuses))
	for i := range statuses {
		out[i] = types.NormalizedRecord{Status: statuses[i], Duration: durations[i]}
	}
	return out
}

func TestComputeStats_TenRecords(t *testing.T) {
	s := ComputeStats(tenRecords(), 5)

	assert.Equal(t, 10, s.Total)
	assert.Equal(t, 6, s.Completed)
	assert.Equal(t, 2, s.Error)
	assert.InDelta(t, 60.0, s.SuccessRate, 1e-9)
	assert.InDelta(t, 700.0, s.TotalSec, 1e-9)
	assert.InDelta(t, 87.5, s.AvgSec, 1e-9)
	assert.InDelta(t, (10*240.0-700)/3600, s.SavedTimeHours, 1e-9)
	assert.InDelta(t, (10*240.0-700)/float64(WorkingSecondsPerMonth), s.FTESaved, 1e-9)
	assert.InDelta(t, 10.0, s.DailyAvg, 1e-9)
	assert.False(t, s.HasDates())
}

func TestComputeStats_Empty(t *testing.T) {
	got := ComputeStats(nil, 5)

	want := types.StatsSnapshot{TopN: 5}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("ComputeStats(nil) mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.0, got.SuccessRate)
	assert.Empty(t, got.DateMin)
	assert.Empty(t, got.DateMax)
}

func TestComputeStats_SuccessRateBounds(t *testing.T) {
	sets := [][]types.NormalizedRecord{
		nil,
		{{Status: types.StatusCompleted}},
		{{Status: types.StatusError}},
		tenRecords(),
	}
	for _, records := range sets {
		s := ComputeStats(records, 5)
		assert.GreaterOrEqual(t, s.SuccessRate, 0.0)
		assert.LessOrEqual(t, s.SuccessRate, 100.0)
	}
}

func TestComputeStats_DatesAndRankings(t *testing.T) {
	records := []types.NormalizedRecord{
		{Status: types.StatusCompleted, Duration: 10, DateKey: "2024-02-10", Isyeri: "Ankara", DepartmanClean: "İK"},
		{Status: types.StatusError, Duration: 20, DateKey: "2024-02-01", Isyeri: "İzmir", DepartmanClean: "İK", ErrorComment: "SYS-1: Timeout"},
		{Status: types.StatusError, Duration: 30, DateKey: "2024-13-45", Isyeri: "Ankara", ErrorComment: ""},
		{Status: types.StatusCompleted, Duration: -1, DateKey: "2024-02-10", Isyeri: "Ankara", PozisyonClean: "Uzman"},
	}

	s := ComputeStats(records, 2)

	assert.Equal(t, "2024-02-01", s.DateMin)
	assert.Equal(t, "2024-02-10", s.DateMax)
	assert.InDelta(t, 2.0, s.DailyAvg, 1e-9)
	assert.InDelta(t, 20.0, s.AvgSec, 1e-9)

	want := types.StatsSnapshot{
		TopSites:       []types.Count{{Value: "Ankara", Count: 3}, {Value: "İzmir", Count: 1}},
		TopDepartments: []types.Count{{Value: "İK", Count: 2}, {Value: types.Placeholder, Count: 2}},
		TopPositions:   []types.Count{{Value: types.Placeholder, Count: 3}, {Value: "Uzman", Count: 1}},
		TopErrors:      []types.Count{{Value: "Timeout", Count: 1}, {Value: dataset.UnknownError, Count: 1}},
		TopExitReasons: []types.Count{{Value: types.Placeholder, Count: 4}},
	}
	opts := cmpopts.IgnoreFields(types.StatsSnapshot{},
		"Total", "Completed", "Error", "SuccessRate", "TotalSec", "AvgSec", "P95Sec",
		"DateMin", "DateMax", "DailyAvg", "SavedTimeHours", "FTESaved", "TopN")
	if diff := cmp.Diff(want, s, opts); diff != "" {
		t.Errorf("rankings mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, s.HasExitReasons())
}

func TestComputeStats_P95(t *testing.T) {
	records := make([]types.NormalizedRecord, 0, 21)
	for i := 0; i <= 20; i++ {
		records = append(records, types.NormalizedRecord{Duration: float64(i * 10)})
	}
	records = append(records, types.NormalizedRecord{Duration: -50})

	s := ComputeStats(records, 5)

	assert.InDelta(t, 190.0, s.P95Sec, 1e-9)
}

func TestComputeStats_DefaultTopN(t *testing.T) {
	s := ComputeStats(nil, 0)
	assert.Equal(t, DefaultTopN, s.TopN)
}

func TestTopCounts_StableTies(t *testing.T) {
	records := []types.NormalizedRecord{
		{Isyeri: "C"}, {Isyeri: "A"}, {Isyeri: "B"}, {Isyeri: "A"}, {Isyeri: "B"}, {Isyeri: "C"}, {Isyeri: "D"},
	}

	got := TopCounts(records, dataset.DimSite.Value, 0)

	want := []types.Count{{Value: "C", Count: 2}, {Value: "A", Count: 2}, {Value: "B", Count: 2}, {Value: "D", Count: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TopCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestTopCounts_Truncates(t *testing.T) {
	records := []types.NormalizedRecord{{Isyeri: "A"}, {Isyeri: "B"}, {Isyeri: "B"}, {Isyeri: "C"}}

	got := TopCounts(records, dataset.DimSite.Value, 2)

	require.Len(t, got, 2)
	assert.Equal(t, types.Count{Value: "B", Count: 2}, got[0])
	assert.Equal(t, types.Count{Value: "A", Count: 1}, got[1])
	assert.Empty(t, TopCounts(nil, dataset.DimSite.Value, 3))
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2024-02-29"))
	assert.False(t, ValidDate("2023-02-29"))
	assert.False(t, ValidDate("2024-2-1"))
	assert.False(t, ValidDate(""))
	assert.False(t, ValidDate("20240101"))
}

func TestComputeStats_PrefixOnlyErrorRanksUnderPlaceholder(t *testing.T) {
	records := []types.NormalizedRecord{
		{Status: types.StatusError, ErrorComment: "SYS-12:"},
		{Status: types.StatusError, ErrorComment: "BUS-3:  "},
		{Status: types.StatusError, ErrorComment: "SYS-4: Timeout"},
	}

	s := ComputeStats(records, 5)

	assert.Equal(t, []types.Count{{Value: types.Placeholder, Count: 2}, {Value: "Timeout", Count: 1}}, s.TopErrors)
}
