package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hr-insights-go/internal/aggregator"
	"hr-insights-go/internal/dataset"
	"hr-insights-go/internal/logger"
	"hr-insights-go/internal/types"
)

const entryJSON = `[
  {"status": "COMPLETED", "duration_sec": 12.5, "date_key": "2024-05-01", "isyeri": "Ankara Hastanesi", "departman": "1.1.Acil", "pozisyon": "12.Hemşire"},
  {"status": "ERROR", "duration_sec": "7", "date_key": "2024-05-02", "isyeri": "İzmir Şubesi", "departman": "Kardiyoloji", "error_comment": "SYS: timeout"},
  "not an object",
  {"status": "COMPLETED", "duration_sec": 3, "date_key": "2024-06-01", "isyeri": "Ankara Hastanesi", "departman": "1.1.Acil"}
]`

const exitJSON = `[
  {"status": "COMPLETED", "duration_sec": 4, "date_key": "2024-06-03", "isyeri": "Bursa Fabrika", "cikis_nedeni": "03"}
]`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDataset(t *testing.T) {
	d := LoadDataset(Source{Name: Entry, Label: "Entry", Path: writeFile(t, "giris.json", entryJSON)}, 5, logger.Discard())

	assert.Equal(t, Entry, d.Name)
	assert.Len(t, d.Records, 3)
	assert.Equal(t, 1, d.Skipped)
	assert.Equal(t, 3, d.Stats.Total)
	assert.Equal(t, 2, d.Stats.Completed)
	assert.Equal(t, []string{"Ankara Hastanesi", "İzmir Şubesi"}, d.Index.Values(dataset.DimSite))
	require.NotNil(t, d.LatestMonth)
	assert.Equal(t, "2024-06", d.LatestMonth.Key())
}

func TestLoadDataset_MissingFileIsEmpty(t *testing.T) {
	d := LoadDataset(Source{Name: Exit, Label: "Exit", Path: filepath.Join(t.TempDir(), "nope.json")}, 5, logger.Discard())

	assert.Empty(t, d.Records)
	assert.Equal(t, 0, d.Stats.Total)
	assert.Nil(t, d.LatestMonth)
	assert.Contains(t, d.Context(), "[Exit] Total: 0")
}

func TestBuild(t *testing.T) {
	sources := []Source{
		{Name: Entry, Label: "Entry", Path: writeFile(t, "giris.json", entryJSON)},
		{Name: Exit, Label: "Exit", Path: writeFile(t, "cikis.json", exitJSON)},
	}

	e, err := Build(context.Background(), sources, 0, logger.Discard())
	require.NoError(t, err)

	assert.Equal(t, aggregator.DefaultTopN, e.TopN())
	assert.Equal(t, []string{Combined, Entry, Exit}, e.Names())

	exit, ok := e.Dataset(Exit)
	require.True(t, ok)
	assert.True(t, exit.Stats.HasExitReasons())

	combined, ok := e.Dataset(Combined)
	require.True(t, ok)
	assert.Equal(t, 4, combined.Stats.Total)
	assert.Equal(t, "Entry+Exit", combined.Label)
	assert.Equal(t, []string{"Ankara Hastanesi", "Bursa Fabrika", "İzmir Şubesi"}, combined.Index.Values(dataset.DimSite))

	_, ok = e.Dataset("payroll")
	assert.False(t, ok)
}

func TestBuild_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, []Source{{Name: Entry, Path: "x.json"}}, 5, logger.Discard())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCombine_LeavesInputsUntouched(t *testing.T) {
	a := NewDataset(Entry, "Entry", []types.NormalizedRecord{{Status: types.StatusCompleted, Isyeri: "A"}}, 5)
	b := NewDataset(Exit, "Exit", []types.NormalizedRecord{{Status: types.StatusError, Isyeri: "B"}}, 5)

	c := Combine(Combined, "both", 5, a, b)

	assert.Equal(t, 2, c.Stats.Total)
	assert.Len(t, a.Records, 1)
	assert.Len(t, b.Records, 1)
	assert.Equal(t, []string{"A"}, a.Index.Values(dataset.DimSite))
	assert.Equal(t, []string{"A", "B"}, c.Index.Values(dataset.DimSite))
}

func TestEngine_CombinedNeedsBoth(t *testing.T) {
	e := NewEngine(5, NewDataset(Entry, "Entry", nil, 5))

	_, ok := e.Combined()
	assert.False(t, ok)
	assert.Equal(t, []string{Entry}, e.Names())
}

func TestFiltered(t *testing.T) {
	d := NewDataset(Entry, "Entry", []types.NormalizedRecord{
		{Status: types.StatusCompleted, DateKey: "2024-05-01", Isyeri: "A"},
		{Status: types.StatusError, DateKey: "2024-05-03", Isyeri: "B"},
	}, 5)

	assert.Same(t, d, d.Filtered(aggregator.Filter{}))

	f := d.Filtered(aggregator.Filter{Site: "B"})
	assert.Equal(t, 1, f.Stats.Total)
	assert.Equal(t, 1, f.Stats.Error)
	assert.Equal(t, 2, d.Stats.Total)
}

func TestInput(t *testing.T) {
	d := NewDataset(Entry, "Entry", []types.NormalizedRecord{{Status: types.StatusCompleted}}, 5)

	in := d.Input("toplam kayıt")
	assert.Equal(t, "toplam kayıt", in.Question)
	assert.Equal(t, d.Stats, in.Stats)
	assert.Len(t, in.Records, 1)
}
