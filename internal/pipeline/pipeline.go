// Package pipeline turns record sources into immutable, query-ready datasets.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"hr-insights-go/internal/aggregator"
	"hr-insights-go/internal/dataset"
	"hr-insights-go/internal/intent"
	"hr-insights-go/internal/logger"
	"hr-insights-go/internal/metrics"
	"hr-insights-go/internal/types"
)

const (
	Entry    = "entry"
	Exit     = "exit"
	Combined = "combined"
)

// Source names one record file and the label shown in summaries.
type Source struct {
	Name  string
	Label string
	Path  string
}

// Dataset is a normalized record set with everything precomputed from it.
// It is never mutated after construction.
type Dataset struct {
	Name        string
	Label       string
	Records     []types.NormalizedRecord
	Index       dataset.EntityIndex
	Stats       types.StatsSnapshot
	LatestMonth *types.MonthSummary
	Skipped     int
}

// NewDataset computes stats, index and the latest month summary for records.
func NewDataset(name, label string, records []types.NormalizedRecord, topN int) *Dataset {
	return newDataset(name, label, records, dataset.BuildIndex(records), topN)
}

func newDataset(name, label string, records []types.NormalizedRecord, ix dataset.EntityIndex, topN int) *Dataset {
	d := &Dataset{
		Name:    name,
		Label:   label,
		Records: records,
		Index:   ix,
		Stats:   aggregator.ComputeStats(records, topN),
	}
	if m, ok := aggregator.LatestMonthSummary(records, topN); ok {
		d.LatestMonth = &m
	}
	return d
}

// Input adapts the dataset for the intent resolver.
func (d *Dataset) Input(question string) intent.Input {
	return intent.Input{
		Question:    question,
		Index:       d.Index,
		Records:     d.Records,
		Stats:       d.Stats,
		LatestMonth: d.LatestMonth,
	}
}

// Context renders the grounding summary for this dataset.
func (d *Dataset) Context() string {
	return dataset.BuildContext(d.Stats, d.Label)
}

// Filtered recomputes everything over the records matching f.
func (d *Dataset) Filtered(f aggregator.Filter) *Dataset {
	if f.IsZero() {
		return d
	}
	return NewDataset(d.Name, d.Label, f.Apply(d.Records), d.Stats.TopN)
}

// Combine concatenates datasets into a new one. Inputs are left untouched.
func Combine(name, label string, topN int, parts ...*Dataset) *Dataset {
	n := 0
	for _, p := range parts {
		n += len(p.Records)
	}
	records := make([]types.NormalizedRecord, 0, n)
	var ix dataset.EntityIndex
	for i, p := range parts {
		records = append(records, p.Records...)
		if i == 0 {
			ix = p.Index
			continue
		}
		ix = dataset.MergeIndex(ix, p.Index)
	}
	return newDataset(name, label, records, ix, topN)
}

// LoadDataset reads and normalizes src. A missing or unreadable source is
// logged and yields an empty dataset rather than an error.
func LoadDataset(src Source, topN int, log *logger.Logger) *Dataset {
	entry := log.WithField("dataset", src.Name).WithField("path", src.Path)
	start := time.Now()

	res, err := dataset.Load(src.Path)
	if err != nil {
		entry.WithField("error", err.Error()).Warn("dataset unavailable, continuing with empty set")
		return NewDataset(src.Name, src.Label, nil, topN)
	}

	d := NewDataset(src.Name, src.Label, dataset.Normalize(res.Records), topN)
	d.Skipped = res.Skipped
	entry.WithField("records", len(d.Records)).
		WithField("skipped", res.Skipped).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("dataset loaded")
	return d
}

// Engine holds the loaded datasets for the life of the process.
type Engine struct {
	datasets map[string]*Dataset
	topN     int
}

// Build loads every source concurrently.
func Build(ctx context.Context, sources []Source, topN int, log *logger.Logger) (*Engine, error) {
	log = log.Component("pipeline")
	if topN <= 0 {
		topN = aggregator.DefaultTopN
	}

	loaded := make([]*Dataset, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			loaded[i] = LoadDataset(src, topN, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading datasets: %w", err)
	}

	e := &Engine{datasets: make(map[string]*Dataset, len(loaded)), topN: topN}
	for _, d := range loaded {
		e.datasets[d.Name] = d
	}
	for name, d := range e.datasets {
		metrics.SetDatasetRecords(name, len(d.Records))
	}
	return e, nil
}

// NewEngine wraps already-built datasets.
func NewEngine(topN int, datasets ...*Dataset) *Engine {
	e := &Engine{datasets: make(map[string]*Dataset, len(datasets)), topN: topN}
	for _, d := range datasets {
		e.datasets[d.Name] = d
	}
	return e
}

// Dataset returns a loaded dataset by name. "combined" is derived per call.
func (e *Engine) Dataset(name string) (*Dataset, bool) {
	if name == Combined {
		return e.Combined()
	}
	d, ok := e.datasets[name]
	return d, ok
}

// Combined concatenates the entry and exit datasets. It is recomputed on every
// call and is only available when both were loaded.
func (e *Engine) Combined() (*Dataset, bool) {
	entry, ok := e.datasets[Entry]
	if !ok {
		return nil, false
	}
	exit, ok := e.datasets[Exit]
	if !ok {
		return nil, false
	}
	return Combine(Combined, "Entry+Exit", e.topN, entry, exit), true
}

// Names lists the available datasets in sorted order.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.datasets)+1)
	for n := range e.datasets {
		names = append(names, n)
	}
	_, hasEntry := e.datasets[Entry]
	_, hasExit := e.datasets[Exit]
	if hasEntry && hasExit {
		names = append(names, Combined)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) TopN() int { return e.topN }
