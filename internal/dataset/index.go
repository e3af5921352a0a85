package dataset

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"hr-insights-go/internal/types"
)

// Dimension names a categorical field usable for entity lookup.
type Dimension string

const (
	DimSite       Dimension = "site"
	DimDepartment Dimension = "department"
	DimPosition   Dimension = "position"
	DimExitReason Dimension = "exit_reason"
)

// Dimensions lists every dimension in lookup order.
var Dimensions = []Dimension{DimSite, DimDepartment, DimPosition, DimExitReason}

// Value returns the cleaned value of d on r.
func (d Dimension) Value(r types.NormalizedRecord) string {
	switch d {
	case DimSite:
		return r.Isyeri
	case DimDepartment:
		return r.DepartmanClean
	case DimPosition:
		return r.PozisyonClean
	case DimExitReason:
		return r.ExitReason
	}
	return ""
}

// EntityIndex holds, per dimension, the sorted distinct non-empty values.
// It is read-only after construction.
type EntityIndex struct {
	values map[Dimension][]string
}

// BuildIndex collects distinct values per dimension, sorted with Turkish collation.
func BuildIndex(records []types.NormalizedRecord) EntityIndex {
	sets := make(map[Dimension]map[string]struct{}, len(Dimensions))
	for _, d := range Dimensions {
		sets[d] = map[string]struct{}{}
	}
	for _, r := range records {
		for _, d := range Dimensions {
			if v := d.Value(r); v != "" {
				sets[d][v] = struct{}{}
			}
		}
	}
	return fromSets(sets)
}

// MergeIndex unions two indexes, used for the combined entry+exit view.
func MergeIndex(a, b EntityIndex) EntityIndex {
	sets := make(map[Dimension]map[string]struct{}, len(Dimensions))
	for _, d := range Dimensions {
		s := map[string]struct{}{}
		for _, v := range a.values[d] {
			s[v] = struct{}{}
		}
		for _, v := range b.values[d] {
			s[v] = struct{}{}
		}
		sets[d] = s
	}
	return fromSets(sets)
}

func fromSets(sets map[Dimension]map[string]struct{}) EntityIndex {
	col := collate.New(language.Turkish)
	ix := EntityIndex{values: make(map[Dimension][]string, len(sets))}
	for d, s := range sets {
		vals := make([]string, 0, len(s))
		for v := range s {
			vals = append(vals, v)
		}
		col.SortStrings(vals)
		ix.values[d] = vals
	}
	return ix
}

// Values returns the sorted values of d. Callers must not modify the slice.
func (ix EntityIndex) Values(d Dimension) []string {
	return ix.values[d]
}

// Len is the number of distinct values of d.
func (ix EntityIndex) Len(d Dimension) int {
	return len(ix.values[d])
}
