package intent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"hr-insights-go/internal/aggregator"
	"hr-insights-go/internal/dataset"
	"hr-insights-go/internal/types"
)

// UnresolvedMessage is returned when no rule fires.
const UnresolvedMessage = "I can't answer that confidently from the precomputed metrics. " +
	"Try for example: 'total records', 'success rate', 'most common department', 'top error causes'."

// Input is everything a resolution may look at. All of it is read-only.
type Input struct {
	Question    string
	Index       dataset.EntityIndex
	Records     []types.NormalizedRecord
	Stats       types.StatsSnapshot
	LatestMonth *types.MonthSummary
}

type entityRule struct {
	dim     dataset.Dimension
	label   string
	trigger trigger
}

type rule struct {
	intent  string
	trigger trigger
	answer  func(in Input) string
}

// Resolver runs an ordered, first-match-wins cascade: entity lookups, then the
// fixed keyword table. It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	entities []entityRule
	rules    []rule
}

func New() *Resolver {
	return &Resolver{entities: entityRules(), rules: keywordRules()}
}

// Resolve answers the question or reports that no rule was confident.
func (r *Resolver) Resolve(in Input) Resolution {
	q := " " + Fold(strings.TrimSpace(in.Question)) + " "

	for _, er := range r.entities {
		if !er.trigger.matches(q) {
			continue
		}
		v := longestMatch(q, in.Index.Values(er.dim))
		if v == "" {
			continue
		}
		dim := er.dim
		total, completed, errs := aggregator.SubsetCounts(in.Records, func(rec types.NormalizedRecord) bool {
			return dim.Value(rec) == v
		})
		return Resolved{
			Answer: fmt.Sprintf("%s (%s): total %d, completed %d, errors %d.", v, er.label, total, completed, errs),
			Intent: "entity:" + string(er.dim),
			Entity: v,
		}
	}

	for _, ru := range r.rules {
		if ru.trigger.matches(q) {
			return Resolved{Answer: ru.answer(in), Intent: ru.intent}
		}
	}
	return Unresolved{Fallback: UnresolvedMessage}
}

// longestMatch returns the longest value contained in q. Equal lengths keep index order.
func longestMatch(q string, values []string) string {
	best, bestLen := "", 0
	for _, v := range values {
		n := utf8.RuneCountInString(v)
		if v == "" || n <= bestLen {
			continue
		}
		if strings.Contains(q, Fold(v)) {
			best, bestLen = v, n
		}
	}
	return best
}

func entityRules() []entityRule {
	return []entityRule{
		{dim: dataset.DimSite, label: "site", trigger: words("isyeri", "işyeri", "hastane", "site", "workplace", "hospital")},
		{dim: dataset.DimDepartment, label: "department", trigger: words("departman", "department")},
		{dim: dataset.DimPosition, label: "position", trigger: words("pozisyon", "position")},
		{dim: dataset.DimExitReason, label: "exit reason", trigger: words("çıkış neden", "cikis neden", "exit reason")},
	}
}
