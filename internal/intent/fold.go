package intent

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lowercases with Turkish rules and then merges dotless ı into i, so
// "İŞYERİ", "işyeri" and "IŞYERI" compare equal. Questions, trigger words and
// index values all go through Fold before any substring test.
func Fold(s string) string {
	// a Caser keeps state, so one per call
	return strings.ReplaceAll(cases.Lower(language.Turkish).String(s), "ı", "i")
}

// allOf is one alternative of a trigger: every term must occur.
type allOf []string

// trigger matches when any of its alternatives matches.
type trigger []allOf

func newTrigger(alts ...allOf) trigger {
	t := make(trigger, len(alts))
	for i, alt := range alts {
		folded := make(allOf, len(alt))
		for j, term := range alt {
			folded[j] = Fold(term)
		}
		t[i] = folded
	}
	return t
}

func (t trigger) matches(q string) bool {
	for _, alt := range t {
		ok := true
		for _, term := range alt {
			if !strings.Contains(q, term) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// words builds a trigger where each single word is its own alternative.
func words(ws ...string) trigger {
	alts := make([]allOf, len(ws))
	for i, w := range ws {
		alts[i] = allOf{w}
	}
	return newTrigger(alts...)
}
