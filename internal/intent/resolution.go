package intent

// Resolution is the outcome of running the rule cascade on a question.
// It is either Resolved or Unresolved.
type Resolution interface {
	Text() string
	Confident() bool
	resolution()
}

// Resolved is a deterministic answer produced by a rule.
type Resolved struct {
	Answer string
	// Intent names the rule that fired, e.g. "success_rate" or "entity:site".
	Intent string
	// Entity is the matched index value for entity lookups.
	Entity string
}

func (r Resolved) Text() string    { return r.Answer }
func (r Resolved) Confident() bool { return true }
func (Resolved) resolution()       {}

// Unresolved carries the text to show when no rule matched and nothing better is available.
type Unresolved struct {
	Fallback string
}

func (u Unresolved) Text() string    { return u.Fallback }
func (u Unresolved) Confident() bool { return false }
func (Unresolved) resolution()       {}
