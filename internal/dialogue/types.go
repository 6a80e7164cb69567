package dialogue

import (
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

// Severity bounds used when a line does not narrow its range.
const (
	MinSeverity = 0
	MaxSeverity = 100
)

// #region prerequisite
// Prerequisite gates a line on a concept having reached a state.
type Prerequisite struct {
	Concept string
	State   progress.SignalState
}

// #endregion prerequisite

// #region line
// Line is one authored symbiote utterance.
type Line struct {
	Key         string
	Tier        observation.Tier
	Category    string // category key, or a dream line category such as "dream_reflective"
	MinSeverity int
	MaxSeverity int
	Requires    *Prerequisite
	When        map[string]ContextValue
	Text        string
}

// SeverityInRange reports whether severity is within [MinSeverity, MaxSeverity].
func (l Line) SeverityInRange(severity int) bool {
	return severity >= l.MinSeverity && severity <= l.MaxSeverity
}

// Specificity counts the narrowing tags on the line.
func (l Line) Specificity() int {
	n := len(l.When)
	if l.MinSeverity > MinSeverity || l.MaxSeverity < MaxSeverity {
		n++
	}
	if l.Requires != nil {
		n++
	}
	return n
}

// #endregion line

// #region selection-context
// SelectionContext is everything selection may look at.
type SelectionContext struct {
	Tier       observation.Tier
	Category   observation.Category
	Severity   int
	Dream      *observation.DreamLevel // set for dream requests only
	Additional map[string]ContextValue
	Tracker    progress.Tracker
}

// LineCategory is the corpus category the context selects from.
func (c SelectionContext) LineCategory() string {
	if c.Dream != nil {
		return c.Dream.LineCategory()
	}
	return c.Category.Key()
}

// #endregion selection-context
