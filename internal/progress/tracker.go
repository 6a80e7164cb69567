package progress

import (
	"maps"
	"slices"
	"strings"

	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
)

// #region tracker
// Tracker is the per-player aggregate of concept signals plus dream bookkeeping.
// It is an immutable value: every With* method returns a new Tracker and the
// receiver is never modified, so instances can be shared freely.
// Only the serialized tick context may load and persist trackers.
type Tracker struct {
	signals          map[string]ConceptSignal
	lastDreamTick    int64
	dreamLevel       int
	lastProgressTick int64
}

// Default is the empty tracker. It doubles as the recovery value for corrupt records.
var Default = Tracker{}

// #endregion tracker

// #region reads
// Signal returns the signal for id, if tracked.
func (t Tracker) Signal(id string) (ConceptSignal, bool) {
	s, ok := t.signals[id]
	return s, ok
}

// HasReachedState reports whether concept id has reached at least min.
// Unknown concepts have reached nothing.
func (t Tracker) HasReachedState(id string, min SignalState) bool {
	s, ok := t.signals[id]
	if !ok {
		return false
	}
	return s.State.AtLeast(min)
}

// LastDreamTick is the tick of the most recent dream.
func (t Tracker) LastDreamTick() int64 { return t.lastDreamTick }

// DreamLevel is the raw dream level, always in [0, 2].
func (t Tracker) DreamLevel() int { return t.dreamLevel }

// Level is DreamLevel as the shared enum.
func (t Tracker) Level() observation.DreamLevel {
	return observation.DreamLevelFromInt(t.dreamLevel)
}

// LastProgressTick is the tick of the most recent progress.
func (t Tracker) LastProgressTick() int64 { return t.lastProgressTick }

// HasProgressSinceLastDream reports whether progress happened after the last dream.
func (t Tracker) HasProgressSinceLastDream() bool {
	return t.lastProgressTick > t.lastDreamTick
}

// Len is the number of tracked concepts.
func (t Tracker) Len() int { return len(t.signals) }

// ConceptIDs returns tracked concept ids in ascending order.
func (t Tracker) ConceptIDs() []string {
	return slices.Sorted(maps.Keys(t.signals))
}

// Equal reports value equality.
func (t Tracker) Equal(o Tracker) bool {
	return t.lastDreamTick == o.lastDreamTick &&
		t.dreamLevel == o.dreamLevel &&
		t.lastProgressTick == o.lastProgressTick &&
		maps.Equal(t.signals, o.signals)
}

// #endregion reads

// #region updates
// WithSignalUpdated returns a tracker where id maps to sig.
func (t Tracker) WithSignalUpdated(id string, sig ConceptSignal) Tracker {
	next := t
	next.signals = make(map[string]ConceptSignal, len(t.signals)+1)
	maps.Copy(next.signals, t.signals)
	next.signals[id] = sig
	return next
}

// WithDreamState returns a tracker stamped with a dream at tick and the given level.
func (t Tracker) WithDreamState(tick int64, level int) Tracker {
	next := t
	next.lastDreamTick = tick
	next.dreamLevel = int(observation.DreamLevelFromInt(level))
	return next
}

// WithProgressTick returns a tracker with lastProgressTick set to tick.
func (t Tracker) WithProgressTick(tick int64) Tracker {
	next := t
	next.lastProgressTick = tick
	return next
}

// #endregion updates

// #region queries
// StalledSignals returns signals with stall score >= threshold, highest score
// first; equal scores are ordered by concept id ascending.
func (t Tracker) StalledSignals(currentTick int64, threshold int) []ConceptSignal {
	type scored struct {
		sig   ConceptSignal
		score int
	}
	var hits []scored
	for _, s := range t.signals {
		score := s.CalculateStallScore(currentTick)
		if score >= threshold {
			hits = append(hits, scored{s, score})
		}
	}
	slices.SortFunc(hits, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}
		return strings.Compare(a.sig.ConceptID, b.sig.ConceptID)
	})
	out := make([]ConceptSignal, len(hits))
	for i, h := range hits {
		out[i] = h.sig
	}
	return out
}

// MostStalled returns the first entry of StalledSignals.
func (t Tracker) MostStalled(currentTick int64, threshold int) (ConceptSignal, bool) {
	stalled := t.StalledSignals(currentTick, threshold)
	if len(stalled) == 0 {
		return ConceptSignal{}, false
	}
	return stalled[0], true
}

// SignalsInState returns every signal currently in state, by concept id.
func (t Tracker) SignalsInState(state SignalState) []ConceptSignal {
	return t.filter(func(s ConceptSignal) bool { return s.State == state })
}

// PartiallyCompleteSignals returns TOUCHED and STABILIZED signals, by concept id.
func (t Tracker) PartiallyCompleteSignals() []ConceptSignal {
	return t.filter(func(s ConceptSignal) bool {
		return s.State == StateTouched || s.State == StateStabilized
	})
}

func (t Tracker) filter(keep func(ConceptSignal) bool) []ConceptSignal {
	var out []ConceptSignal
	for _, id := range t.ConceptIDs() {
		if s := t.signals[id]; keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// #endregion queries
