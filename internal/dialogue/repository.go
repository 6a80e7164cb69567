package dialogue

import (
	"slices"
	"strings"
	"sync"
)

// #region repository
// Repository holds the active corpus. Safe for concurrent use; the corpus can
// be swapped while selections are running.
type Repository struct {
	mu    sync.RWMutex
	lines []Line // ordered by key
	byKey map[string]Line
}

// NewRepository creates a repository holding lines.
func NewRepository(lines []Line) *Repository {
	r := &Repository{}
	r.Replace(lines)
	return r
}

// Replace swaps the corpus.
func (r *Repository) Replace(lines []Line) {
	sorted := slices.Clone(lines)
	slices.SortFunc(sorted, func(a, b Line) int { return strings.Compare(a.Key, b.Key) })
	byKey := make(map[string]Line, len(sorted))
	for _, l := range sorted {
		byKey[l.Key] = l
	}

	r.mu.Lock()
	r.lines = sorted
	r.byKey = byKey
	r.mu.Unlock()
}

// Lookup returns the line with key.
func (r *Repository) Lookup(key string) (Line, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byKey[key]
	return l, ok
}

// Text returns the text of the line with key.
func (r *Repository) Text(key string) (string, bool) {
	l, ok := r.Lookup(key)
	return l.Text, ok
}

// Len is the corpus size.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lines)
}

// #endregion repository

// #region select
// Select picks the line for ctx. Candidates must match tier and line category,
// contain the severity, have their prerequisite reached and every When entry
// equal to the context. The most specific candidate wins; ties go to the
// lowest key. No candidate is a normal outcome.
func (r *Repository) Select(ctx SelectionContext) (Line, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category := ctx.LineCategory()
	var best Line
	found := false
	for _, l := range r.lines {
		if !matches(l, ctx, category) {
			continue
		}
		// lines are key-ordered, so a strictly greater specificity is the only upgrade
		if !found || l.Specificity() > best.Specificity() {
			best = l
			found = true
		}
	}
	return best, found
}

func matches(l Line, ctx SelectionContext, category string) bool {
	if l.Tier != ctx.Tier || l.Category != category {
		return false
	}
	if !l.SeverityInRange(ctx.Severity) {
		return false
	}
	if l.Requires != nil && !ctx.Tracker.HasReachedState(l.Requires.Concept, l.Requires.State) {
		return false
	}
	for k, want := range l.When {
		got, ok := ctx.Additional[k]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// #endregion select
