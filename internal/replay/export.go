package replay

import (
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/symbiote-voice/internal/arbiter"
	"github.com/danielpatrickdp/symbiote-voice/internal/logging"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

// FromDecisions rebuilds a fixture from logged decisions, oldest first.
// Damage reports were logged with their mapped severity and come back as
// observe steps. The start state is the default tracker; use FromDecisionWindow
// when entries do not begin at the player's first decision.
func FromDecisions(playerID string, entries []logging.DecisionEntry) (*Fixture, error) {
	f := &Fixture{
		Description: fmt.Sprintf("exported decisions for %s", playerID),
		PlayerID:    playerID,
	}
	for i, e := range entries {
		var inputs logging.DecisionInputs
		if e.InputsJSON != "" {
			if err := json.Unmarshal([]byte(e.InputsJSON), &inputs); err != nil {
				return nil, fmt.Errorf("decision %s inputs: %w", e.ObservationID, err)
			}
		}

		stepID := fmt.Sprintf("step-%03d", i+1)
		step := FixtureStep{StepID: stepID, Tick: e.Tick}
		expected := FixtureExpectedResult{StepID: stepID, Outcome: e.Outcome, LineKey: e.LineKey}
		switch e.Kind {
		case "observe":
			step.Kind = string(KindObserve)
			step.Category = e.Category
			step.Severity = inputs.Severity
			step.Context = inputs.Context
			expected.Tier = e.Tier
		case "dream":
			step.Kind = string(KindDream)
			expected.DreamLevel = inputs.DreamLevel
		default:
			return nil, fmt.Errorf("decision %s has unknown kind %q", e.ObservationID, e.Kind)
		}
		f.Steps = append(f.Steps, step)
		f.ExpectedResults = append(f.ExpectedResults, expected)
	}
	return f, nil
}

// FromDecisionWindow is FromDecisions for a window of a longer history.
// earlier holds the decisions before the window, oldest first; their progress
// becomes the fixture's start state.
func FromDecisionWindow(playerID string, earlier, window []logging.DecisionEntry, policy progress.AdvancePolicy) (*Fixture, error) {
	f, err := FromDecisions(playerID, window)
	if err != nil {
		return nil, err
	}
	if len(earlier) == 0 {
		return f, nil
	}
	start, err := SeedState(earlier, policy)
	if err != nil {
		return nil, err
	}
	rec := progress.ToRecord(start)
	f.StartState = &rec
	return f, nil
}

// SeedState replays the progress writes of logged decisions, oldest first.
// Every observation touched its category's first concept and every dream
// stamped the dream state, so the tracker is rebuilt exactly. Cooldowns and
// chaos windows are not logged and start empty.
func SeedState(entries []logging.DecisionEntry, policy progress.AdvancePolicy) (progress.Tracker, error) {
	t := progress.Default
	for _, e := range entries {
		switch e.Kind {
		case "observe":
			c, ok := observation.ParseCategory(e.Category)
			if !ok {
				return progress.Default, fmt.Errorf("decision %s has unknown category %q", e.ObservationID, e.Category)
			}
			t = arbiter.RecordInteraction(t, c.FirstConcept(), e.Tick, policy)
		case "dream":
			var inputs logging.DecisionInputs
			if e.InputsJSON != "" {
				if err := json.Unmarshal([]byte(e.InputsJSON), &inputs); err != nil {
					return progress.Default, fmt.Errorf("decision %s inputs: %w", e.ObservationID, err)
				}
			}
			if inputs.DreamLevel == nil {
				return progress.Default, fmt.Errorf("decision %s has no dream level", e.ObservationID)
			}
			t = t.WithDreamState(e.Tick, *inputs.DreamLevel)
		default:
			return progress.Default, fmt.Errorf("decision %s has unknown kind %q", e.ObservationID, e.Kind)
		}
	}
	return t, nil
}
