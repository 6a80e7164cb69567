package replay

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/danielpatrickdp/symbiote-voice/internal/dialogue"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	PlayerID        string                  `json:"player_id,omitempty"`
	StartState      *progress.Record        `json:"start_state,omitempty"`
	Config          FixtureConfig           `json:"config"`
	Steps           []FixtureStep           `json:"steps"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureStep is one recorded event. Kind is "observe", "damage", "dream" or "forget".
type FixtureStep struct {
	StepID   string         `json:"step_id"`
	Kind     string         `json:"kind"`
	Tick     int64          `json:"tick"`
	Category string         `json:"category,omitempty"`
	Severity int            `json:"severity,omitempty"`
	Damage   float64        `json:"damage,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// FixtureExpectedResult captures the expected outcome per step.
// Empty fields are not checked.
type FixtureExpectedResult struct {
	StepID     string `json:"step_id"`
	Outcome    string `json:"outcome"`
	LineKey    string `json:"line_key,omitempty"`
	Tier       string `json:"tier,omitempty"`
	DreamLevel *int   `json:"dream_level,omitempty"`
}

// FixtureConfig overrides parts of the replay config. Zero values keep the base.
type FixtureConfig struct {
	Cooldowns       map[string]int64 `json:"cooldowns,omitempty"`
	WindowTicks     int64            `json:"window_ticks,omitempty"`
	DamageThreshold int              `json:"damage_threshold,omitempty"`
	StallThreshold  int              `json:"stall_threshold,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture encodes f as indented JSON to path.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// Player returns the fixture's player, or a fixed id when none is set.
func (f *Fixture) Player() (observation.PlayerID, error) {
	if f.PlayerID == "" {
		return observation.PlayerID{}, nil
	}
	id, err := observation.ParsePlayerID(f.PlayerID)
	if err != nil {
		return observation.PlayerID{}, fmt.Errorf("fixture player_id: %w", err)
	}
	return id, nil
}

// Start returns the starting tracker.
func (f *Fixture) Start() (progress.Tracker, error) {
	if f.StartState == nil {
		return progress.Default, nil
	}
	t, err := progress.FromRecord(*f.StartState)
	if err != nil {
		return progress.Default, fmt.Errorf("fixture start_state: %w", err)
	}
	return t, nil
}

// ToSteps validates and converts the fixture steps. Ticks must not go backwards.
func (f *Fixture) ToSteps() ([]Step, error) {
	steps := make([]Step, 0, len(f.Steps))
	var last int64
	for i, fs := range f.Steps {
		s, err := fs.toStep()
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, fs.StepID, err)
		}
		if i > 0 && s.Tick < last {
			return nil, fmt.Errorf("step %d (%s): tick %d before %d", i, fs.StepID, s.Tick, last)
		}
		last = s.Tick
		steps = append(steps, s)
	}
	return steps, nil
}

func (fs FixtureStep) toStep() (Step, error) {
	s := Step{ID: fs.StepID, Kind: StepKind(fs.Kind), Tick: fs.Tick, Severity: fs.Severity, Damage: fs.Damage}
	switch s.Kind {
	case KindObserve, KindDamage:
		c, ok := observation.ParseCategory(fs.Category)
		if !ok {
			return Step{}, fmt.Errorf("unknown category %q", fs.Category)
		}
		if s.Kind == KindDamage && !c.IsDamage() {
			return Step{}, fmt.Errorf("%s is not a damage category", fs.Category)
		}
		s.Category = c
	case KindDream, KindForget:
	default:
		return Step{}, fmt.Errorf("unknown kind %q", fs.Kind)
	}

	ctx, err := contextValues(fs.Context)
	if err != nil {
		return Step{}, err
	}
	s.Context = ctx
	return s, nil
}

// contextValues converts JSON-decoded values. Integral numbers become Int.
func contextValues(m map[string]any) (map[string]dialogue.ContextValue, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]dialogue.ContextValue, len(m))
	for k, v := range m {
		switch x := v.(type) {
		case string:
			out[k] = dialogue.String(x)
		case bool:
			out[k] = dialogue.Bool(x)
		case float64:
			if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
				out[k] = dialogue.Int(int64(x))
			} else {
				out[k] = dialogue.Float(x)
			}
		case int:
			out[k] = dialogue.Int(int64(x))
		case int64:
			out[k] = dialogue.Int(x)
		default:
			return nil, fmt.Errorf("context %q has unsupported type %T", k, v)
		}
	}
	return out, nil
}

// ToReplayConfig applies the fixture overrides onto base.
func (fc FixtureConfig) ToReplayConfig(base Config) (Config, error) {
	cfg := base
	if len(fc.Cooldowns) > 0 {
		cooldowns := make(map[observation.Category]int64, len(base.Voice.Cooldowns)+len(fc.Cooldowns))
		for c, v := range base.Voice.Cooldowns {
			cooldowns[c] = v
		}
		for key, v := range fc.Cooldowns {
			c, ok := observation.ParseCategory(key)
			if !ok {
				return base, fmt.Errorf("fixture cooldown for unknown category %q", key)
			}
			cooldowns[c] = v
		}
		cfg.Voice.Cooldowns = cooldowns
	}
	if fc.WindowTicks > 0 {
		cfg.Chaos.WindowTicks = fc.WindowTicks
	}
	if fc.DamageThreshold > 0 {
		cfg.Chaos.DamageThreshold = fc.DamageThreshold
	}
	if fc.StallThreshold > 0 {
		cfg.Dream.StallThreshold = fc.StallThreshold
	}
	return cfg, nil
}

// #endregion fixture-loader
