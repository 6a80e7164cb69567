package replay

import (
	"fmt"

	"github.com/danielpatrickdp/symbiote-voice/internal/arbiter"
	"github.com/danielpatrickdp/symbiote-voice/internal/chaos"
	"github.com/danielpatrickdp/symbiote-voice/internal/dialogue"
	"github.com/danielpatrickdp/symbiote-voice/internal/dream"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
	"github.com/danielpatrickdp/symbiote-voice/internal/store"
	"github.com/danielpatrickdp/symbiote-voice/internal/voice"
)

// #region types
// StepKind names what a replay step does.
type StepKind string

const (
	KindObserve StepKind = "observe"
	KindDamage  StepKind = "damage"
	KindDream   StepKind = "dream"
	KindForget  StepKind = "forget"
)

// Step is a single recorded event for replay.
type Step struct {
	ID       string
	Kind     StepKind
	Tick     int64
	Category observation.Category
	Severity int
	Damage   float64 // raw damage for KindDamage
	Context  map[string]dialogue.ContextValue
}

// Config bundles every component config for a replay run.
type Config struct {
	Arbiter arbiter.Config
	Voice   voice.Config
	Chaos   chaos.Config
	Dream   dream.Config
}

// DefaultConfig returns the tuned defaults for every component.
func DefaultConfig() Config {
	return Config{
		Arbiter: arbiter.DefaultConfig(),
		Voice:   voice.DefaultConfig(),
		Chaos:   chaos.DefaultConfig(),
		Dream:   dream.DefaultConfig(),
	}
}

// StepResult captures the outcome of replaying one step.
type StepResult struct {
	StepID     string        `json:"step_id"`
	Kind       StepKind      `json:"kind"`
	Tick       int64         `json:"tick"`
	Tier       string        `json:"tier,omitempty"`
	LineKey    string        `json:"line_key,omitempty"`
	Text       string        `json:"text,omitempty"` // delivered text, empty unless spoken
	Outcome    voice.Outcome `json:"outcome"`
	Reason     string        `json:"reason,omitempty"`
	DreamLevel *int          `json:"dream_level,omitempty"` // dream steps only

	StalledConcept string `json:"stalled_concept,omitempty"`
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Steps        int
	Spoken       int
	CooledDown   int
	Suppressed   int
	Silent       int
	UnknownLines int
	Dreams       int
	FinalTracker progress.Tracker
}

// Mismatch is one expected result that did not hold.
type Mismatch struct {
	StepID string
	Field  string
	Want   string
	Got    string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s want %q got %q", m.StepID, m.Field, m.Want, m.Got)
}

// #endregion types

// #region replay
// Replay runs steps for one player through a fresh in-memory engine.
func Replay(player observation.PlayerID, start progress.Tracker, steps []Step, repo *dialogue.Repository, cfg Config) ([]StepResult, progress.Tracker) {
	st := store.NewMemoryStore()
	_ = st.Save(player, start)

	var lastText string
	v := voice.NewService(cfg.Voice, repo, func(_ observation.PlayerID, s voice.StyledText) {
		lastText = s.Text
	}, nil)
	arb := arbiter.New(cfg.Arbiter, st, repo, v, chaos.New(cfg.Chaos), nil, nil)
	esc := dream.New(cfg.Dream, st, repo, v, nil, nil)

	results := make([]StepResult, 0, len(steps))
	for _, s := range steps {
		lastText = ""
		r := StepResult{StepID: s.ID, Kind: s.Kind, Tick: s.Tick}

		switch s.Kind {
		case KindObserve, KindDamage:
			severity := s.Severity
			if s.Kind == KindDamage {
				severity = arbiter.DamageToSeverity(s.Damage)
			}
			res := arb.Observe(player, s.Category, severity, s.Context, s.Tick)
			r.Tier = res.Tier.Key()
			r.LineKey = res.LineKey
			r.Outcome = res.Outcome
			r.Reason = res.Reason
		case KindDream:
			res := esc.RequestDream(player, s.Tick)
			level := int(res.Level)
			r.Tier = observation.Tier2Breakthrough.Key()
			r.LineKey = res.LineKey
			r.Outcome = res.Outcome
			r.DreamLevel = &level
			r.StalledConcept = res.StalledConcept
		case KindForget:
			arb.ForgetPlayer(player)
			r.Outcome = voice.OutcomeSilent
			r.Reason = "forgotten"
		}
		r.Text = lastText
		results = append(results, r)
	}

	final, _ := st.Load(player)
	return results, final
}

// Run replays a whole fixture.
func Run(f *Fixture, repo *dialogue.Repository, base Config) ([]StepResult, Summary, error) {
	player, err := f.Player()
	if err != nil {
		return nil, Summary{}, err
	}
	start, err := f.Start()
	if err != nil {
		return nil, Summary{}, err
	}
	steps, err := f.ToSteps()
	if err != nil {
		return nil, Summary{}, err
	}
	cfg, err := f.Config.ToReplayConfig(base)
	if err != nil {
		return nil, Summary{}, err
	}

	results, final := Replay(player, start, steps, repo, cfg)
	return results, Summarize(results, final), nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []StepResult, final progress.Tracker) Summary {
	s := Summary{Steps: len(results), FinalTracker: final}
	for _, r := range results {
		if r.Kind == KindDream {
			s.Dreams++
		}
		if r.Kind == KindForget {
			continue
		}
		switch r.Outcome {
		case voice.OutcomeSpoken:
			s.Spoken++
		case voice.OutcomeCooledDown:
			s.CooledDown++
		case voice.OutcomeSuppressed:
			s.Suppressed++
		case voice.OutcomeSilent:
			s.Silent++
		case voice.OutcomeUnknownLine:
			s.UnknownLines++
		}
	}
	return s
}

// Check compares results against expectations by step id.
func Check(results []StepResult, expected []FixtureExpectedResult) []Mismatch {
	byID := make(map[string]StepResult, len(results))
	for _, r := range results {
		byID[r.StepID] = r
	}

	var out []Mismatch
	for _, e := range expected {
		r, ok := byID[e.StepID]
		if !ok {
			out = append(out, Mismatch{StepID: e.StepID, Field: "step", Want: "present", Got: "missing"})
			continue
		}
		if e.Outcome != "" && e.Outcome != string(r.Outcome) {
			out = append(out, Mismatch{StepID: e.StepID, Field: "outcome", Want: e.Outcome, Got: string(r.Outcome)})
		}
		if e.LineKey != "" && e.LineKey != r.LineKey {
			out = append(out, Mismatch{StepID: e.StepID, Field: "line_key", Want: e.LineKey, Got: r.LineKey})
		}
		if e.Tier != "" && e.Tier != r.Tier {
			out = append(out, Mismatch{StepID: e.StepID, Field: "tier", Want: e.Tier, Got: r.Tier})
		}
		if e.DreamLevel != nil {
			got := "none"
			if r.DreamLevel != nil {
				got = fmt.Sprint(*r.DreamLevel)
			}
			if want := fmt.Sprint(*e.DreamLevel); want != got {
				out = append(out, Mismatch{StepID: e.StepID, Field: "dream_level", Want: want, Got: got})
			}
		}
	}
	return out
}

// #endregion replay
