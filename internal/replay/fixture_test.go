package replay

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/symbiote-voice/internal/dialogue"
	"github.com/danielpatrickdp/symbiote-voice/internal/logging"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "first_contact.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Steps) != 9 {
		t.Fatalf("expected 9 steps, got %d", len(f.Steps))
	}
	steps, err := f.ToSteps()
	if err != nil {
		t.Fatalf("ToSteps: %v", err)
	}
	if steps[1].Kind != KindDamage || steps[1].Damage != 1.5 {
		t.Errorf("unexpected damage step: %+v", steps[1])
	}
	if got := steps[5].Context["source"]; !got.Equal(dialogue.String("lava")) {
		t.Errorf("expected lava context, got %v", got)
	}
}

func TestLoadFixtureErrors(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{"), 0o644)
	if _, err := LoadFixture(path); err == nil || !strings.Contains(err.Error(), "parse fixture") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestToStepsRejectsInvalid(t *testing.T) {
	cases := map[string][]FixtureStep{
		"unknown kind":       {{StepID: "a", Kind: "teleport"}},
		"unknown category":   {{StepID: "a", Kind: "observe", Category: "weather"}},
		"non-damage damage":  {{StepID: "a", Kind: "damage", Category: "sleep", Damage: 1}},
		"ticks go backwards": {{StepID: "a", Kind: "dream", Tick: 10}, {StepID: "b", Kind: "dream", Tick: 9}},
		"nested context":     {{StepID: "a", Kind: "observe", Category: "sleep", Context: map[string]any{"x": []any{1}}}},
	}
	for name, steps := range cases {
		t.Run(name, func(t *testing.T) {
			f := &Fixture{Steps: steps}
			if _, err := f.ToSteps(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestContextNumbers(t *testing.T) {
	got, err := contextValues(map[string]any{"depth": 12.0, "ratio": 0.25, "lit": false})
	if err != nil {
		t.Fatalf("contextValues: %v", err)
	}
	if !got["depth"].Equal(dialogue.Int(12)) {
		t.Errorf("expected Int(12), got %v", got["depth"])
	}
	if !got["ratio"].Equal(dialogue.Float(0.25)) {
		t.Errorf("expected Float(0.25), got %v", got["ratio"])
	}
	if !got["lit"].Equal(dialogue.Bool(false)) {
		t.Errorf("expected Bool(false), got %v", got["lit"])
	}
}

func TestFixtureStartAndPlayer(t *testing.T) {
	rec := progress.ToRecord(progress.Default.WithDreamState(40, 2))
	f := &Fixture{PlayerID: "6f1c2a4e-93b1-4d3e-b5a2-0c8f7e9d1a22", StartState: &rec}

	start, err := f.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if start.DreamLevel() != 2 || start.LastDreamTick() != 40 {
		t.Errorf("unexpected start tracker: level=%d tick=%d", start.DreamLevel(), start.LastDreamTick())
	}
	if _, err := f.Player(); err != nil {
		t.Fatalf("Player: %v", err)
	}

	f.PlayerID = "nobody"
	if _, err := f.Player(); err == nil {
		t.Fatal("expected bad player id error")
	}
	bad := progress.Record{Signals: map[string]progress.SignalRecord{"x": {State: "lost"}}}
	f.StartState = &bad
	if _, err := f.Start(); err == nil {
		t.Fatal("expected corrupt start_state error")
	}
}

func TestFixtureConfigOverrides(t *testing.T) {
	fc := FixtureConfig{Cooldowns: map[string]int64{"combat": 5}, DamageThreshold: 2, StallThreshold: 10}
	cfg, err := fc.ToReplayConfig(DefaultConfig())
	if err != nil {
		t.Fatalf("ToReplayConfig: %v", err)
	}
	if cfg.Voice.Cooldowns[observation.CombatDamage] != 5 || cfg.Voice.Cooldowns[observation.FallDamage] != 300 {
		t.Errorf("unexpected cooldowns: %v", cfg.Voice.Cooldowns)
	}
	if cfg.Chaos.DamageThreshold != 2 || cfg.Chaos.WindowTicks != 60 || cfg.Dream.StallThreshold != 10 {
		t.Errorf("unexpected overrides: %+v %+v", cfg.Chaos, cfg.Dream)
	}
	if DefaultConfig().Voice.Cooldowns[observation.CombatDamage] != 200 {
		t.Error("base config was mutated")
	}

	if _, err := (FixtureConfig{Cooldowns: map[string]int64{"weather": 1}}).ToReplayConfig(DefaultConfig()); err == nil {
		t.Fatal("expected unknown category error")
	}
}

func TestWriteFixtureRoundTrip(t *testing.T) {
	level := 1
	f := &Fixture{
		Description:     "round trip",
		Steps:           []FixtureStep{{StepID: "d", Kind: "dream", Tick: 3}},
		ExpectedResults: []FixtureExpectedResult{{StepID: "d", Outcome: "spoken", DreamLevel: &level}},
	}
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteFixture(path, f); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}
	got, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if got.Description != f.Description || len(got.Steps) != 1 || *got.ExpectedResults[0].DreamLevel != 1 {
		t.Errorf("fixture changed across write/load: %+v", got)
	}
}

func TestFromDecisions(t *testing.T) {
	entries := []logging.DecisionEntry{
		{ObservationID: "1", Kind: "observe", Category: "combat", Tier: "tier_2", LineKey: "combat.breakthrough.first",
			Outcome: "spoken", Tick: 5, InputsJSON: `{"severity":85,"context":{"source":"zombie"}}`},
		{ObservationID: "2", Kind: "dream", Category: "dream_reflective", Tier: "tier_2", LineKey: "dream.reflective.stalled",
			Outcome: "spoken", Tick: 10, InputsJSON: `{"severity":0,"dream_level":0}`},
	}
	f, err := FromDecisions("6f1c2a4e-93b1-4d3e-b5a2-0c8f7e9d1a22", entries)
	if err != nil {
		t.Fatalf("FromDecisions: %v", err)
	}
	if len(f.Steps) != 2 || f.Steps[0].Severity != 85 || f.Steps[0].Context["source"] != "zombie" {
		t.Fatalf("unexpected steps: %+v", f.Steps)
	}
	if f.Steps[1].Kind != "dream" || f.ExpectedResults[1].DreamLevel == nil || *f.ExpectedResults[1].DreamLevel != 0 {
		t.Fatalf("unexpected dream step: %+v %+v", f.Steps[1], f.ExpectedResults[1])
	}

	// the exported fixture replays to the same decisions
	results, _, err := Run(f, dialogue.NewRepository(dialogue.DefaultCorpus()), DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mm := Check(results, f.ExpectedResults); len(mm) != 0 {
		t.Fatalf("exported fixture does not replay: %v", mm)
	}

	if _, err := FromDecisions("p", []logging.DecisionEntry{{Kind: "teleport"}}); err == nil {
		t.Fatal("expected unknown kind error")
	}
	if _, err := FromDecisions("p", []logging.DecisionEntry{{Kind: "observe", InputsJSON: "{"}}); err == nil {
		t.Fatal("expected inputs parse error")
	}
}

func TestFromDecisionWindowSeedsStartState(t *testing.T) {
	earlier := []logging.DecisionEntry{
		{ObservationID: "1", Kind: "observe", Category: "combat", Tier: "tier_2", Outcome: "spoken", Tick: 5,
			InputsJSON: `{"severity":85}`},
		{ObservationID: "2", Kind: "dream", Category: "dream_reflective", Tier: "tier_2", Outcome: "spoken", Tick: 10,
			InputsJSON: `{"severity":0,"dream_level":0}`},
		{ObservationID: "3", Kind: "dream", Category: "dream_directional", Tier: "tier_2", Outcome: "spoken", Tick: 20,
			InputsJSON: `{"severity":0,"dream_level":1}`},
	}
	window := []logging.DecisionEntry{
		{ObservationID: "4", Kind: "dream", Category: "dream_anchored", Tier: "tier_2", Outcome: "spoken", Tick: 30,
			InputsJSON: `{"severity":0,"dream_level":2}`},
		{ObservationID: "5", Kind: "observe", Category: "combat", Tier: "tier_1", Tick: 300,
			InputsJSON: `{"severity":85}`},
	}
	policy := DefaultConfig().Arbiter.Policy

	seed, err := SeedState(earlier, policy)
	if err != nil {
		t.Fatalf("SeedState: %v", err)
	}
	if !seed.HasReachedState("first_combat", progress.StateSeen) || seed.DreamLevel() != 1 ||
		seed.LastDreamTick() != 20 || seed.LastProgressTick() != 5 {
		t.Fatalf("unexpected seed: %+v", progress.ToRecord(seed))
	}

	f, err := FromDecisionWindow("6f1c2a4e-93b1-4d3e-b5a2-0c8f7e9d1a22", earlier, window, policy)
	if err != nil {
		t.Fatalf("FromDecisionWindow: %v", err)
	}
	if f.StartState == nil {
		t.Fatal("expected a start state")
	}
	results, _, err := Run(f, dialogue.NewRepository(dialogue.DefaultCorpus()), DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mm := Check(results, f.ExpectedResults); len(mm) != 0 {
		t.Fatalf("windowed fixture does not replay: %v", mm)
	}

	// from the default tracker the same window diverges
	f.StartState = nil
	results, _, err = Run(f, dialogue.NewRepository(dialogue.DefaultCorpus()), DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mm := Check(results, f.ExpectedResults); len(mm) != 2 {
		t.Fatalf("expected both steps to diverge without a start state, got %v", mm)
	}

	if _, err := SeedState([]logging.DecisionEntry{{Kind: "observe", Category: "weather"}}, policy); err == nil {
		t.Fatal("expected unknown category error")
	}
	if _, err := SeedState([]logging.DecisionEntry{{Kind: "dream", InputsJSON: `{"severity":0}`}}, policy); err == nil {
		t.Fatal("expected missing dream level error")
	}

	f, err = FromDecisionWindow("p", nil, window, policy)
	if err != nil || f.StartState != nil {
		t.Fatalf("empty history should keep the default start: %v %+v", err, f)
	}
}
