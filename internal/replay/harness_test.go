package replay

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/symbiote-voice/internal/dialogue"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
	"github.com/danielpatrickdp/symbiote-voice/internal/voice"
)

func defaultRepo() *dialogue.Repository {
	return dialogue.NewRepository(dialogue.DefaultCorpus())
}

// 1. The checked-in fixture replays cleanly.
func TestRun_FirstContactFixture(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "first_contact.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	results, summary, err := Run(f, defaultRepo(), DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mm := Check(results, f.ExpectedResults); len(mm) != 0 {
		for _, m := range mm {
			t.Errorf("mismatch: %s", m)
		}
	}

	if summary.Steps != 9 || summary.Dreams != 3 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if summary.Spoken != 5 || summary.CooledDown != 3 || summary.Suppressed != 1 {
		t.Errorf("unexpected outcome counts: spoken=%d cooled=%d suppressed=%d",
			summary.Spoken, summary.CooledDown, summary.Suppressed)
	}
	if summary.FinalTracker.DreamLevel() != 2 {
		t.Errorf("expected final dream level 2, got %d", summary.FinalTracker.DreamLevel())
	}
	sig, ok := summary.FinalTracker.Signal("first_combat")
	if !ok || sig.InteractionCount != 5 || sig.State != progress.StateTouched {
		t.Errorf("unexpected combat signal: %+v", sig)
	}
}

// 2. Spoken steps carry the delivered text.
func TestReplay_TextIsCaptured(t *testing.T) {
	repo := defaultRepo()
	steps := []Step{
		{ID: "a", Kind: KindObserve, Category: observation.Sleep, Tick: 0},
		{ID: "b", Kind: KindObserve, Category: observation.Sleep, Tick: 1},
	}
	results, _ := Replay(uuid.New(), progress.Default, steps, repo, DefaultConfig())

	want, _ := repo.Text(results[0].LineKey)
	if results[0].Text != want || want == "" {
		t.Errorf("expected delivered text %q, got %q", want, results[0].Text)
	}
	if results[1].Outcome != voice.OutcomeCooledDown || results[1].Text != "" {
		t.Errorf("expected silent cooldown, got %+v", results[1])
	}
}

// 3. Forget clears cooldowns mid-run.
func TestReplay_ForgetResetsCooldown(t *testing.T) {
	steps := []Step{
		{ID: "a", Kind: KindObserve, Category: observation.Sleep, Tick: 0},
		{ID: "f", Kind: KindForget, Tick: 1},
		{ID: "b", Kind: KindObserve, Category: observation.Sleep, Tick: 2},
	}
	results, final := Replay(uuid.New(), progress.Default, steps, defaultRepo(), DefaultConfig())
	if results[2].Outcome != voice.OutcomeSpoken {
		t.Errorf("expected spoken after forget, got %s", results[2].Outcome)
	}
	summary := Summarize(results, final)
	if summary.Spoken != 2 || summary.Silent != 0 {
		t.Errorf("forget steps should not count as silent: %+v", summary)
	}
}

// 4. A start state carries into selection.
func TestReplay_StartStateCounts(t *testing.T) {
	start := progress.Default.WithSignalUpdated("first_combat", progress.FirstSeen("first_combat", 0))
	steps := []Step{{ID: "a", Kind: KindObserve, Category: observation.CombatDamage, Severity: 90, Tick: 5}}
	results, _ := Replay(uuid.New(), start, steps, defaultRepo(), DefaultConfig())
	if results[0].Tier != "tier_1" {
		t.Errorf("expected tier_1 for an already seen concept, got %s", results[0].Tier)
	}
}

// 5. Check reports every differing field.
func TestCheck_Mismatches(t *testing.T) {
	level := 2
	results := []StepResult{{StepID: "a", Outcome: voice.OutcomeSpoken, LineKey: "x", Tier: "tier_1"}}
	expected := []FixtureExpectedResult{
		{StepID: "a", Outcome: "suppressed", LineKey: "y", Tier: "tier_2", DreamLevel: &level},
		{StepID: "zzz", Outcome: "spoken"},
	}
	mm := Check(results, expected)
	if len(mm) != 5 {
		t.Fatalf("expected 5 mismatches, got %d: %v", len(mm), mm)
	}
	if mm[4].StepID != "zzz" || mm[4].Field != "step" {
		t.Errorf("expected missing step mismatch last, got %s", mm[4])
	}
	if len(Check(results, []FixtureExpectedResult{{StepID: "a"}})) != 0 {
		t.Error("empty expectations should always match")
	}
}
