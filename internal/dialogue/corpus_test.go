package dialogue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

const sampleCorpus = `
lines:
  - key: combat.hit
    tier: tier_1
    category: combat
    min_severity: 31
    text: "Something struck us."
  - key: bond.deep
    tier: tier_2
    category: bonding_milestone
    requires:
      concept: first_bonding_milestone
      state: touched
    text: "Closer."
  - key: dream.anchor
    tier: tier_2
    category: dream_directional
    when:
      stalled_concept: first_mining_anchor
      depth: 12
      ratio: 0.5
      lit: false
    text: "Go down."
`

func TestParseCorpus(t *testing.T) {
	lines, err := ParseCorpus([]byte(sampleCorpus))
	require.NoError(t, err)
	require.Len(t, lines, 3)

	hit := lines[0]
	assert.Equal(t, observation.Tier1Ambient, hit.Tier)
	assert.Equal(t, 31, hit.MinSeverity)
	assert.Equal(t, MaxSeverity, hit.MaxSeverity)

	bond := lines[1]
	require.NotNil(t, bond.Requires)
	assert.Equal(t, progress.StateTouched, bond.Requires.State)

	dream := lines[2]
	assert.Equal(t, "dream_directional", dream.Category)
	assert.Equal(t, String("first_mining_anchor"), dream.When["stalled_concept"])
	assert.Equal(t, Int(12), dream.When["depth"])
	assert.Equal(t, Float(0.5), dream.When["ratio"])
	assert.Equal(t, Bool(false), dream.When["lit"])
}

func TestParseCorpusRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"duplicate key": `
lines:
  - {key: a, tier: tier_1, category: sleep}
  - {key: a, tier: tier_1, category: sleep}`,
		"unknown tier":     `lines: [{key: a, tier: tier_9, category: sleep}]`,
		"unknown category": `lines: [{key: a, tier: tier_1, category: dream_lucid}]`,
		"inverted range":   `lines: [{key: a, tier: tier_1, category: sleep, min_severity: 60, max_severity: 10}]`,
		"unknown state":    `lines: [{key: a, tier: tier_1, category: sleep, requires: {concept: c, state: lost}}]`,
		"missing concept":  `lines: [{key: a, tier: tier_1, category: sleep, requires: {state: seen}}]`,
		"missing key":      `lines: [{tier: tier_1, category: sleep}]`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCorpus([]byte(data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCorpus)
		})
	}
}

func TestParseCorpusRejectsBadYAML(t *testing.T) {
	_, err := ParseCorpus([]byte("lines: [\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCorpus)

	_, err = ParseCorpus([]byte(`lines: [{key: a, tier: tier_1, category: sleep, when: {x: [1, 2]}}]`))
	require.Error(t, err)
}

func TestDefaultCorpusCoversEveryCategory(t *testing.T) {
	repo := NewRepository(DefaultCorpus())
	require.Positive(t, repo.Len())

	for _, c := range observation.Categories() {
		ctx := SelectionContext{Tier: observation.Tier2Breakthrough, Category: c, Severity: 90}
		_, ok := repo.Select(ctx)
		assert.True(t, ok, "no tier 2 line for %s", c.Key())
	}
	for level := observation.L1Reflective; level <= observation.MaxDreamLevel; level++ {
		lvl := level
		ctx := SelectionContext{Tier: observation.Tier2Breakthrough, Category: observation.Sleep, Dream: &lvl}
		_, ok := repo.Select(ctx)
		assert.True(t, ok, "no line for %s", lvl.LineCategory())
	}
}

func TestLoadCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCorpus), 0o644))

	lines, err := LoadCorpus(path)
	require.NoError(t, err)
	assert.Len(t, lines, 3)

	_, err = LoadCorpus(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
