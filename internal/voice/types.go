package voice

import "github.com/danielpatrickdp/symbiote-voice/internal/observation"

// #region outcome
// Outcome is what became of a line handed to the voice.
type Outcome string

const (
	OutcomeSpoken      Outcome = "spoken"
	OutcomeCooledDown  Outcome = "cooled_down"
	OutcomeUnknownLine Outcome = "unknown_line"

	// Set by the arbiter before a line reaches the voice.
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeSilent     Outcome = "silent"
)

// #endregion outcome

// #region delivery
// StyledText is a line ready for the renderer. Color and prefix are the renderer's job.
type StyledText struct {
	Text     string
	LineKey  string
	Tier     observation.Tier
	Category observation.Category
}

// Deliverer hands a line to the game for display.
type Deliverer func(player observation.PlayerID, text StyledText)

// LineSource resolves line keys to text.
type LineSource interface {
	Text(key string) (string, bool)
}

// #endregion delivery

// #region config
// Config holds per-category cooldowns in ticks.
// A category mapped to 0 (or missing) has no cooldown.
type Config struct {
	Cooldowns map[observation.Category]int64
}

// DefaultConfig returns the tuned cooldowns.
func DefaultConfig() Config {
	return Config{
		Cooldowns: map[observation.Category]int64{
			observation.EnvironmentalHazard: 400,
			observation.CombatDamage:        200,
			observation.FallDamage:          300,
			observation.PlayerState:         600,
			observation.Sleep:               1200,
			observation.BondingMilestone:    0,
			observation.MiningAnchor:        800,
		},
	}
}

// #endregion config
