package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the voice_decisions table.
type DecisionEntry struct {
	ObservationID string    `json:"observation_id"`
	PlayerID      string    `json:"player_id"`
	Kind          string    `json:"kind"` // "observe" | "dream"
	Category      string    `json:"category"`
	Tier          string    `json:"tier,omitempty"`
	LineKey       string    `json:"line_key,omitempty"`
	Outcome       string    `json:"outcome"` // "spoken" | "cooled_down" | "suppressed" | "silent" | "unknown_line"
	Reason        string    `json:"reason,omitempty"`
	InputsJSON    string    `json:"inputs_json,omitempty"`
	Tick          int64     `json:"tick"`
	CreatedAt     time.Time `json:"created_at"`
}

// #endregion decision-entry

// #region decision-inputs
// DecisionInputs captures what the arbiter saw for one decision.
// Serialized as JSON into voice_decisions.inputs_json for replay.
type DecisionInputs struct {
	Severity   int            `json:"severity"`
	Context    map[string]any `json:"context,omitempty"`
	DreamLevel *int           `json:"dream_level,omitempty"`

	// Stall data fed to dream selection
	StalledConcept string `json:"stalled_concept,omitempty"`
	StallScore     int    `json:"stall_score,omitempty"`
}

// #endregion decision-inputs

// #region logger-config
// Config selects the zap logger flavour.
type Config struct {
	Level       string `toml:"level" env:"LEVEL"`
	Development bool   `toml:"development" env:"DEVELOPMENT"`
}

// DefaultConfig returns info-level production logging.
func DefaultConfig() Config {
	return Config{Level: "info"}
}

// #endregion logger-config
