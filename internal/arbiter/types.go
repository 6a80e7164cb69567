package arbiter

import (
	"github.com/google/uuid"

	"github.com/danielpatrickdp/symbiote-voice/internal/dialogue"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
	"github.com/danielpatrickdp/symbiote-voice/internal/voice"
)

// #region config
// Config holds arbitration thresholds.
type Config struct {
	// Severity at or above which a first-time event is a breakthrough.
	FirstTimeSeverity int
	Policy            progress.AdvancePolicy
}

// DefaultConfig returns the tuned arbitration config.
func DefaultConfig() Config {
	return Config{
		FirstTimeSeverity: 80,
		Policy:            progress.DefaultThresholdPolicy().Advance,
	}
}

// #endregion config

// #region result
// ReasonStoreUnavailable is the Result reason when progress could not be loaded.
const ReasonStoreUnavailable = "store unavailable"

// Result is the outcome of one observation.
type Result struct {
	ObservationID uuid.UUID
	Tier          observation.Tier
	LineKey       string // empty when no line matched
	Outcome       voice.Outcome
	Reason        string
	Tracker       progress.Tracker // as saved after the observation
}

// #endregion result

// #region collaborators
// Selector picks a line for a selection context.
type Selector interface {
	Select(ctx dialogue.SelectionContext) (dialogue.Line, bool)
}

// #endregion collaborators
