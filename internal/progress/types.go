package progress

// #region signal-state
// SignalState is the ordered progress state of one concept.
// NEGLECTED is the terminal-failure branch and sits below everything else.
type SignalState string

const (
	StateSeen       SignalState = "seen"
	StateTouched    SignalState = "touched"
	StateStabilized SignalState = "stabilized"
	StateIntegrated SignalState = "integrated"
	StateNeglected  SignalState = "neglected"
)

// ProgressLevel is the numeric rank used for >= comparisons.
func (s SignalState) ProgressLevel() int {
	switch s {
	case StateSeen:
		return 1
	case StateTouched:
		return 2
	case StateStabilized:
		return 3
	case StateIntegrated:
		return 4
	case StateNeglected:
		return -1
	}
	return 0
}

// AtLeast reports whether s has reached min.
func (s SignalState) AtLeast(min SignalState) bool {
	return s.ProgressLevel() >= min.ProgressLevel()
}

// Valid reports whether s is one of the declared states.
func (s SignalState) Valid() bool {
	return s.ProgressLevel() != 0
}

// ParseSignalState resolves a state name.
func ParseSignalState(name string) (SignalState, bool) {
	s := SignalState(name)
	return s, s.Valid()
}

// #endregion signal-state

// #region concept-signal
// ConceptSignal is one progression thread for one player.
type ConceptSignal struct {
	ConceptID           string
	State               SignalState
	FirstSeenTick       int64
	LastInteractionTick int64
	InteractionCount    int
}

// #endregion concept-signal

// #region advance-policy
// AdvancePolicy maps (old state, interaction count after increment) to the next state.
// Must be pure.
type AdvancePolicy func(old SignalState, count int) SignalState

// ThresholdPolicy advances on interaction-count thresholds.
type ThresholdPolicy struct {
	TouchedAt    int // count at which SEEN becomes TOUCHED
	StabilizedAt int // count at which TOUCHED becomes STABILIZED
	IntegratedAt int // count at which STABILIZED becomes INTEGRATED
}

// DefaultThresholdPolicy returns the tuned defaults.
func DefaultThresholdPolicy() ThresholdPolicy {
	return ThresholdPolicy{
		TouchedAt:    3,
		StabilizedAt: 8,
		IntegratedAt: 20,
	}
}

// Advance implements AdvancePolicy.
func (p ThresholdPolicy) Advance(old SignalState, count int) SignalState {
	target := StateSeen
	switch {
	case count >= p.IntegratedAt:
		target = StateIntegrated
	case count >= p.StabilizedAt:
		target = StateStabilized
	case count >= p.TouchedAt:
		target = StateTouched
	}
	if old.ProgressLevel() > target.ProgressLevel() {
		return old
	}
	return target
}

// #endregion advance-policy

// #region stall-windows
// Ticks of inactivity after which a concept in the given state scores 100.
// Early states go stale faster.
var stallWindows = map[SignalState]int64{
	StateSeen:       6000,
	StateTouched:    12000,
	StateStabilized: 24000,
	StateIntegrated: 48000,
}

// MaxStallScore is the ceiling of CalculateStallScore.
const MaxStallScore = 100

// #endregion stall-windows
