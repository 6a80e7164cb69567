package progress

// #region first-seen
// FirstSeen creates the signal for a concept observed for the first time.
func FirstSeen(conceptID string, tick int64) ConceptSignal {
	return ConceptSignal{
		ConceptID:           conceptID,
		State:               StateSeen,
		FirstSeenTick:       tick,
		LastInteractionTick: tick,
		InteractionCount:    1,
	}
}

// #endregion first-seen

// #region increment
// IncrementInteraction returns a copy with one more interaction at tick.
// A nil policy leaves the state as is. A neglected signal is revived at SEEN
// with a fresh count; its FirstSeenTick is kept.
func (s ConceptSignal) IncrementInteraction(tick int64, policy AdvancePolicy) ConceptSignal {
	next := s
	next.LastInteractionTick = tick

	if s.State == StateNeglected {
		next.State = StateSeen
		next.InteractionCount = 1
		return next
	}

	next.InteractionCount = s.InteractionCount + 1
	if policy != nil {
		advanced := policy(s.State, next.InteractionCount)
		if advanced.Valid() && advanced != StateNeglected && advanced.AtLeast(s.State) {
			next.State = advanced
		}
	}
	return next
}

// Neglect returns a copy regressed to NEGLECTED.
func (s ConceptSignal) Neglect() ConceptSignal {
	next := s
	next.State = StateNeglected
	return next
}

// #endregion increment

// #region stall
// CalculateStallScore scores inactivity since the last interaction, 0-100.
func (s ConceptSignal) CalculateStallScore(currentTick int64) int {
	if s.State == StateNeglected {
		return MaxStallScore
	}
	window, ok := stallWindows[s.State]
	if !ok || window <= 0 {
		return 0
	}
	elapsed := currentTick - s.LastInteractionTick
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= window {
		return MaxStallScore
	}
	return int(elapsed * MaxStallScore / window)
}

// IsStalled reports whether the stall score has reached threshold.
func (s ConceptSignal) IsStalled(currentTick int64, threshold int) bool {
	return s.CalculateStallScore(currentTick) >= threshold
}

// #endregion stall
