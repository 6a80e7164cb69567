package progress

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptRecord marks persisted or transmitted tracker data that cannot be decoded.
// Callers recover by falling back to Default.
var ErrCorruptRecord = errors.New("corrupt progress record")

// #region record-types
// SignalRecord is the durable form of a ConceptSignal.
type SignalRecord struct {
	ConceptID           string `json:"concept_id"`
	State               string `json:"state"`
	FirstSeenTick       int64  `json:"first_seen_tick"`
	LastInteractionTick int64  `json:"last_interaction_tick"`
	InteractionCount    int    `json:"interaction_count"`
}

// Record is the durable per-player form of a Tracker.
type Record struct {
	Signals          map[string]SignalRecord `json:"signals"`
	LastDreamTick    int64                   `json:"last_dream_tick"`
	DreamLevel       int                     `json:"dream_level"`
	LastProgressTick int64                   `json:"last_progress_tick"`
}

// #endregion record-types

// #region conversion
// ToRecord converts a tracker into its durable form.
func ToRecord(t Tracker) Record {
	rec := Record{
		Signals:          make(map[string]SignalRecord, len(t.signals)),
		LastDreamTick:    t.lastDreamTick,
		DreamLevel:       t.dreamLevel,
		LastProgressTick: t.lastProgressTick,
	}
	for id, s := range t.signals {
		rec.Signals[id] = SignalRecord{
			ConceptID:           s.ConceptID,
			State:               string(s.State),
			FirstSeenTick:       s.FirstSeenTick,
			LastInteractionTick: s.LastInteractionTick,
			InteractionCount:    s.InteractionCount,
		}
	}
	return rec
}

// FromRecord rebuilds a tracker. Out-of-range dream levels are clamped;
// unknown signal states make the record corrupt.
func FromRecord(rec Record) (Tracker, error) {
	t := Default.WithDreamState(rec.LastDreamTick, rec.DreamLevel).WithProgressTick(rec.LastProgressTick)
	if len(rec.Signals) == 0 {
		return t, nil
	}
	signals := make(map[string]ConceptSignal, len(rec.Signals))
	for id, sr := range rec.Signals {
		state, ok := ParseSignalState(sr.State)
		if !ok {
			return Default, fmt.Errorf("%w: concept %s has unknown state %q", ErrCorruptRecord, id, sr.State)
		}
		signals[id] = ConceptSignal{
			ConceptID:           sr.ConceptID,
			State:               state,
			FirstSeenTick:       sr.FirstSeenTick,
			LastInteractionTick: sr.LastInteractionTick,
			InteractionCount:    sr.InteractionCount,
		}
	}
	t.signals = signals
	return t, nil
}

// #endregion conversion

// #region json
// MarshalRecord encodes a tracker as JSON. Map keys are sorted, so equal
// trackers produce equal bytes.
func MarshalRecord(t Tracker) ([]byte, error) {
	data, err := json.Marshal(ToRecord(t))
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

// UnmarshalRecord decodes JSON produced by MarshalRecord.
func UnmarshalRecord(data []byte) (Tracker, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Default, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return FromRecord(rec)
}

// #endregion json
