package progress

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region to-proto
// ToProto renders a tracker as a protobuf Struct for the network.
// Ticks travel as numbers; int64 ticks up to 2^53 are exact.
func ToProto(t Tracker) *structpb.Struct {
	signals := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(t.signals))}
	for id, s := range t.signals {
		signals.Fields[id] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"concept_id":            structpb.NewStringValue(s.ConceptID),
			"state":                 structpb.NewStringValue(string(s.State)),
			"first_seen_tick":       structpb.NewNumberValue(float64(s.FirstSeenTick)),
			"last_interaction_tick": structpb.NewNumberValue(float64(s.LastInteractionTick)),
			"interaction_count":     structpb.NewNumberValue(float64(s.InteractionCount)),
		}})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"signals":            structpb.NewStructValue(signals),
		"last_dream_tick":    structpb.NewNumberValue(float64(t.lastDreamTick)),
		"dream_level":        structpb.NewNumberValue(float64(t.dreamLevel)),
		"last_progress_tick": structpb.NewNumberValue(float64(t.lastProgressTick)),
	}}
}

// #endregion to-proto

// #region from-proto
// FromProto decodes a Struct produced by ToProto.
func FromProto(st *structpb.Struct) (Tracker, error) {
	if st == nil {
		return Default, fmt.Errorf("%w: nil struct", ErrCorruptRecord)
	}
	rec := Record{Signals: map[string]SignalRecord{}}
	var err error
	if rec.LastDreamTick, err = intField(st, "last_dream_tick"); err != nil {
		return Default, err
	}
	level, err := intField(st, "dream_level")
	if err != nil {
		return Default, err
	}
	rec.DreamLevel = int(level)
	if rec.LastProgressTick, err = intField(st, "last_progress_tick"); err != nil {
		return Default, err
	}

	if v, ok := st.GetFields()["signals"]; ok {
		signals := v.GetStructValue()
		if signals == nil {
			return Default, fmt.Errorf("%w: signals is not an object", ErrCorruptRecord)
		}
		for id, sv := range signals.GetFields() {
			sig := sv.GetStructValue()
			if sig == nil {
				return Default, fmt.Errorf("%w: signal %s is not an object", ErrCorruptRecord, id)
			}
			sr := SignalRecord{
				ConceptID: sig.GetFields()["concept_id"].GetStringValue(),
				State:     sig.GetFields()["state"].GetStringValue(),
			}
			if sr.FirstSeenTick, err = intField(sig, "first_seen_tick"); err != nil {
				return Default, err
			}
			if sr.LastInteractionTick, err = intField(sig, "last_interaction_tick"); err != nil {
				return Default, err
			}
			count, err := intField(sig, "interaction_count")
			if err != nil {
				return Default, err
			}
			sr.InteractionCount = int(count)
			rec.Signals[id] = sr
		}
	}
	return FromRecord(rec)
}

// intField reads an integral number; a missing field reads as zero.
func intField(st *structpb.Struct, key string) (int64, error) {
	v, ok := st.GetFields()[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a number", ErrCorruptRecord, key)
	}
	if n.NumberValue != math.Trunc(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrCorruptRecord, key)
	}
	return int64(n.NumberValue), nil
}

// #endregion from-proto

// #region wire-bytes
// MarshalWire encodes a tracker as deterministic protobuf bytes.
func MarshalWire(t Tracker) ([]byte, error) {
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(ToProto(t))
	if err != nil {
		return nil, fmt.Errorf("marshal wire: %w", err)
	}
	return data, nil
}

// UnmarshalWire decodes bytes produced by MarshalWire.
func UnmarshalWire(data []byte) (Tracker, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return Default, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return FromProto(&st)
}

// #endregion wire-bytes
