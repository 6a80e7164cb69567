package bridge

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/symbiote-voice/internal/arbiter"
	"github.com/danielpatrickdp/symbiote-voice/internal/dialogue"
	"github.com/danielpatrickdp/symbiote-voice/internal/dream"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
)

// ErrBadRequest marks a request payload that cannot be decoded.
var ErrBadRequest = errors.New("bad bridge request")

// #region field-names
const (
	fieldPlayerID       = "player_id"
	fieldCategory       = "category"
	fieldSeverity       = "severity"
	fieldDamage         = "damage"
	fieldContext        = "context"
	fieldObservationID  = "observation_id"
	fieldTier           = "tier"
	fieldLineKey        = "line_key"
	fieldLineCategory   = "line_category"
	fieldOutcome        = "outcome"
	fieldReason         = "reason"
	fieldLevel          = "level"
	fieldStalledConcept = "stalled_concept"
	fieldStallScore     = "stall_score"
)

// #endregion field-names

// #region request-types
// ObserveRequest carries one gameplay event.
type ObserveRequest struct {
	Player   observation.PlayerID
	Category observation.Category
	Severity int
	Context  map[string]dialogue.ContextValue
}

// DamageRequest carries raw damage; the server maps it to a severity.
type DamageRequest struct {
	Player   observation.PlayerID
	Category observation.Category
	Damage   float64
	Context  map[string]dialogue.ContextValue
}

// ObserveReply mirrors arbiter.Result.
type ObserveReply struct {
	ObservationID string
	Tier          string
	LineKey       string
	Outcome       string
	Reason        string
}

// DreamReply mirrors dream.Result.
type DreamReply struct {
	ObservationID  string
	Level          int
	LineCategory   string
	LineKey        string
	Outcome        string
	StalledConcept string
	StallScore     int
	Reason         string
}

// #endregion request-types

// #region encode
func encodeObserve(r ObserveRequest) (*structpb.Struct, error) {
	fields := map[string]any{
		fieldPlayerID: r.Player.String(),
		fieldCategory: r.Category.Key(),
		fieldSeverity: r.Severity,
	}
	if len(r.Context) > 0 {
		fields[fieldContext] = contextFields(r.Context)
	}
	return newStruct(fields)
}

func encodeDamage(r DamageRequest) (*structpb.Struct, error) {
	fields := map[string]any{
		fieldPlayerID: r.Player.String(),
		fieldCategory: r.Category.Key(),
		fieldDamage:   r.Damage,
	}
	if len(r.Context) > 0 {
		fields[fieldContext] = contextFields(r.Context)
	}
	return newStruct(fields)
}

func encodePlayer(player observation.PlayerID) (*structpb.Struct, error) {
	return newStruct(map[string]any{fieldPlayerID: player.String()})
}

func encodeResult(res arbiter.Result) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldObservationID: structpb.NewStringValue(res.ObservationID.String()),
		fieldTier:          structpb.NewStringValue(res.Tier.Key()),
		fieldLineKey:       structpb.NewStringValue(res.LineKey),
		fieldOutcome:       structpb.NewStringValue(string(res.Outcome)),
		fieldReason:        structpb.NewStringValue(res.Reason),
	}}
}

func encodeDream(res dream.Result) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldObservationID:  structpb.NewStringValue(res.ObservationID.String()),
		fieldLevel:          structpb.NewNumberValue(float64(res.Level)),
		fieldLineCategory:   structpb.NewStringValue(res.Level.LineCategory()),
		fieldLineKey:        structpb.NewStringValue(res.LineKey),
		fieldOutcome:        structpb.NewStringValue(string(res.Outcome)),
		fieldStalledConcept: structpb.NewStringValue(res.StalledConcept),
		fieldStallScore:     structpb.NewNumberValue(float64(res.StallScore)),
		fieldReason:         structpb.NewStringValue(res.Reason),
	}}
}

func contextFields(m map[string]dialogue.ContextValue) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Any()
	}
	return out
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return st, nil
}

// #endregion encode

// #region decode
func decodeObserve(st *structpb.Struct) (ObserveRequest, error) {
	player, err := decodePlayer(st)
	if err != nil {
		return ObserveRequest{}, err
	}
	category, err := decodeCategory(st)
	if err != nil {
		return ObserveRequest{}, err
	}
	severity, err := numberField(st, fieldSeverity, false)
	if err != nil {
		return ObserveRequest{}, err
	}
	ctx, err := decodeContext(st)
	if err != nil {
		return ObserveRequest{}, err
	}
	// clamp before converting so huge values cannot wrap
	severity = math.Min(math.Max(severity, dialogue.MinSeverity), dialogue.MaxSeverity)
	return ObserveRequest{Player: player, Category: category, Severity: int(severity), Context: ctx}, nil
}

func decodeDamage(st *structpb.Struct) (DamageRequest, error) {
	player, err := decodePlayer(st)
	if err != nil {
		return DamageRequest{}, err
	}
	category, err := decodeCategory(st)
	if err != nil {
		return DamageRequest{}, err
	}
	if !category.IsDamage() {
		return DamageRequest{}, fmt.Errorf("%w: %s is not a damage category", ErrBadRequest, category.Key())
	}
	damage, err := numberField(st, fieldDamage, true)
	if err != nil {
		return DamageRequest{}, err
	}
	ctx, err := decodeContext(st)
	if err != nil {
		return DamageRequest{}, err
	}
	return DamageRequest{Player: player, Category: category, Damage: damage, Context: ctx}, nil
}

func decodePlayer(st *structpb.Struct) (observation.PlayerID, error) {
	raw, err := stringField(st, fieldPlayerID)
	if err != nil {
		return observation.PlayerID{}, err
	}
	id, err := observation.ParsePlayerID(raw)
	if err != nil {
		return observation.PlayerID{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return id, nil
}

func decodeCategory(st *structpb.Struct) (observation.Category, error) {
	raw, err := stringField(st, fieldCategory)
	if err != nil {
		return 0, err
	}
	c, ok := observation.ParseCategory(raw)
	if !ok {
		return 0, fmt.Errorf("%w: unknown category %q", ErrBadRequest, raw)
	}
	return c, nil
}

// decodeContext reads the optional context struct. Integral numbers become
// Int values, other finite numbers Float.
func decodeContext(st *structpb.Struct) (map[string]dialogue.ContextValue, error) {
	v, ok := st.GetFields()[fieldContext]
	if !ok {
		return nil, nil
	}
	nested := v.GetStructValue()
	if nested == nil {
		return nil, fmt.Errorf("%w: context must be a struct", ErrBadRequest)
	}
	out := make(map[string]dialogue.ContextValue, len(nested.GetFields()))
	for k, fv := range nested.GetFields() {
		switch kind := fv.GetKind().(type) {
		case *structpb.Value_StringValue:
			out[k] = dialogue.String(kind.StringValue)
		case *structpb.Value_BoolValue:
			out[k] = dialogue.Bool(kind.BoolValue)
		case *structpb.Value_NumberValue:
			n := kind.NumberValue
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return nil, fmt.Errorf("%w: context %q must be a finite number", ErrBadRequest, k)
			}
			if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
				out[k] = dialogue.Int(int64(n))
			} else {
				out[k] = dialogue.Float(n)
			}
		default:
			return nil, fmt.Errorf("%w: context %q must be a string, number or bool", ErrBadRequest, k)
		}
	}
	return out, nil
}

func stringField(st *structpb.Struct, key string) (string, error) {
	v, ok := st.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrBadRequest, key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrBadRequest, key)
	}
	return s.StringValue, nil
}

func numberField(st *structpb.Struct, key string, required bool) (float64, error) {
	v, ok := st.GetFields()[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("%w: missing %s", ErrBadRequest, key)
		}
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || math.IsNaN(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
		return 0, fmt.Errorf("%w: %s must be a finite number", ErrBadRequest, key)
	}
	return n.NumberValue, nil
}

func observeReply(st *structpb.Struct) ObserveReply {
	f := st.GetFields()
	return ObserveReply{
		ObservationID: f[fieldObservationID].GetStringValue(),
		Tier:          f[fieldTier].GetStringValue(),
		LineKey:       f[fieldLineKey].GetStringValue(),
		Outcome:       f[fieldOutcome].GetStringValue(),
		Reason:        f[fieldReason].GetStringValue(),
	}
}

func dreamReply(st *structpb.Struct) DreamReply {
	f := st.GetFields()
	return DreamReply{
		ObservationID:  f[fieldObservationID].GetStringValue(),
		Level:          int(f[fieldLevel].GetNumberValue()),
		LineCategory:   f[fieldLineCategory].GetStringValue(),
		LineKey:        f[fieldLineKey].GetStringValue(),
		Outcome:        f[fieldOutcome].GetStringValue(),
		StalledConcept: f[fieldStalledConcept].GetStringValue(),
		StallScore:     int(f[fieldStallScore].GetNumberValue()),
		Reason:         f[fieldReason].GetStringValue(),
	}
}

// #endregion decode
