package dream

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/symbiote-voice/internal/dialogue"
	"github.com/danielpatrickdp/symbiote-voice/internal/logging"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
	"github.com/danielpatrickdp/symbiote-voice/internal/store"
	"github.com/danielpatrickdp/symbiote-voice/internal/voice"
)

// Context keys dream lines can narrow on.
const (
	KeyStalledConcept = "stalled_concept"
	KeyStallScore     = "stall_score"
)

// ReasonStoreUnavailable is the Result reason when progress could not be loaded.
const ReasonStoreUnavailable = "store unavailable"

// Config tunes escalation.
type Config struct {
	// Minimum stall score for a concept to be offered to dream selection.
	StallThreshold int
}

func DefaultConfig() Config {
	return Config{StallThreshold: 50}
}

// Selector picks a line for a selection context.
type Selector interface {
	Select(ctx dialogue.SelectionContext) (dialogue.Line, bool)
}

// Result is the outcome of one dream request.
type Result struct {
	ObservationID  uuid.UUID
	Level          observation.DreamLevel
	LineKey        string
	Outcome        voice.Outcome
	StalledConcept string // empty when nothing is stalled past the threshold
	StallScore     int
	Reason         string // set only when no dream was attempted
	Tracker        progress.Tracker
}

// Escalator answers dream requests, escalating while the player makes no progress.
// RequestDream must only be called from the serialized tick context.
type Escalator struct {
	config    Config
	store     store.Store
	lines     Selector
	voice     *voice.Service
	decisions *sql.DB
	logger    *zap.Logger
}

// New wires an escalator. decisions may be nil to skip the decision log.
func New(cfg Config, st store.Store, lines Selector, v *voice.Service, decisions *sql.DB, logger *zap.Logger) *Escalator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Escalator{config: cfg, store: st, lines: lines, voice: v, decisions: decisions, logger: logger}
}

// NextLevel is the dream level for a request against t: one deeper than the
// last dream when nothing was achieved since, clamped at the top; back to the
// first level otherwise.
func NextLevel(t progress.Tracker) observation.DreamLevel {
	if t.HasProgressSinceLastDream() {
		return observation.L1Reflective
	}
	return observation.DreamLevelFromInt(t.DreamLevel() + 1)
}

// RequestDream picks and speaks the dream line for player at tick and records the dream.
// A corrupt stored record restarts from progress.Default; any other load
// failure returns a silent Result with ReasonStoreUnavailable and records nothing.
func (e *Escalator) RequestDream(player observation.PlayerID, tick int64) Result {
	tracker, err := e.store.Load(player)
	switch {
	case err == nil:
	case errors.Is(err, progress.ErrCorruptRecord):
		e.logger.Warn("stored progress corrupt, using default", zap.Stringer("player", player), zap.Error(err))
		tracker = progress.Default
	default:
		e.logger.Warn("load progress failed", zap.Stringer("player", player), zap.Error(err))
		return Result{ObservationID: uuid.New(), Outcome: voice.OutcomeSilent, Reason: ReasonStoreUnavailable}
	}

	level := NextLevel(tracker)
	res := Result{ObservationID: uuid.New(), Level: level, Outcome: voice.OutcomeSilent}

	var additional map[string]dialogue.ContextValue
	if sig, ok := tracker.MostStalled(tick, e.config.StallThreshold); ok {
		res.StalledConcept = sig.ConceptID
		res.StallScore = sig.CalculateStallScore(tick)
		additional = map[string]dialogue.ContextValue{
			KeyStalledConcept: dialogue.String(res.StalledConcept),
			KeyStallScore:     dialogue.Int(int64(res.StallScore)),
		}
	}

	line, ok := e.lines.Select(dialogue.SelectionContext{
		Tier:       observation.Tier2Breakthrough,
		Category:   observation.Sleep,
		Dream:      &level,
		Additional: additional,
		Tracker:    tracker,
	})
	if ok {
		res.LineKey = line.Key
		res.Outcome = e.voice.TrySpeak(player, observation.Tier2Breakthrough, observation.Sleep, line.Key, tick)
	}

	res.Tracker = tracker.WithDreamState(tick, int(level))
	if err := e.store.Save(player, res.Tracker); err != nil {
		e.logger.Error("save progress failed", zap.Stringer("player", player), zap.Error(err))
	}

	e.record(player, tick, res)
	return res
}

func (e *Escalator) record(player observation.PlayerID, tick int64, res Result) {
	e.logger.Debug("dream",
		zap.Stringer("player", player),
		zap.Stringer("level", res.Level),
		zap.String("stalled", res.StalledConcept),
		zap.String("line", res.LineKey),
		zap.String("outcome", string(res.Outcome)),
		zap.Int64("tick", tick),
	)
	if e.decisions == nil {
		return
	}

	lvl := int(res.Level)
	inputsJSON, err := json.Marshal(logging.DecisionInputs{
		DreamLevel:     &lvl,
		StalledConcept: res.StalledConcept,
		StallScore:     res.StallScore,
	})
	if err != nil {
		e.logger.Warn("encode decision inputs failed", zap.Stringer("player", player), zap.Error(err))
	}
	err = logging.LogDecision(e.decisions, logging.DecisionEntry{
		ObservationID: res.ObservationID.String(),
		PlayerID:      player.String(),
		Kind:          "dream",
		Category:      res.Level.LineCategory(),
		Tier:          observation.Tier2Breakthrough.Key(),
		LineKey:       res.LineKey,
		Outcome:       string(res.Outcome),
		InputsJSON:    string(inputsJSON),
		Tick:          tick,
	})
	if err != nil {
		e.logger.Warn("decision log write failed", zap.Error(err))
	}
}
