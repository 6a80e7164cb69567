package arbiter

import (
	"database/sql"
	"encoding/json"
	"errors"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/symbiote-voice/internal/chaos"
	"github.com/danielpatrickdp/symbiote-voice/internal/dialogue"
	"github.com/danielpatrickdp/symbiote-voice/internal/logging"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
	"github.com/danielpatrickdp/symbiote-voice/internal/store"
	"github.com/danielpatrickdp/symbiote-voice/internal/voice"
)

// #region arbiter-struct
// Arbiter turns gameplay observations into voice decisions and progress updates.
// Observe must only be called from the serialized tick context.
type Arbiter struct {
	config     Config
	store      store.Store
	lines      Selector
	voice      *voice.Service
	suppressor *chaos.Suppressor
	decisions  *sql.DB
	logger     *zap.Logger
}

// #endregion arbiter-struct

// #region constructor
// New wires an arbiter. decisions may be nil to skip the decision log.
func New(cfg Config, st store.Store, lines Selector, v *voice.Service, s *chaos.Suppressor, decisions *sql.DB, logger *zap.Logger) *Arbiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Arbiter{
		config:     cfg,
		store:      st,
		lines:      lines,
		voice:      v,
		suppressor: s,
		decisions:  decisions,
		logger:     logger,
	}
}

// #endregion constructor

// #region observe
// Observe handles one event for player. Progress for the category's first
// concept is recorded whether or not anything is said.
//
// A corrupt stored record is replaced by progress.Default. Any other load
// failure yields a silent Result with ReasonStoreUnavailable and leaves the
// stored progress untouched.
func (a *Arbiter) Observe(player observation.PlayerID, category observation.Category, severity int, additional map[string]dialogue.ContextValue, tick int64) Result {
	severity = clampSeverity(severity)

	damage := category.IsDamage()
	if damage {
		a.suppressor.RecordDamage(player, tick)
	}

	tracker, err := a.store.Load(player)
	switch {
	case err == nil:
	case errors.Is(err, progress.ErrCorruptRecord):
		a.logger.Warn("stored progress corrupt, using default", zap.Stringer("player", player), zap.Error(err))
		tracker = progress.Default
	default:
		a.logger.Warn("load progress failed", zap.Stringer("player", player), zap.Error(err))
		return Result{ObservationID: uuid.New(), Outcome: voice.OutcomeSilent, Reason: ReasonStoreUnavailable}
	}

	tier, reason := a.determineTier(category, severity, tracker)
	res := Result{ObservationID: uuid.New(), Tier: tier, Outcome: voice.OutcomeSilent, Reason: reason}

	line, ok := a.lines.Select(dialogue.SelectionContext{
		Tier:       tier,
		Category:   category,
		Severity:   severity,
		Additional: additional,
		Tracker:    tracker,
	})
	switch {
	case !ok:
		res.Reason = "no matching line"
	case damage && a.suppressor.IsSuppressed(player, tick):
		res.LineKey = line.Key
		res.Outcome = voice.OutcomeSuppressed
		res.Reason = "damage burst"
	default:
		res.LineKey = line.Key
		res.Outcome = a.voice.TrySpeak(player, tier, category, line.Key, tick)
	}

	res.Tracker = RecordInteraction(tracker, category.FirstConcept(), tick, a.config.Policy)
	if err := a.store.Save(player, res.Tracker); err != nil {
		a.logger.Error("save progress failed", zap.Stringer("player", player), zap.Error(err))
	}

	a.record(player, category, severity, additional, tick, res)
	return res
}

// RecordInteraction marks concept as seen (or interacted with again) at tick
// and stamps the tracker's progress tick.
func RecordInteraction(t progress.Tracker, concept string, tick int64, policy progress.AdvancePolicy) progress.Tracker {
	sig, ok := t.Signal(concept)
	if ok {
		sig = sig.IncrementInteraction(tick, policy)
	} else {
		sig = progress.FirstSeen(concept, tick)
	}
	return t.WithSignalUpdated(concept, sig).WithProgressTick(tick)
}

// #endregion observe

// #region tier
// DetermineTier picks the voice tier with the default breakthrough severity.
func DetermineTier(category observation.Category, severity int, t progress.Tracker) observation.Tier {
	tier, _ := tierFor(category, severity, t, DefaultConfig().FirstTimeSeverity)
	return tier
}

func (a *Arbiter) determineTier(category observation.Category, severity int, t progress.Tracker) (observation.Tier, string) {
	return tierFor(category, severity, t, a.config.FirstTimeSeverity)
}

func tierFor(category observation.Category, severity int, t progress.Tracker, firstTime int) (observation.Tier, string) {
	if category == observation.BondingMilestone {
		return observation.Tier2Breakthrough, "bonding milestone"
	}
	if severity >= firstTime && !t.HasReachedState(category.FirstConcept(), progress.StateSeen) {
		return observation.Tier2Breakthrough, "first high-severity " + category.Key()
	}
	return observation.Tier1Ambient, "ambient"
}

// #endregion tier

// #region severity
// DamageToSeverity maps raw damage onto 0..100 at ten severity points per unit.
func DamageToSeverity(damage float64) int {
	if math.IsNaN(damage) {
		return 0
	}
	return int(math.Min(math.Max(damage*10, dialogue.MinSeverity), dialogue.MaxSeverity))
}

func clampSeverity(s int) int {
	return min(max(s, dialogue.MinSeverity), dialogue.MaxSeverity)
}

// #endregion severity

// #region lifecycle
// ForgetPlayer drops transient per-player state on disconnect. Progress stays in the store.
func (a *Arbiter) ForgetPlayer(player observation.PlayerID) {
	a.suppressor.ClearPlayer(player)
	a.voice.ClearPlayer(player)
}

// ClearAll drops transient state for every player.
func (a *Arbiter) ClearAll() {
	a.suppressor.ClearAll()
	a.voice.ClearAll()
}

// #endregion lifecycle

// #region provenance
func (a *Arbiter) record(player observation.PlayerID, category observation.Category, severity int, additional map[string]dialogue.ContextValue, tick int64, res Result) {
	a.logger.Debug("observation",
		zap.Stringer("player", player),
		zap.String("category", category.Key()),
		zap.Int("severity", severity),
		zap.String("tier", res.Tier.Key()),
		zap.String("line", res.LineKey),
		zap.String("outcome", string(res.Outcome)),
		zap.Int64("tick", tick),
	)
	if a.decisions == nil {
		return
	}

	inputs := logging.DecisionInputs{Severity: severity, Context: contextAny(additional)}
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		a.logger.Warn("encode decision inputs failed", zap.Stringer("player", player), zap.Error(err))
	}
	err = logging.LogDecision(a.decisions, logging.DecisionEntry{
		ObservationID: res.ObservationID.String(),
		PlayerID:      player.String(),
		Kind:          "observe",
		Category:      category.Key(),
		Tier:          res.Tier.Key(),
		LineKey:       res.LineKey,
		Outcome:       string(res.Outcome),
		Reason:        res.Reason,
		InputsJSON:    string(inputsJSON),
		Tick:          tick,
	})
	if err != nil {
		a.logger.Warn("decision log write failed", zap.Error(err))
	}
}

func contextAny(m map[string]dialogue.ContextValue) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		// JSON has no NaN or Inf, so those are logged as their text form.
		if f, ok := v.AsFloat(); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			out[k] = v.String()
			continue
		}
		out[k] = v.Any()
	}
	return out
}

// #endregion provenance
