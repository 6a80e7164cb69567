package voice

import (
	"sync"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
)

// #region service
// Service gates spoken lines on per-(player, category) cooldowns and delivers them.
type Service struct {
	config  Config
	lines   LineSource
	deliver Deliverer
	logger  *zap.Logger

	mu       sync.Mutex
	lastSaid map[cooldownKey]int64
}

type cooldownKey struct {
	player   observation.PlayerID
	category observation.Category
}

// NewService creates a voice service. deliver may be nil (lines are dropped after gating).
func NewService(config Config, lines LineSource, deliver Deliverer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		config:   config,
		lines:    lines,
		deliver:  deliver,
		logger:   logger,
		lastSaid: make(map[cooldownKey]int64),
	}
}

// #endregion service

// #region try-speak
// TrySpeak delivers lineKey unless the category is cooling down for player.
// Cooled-down lines are dropped, never queued. Tier 2 lines bypass the cooldown
// but still restart the timer.
func (s *Service) TrySpeak(player observation.PlayerID, tier observation.Tier, category observation.Category, lineKey string, tick int64) Outcome {
	text, ok := s.lines.Text(lineKey)
	if !ok {
		s.logger.Warn("voice line not in corpus", zap.String("line", lineKey))
		return OutcomeUnknownLine
	}

	key := cooldownKey{player: player, category: category}
	s.mu.Lock()
	if tier < observation.Tier2Breakthrough && s.coolingDown(key, tick) {
		s.mu.Unlock()
		return OutcomeCooledDown
	}
	s.lastSaid[key] = tick
	s.mu.Unlock()

	if s.deliver != nil {
		s.deliver(player, StyledText{Text: text, LineKey: lineKey, Tier: tier, Category: category})
	}
	return OutcomeSpoken
}

// coolingDown must be called with mu held.
func (s *Service) coolingDown(key cooldownKey, tick int64) bool {
	last, ok := s.lastSaid[key]
	if !ok {
		return false
	}
	return tick-last < s.config.Cooldowns[key.category]
}

// #endregion try-speak

// #region lifecycle
// ClearPlayer forgets every cooldown for player.
func (s *Service) ClearPlayer(player observation.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.lastSaid {
		if k.player == player {
			delete(s.lastSaid, k)
		}
	}
}

// ClearAll forgets every cooldown.
func (s *Service) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.lastSaid)
}

// #endregion lifecycle
