package chaos

import (
	"sync"

	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
)

// #region config
// Config holds the burst-detection window.
type Config struct {
	WindowTicks     int64 // trailing window kept per player
	DamageThreshold int   // events inside the window that mute damage-driven voice
}

// DefaultConfig returns the shipping values: 5 hits inside 60 ticks (3 seconds).
func DefaultConfig() Config {
	return Config{
		WindowTicks:     60,
		DamageThreshold: 5,
	}
}

// #endregion config

// #region suppressor
// Suppressor is a sliding-window damage-burst detector shared by every player's
// event path. Each player's window has its own lock.
type Suppressor struct {
	config  Config
	windows sync.Map // observation.PlayerID -> *window
}

type window struct {
	mu    sync.Mutex
	ticks []int64
}

// New creates a suppressor. It is owned by the application: call ClearPlayer
// on disconnect and ClearAll on shutdown.
func New(config Config) *Suppressor {
	return &Suppressor{config: config}
}

// #endregion suppressor

// #region record
// RecordDamage appends a damage event for player and prunes that player's window.
func (s *Suppressor) RecordDamage(player observation.PlayerID, tick int64) {
	v, _ := s.windows.LoadOrStore(player, &window{})
	w := v.(*window)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ticks = append(w.ticks, tick)
	w.prune(tick, s.config.WindowTicks)
}

// IsSuppressed prunes player's window and reports whether the burst threshold is met.
func (s *Suppressor) IsSuppressed(player observation.PlayerID, tick int64) bool {
	v, ok := s.windows.Load(player)
	if !ok {
		return false
	}
	w := v.(*window)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(tick, s.config.WindowTicks)
	return len(w.ticks) >= s.config.DamageThreshold
}

// prune drops entries older than the window. Ticks are appended in arrival
// order, so the stale entries form a prefix.
func (w *window) prune(now, windowTicks int64) {
	cut := 0
	for cut < len(w.ticks) && now-w.ticks[cut] > windowTicks {
		cut++
	}
	if cut == 0 {
		return
	}
	w.ticks = append(w.ticks[:0], w.ticks[cut:]...)
}

// #endregion record

// #region lifecycle
// ClearPlayer evicts a player's window.
func (s *Suppressor) ClearPlayer(player observation.PlayerID) {
	s.windows.Delete(player)
}

// ClearAll evicts every window.
func (s *Suppressor) ClearAll() {
	s.windows.Clear()
}

// Tracked returns the number of players with a live window.
func (s *Suppressor) Tracked() int {
	n := 0
	s.windows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// #endregion lifecycle
