package store

import (
	"sync"

	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

// MemoryStore keeps trackers in a map. Used by replay and tests.
type MemoryStore struct {
	mu       sync.Mutex
	trackers map[observation.PlayerID]progress.Tracker
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{trackers: make(map[observation.PlayerID]progress.Tracker)}
}

func (m *MemoryStore) Load(player observation.PlayerID) (progress.Tracker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.trackers[player]; ok {
		return t, nil
	}
	return progress.Default, nil
}

// Save never fails. Trackers are immutable so no copy is needed.
func (m *MemoryStore) Save(player observation.PlayerID, t progress.Tracker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackers[player] = t
	return nil
}

func (m *MemoryStore) Delete(player observation.PlayerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trackers, player)
	return nil
}

// Store is what the arbiter and dream escalator need from persistence.
// Both SQLiteStore and MemoryStore satisfy it.
type Store interface {
	Load(player observation.PlayerID) (progress.Tracker, error)
	Save(player observation.PlayerID, t progress.Tracker) error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
