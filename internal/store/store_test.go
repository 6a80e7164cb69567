package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

func tempDB(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTracker() progress.Tracker {
	policy := progress.DefaultThresholdPolicy().Advance
	sig := progress.FirstSeen("first_combat", 10)
	for tick := int64(11); tick < 15; tick++ {
		sig = sig.IncrementInteraction(tick, policy)
	}
	return progress.Default.
		WithSignalUpdated("first_combat", sig).
		WithSignalUpdated("first_sleep", progress.FirstSeen("first_sleep", 12)).
		WithDreamState(20, 1).
		WithProgressTick(14)
}

func TestLoadMissingPlayerReturnsDefault(t *testing.T) {
	s := tempDB(t)
	got, err := s.Load(uuid.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(progress.Default) {
		t.Fatalf("expected default tracker, got %d signals", got.Len())
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := tempDB(t)
	p := uuid.New()
	want := sampleTracker()

	if err := s.Save(p, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(want) {
		t.Fatal("loaded tracker differs from saved tracker")
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := tempDB(t)
	p := uuid.New()

	if err := s.Save(p, sampleTracker()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	next := progress.Default.WithDreamState(99, 2)
	if err := s.Save(p, next); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DreamLevel() != 2 || got.Len() != 0 {
		t.Fatalf("expected overwritten tracker, got level %d with %d signals", got.DreamLevel(), got.Len())
	}

	var rows int
	s.DB().QueryRow(`SELECT COUNT(*) FROM player_progress`).Scan(&rows)
	if rows != 1 {
		t.Fatalf("expected 1 row, got %d", rows)
	}
}

func TestLoadCorruptRow(t *testing.T) {
	s := tempDB(t)
	p := uuid.New()
	_, err := s.DB().Exec(
		`INSERT INTO player_progress (player_id, record_json, updated_at) VALUES (?, ?, ?)`,
		p.String(), `{"signals": {"x": {"state": "lost"}}}`, "2026-01-01T00:00:00Z",
	)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.Load(p)
	if !errors.Is(err, progress.ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
	if !got.Equal(progress.Default) {
		t.Fatal("expected default tracker on corrupt row")
	}
}

func TestDeleteAndPlayers(t *testing.T) {
	s := tempDB(t)
	a, b := uuid.New(), uuid.New()
	for _, p := range []uuid.UUID{a, b} {
		if err := s.Save(p, sampleTracker()); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	players, err := s.Players()
	if err != nil {
		t.Fatalf("Players: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(players))
	}

	if err := s.Delete(a); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(uuid.New()); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	players, _ = s.Players()
	if len(players) != 1 || players[0] != b {
		t.Fatalf("expected only %s, got %v", b, players)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	p := uuid.New()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.Save(p, sampleTracker()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(sampleTracker()) {
		t.Fatal("tracker lost across reopen")
	}
}

func TestInMemoryDatabase(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	p := uuid.New()
	if err := s.Save(p, sampleTracker()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := s.Load(p); got.Len() != 2 {
		t.Fatalf("expected 2 signals, got %d", got.Len())
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	p := uuid.New()

	got, err := m.Load(p)
	if err != nil || !got.Equal(progress.Default) {
		t.Fatalf("expected default, got err=%v", err)
	}
	_ = m.Save(p, sampleTracker())
	got, _ = m.Load(p)
	if !got.Equal(sampleTracker()) {
		t.Fatal("memory store lost tracker")
	}
	_ = m.Delete(p)
	got, _ = m.Load(p)
	if !got.Equal(progress.Default) {
		t.Fatal("expected default after delete")
	}
}
