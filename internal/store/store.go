package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS player_progress (
	player_id    TEXT PRIMARY KEY,
	record_json  TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// SQLiteStore persists one progress tracker per player.
type SQLiteStore struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewSQLiteStore opens a SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region load
// Load reads the tracker for player. A player with no row yet gets progress.Default.
// A row that fails to decode returns an error wrapping progress.ErrCorruptRecord.
func (s *SQLiteStore) Load(player observation.PlayerID) (progress.Tracker, error) {
	var recordJSON string
	err := s.db.QueryRow(
		`SELECT record_json FROM player_progress WHERE player_id = ?`, player.String(),
	).Scan(&recordJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return progress.Default, nil
	}
	if err != nil {
		return progress.Default, fmt.Errorf("load progress %s: %w", player, err)
	}

	t, err := progress.UnmarshalRecord([]byte(recordJSON))
	if err != nil {
		return progress.Default, fmt.Errorf("load progress %s: %w", player, err)
	}
	return t, nil
}

// #endregion load

// #region save
// Save upserts the tracker for player.
func (s *SQLiteStore) Save(player observation.PlayerID, t progress.Tracker) error {
	data, err := progress.MarshalRecord(t)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO player_progress (player_id, record_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET record_json = excluded.record_json, updated_at = excluded.updated_at`,
		player.String(), string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save progress %s: %w", player, err)
	}
	return nil
}

// #endregion save

// #region delete
// Delete removes the stored tracker for player. Deleting a missing player is not an error.
func (s *SQLiteStore) Delete(player observation.PlayerID) error {
	if _, err := s.db.Exec(`DELETE FROM player_progress WHERE player_id = ?`, player.String()); err != nil {
		return fmt.Errorf("delete progress %s: %w", player, err)
	}
	return nil
}

// #endregion delete

// #region list-players
// Players returns every stored player id, most recently updated first.
func (s *SQLiteStore) Players() ([]observation.PlayerID, error) {
	rows, err := s.db.Query(`SELECT player_id FROM player_progress ORDER BY updated_at DESC, player_id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []observation.PlayerID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		id, err := observation.ParsePlayerID(raw)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		players = append(players, id)
	}
	return players, rows.Err()
}

// #endregion list-players
