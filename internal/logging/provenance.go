package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS voice_decisions (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	observation_id TEXT NOT NULL,
	player_id      TEXT NOT NULL,
	kind           TEXT NOT NULL,
	category       TEXT NOT NULL,
	tier           TEXT,
	line_key       TEXT,
	outcome        TEXT NOT NULL,
	reason         TEXT,
	inputs_json    TEXT,
	tick           INTEGER NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS voice_decisions_player ON voice_decisions (player_id, id);
`

// EnsureSchema creates the voice_decisions table when missing.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate decisions: %w", err)
	}
	return nil
}

// #endregion schema

// #region log-decision
// LogDecision writes a decision entry to the voice_decisions table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO voice_decisions (observation_id, player_id, kind, category, tier, line_key, outcome, reason, inputs_json, tick, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ObservationID,
		entry.PlayerID,
		entry.Kind,
		entry.Category,
		nullIfEmpty(entry.Tier),
		nullIfEmpty(entry.LineKey),
		entry.Outcome,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.InputsJSON),
		entry.Tick,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region recent-decisions
// RecentDecisions returns up to limit entries for playerID, newest first.
// A negative limit returns every entry.
func RecentDecisions(db *sql.DB, playerID string, limit int) ([]DecisionEntry, error) {
	rows, err := db.Query(
		`SELECT observation_id, player_id, kind, category, tier, line_key, outcome, reason, inputs_json, tick, created_at
		 FROM voice_decisions WHERE player_id = ? ORDER BY id DESC LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent decisions: %w", err)
	}
	defer rows.Close()

	var entries []DecisionEntry
	for rows.Next() {
		var e DecisionEntry
		var tier, lineKey, reason, inputs sql.NullString
		var createdStr string
		if err := rows.Scan(&e.ObservationID, &e.PlayerID, &e.Kind, &e.Category, &tier, &lineKey,
			&e.Outcome, &reason, &inputs, &e.Tick, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Tier = tier.String
		e.LineKey = lineKey.String
		e.Reason = reason.String
		e.InputsJSON = inputs.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion recent-decisions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
