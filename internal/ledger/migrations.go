package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest ledger schema version.
const SchemaVersion = 2

type migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Feedback log and retrain marks",
		Up: execAll(
			`CREATE TABLE IF NOT EXISTS feedback_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				raw_merchant TEXT NOT NULL,
				merchant TEXT NOT NULL,
				category TEXT NOT NULL,
				recorded_at DATETIME NOT NULL
			)`,
			`CREATE INDEX idx_feedback_log_merchant ON feedback_log(merchant)`,
			`CREATE TABLE IF NOT EXISTS retrain_marks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				feedback_count INTEGER NOT NULL,
				marked_at DATETIME NOT NULL
			)`,
		),
	},
	{
		Version:     2,
		Description: "Classification run history",
		Up: execAll(
			`CREATE TABLE IF NOT EXISTS classification_runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				started_at DATETIME NOT NULL,
				input TEXT NOT NULL,
				total INTEGER NOT NULL,
				exact INTEGER NOT NULL DEFAULT 0,
				fuzzy INTEGER NOT NULL DEFAULT 0,
				ngram INTEGER NOT NULL DEFAULT 0,
				ai INTEGER NOT NULL DEFAULT 0,
				unmatched INTEGER NOT NULL DEFAULT 0,
				ai_calls INTEGER NOT NULL DEFAULT 0,
				ai_failures INTEGER NOT NULL DEFAULT 0,
				cost_usd REAL NOT NULL DEFAULT 0
			)`,
		),
	},
}

func execAll(queries ...string) func(*sql.Tx) error {
	return func(tx *sql.Tx) error {
		for _, query := range queries {
			if _, err := tx.Exec(query); err != nil {
				return fmt.Errorf("failed to execute query: %w", err)
			}
		}
		return nil
	}
}

func (l *Ledger) migrate(ctx context.Context) error {
	var current int
	if err := l.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("ledger schema version %d is newer than supported %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration: %w", busy(err))
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		l.logger.Debug("Applied ledger migration",
			"version", m.Version,
			"description", m.Description)
	}
	return nil
}
