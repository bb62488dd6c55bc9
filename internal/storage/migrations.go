package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: sessions, proposals, treasury ledger",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS sessions (
					id TEXT PRIMARY KEY,
					started_at DATETIME NOT NULL,
					completed_at DATETIME,
					status TEXT NOT NULL,
					patterns TEXT NOT NULL,
					pain_points TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_sessions_started ON sessions(started_at)`,

				`CREATE TABLE IF NOT EXISTS proposals (
					id TEXT PRIMARY KEY,
					session_id TEXT NOT NULL,
					body TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (session_id) REFERENCES sessions(id)
				)`,
				`CREATE INDEX idx_proposals_session ON proposals(session_id)`,

				`CREATE TABLE IF NOT EXISTS treasury (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					balance REAL NOT NULL,
					starting_capital REAL NOT NULL,
					burn_rate REAL NOT NULL,
					updated_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS reservations (
					id TEXT PRIMARY KEY,
					amount REAL NOT NULL,
					reason TEXT NOT NULL,
					status TEXT NOT NULL,
					actual_cost REAL NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					committed_at DATETIME
				)`,
				`CREATE INDEX idx_reservations_status ON reservations(status)`,

				`CREATE TABLE IF NOT EXISTS ledger_transactions (
					id TEXT PRIMARY KEY,
					kind TEXT NOT NULL,
					amount REAL NOT NULL,
					description TEXT NOT NULL,
					reservation_id TEXT,
					timestamp DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_ledger_transactions_ts ON ledger_transactions(timestamp)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add feedback outcomes and training examples",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS outcomes (
					proposal_id TEXT PRIMARY KEY,
					project_id TEXT NOT NULL,
					body TEXT NOT NULL,
					recorded_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_outcomes_recorded ON outcomes(recorded_at)`,

				`CREATE TABLE IF NOT EXISTS training_examples (
					proposal_id TEXT PRIMARY KEY,
					body TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					consumed_at DATETIME
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add trained models",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS trained_models (
					kind TEXT NOT NULL,
					version INTEGER NOT NULL,
					trained_at DATETIME NOT NULL,
					training_set_size INTEGER NOT NULL,
					accuracy REAL NOT NULL,
					weights TEXT NOT NULL,
					metadata TEXT,
					PRIMARY KEY (kind, version)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	return nil
}

// SchemaVersion reports the current schema version of the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
