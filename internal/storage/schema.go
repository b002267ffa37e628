package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ledgers (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			pessimism_multiplier REAL NOT NULL DEFAULT 1.5,
			energy_pattern TEXT NOT NULL DEFAULT 'consistent',

			total_tasks_completed INTEGER NOT NULL DEFAULT 0,
			total_xp INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_active_date TEXT,
			goblin_tasks_completed INTEGER NOT NULL DEFAULT 0,
			meltdowns_survived INTEGER NOT NULL DEFAULT 0,
			contracts_completed INTEGER NOT NULL DEFAULT 0,

			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS skills (
			ledger_id TEXT NOT NULL,
			skill TEXT NOT NULL,
			xp INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (ledger_id, skill),
			FOREIGN KEY(ledger_id) REFERENCES ledgers(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			ledger_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			unlocked_at DATETIME,
			PRIMARY KEY (ledger_id, kind),
			FOREIGN KEY(ledger_id) REFERENCES ledgers(id) ON DELETE CASCADE
		);`,
		// One row per (ledger, day); day is a YYYY-MM-DD key.
		`CREATE TABLE IF NOT EXISTS daily_activity (
			ledger_id TEXT NOT NULL,
			day TEXT NOT NULL,
			tasks_completed INTEGER NOT NULL DEFAULT 0,
			xp_earned INTEGER NOT NULL DEFAULT 0,
			meltdown_count INTEGER NOT NULL DEFAULT 0,
			goblin_tasks_completed INTEGER NOT NULL DEFAULT 0,
			contracts_completed INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (ledger_id, day),
			FOREIGN KEY(ledger_id) REFERENCES ledgers(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS contracts (
			id TEXT PRIMARY KEY,
			day TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'draft',
			stability_score REAL NOT NULL DEFAULT 0.5,
			total_estimated_minutes INTEGER NOT NULL DEFAULT 0,
			meltdown_active INTEGER NOT NULL DEFAULT 0,
			meltdown_count INTEGER NOT NULL DEFAULT 0,
			meltdown_goblins INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			completed_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			contract_id TEXT NULL,
			position INTEGER NOT NULL DEFAULT 0,

			title TEXT NOT NULL,
			description TEXT,
			bucket TEXT NOT NULL DEFAULT 'directive',
			status TEXT NOT NULL DEFAULT 'pending',

			estimated_minutes INTEGER,
			actual_minutes INTEGER,
			interest TEXT NOT NULL DEFAULT 'medium',
			energy TEXT NOT NULL DEFAULT 'medium',
			is_anchor INTEGER NOT NULL DEFAULT 0,

			created_at DATETIME NOT NULL,
			completed_at DATETIME,
			scheduled_for DATETIME,
			archived_at DATETIME,

			snooze_count INTEGER NOT NULL DEFAULT 0,
			ignore_count INTEGER NOT NULL DEFAULT 0,
			xp_value INTEGER NOT NULL,

			FOREIGN KEY(contract_id) REFERENCES contracts(id) ON DELETE SET NULL
		);`,
		// Append-only observation log; removed with its ledger.
		`CREATE TABLE IF NOT EXISTS task_patterns (
			id TEXT PRIMARY KEY,
			ledger_id TEXT NOT NULL,
			task_title TEXT NOT NULL,
			hour INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			estimated_minutes INTEGER NOT NULL,
			actual_minutes INTEGER,
			was_completed INTEGER NOT NULL DEFAULT 0,
			was_snoozed INTEGER NOT NULL DEFAULT 0,
			snooze_count INTEGER NOT NULL DEFAULT 0,
			interest TEXT NOT NULL,
			energy TEXT NOT NULL,
			user_energy TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(ledger_id) REFERENCES ledgers(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_contract_id ON tasks(contract_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
		`CREATE INDEX IF NOT EXISTS idx_task_patterns_ledger_created ON task_patterns(ledger_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
