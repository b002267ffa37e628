package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cove/internal/engine"
	"cove/internal/pattern"
)

// ObservationRepo is the append-only pattern log. Rows are never updated.
type ObservationRepo struct {
	db DBTX
}

func NewObservationRepo(db DBTX) *ObservationRepo {
	return &ObservationRepo{db: db}
}

func (r *ObservationRepo) Append(ctx context.Context, ledgerID string, o pattern.Observation) error {
	var userEnergy *string
	if o.UserEnergy != nil {
		v := string(*o.UserEnergy)
		userEnergy = &v
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO task_patterns (
			id, ledger_id, task_title, hour, day_of_week, estimated_minutes, actual_minutes,
			was_completed, was_snoozed, snooze_count, interest, energy, user_energy, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, ledgerID, o.TaskTitle, o.Hour, int(o.DayOfWeek), o.EstimatedMinutes, o.ActualMinutes,
		boolToInt(o.WasCompleted), boolToInt(o.WasSnoozed), o.SnoozeCount,
		string(o.Interest), string(o.Energy), userEnergy, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("observation insert: %w", err)
	}
	return nil
}

// List returns the ledger's observations, oldest first.
func (r *ObservationRepo) List(ctx context.Context, ledgerID string) ([]pattern.Observation, error) {
	return r.list(ctx, `WHERE ledger_id = ? ORDER BY created_at ASC`, ledgerID)
}

func (r *ObservationRepo) Count(ctx context.Context, ledgerID string) (int, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_patterns WHERE ledger_id = ?`, ledgerID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("observation count: %w", err)
	}
	return n, nil
}

func (r *ObservationRepo) list(ctx context.Context, where string, args ...any) ([]pattern.Observation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_title, hour, day_of_week, estimated_minutes, actual_minutes,
			was_completed, was_snoozed, snooze_count, interest, energy, user_energy, created_at
		FROM task_patterns `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("observation list: %w", err)
	}
	defer rows.Close()

	var out []pattern.Observation
	for rows.Next() {
		var (
			o          pattern.Observation
			dow        int
			actual     sql.NullInt64
			completed  int
			snoozed    int
			interest   string
			energy     string
			userEnergy sql.NullString
		)
		if err := rows.Scan(
			&o.ID, &o.TaskTitle, &o.Hour, &dow, &o.EstimatedMinutes, &actual,
			&completed, &snoozed, &o.SnoozeCount, &interest, &energy, &userEnergy, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("observation scan: %w", err)
		}
		o.DayOfWeek = time.Weekday(dow)
		o.ActualMinutes = intPtr(actual)
		o.WasCompleted = completed != 0
		o.WasSnoozed = snoozed != 0
		o.Interest = engine.ParseLevel(interest)
		o.Energy = engine.ParseLevel(energy)
		if userEnergy.Valid {
			e := engine.ParseLevel(userEnergy.String)
			o.UserEnergy = &e
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("observation rows: %w", err)
	}
	return out, nil
}
