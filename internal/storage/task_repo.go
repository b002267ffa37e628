package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cove/internal/engine"
)

const taskColumns = `id, contract_id, title, description, bucket, status,
	estimated_minutes, actual_minutes, interest, energy, is_anchor,
	created_at, completed_at, scheduled_for, archived_at,
	snooze_count, ignore_count, xp_value`

type TaskRepo struct {
	db DBTX
}

func NewTaskRepo(db DBTX) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Insert(ctx context.Context, t *engine.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ContractID, t.Title, t.Description, string(t.Bucket), string(t.Status),
		t.EstimatedMinutes, t.ActualMinutes, string(t.Interest), string(t.Energy), boolToInt(t.IsAnchor),
		t.CreatedAt, t.CompletedAt, t.ScheduledFor, t.ArchivedAt,
		t.SnoozeCount, t.IgnoreCount, t.XPValue)
	if err != nil {
		return fmt.Errorf("task insert: %w", err)
	}
	return nil
}

// Update writes every mutable field. XPValue and CreatedAt are fixed at insert.
func (r *TaskRepo) Update(ctx context.Context, t *engine.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET contract_id = ?, title = ?, description = ?, bucket = ?, status = ?,
			estimated_minutes = ?, actual_minutes = ?, interest = ?, energy = ?, is_anchor = ?,
			completed_at = ?, scheduled_for = ?, archived_at = ?,
			snooze_count = ?, ignore_count = ?
		WHERE id = ?
	`, t.ContractID, t.Title, t.Description, string(t.Bucket), string(t.Status),
		t.EstimatedMinutes, t.ActualMinutes, string(t.Interest), string(t.Energy), boolToInt(t.IsAnchor),
		t.CompletedAt, t.ScheduledFor, t.ArchivedAt,
		t.SnoozeCount, t.IgnoreCount, t.ID)
	if err != nil {
		return fmt.Errorf("task update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task update: no task %s", t.ID)
	}
	return nil
}

func (r *TaskRepo) setPosition(ctx context.Context, id string, position int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE tasks SET position = ? WHERE id = ?`, position, id); err != nil {
		return fmt.Errorf("task set position: %w", err)
	}
	return nil
}

// Get returns nil, nil when the task does not exist.
func (r *TaskRepo) Get(ctx context.Context, id string) (*engine.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// IDsWithPrefix returns up to limit task IDs starting with prefix.
func (r *TaskRepo) IDsWithPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM tasks WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT ?`, len(prefix), prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("task id prefix: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("task id prefix scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByContract returns a contract's tasks in commit order.
func (r *TaskRepo) ListByContract(ctx context.Context, contractID string) ([]*engine.Task, error) {
	return r.list(ctx, `WHERE contract_id = ? ORDER BY position ASC, created_at ASC`, contractID)
}

// ListBacklog returns unassigned directive tasks that can still be committed.
func (r *TaskRepo) ListBacklog(ctx context.Context) ([]*engine.Task, error) {
	return r.list(ctx, `
		WHERE contract_id IS NULL AND bucket = ? AND status IN (?, ?)
		ORDER BY created_at ASC
	`, string(engine.BucketDirective), string(engine.TaskPending), string(engine.TaskSnoozed))
}

func (r *TaskRepo) ListByStatus(ctx context.Context, statuses ...engine.TaskStatus) ([]*engine.Task, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(statuses))
	for _, s := range statuses {
		args = append(args, string(s))
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	return r.list(ctx, `WHERE status IN (`+marks+`) ORDER BY created_at ASC`, args...)
}

func (r *TaskRepo) ListByBucket(ctx context.Context, bucket engine.Bucket) ([]*engine.Task, error) {
	return r.list(ctx, `WHERE bucket = ? ORDER BY created_at ASC`, string(bucket))
}

func (r *TaskRepo) list(ctx context.Context, where string, args ...any) ([]*engine.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("task list: %w", err)
	}
	defer rows.Close()

	var out []*engine.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task list rows: %w", err)
	}
	return out, nil
}

func scanTask(row scanner) (*engine.Task, error) {
	var (
		t           engine.Task
		contractID  sql.NullString
		description sql.NullString
		bucket      string
		status      string
		estimated   sql.NullInt64
		actual      sql.NullInt64
		interest    string
		energy      string
		isAnchor    int
		completedAt sql.NullTime
		scheduled   sql.NullTime
		archivedAt  sql.NullTime
	)

	if err := row.Scan(
		&t.ID, &contractID, &t.Title, &description, &bucket, &status,
		&estimated, &actual, &interest, &energy, &isAnchor,
		&t.CreatedAt, &completedAt, &scheduled, &archivedAt,
		&t.SnoozeCount, &t.IgnoreCount, &t.XPValue,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("task scan: %w", err)
	}

	t.ContractID = stringPtr(contractID)
	t.Description = stringPtr(description)
	t.Bucket = engine.Bucket(bucket)
	t.Status = engine.TaskStatus(status)
	t.EstimatedMinutes = intPtr(estimated)
	t.ActualMinutes = intPtr(actual)
	t.Interest = engine.ParseLevel(interest)
	t.Energy = engine.ParseLevel(energy)
	t.IsAnchor = isAnchor != 0
	t.CompletedAt = timePtr(completedAt)
	t.ScheduledFor = timePtr(scheduled)
	t.ArchivedAt = timePtr(archivedAt)
	return &t, nil
}
