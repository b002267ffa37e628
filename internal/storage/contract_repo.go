package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cove/internal/engine"
)

const contractColumns = `id, day, status, stability_score, total_estimated_minutes,
	meltdown_active, meltdown_count, meltdown_goblins, created_at, completed_at`

// ContractRepo persists contracts together with the order of their owned tasks.
type ContractRepo struct {
	db    DBTX
	tasks *TaskRepo
}

func NewContractRepo(db DBTX, tasks *TaskRepo) *ContractRepo {
	return &ContractRepo{db: db, tasks: tasks}
}

func (r *ContractRepo) Insert(ctx context.Context, c *engine.Contract) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contracts (`+contractColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, engine.DayKey(c.Day), string(c.Status), c.StabilityScore, c.TotalEstimatedMinutes,
		boolToInt(c.MeltdownActive), c.MeltdownCount, c.MeltdownGoblins, c.CreatedAt, c.CompletedAt)
	if err != nil {
		return fmt.Errorf("contract insert: %w", err)
	}
	return nil
}

// Save updates the contract row and every owned task, including commit order.
// Tasks released from the contract must be saved by the caller.
func (r *ContractRepo) Save(ctx context.Context, c *engine.Contract) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE contracts
		SET status = ?, stability_score = ?, total_estimated_minutes = ?,
			meltdown_active = ?, meltdown_count = ?, meltdown_goblins = ?, completed_at = ?
		WHERE id = ?
	`, string(c.Status), c.StabilityScore, c.TotalEstimatedMinutes,
		boolToInt(c.MeltdownActive), c.MeltdownCount, c.MeltdownGoblins, c.CompletedAt, c.ID)
	if err != nil {
		return fmt.Errorf("contract update: %w", err)
	}
	for i, t := range c.Tasks {
		if err := r.tasks.Update(ctx, t); err != nil {
			return err
		}
		if err := r.tasks.setPosition(ctx, t.ID, i); err != nil {
			return err
		}
	}
	return nil
}

// Get returns nil, nil when the contract does not exist.
func (r *ContractRepo) Get(ctx context.Context, id string) (*engine.Contract, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)
	return r.load(ctx, row)
}

// GetByDay returns the contract for the calendar day containing day, or nil, nil.
func (r *ContractRepo) GetByDay(ctx context.Context, day time.Time) (*engine.Contract, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE day = ?`, engine.DayKey(day))
	return r.load(ctx, row)
}

// ListRecent returns up to limit contracts, newest day first, without their tasks.
func (r *ContractRepo) ListRecent(ctx context.Context, limit int) ([]*engine.Contract, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+contractColumns+` FROM contracts ORDER BY day DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("contract list: %w", err)
	}
	defer rows.Close()

	var out []*engine.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contract list rows: %w", err)
	}
	return out, nil
}

func (r *ContractRepo) load(ctx context.Context, row *sql.Row) (*engine.Contract, error) {
	c, err := scanContract(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tasks, err := r.tasks.ListByContract(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Tasks = tasks
	return c, nil
}

func scanContract(row scanner) (*engine.Contract, error) {
	var (
		c           engine.Contract
		day         string
		status      string
		active      int
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &day, &status, &c.StabilityScore, &c.TotalEstimatedMinutes,
		&active, &c.MeltdownCount, &c.MeltdownGoblins, &c.CreatedAt, &completedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("contract scan: %w", err)
	}
	d, err := parseDay(day)
	if err != nil {
		return nil, err
	}
	c.Day = d
	c.Status = engine.ContractStatus(status)
	c.MeltdownActive = active != 0
	c.CompletedAt = timePtr(completedAt)
	return &c, nil
}
