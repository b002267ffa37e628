package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cove/internal/engine"
)

// MainUser is the user id used when none is configured.
const MainUser = "main_user"

const ledgerColumns = `id, user_id, pessimism_multiplier, energy_pattern,
	total_tasks_completed, total_xp, current_streak, longest_streak, last_active_date,
	goblin_tasks_completed, meltdowns_survived, contracts_completed, created_at`

// LedgerRepo persists a ledger with its skills, achievements and daily activity.
type LedgerRepo struct {
	db DBTX
}

func NewLedgerRepo(db DBTX) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// GetByUser returns nil, nil when the user has no ledger yet.
func (r *LedgerRepo) GetByUser(ctx context.Context, userID string) (*engine.Ledger, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ledgerColumns+` FROM ledgers WHERE user_id = ?`, userID)

	var (
		l          engine.Ledger
		pattern    string
		lastActive sql.NullString
	)
	if err := row.Scan(
		&l.ID, &l.UserID, &l.PessimismMultiplier, &pattern,
		&l.TotalTasksCompleted, &l.TotalXP, &l.CurrentStreak, &l.LongestStreak, &lastActive,
		&l.GoblinTasksCompleted, &l.MeltdownsSurvived, &l.ContractsCompleted, &l.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger get: %w", err)
	}
	l.EnergyPattern = engine.EnergyPattern(pattern)
	if !l.EnergyPattern.IsValid() {
		l.EnergyPattern = engine.PatternConsistent
	}
	if lastActive.Valid {
		d, err := parseDay(lastActive.String)
		if err != nil {
			return nil, err
		}
		l.LastActiveDate = &d
	}

	l.EnsureCatalog()
	if err := r.loadSkills(ctx, &l); err != nil {
		return nil, err
	}
	if err := r.loadAchievements(ctx, &l); err != nil {
		return nil, err
	}
	if err := r.loadActivity(ctx, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetOrCreate loads the user's ledger, inserting a fresh one on first use.
func (r *LedgerRepo) GetOrCreate(ctx context.Context, userID string, now time.Time) (*engine.Ledger, error) {
	l, err := r.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if l != nil {
		return l, nil
	}

	l = engine.NewLedger(userID, now)
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO ledgers (id, user_id, pessimism_multiplier, energy_pattern, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, l.ID, l.UserID, l.PessimismMultiplier, string(l.EnergyPattern), l.CreatedAt); err != nil {
		return nil, fmt.Errorf("ledger insert: %w", err)
	}
	if err := r.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Save writes the ledger row and upserts every skill, achievement and activity day.
func (r *LedgerRepo) Save(ctx context.Context, l *engine.Ledger) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ledgers
		SET pessimism_multiplier = ?, energy_pattern = ?,
			total_tasks_completed = ?, total_xp = ?, current_streak = ?, longest_streak = ?,
			last_active_date = ?, goblin_tasks_completed = ?, meltdowns_survived = ?, contracts_completed = ?
		WHERE id = ?
	`, l.PessimismMultiplier, string(l.EnergyPattern),
		l.TotalTasksCompleted, l.TotalXP, l.CurrentStreak, l.LongestStreak,
		dayKeyPtr(l.LastActiveDate), l.GoblinTasksCompleted, l.MeltdownsSurvived, l.ContractsCompleted,
		l.ID)
	if err != nil {
		return fmt.Errorf("ledger update: %w", err)
	}

	for skill, xp := range l.Skills {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO skills (ledger_id, skill, xp) VALUES (?, ?, ?)
			ON CONFLICT(ledger_id, skill) DO UPDATE SET xp = excluded.xp
		`, l.ID, string(skill), xp); err != nil {
			return fmt.Errorf("skill upsert: %w", err)
		}
	}
	for kind, p := range l.Achievements {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO achievements (ledger_id, kind, progress, unlocked_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(ledger_id, kind) DO UPDATE SET progress = excluded.progress, unlocked_at = excluded.unlocked_at
		`, l.ID, string(kind), p.Progress, p.UnlockedAt); err != nil {
			return fmt.Errorf("achievement upsert: %w", err)
		}
	}
	for _, a := range l.ActivityDays() {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO daily_activity (
				ledger_id, day, tasks_completed, xp_earned, meltdown_count, goblin_tasks_completed, contracts_completed
			) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ledger_id, day) DO UPDATE SET
				tasks_completed = excluded.tasks_completed,
				xp_earned = excluded.xp_earned,
				meltdown_count = excluded.meltdown_count,
				goblin_tasks_completed = excluded.goblin_tasks_completed,
				contracts_completed = excluded.contracts_completed
		`, l.ID, engine.DayKey(a.Day), a.TasksCompleted, a.XPEarned, a.MeltdownCount, a.GoblinTasksCompleted, a.ContractsCompleted); err != nil {
			return fmt.Errorf("activity upsert: %w", err)
		}
	}
	return nil
}

func (r *LedgerRepo) loadSkills(ctx context.Context, l *engine.Ledger) error {
	rows, err := r.db.QueryContext(ctx, `SELECT skill, xp FROM skills WHERE ledger_id = ?`, l.ID)
	if err != nil {
		return fmt.Errorf("skill list: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			skill string
			xp    int
		)
		if err := rows.Scan(&skill, &xp); err != nil {
			return fmt.Errorf("skill scan: %w", err)
		}
		l.Skills[engine.SkillType(skill)] = xp
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("skill rows: %w", err)
	}
	return nil
}

func (r *LedgerRepo) loadAchievements(ctx context.Context, l *engine.Ledger) error {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, progress, unlocked_at FROM achievements WHERE ledger_id = ?`, l.ID)
	if err != nil {
		return fmt.Errorf("achievement list: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind     string
			progress int
			unlocked sql.NullTime
		)
		if err := rows.Scan(&kind, &progress, &unlocked); err != nil {
			return fmt.Errorf("achievement scan: %w", err)
		}
		k := engine.AchievementKind(kind)
		if _, ok := engine.AchievementDefFor(k); !ok {
			continue
		}
		l.Achievements[k] = &engine.AchievementProgress{Kind: k, Progress: progress, UnlockedAt: timePtr(unlocked)}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("achievement rows: %w", err)
	}
	return nil
}

func (r *LedgerRepo) loadActivity(ctx context.Context, l *engine.Ledger) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, tasks_completed, xp_earned, meltdown_count, goblin_tasks_completed, contracts_completed
		FROM daily_activity
		WHERE ledger_id = ?
	`, l.ID)
	if err != nil {
		return fmt.Errorf("activity list: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			a   engine.DailyActivity
		)
		if err := rows.Scan(&key, &a.TasksCompleted, &a.XPEarned, &a.MeltdownCount, &a.GoblinTasksCompleted, &a.ContractsCompleted); err != nil {
			return fmt.Errorf("activity scan: %w", err)
		}
		day, err := parseDay(key)
		if err != nil {
			return err
		}
		a.Day = day
		l.Activity[key] = &a
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("activity rows: %w", err)
	}
	return nil
}
