package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cove/internal/engine"
	"cove/internal/pattern"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTask(t *testing.T, title string) *engine.Task {
	t.Helper()
	est := 30
	task, err := engine.NewTask(engine.NewTaskInput{
		Title:            title,
		Description:      "details",
		EstimatedMinutes: &est,
		Interest:         engine.LevelLow,
		Energy:           engine.LevelHigh,
	}, testNow)
	require.NoError(t, err)
	return task
}

func TestOpenSetsPragmas(t *testing.T) {
	db := openTestDB(t)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	// Migrate is idempotent.
	require.NoError(t, Migrate(context.Background(), db))
}

func TestTaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepo(openTestDB(t))

	task := newTask(t, "Write report")
	require.NoError(t, repo.Insert(ctx, task))

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.Title, got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "details", *got.Description)
	assert.Equal(t, engine.LevelLow, got.Interest)
	assert.Equal(t, engine.LevelHigh, got.Energy)
	assert.Equal(t, 35, got.XPValue)
	require.NotNil(t, got.EstimatedMinutes)
	assert.Equal(t, 30, *got.EstimatedMinutes)
	assert.True(t, got.CreatedAt.Equal(task.CreatedAt))
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, got.Start(testNow))
	require.NoError(t, got.Complete(testNow.Add(40*time.Minute)))
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.TaskCompleted, again.Status)
	require.NotNil(t, again.ActualMinutes)
	assert.Equal(t, 40, *again.ActualMinutes)
	require.NotNil(t, again.CompletedAt)

	missing, err := repo.Get(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBacklogExcludesOwnedAndClosedTasks(t *testing.T) {
	ctx := context.Background()
	s := NewStore(openTestDB(t))

	free := newTask(t, "free")
	done := newTask(t, "done")
	owned := newTask(t, "owned")
	for _, task := range []*engine.Task{free, done, owned} {
		require.NoError(t, s.Tasks.Insert(ctx, task))
	}
	require.NoError(t, done.Complete(testNow))
	require.NoError(t, s.Tasks.Update(ctx, done))

	c := engine.NewContract(testNow, testNow)
	require.NoError(t, s.Contracts.Insert(ctx, c))
	require.NoError(t, c.AddTask(owned, true))
	require.NoError(t, s.Contracts.Save(ctx, c))

	backlog, err := s.Tasks.ListBacklog(ctx)
	require.NoError(t, err)
	require.Len(t, backlog, 1)
	assert.Equal(t, free.ID, backlog[0].ID)

	completed, err := s.Tasks.ListByStatus(ctx, engine.TaskCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.ID, completed[0].ID)
}

func TestContractRoundTripKeepsCommitOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(openTestDB(t))

	c := engine.NewContract(testNow, testNow)
	require.NoError(t, s.Contracts.Insert(ctx, c))

	var ids []string
	for i, title := range []string{"first", "second", "third"} {
		task := newTask(t, title)
		require.NoError(t, s.Tasks.Insert(ctx, task))
		require.NoError(t, c.AddTask(task, i < 2))
		ids = append(ids, task.ID)
	}
	c.ActivateMeltdown()
	require.NoError(t, s.Contracts.Save(ctx, c))

	got, err := s.Contracts.GetByDay(ctx, testNow.Add(3*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, engine.ContractActive, got.Status)
	assert.True(t, got.MeltdownActive)
	assert.Equal(t, 1, got.MeltdownCount)
	assert.InDelta(t, 0.4, got.StabilityScore, 1e-9)
	assert.Equal(t, 90, got.TotalEstimatedMinutes)
	assert.Equal(t, engine.DayKey(testNow), engine.DayKey(got.Day))

	require.Len(t, got.Tasks, 3)
	for i, task := range got.Tasks {
		assert.Equal(t, ids[i], task.ID)
		require.NotNil(t, task.ContractID)
		assert.Equal(t, c.ID, *task.ContractID)
	}
	assert.Len(t, got.AnchorTasks(), 2)

	none, err := s.Contracts.GetByDay(ctx, testNow.AddDate(0, 0, 1))
	assert.NoError(t, err)
	assert.Nil(t, none)

	recent, err := s.Contracts.ListRecent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestOneContractPerDay(t *testing.T) {
	ctx := context.Background()
	s := NewStore(openTestDB(t))

	require.NoError(t, s.Contracts.Insert(ctx, engine.NewContract(testNow, testNow)))
	assert.Error(t, s.Contracts.Insert(ctx, engine.NewContract(testNow.Add(time.Hour), testNow)))
}

func TestLedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepo(openTestDB(t))

	l, err := repo.GetOrCreate(ctx, MainUser, testNow)
	require.NoError(t, err)
	assert.Equal(t, MainUser, l.UserID)

	l.RecordTaskCompletion(newTask(t, "t"), testNow)
	l.CheckAchievements(testNow)
	l.PessimismMultiplier = 2.0
	l.EnergyPattern = engine.PatternNightOwl
	require.NoError(t, repo.Save(ctx, l))

	got, err := repo.GetOrCreate(ctx, MainUser, testNow)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
	assert.Equal(t, 45, got.TotalXP)
	assert.Equal(t, 1, got.TotalTasksCompleted)
	assert.Equal(t, 1, got.CurrentStreak)
	require.NotNil(t, got.LastActiveDate)
	assert.Equal(t, engine.DayKey(testNow), engine.DayKey(*got.LastActiveDate))
	assert.Equal(t, 2.0, got.PessimismMultiplier)
	assert.Equal(t, engine.PatternNightOwl, got.EnergyPattern)
	assert.Equal(t, 15, got.Skills[engine.SkillFocus])
	assert.True(t, got.Achievements[engine.AchievementFirstTask].IsUnlocked())
	assert.False(t, got.Achievements[engine.AchievementTenTasks].IsUnlocked())
	assert.Equal(t, 1, got.Achievements[engine.AchievementTenTasks].Progress)
	assert.Equal(t, 1, got.ActivityOn(testNow).TasksCompleted)
	assert.Len(t, got.Achievements, len(engine.Achievements()))
}

func TestObservationLog(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s := NewStore(db)

	l, err := s.Ledgers.GetOrCreate(ctx, MainUser, testNow)
	require.NoError(t, err)

	task := newTask(t, "t")
	require.NoError(t, task.Snooze())
	require.NoError(t, s.Observations.Append(ctx, l.ID, pattern.SnoozeObservation(task, testNow)))

	energy := engine.LevelLow
	require.NoError(t, task.Complete(testNow.Add(time.Hour)))
	require.NoError(t, s.Observations.Append(ctx, l.ID, pattern.CompletionObservation(task, testNow.Add(time.Hour), &energy)))

	obs, err := s.Observations.List(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.True(t, obs[0].WasSnoozed)
	assert.False(t, obs[0].WasCompleted)
	assert.Nil(t, obs[0].UserEnergy)
	assert.True(t, obs[1].WasCompleted)
	require.NotNil(t, obs[1].UserEnergy)
	assert.Equal(t, engine.LevelLow, *obs[1].UserEnergy)
	assert.Equal(t, 11, obs[1].Hour)
	assert.Equal(t, testNow.Weekday(), obs[1].DayOfWeek)

	n, err := s.Observations.Count(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Observations go away with their ledger.
	_, err = db.ExecContext(ctx, `DELETE FROM ledgers WHERE id = ?`, l.ID)
	require.NoError(t, err)
	n, err = s.Observations.Count(ctx, l.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	task := newTask(t, "rolled back")

	boom := errors.New("boom")
	err := InTx(ctx, db, func(s *Store) error {
		if err := s.Tasks.Insert(ctx, task); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := NewTaskRepo(db).Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, InTx(ctx, db, func(s *Store) error { return s.Tasks.Insert(ctx, task) }))
	got, err = NewTaskRepo(db).Get(ctx, task.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
