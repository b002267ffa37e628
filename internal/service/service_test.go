package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cove/internal/capture"
	"cove/internal/engine"
	"cove/internal/logging"
	"cove/internal/pattern"
	"cove/internal/storage"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T) (*Service, *clock) {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "cove.db"))
	require.NoError(t, err)
	clk := &clock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)}
	svc := New(db, Options{Logger: logging.Discard().Logger, Now: clk.Now})
	t.Cleanup(func() {
		svc.Close()
		_ = db.Close()
	})
	return svc, clk
}

func addTask(t *testing.T, svc *Service, title string) *engine.Task {
	t.Helper()
	est := 30
	task, err := svc.CreateTask(context.Background(), engine.NewTaskInput{
		Title:            title,
		EstimatedMinutes: &est,
	})
	require.NoError(t, err)
	return task
}

func TestCompleteContractFlow(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t)

	a := addTask(t, svc, "Write report")
	b := addTask(t, svc, "Email Sam")
	assert.Equal(t, 25, a.XPValue)

	c, err := svc.CommitTask(ctx, a.ID, true)
	require.NoError(t, err)
	assert.Equal(t, engine.ContractActive, c.Status)
	_, err = svc.CommitTask(ctx, b.ID, false)
	require.NoError(t, err)

	backlog, err := svc.Backlog(ctx)
	require.NoError(t, err)
	assert.Empty(t, backlog)

	_, err = svc.StartTask(ctx, a.ID)
	require.NoError(t, err)
	clk.Advance(45 * time.Minute)

	energy := engine.LevelHigh
	res, err := svc.CompleteTask(ctx, a.ID, &energy)
	require.NoError(t, err)
	assert.Equal(t, 35, res.XPAwarded, "task XP plus the first-task reward")
	assert.False(t, res.ContractCompleted)
	assert.Equal(t, 1, res.LevelBefore)
	assert.Equal(t, 1, res.LevelAfter)
	require.Len(t, res.Unlocked, 1)
	assert.Equal(t, engine.AchievementFirstTask, res.Unlocked[0].Kind)

	done, err := svc.GetTask(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, done.ActualMinutes)
	assert.Equal(t, 45, *done.ActualMinutes)

	res, err = svc.CompleteTask(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.True(t, res.ContractCompleted)
	assert.Equal(t, 25, res.XPAwarded)
	assert.Equal(t, engine.ContractCompleted, res.Contract.Status)
	assert.InDelta(t, 1.0, res.Contract.StabilityScore, 1e-9)

	snap, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, snap.Ledger.TotalXP)
	assert.Equal(t, 2, snap.Ledger.TotalTasksCompleted)
	assert.Equal(t, 1, snap.Ledger.ContractsCompleted)
	assert.Equal(t, 1, snap.Ledger.CurrentStreak)
	require.Len(t, snap.Recent, StatusDays)
	assert.Equal(t, 2, snap.Recent[StatusDays-1].TasksCompleted)
	require.NotNil(t, snap.Today)
	assert.Equal(t, engine.ContractCompleted, snap.Today.Status)

	in, err := svc.Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, in.Observations)
	assert.InDelta(t, 1.5, in.Accuracy, 1e-9)
}

func TestCommitRejectsFullSlotWithoutChanges(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := 0; i < engine.MaxAnchorTasks; i++ {
		task := addTask(t, svc, fmt.Sprintf("anchor %d", i))
		_, err := svc.CommitTask(ctx, task.ID, true)
		require.NoError(t, err)
	}
	extra := addTask(t, svc, "one too many")

	_, err := svc.CommitTask(ctx, extra.ID, true)
	var ce engine.CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "You already have 3 anchor tasks. Remove one to add another.", err.Error())

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Len(t, today.AnchorTasks(), engine.MaxAnchorTasks)

	got, err := svc.GetTask(ctx, extra.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ContractID)
}

func TestCompleteFailureLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	task := addTask(t, svc, "Once only")
	_, err := svc.CompleteTask(ctx, task.ID, nil)
	require.NoError(t, err)

	_, err = svc.CompleteTask(ctx, task.ID, nil)
	var se engine.StateError
	require.ErrorAs(t, err, &se)

	snap, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Ledger.TotalTasksCompleted)
	assert.Equal(t, 35, snap.Ledger.TotalXP)

	_, err = svc.CompleteTask(ctx, "missing", nil)
	assert.ErrorAs(t, err, &NotFoundError{})
}

func TestDropAndAbandonReturnTasksToBacklog(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	a := addTask(t, svc, "a")
	b := addTask(t, svc, "b")
	loose := addTask(t, svc, "loose")
	_, err := svc.CommitTask(ctx, a.ID, true)
	require.NoError(t, err)
	_, err = svc.CommitTask(ctx, b.ID, false)
	require.NoError(t, err)

	_, err = svc.DropTask(ctx, loose.ID)
	assert.ErrorIs(t, err, engine.ErrTaskNotInContract)

	c, err := svc.DropTask(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, c.Tasks, 1)

	c, err = svc.AbandonContract(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.ContractAbandoned, c.Status)

	backlog, err := svc.Backlog(ctx)
	require.NoError(t, err)
	assert.Len(t, backlog, 3)

	_, err = svc.AbandonContract(ctx)
	var se engine.StateError
	assert.ErrorAs(t, err, &se)
}

func TestMeltdownSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.EndMeltdown(ctx)
	var se engine.StateError
	require.ErrorAs(t, err, &se)

	c, err := svc.StartMeltdown(ctx)
	require.NoError(t, err)
	assert.True(t, c.MeltdownActive)
	assert.InDelta(t, 0.4, c.StabilityScore, 1e-9)

	out, err := svc.CompleteGoblinTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.GoblinTaskXP, out.XPEarned)

	res, err := svc.EndMeltdown(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Goblins)
	assert.True(t, res.Survived)
	assert.Equal(t, engine.MeltdownSurvivalXP, res.Outcome.XPEarned)
	assert.False(t, res.Contract.MeltdownActive)

	snap, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Ledger.MeltdownsSurvived)
	assert.Equal(t, 1, snap.Ledger.GoblinTasksCompleted)
	assert.Equal(t, 1, snap.Recent[StatusDays-1].MeltdownCount)
}

func TestMeltdownWithoutGoblinsIsNotSurvived(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.StartMeltdown(ctx)
	require.NoError(t, err)
	res, err := svc.EndMeltdown(ctx)
	require.NoError(t, err)
	assert.False(t, res.Survived)
	assert.Zero(t, res.Outcome.XPEarned)
}

func TestSnoozeFeedsPatternLog(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	task := addTask(t, svc, "Dentist")
	snoozed, err := svc.SnoozeTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.TaskSnoozed, snoozed.Status)
	assert.Equal(t, 1, snoozed.SnoozeCount)

	other := addTask(t, svc, "Taxes")
	_, err = svc.SnoozeTask(ctx, other.ID)
	require.NoError(t, err)

	res, err := svc.CompleteTask(ctx, task.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, task.ID, res.TaskID)

	in, err := svc.Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, in.Observations)
	require.Len(t, in.Hourly, 1)
	assert.Equal(t, 10, in.Hourly[0].Hour)
	assert.InDelta(t, 1.0/3, in.Hourly[0].CompletionRate, 1e-9)
	assert.Equal(t, engine.DefaultPessimismMultiplier, in.CurrentMultiplier)
}

func TestApplySuggestedMultiplier(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	l, err := svc.ApplySuggestedMultiplier(ctx)
	require.NoError(t, err)
	assert.Equal(t, pattern.SuggestPessimismMultiplier(nil), l.PessimismMultiplier)
	assert.Equal(t, engine.PatternConsistent, l.EnergyPattern)

	snap, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, l.PessimismMultiplier, snap.Ledger.PessimismMultiplier)
}

func TestMatchEnergyOrdersOpenWork(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	low, err := svc.CreateTask(ctx, engine.NewTaskInput{Title: "sort socks", Energy: engine.LevelLow})
	require.NoError(t, err)
	high, err := svc.CreateTask(ctx, engine.NewTaskInput{Title: "write proposal", Energy: engine.LevelHigh})
	require.NoError(t, err)

	tasks, err := svc.MatchEnergy(ctx, engine.LevelHigh, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, high.ID, tasks[0].ID)
	assert.Equal(t, low.ID, tasks[1].ID)

	suggestions, err := svc.Suggestions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, suggestions, "not enough history yet")
}

func TestColdStorageCycle(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t)

	task := addTask(t, svc, "Learn piano")
	var suggest bool
	for i := 0; i < 3; i++ {
		var err error
		_, suggest, err = svc.IgnoreTask(ctx, task.ID)
		require.NoError(t, err)
	}
	assert.True(t, suggest)

	view, err := svc.ColdStorage(ctx)
	require.NoError(t, err)
	require.Len(t, view.Suggested, 1)

	archived, err := svc.ArchiveTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.TaskColdStorage, archived.Status)

	clk.Advance(31 * 24 * time.Hour)
	view, err = svc.ColdStorage(ctx)
	require.NoError(t, err)
	assert.Len(t, view.Archived, 1)
	assert.Len(t, view.Revivals, 1)
	assert.Equal(t, 1, view.Stats.TotalArchived)

	revived, err := svc.ReviveTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.TaskPending, revived.Status)
	assert.Zero(t, revived.IgnoreCount)

	_, err = svc.ReviveTask(ctx, task.ID)
	var se engine.StateError
	assert.ErrorAs(t, err, &se)
}

func TestArchiveReleasesCommittedTask(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	task := addTask(t, svc, "Someday")
	_, err := svc.CommitTask(ctx, task.ID, false)
	require.NoError(t, err)

	archived, err := svc.ArchiveTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, archived.ContractID)

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Empty(t, today.Tasks)
}

func TestCompletedContractKeepsItsTasks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	task := addTask(t, svc, "Pay rent")
	_, err := svc.CommitTask(ctx, task.ID, true)
	require.NoError(t, err)
	res, err := svc.CompleteTask(ctx, task.ID, nil)
	require.NoError(t, err)
	require.True(t, res.ContractCompleted)

	var se engine.StateError
	_, err = svc.DropTask(ctx, task.ID)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "remove a task from", se.Op)

	_, err = svc.ArchiveTask(ctx, task.ID)
	require.ErrorAs(t, err, &se)

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.ContractCompleted, today.Status)
	require.Len(t, today.Tasks, 1)
	assert.Equal(t, task.ID, today.Tasks[0].ID)
}

func TestIgnoreRejectsCommittedTask(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	task := addTask(t, svc, "Anchor")
	_, err := svc.CommitTask(ctx, task.ID, true)
	require.NoError(t, err)

	_, suggest, err := svc.IgnoreTask(ctx, task.ID)
	assert.ErrorIs(t, err, engine.ErrTaskOwned)
	assert.False(t, suggest)

	got, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Zero(t, got.IgnoreCount)
}

func TestImportClassification(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	res, err := capture.Parse(`{"bucket":"DIRECTIVE","tasks":[{"title":"Call mom","estimatedMinutes":2,"interestLevel":"high","energyRequired":"low"}]}`)
	require.NoError(t, err)

	landed, err := svc.ImportClassification(ctx, res)
	require.NoError(t, err)
	require.Len(t, landed, 1)
	assert.Equal(t, engine.MinEstimateMinutes, landed[0].Estimate())

	backlog, err := svc.Backlog(ctx)
	require.NoError(t, err)
	require.Len(t, backlog, 1)
	assert.Equal(t, "Call mom", backlog[0].Title)
}

func TestCommandsAreSerialized(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tasks := make([]*engine.Task, 20)
	for i := range tasks {
		tasks[i] = addTask(t, svc, fmt.Sprintf("task %d", i))
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.CompleteTask(ctx, id, nil)
			assert.NoError(t, err)
		}(task.ID)
	}
	wg.Wait()

	snap, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(tasks), snap.Ledger.TotalTasksCompleted)
	assert.True(t, snap.Ledger.Achievements[engine.AchievementTenTasks].IsUnlocked())
}

func TestClosedServiceRejectsCommands(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Close()

	_, err := svc.Today(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestResolveTaskID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	task := addTask(t, svc, "Resolve me")
	id, err := svc.ResolveTaskID(ctx, task.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, task.ID, id)

	id, err = svc.ResolveTaskID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, id)

	_, err = svc.ResolveTaskID(ctx, "zzzz")
	assert.ErrorAs(t, err, &NotFoundError{})

	_, err = svc.ResolveTaskID(ctx, " ")
	assert.Error(t, err)
}

func TestNotesListsCapturedVenting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	res, err := capture.Parse(`{"bucket":"venting","ventingResponse":"That sounds exhausting."}`)
	require.NoError(t, err)
	_, err = svc.ImportClassification(ctx, res)
	require.NoError(t, err)

	notes, err := svc.Notes(ctx, engine.BucketVenting)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, engine.BucketVenting, notes[0].Bucket)

	backlog, err := svc.Backlog(ctx)
	require.NoError(t, err)
	assert.Empty(t, backlog)
}
