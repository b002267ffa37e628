package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func newTestTask(t *testing.T, title string) *Task {
	t.Helper()
	task, err := NewTask(NewTaskInput{Title: title, EstimatedMinutes: intPtr(30)}, testNow)
	require.NoError(t, err)
	return task
}

func TestCalculateXP(t *testing.T) {
	cases := []struct {
		interest InterestLevel
		energy   EnergyLevel
		want     int
	}{
		{LevelHigh, LevelHigh, 25},
		{LevelMedium, LevelMedium, 25},
		{LevelLow, LevelLow, 25},
		{LevelLow, LevelHigh, 35},
		{LevelHigh, LevelLow, 15},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CalculateXP(tc.interest, tc.energy), "%s/%s", tc.interest, tc.energy)
	}
}

func TestLevelBoundaries(t *testing.T) {
	assert.Equal(t, 1, LevelForTotalXP(0))
	assert.Equal(t, 1, LevelForTotalXP(-5))

	assert.Equal(t, 1, LevelForTotalXP(99))
	assert.InDelta(t, 0.99, LevelProgress(99), 1e-9)
	assert.Equal(t, 1, XPToNextLevel(99))

	assert.Equal(t, 2, LevelForTotalXP(100))
	assert.Equal(t, 0.0, LevelProgress(100))
	assert.Equal(t, 100, XPToNextLevel(100))

	assert.Equal(t, 3, SkillLevelForXP(100))
	assert.Equal(t, 50, SkillXPToNextLevel(100))
}

func TestAdjustedEstimate(t *testing.T) {
	assert.Equal(t, 45, AdjustedEstimate(30, 1.5))
	assert.Equal(t, 60, AdjustedEstimate(30, 2.0))
	assert.Equal(t, 45, AdjustedEstimate(30, 0))
	assert.Equal(t, 0, AdjustedEstimate(0, 2.0))
}

func TestNewTaskDefaults(t *testing.T) {
	task, err := NewTask(NewTaskInput{Title: "  Write report  "}, testNow)
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, BucketDirective, task.Bucket)
	assert.Equal(t, TaskPending, task.Status)
	assert.Equal(t, LevelMedium, task.Interest)
	assert.Equal(t, LevelMedium, task.Energy)
	assert.Equal(t, 25, task.XPValue)
	assert.Nil(t, task.ContractID)

	_, err = NewTask(NewTaskInput{Title: "   "}, testNow)
	assert.Error(t, err)

	_, err = NewTask(NewTaskInput{Title: "x", EstimatedMinutes: intPtr(-1)}, testNow)
	assert.Error(t, err)
}

func TestClampEstimate(t *testing.T) {
	assert.Equal(t, MinEstimateMinutes, ClampEstimate(1))
	assert.Equal(t, 45, ClampEstimate(45))
	assert.Equal(t, MaxEstimateMinutes, ClampEstimate(1000))
}

func TestTaskStartThenCompleteMeasuresActualMinutes(t *testing.T) {
	task := newTestTask(t, "Deep work")
	require.NoError(t, task.Start(testNow))
	assert.Equal(t, TaskInProgress, task.Status)

	require.NoError(t, task.Complete(testNow.Add(45*time.Minute)))
	assert.Equal(t, TaskCompleted, task.Status)
	require.NotNil(t, task.ActualMinutes)
	assert.Equal(t, 45, *task.ActualMinutes)
	require.NotNil(t, task.CompletedAt)

	var se StateError
	assert.ErrorAs(t, task.Complete(testNow), &se)
	assert.ErrorAs(t, task.Start(testNow), &se)
}

func TestTaskSnoozeAndCancel(t *testing.T) {
	task := newTestTask(t, "Call bank")
	require.NoError(t, task.Snooze())
	assert.Equal(t, TaskSnoozed, task.Status)
	assert.Equal(t, 1, task.SnoozeCount)

	// Snoozed tasks are not open, so a second snooze needs a restart first.
	assert.Error(t, task.Snooze())
	require.NoError(t, task.Start(testNow))
	require.NoError(t, task.Snooze())
	assert.Equal(t, 2, task.SnoozeCount)

	require.NoError(t, task.Cancel())
	assert.Equal(t, TaskCancelled, task.Status)
	assert.Error(t, task.Cancel())
}

func TestColdStorageLifecycle(t *testing.T) {
	task := newTestTask(t, "Organize photos")
	for i := 0; i < 3; i++ {
		require.NoError(t, task.Ignore())
	}
	policy := DefaultColdStoragePolicy()
	assert.True(t, policy.ShouldSuggestColdStorage(task))

	require.NoError(t, task.MoveToColdStorage(testNow))
	assert.Equal(t, TaskColdStorage, task.Status)
	assert.False(t, policy.ShouldSuggestColdStorage(task))

	assert.Empty(t, policy.RevivalCandidates([]*Task{task}, testNow.Add(24*time.Hour)))
	later := testNow.Add(31 * 24 * time.Hour)
	assert.Len(t, policy.RevivalCandidates([]*Task{task}, later), 1)

	require.NoError(t, task.DismissRevival(later))
	assert.Empty(t, policy.RevivalCandidates([]*Task{task}, later))

	require.NoError(t, task.Revive())
	assert.Equal(t, TaskPending, task.Status)
	assert.Zero(t, task.IgnoreCount)
	assert.Nil(t, task.ArchivedAt)
}

func TestIgnoreOnlyCountsPendingBacklogTasks(t *testing.T) {
	c := NewContract(testNow, testNow)
	owned := newTestTask(t, "Committed")
	require.NoError(t, c.AddTask(owned, true))
	assert.ErrorIs(t, owned.Ignore(), ErrTaskOwned)
	assert.Zero(t, owned.IgnoreCount)

	snoozed := newTestTask(t, "Later")
	require.NoError(t, snoozed.Snooze())
	var se StateError
	assert.ErrorAs(t, snoozed.Ignore(), &se)
	assert.Zero(t, snoozed.IgnoreCount)

	require.True(t, c.RemoveTask(owned))
	require.NoError(t, owned.Ignore())
	assert.Equal(t, 1, owned.IgnoreCount)
}

func TestRevivalCandidatesAreCappedOldestFirst(t *testing.T) {
	policy := DefaultColdStoragePolicy()
	var tasks []*Task
	for i := 0; i < 4; i++ {
		task := newTestTask(t, "old")
		require.NoError(t, task.MoveToColdStorage(testNow.Add(time.Duration(i)*time.Hour)))
		tasks = append(tasks, task)
	}
	got := policy.RevivalCandidates(tasks, testNow.Add(60*24*time.Hour))
	require.Len(t, got, 2)
	assert.Equal(t, tasks[0].ID, got[0].ID)
	assert.Equal(t, tasks[1].ID, got[1].ID)

	stats := ColdStorageStatistics(tasks, testNow.Add(4*time.Hour))
	assert.Equal(t, 4, stats.TotalArchived)
	require.NotNil(t, stats.OldestArchived)
	assert.True(t, stats.OldestArchived.Equal(testNow))
}

func TestOwnedTaskCannotBeArchivedOrCompletedDirectly(t *testing.T) {
	c := NewContract(testNow, testNow)
	task := newTestTask(t, "Owned")
	require.NoError(t, c.AddTask(task, true))

	assert.ErrorIs(t, task.MoveToColdStorage(testNow), ErrTaskOwned)
	assert.ErrorIs(t, task.Complete(testNow), ErrTaskOwned)
}
