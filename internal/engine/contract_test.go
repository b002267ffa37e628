package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractAnchorCapacity(t *testing.T) {
	c := NewContract(testNow, testNow)
	assert.Equal(t, ContractDraft, c.Status)

	for i := 0; i < MaxAnchorTasks; i++ {
		require.NoError(t, c.AddTask(newTestTask(t, "anchor"), true))
	}
	assert.Equal(t, ContractActive, c.Status)
	assert.False(t, c.CanAddAnchorTask())

	extra := newTestTask(t, "one too many")
	err := c.AddTask(extra, true)
	var ce CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, SlotAnchor, ce.Slot)
	assert.Equal(t, "You already have 3 anchor tasks. Remove one to add another.", err.Error())
	assert.Len(t, c.AnchorTasks(), 3)
	assert.Len(t, c.Tasks, 3)
	assert.Nil(t, extra.ContractID)
}

func TestContractSideQuestCapacity(t *testing.T) {
	c := NewContract(testNow, testNow)
	require.NoError(t, c.AddTask(newTestTask(t, "side 1"), false))
	require.NoError(t, c.AddTask(newTestTask(t, "side 2"), false))

	err := c.AddTask(newTestTask(t, "side 3"), false)
	var ce CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, SlotSideQuest, ce.Slot)
	assert.Len(t, c.SideQuests(), 2)

	// Anchors are counted separately.
	require.NoError(t, c.AddTask(newTestTask(t, "anchor"), true))
	assert.Equal(t, 90, c.TotalEstimatedMinutes)
}

func TestContractRejectsOwnedAndNonDirectiveTasks(t *testing.T) {
	c := NewContract(testNow, testNow)
	task := newTestTask(t, "shared")
	require.NoError(t, c.AddTask(task, true))
	assert.ErrorIs(t, c.AddTask(task, false), ErrTaskOwned)

	other := NewContract(testNow, testNow)
	assert.ErrorIs(t, other.AddTask(task, true), ErrTaskOwned)

	note, err := NewTask(NewTaskInput{Title: "idea", Bucket: BucketArchive}, testNow)
	require.NoError(t, err)
	assert.ErrorIs(t, c.AddTask(note, false), ErrNotDirective)
}

func TestContractRemoveTaskReleasesOwnership(t *testing.T) {
	c := NewContract(testNow, testNow)
	task := newTestTask(t, "drop me")
	require.NoError(t, c.AddTask(task, true))

	assert.True(t, c.RemoveTask(task))
	assert.Nil(t, task.ContractID)
	assert.Empty(t, c.Tasks)
	assert.Zero(t, c.TotalEstimatedMinutes)
	assert.False(t, c.RemoveTask(task))
}

func TestReleaseTaskRejectsClosedContracts(t *testing.T) {
	c := NewContract(testNow, testNow)
	task := newTestTask(t, "done")
	require.NoError(t, c.AddTask(task, true))
	assert.ErrorIs(t, c.ReleaseTask(newTestTask(t, "stranger")), ErrTaskNotInContract)

	_, err := c.CompleteTask(task, testNow)
	require.NoError(t, err)

	var se StateError
	require.ErrorAs(t, c.ReleaseTask(task), &se)
	assert.Equal(t, "remove a task from", se.Op)
	assert.Len(t, c.Tasks, 1)
	assert.True(t, c.IsComplete())
}

func TestContractSingleTaskCompletionClosesContract(t *testing.T) {
	c := NewContract(testNow, testNow)
	task := newTestTask(t, "only one")
	require.NoError(t, c.AddTask(task, true))

	closed, err := c.CompleteTask(task, testNow)
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Equal(t, ContractCompleted, c.Status)
	require.NotNil(t, c.CompletedAt)
	assert.Equal(t, 1.0, c.Progress())
	assert.Equal(t, 1.0, c.StabilityScore)

	_, err = c.CompleteTask(newTestTask(t, "stranger"), testNow)
	assert.ErrorIs(t, err, ErrTaskNotInContract)
}

func TestContractPartialCompletion(t *testing.T) {
	c := NewContract(testNow, testNow)
	a := newTestTask(t, "a")
	b := newTestTask(t, "b")
	require.NoError(t, c.AddTask(a, true))
	require.NoError(t, c.AddTask(b, false))

	closed, err := c.CompleteTask(a, testNow)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Equal(t, ContractActive, c.Status)
	assert.Equal(t, 0.5, c.Progress())
	assert.InDelta(t, 0.75, c.StabilityScore, 1e-9)
	assert.Len(t, c.PendingTasks(), 1)
}

func TestEmptyContractIsNeverComplete(t *testing.T) {
	c := NewContract(testNow, testNow)
	assert.False(t, c.IsComplete())
	assert.Zero(t, c.Progress())
}

func TestMeltdownPenaltyAppliesOnEveryActivation(t *testing.T) {
	c := NewContract(testNow, testNow)
	c.ActivateMeltdown()
	assert.InDelta(t, 0.4, c.StabilityScore, 1e-9)

	// A second activation while already active still costs stability.
	c.ActivateMeltdown()
	assert.InDelta(t, 0.3, c.StabilityScore, 1e-9)
	assert.Equal(t, 2, c.MeltdownCount)

	for i := 0; i < 5; i++ {
		c.ActivateMeltdown()
	}
	assert.InDelta(t, MeltdownFloor, c.StabilityScore, 1e-9)

	c.RecordGoblin()
	c.RecordGoblin()
	assert.Equal(t, 2, c.DeactivateMeltdown())
	assert.False(t, c.MeltdownActive)

	// Goblins outside a meltdown are not counted.
	c.RecordGoblin()
	assert.Zero(t, c.DeactivateMeltdown())
}

func TestStabilityStaysInUnitRange(t *testing.T) {
	c := NewContract(testNow, testNow)
	task := newTestTask(t, "t")
	require.NoError(t, c.AddTask(task, true))
	for i := 0; i < 30; i++ {
		c.ActivateMeltdown()
	}
	_, err := c.CompleteTask(task, testNow)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, c.StabilityScore, 0.0)
	assert.LessOrEqual(t, c.StabilityScore, 1.0)
}

func TestAbandonedContractRejectsWork(t *testing.T) {
	c := NewContract(testNow, testNow)
	task := newTestTask(t, "t")
	require.NoError(t, c.AddTask(task, true))
	require.NoError(t, c.Abandon())

	var se StateError
	assert.ErrorAs(t, c.AddTask(newTestTask(t, "late"), true), &se)
	_, err := c.CompleteTask(task, testNow)
	assert.ErrorAs(t, err, &se)
	assert.ErrorAs(t, c.Abandon(), &se)
}
