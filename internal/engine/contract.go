package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	MaxAnchorTasks = 3
	MaxSideQuests  = 2

	InitialStability = 0.5

	// MeltdownPenalty is taken off the stability score on every activation, down to MeltdownFloor.
	MeltdownPenalty = 0.1
	MeltdownFloor   = 0.2

	// MeltdownStabilityWeight is what each meltdown costs when stability is recomputed.
	MeltdownStabilityWeight = 0.05
)

// Contract is the bounded set of tasks committed to for one calendar day.
type Contract struct {
	ID                    string
	Day                   time.Time
	Status                ContractStatus
	Tasks                 []*Task
	StabilityScore        float64
	TotalEstimatedMinutes int
	MeltdownActive        bool
	MeltdownCount         int
	// MeltdownGoblins counts goblin tasks finished during the current meltdown.
	MeltdownGoblins int
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

func NewContract(day time.Time, now time.Time) *Contract {
	return &Contract{
		ID:             uuid.New().String(),
		Day:            StartOfDay(day),
		Status:         ContractDraft,
		StabilityScore: InitialStability,
		CreatedAt:      now,
	}
}

func (c *Contract) filter(keep func(*Task) bool) []*Task {
	var out []*Task
	for _, t := range c.Tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (c *Contract) AnchorTasks() []*Task {
	return c.filter(func(t *Task) bool { return t.IsAnchor })
}

func (c *Contract) SideQuests() []*Task {
	return c.filter(func(t *Task) bool { return !t.IsAnchor })
}

func (c *Contract) CompletedTasks() []*Task {
	return c.filter(func(t *Task) bool { return t.Status == TaskCompleted })
}

// PendingTasks are the owned tasks still pending or in progress.
func (c *Contract) PendingTasks() []*Task {
	return c.filter(func(t *Task) bool { return t.Status.IsOpen() })
}

func (c *Contract) CanAddAnchorTask() bool {
	return len(c.AnchorTasks()) < MaxAnchorTasks
}

func (c *Contract) CanAddSideQuest() bool {
	return len(c.SideQuests()) < MaxSideQuests
}

func (c *Contract) Progress() float64 {
	if len(c.Tasks) == 0 {
		return 0
	}
	return float64(len(c.CompletedTasks())) / float64(len(c.Tasks))
}

// IsComplete never holds for an empty contract.
func (c *Contract) IsComplete() bool {
	return len(c.Tasks) > 0 && len(c.PendingTasks()) == 0
}

func (c *Contract) owns(task *Task) bool {
	for _, t := range c.Tasks {
		if t.ID == task.ID {
			return true
		}
	}
	return false
}

func (c *Contract) stateError(op string) error {
	return StateError{Entity: "contract", ID: c.ID, Status: string(c.Status), Op: op}
}

// AddTask commits a task to the contract. Nothing is mutated when it fails.
func (c *Contract) AddTask(task *Task, asAnchor bool) error {
	switch c.Status {
	case ContractCompleted, ContractAbandoned:
		return c.stateError("add a task to")
	}
	if task.ContractID != nil || c.owns(task) {
		return ErrTaskOwned
	}
	if task.Bucket != BucketDirective {
		return ErrNotDirective
	}
	if !task.Status.IsOpen() && task.Status != TaskSnoozed {
		return task.stateError("commit")
	}
	if asAnchor && !c.CanAddAnchorTask() {
		return CapacityError{Slot: SlotAnchor, Limit: MaxAnchorTasks}
	}
	if !asAnchor && !c.CanAddSideQuest() {
		return CapacityError{Slot: SlotSideQuest, Limit: MaxSideQuests}
	}

	task.IsAnchor = asAnchor
	id := c.ID
	task.ContractID = &id
	c.Tasks = append(c.Tasks, task)
	c.recalculateEstimates()

	if c.Status == ContractDraft {
		c.Status = ContractActive
	}
	return nil
}

// RemoveTask releases ownership. It reports false when the task was not in the contract.
func (c *Contract) RemoveTask(task *Task) bool {
	idx := -1
	for i, t := range c.Tasks {
		if t.ID == task.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	c.Tasks = append(c.Tasks[:idx], c.Tasks[idx+1:]...)
	task.ContractID = nil
	c.recalculateEstimates()
	return true
}

// ReleaseTask hands an owned task back to the backlog. Closed contracts keep their tasks.
func (c *Contract) ReleaseTask(task *Task) error {
	switch c.Status {
	case ContractCompleted, ContractAbandoned:
		return c.stateError("remove a task from")
	}
	if !c.RemoveTask(task) {
		return ErrTaskNotInContract
	}
	return nil
}

// CompleteTask finishes an owned task and reports whether this completion closed the contract.
func (c *Contract) CompleteTask(task *Task, now time.Time) (bool, error) {
	if c.Status == ContractAbandoned {
		return false, c.stateError("complete a task in")
	}
	if !c.owns(task) {
		return false, ErrTaskNotInContract
	}
	if err := task.complete(now); err != nil {
		return false, err
	}
	c.recalculateStability()

	if c.Status != ContractCompleted && c.IsComplete() {
		c.Status = ContractCompleted
		c.CompletedAt = &now
		return true, nil
	}
	return false, nil
}

// ActivateMeltdown applies the penalty on every call, including repeated calls while
// a meltdown is already active.
func (c *Contract) ActivateMeltdown() {
	c.MeltdownActive = true
	c.MeltdownCount++
	c.MeltdownGoblins = 0
	c.StabilityScore = math.Max(MeltdownFloor, c.StabilityScore-MeltdownPenalty)
}

// RecordGoblin counts a goblin task toward the active meltdown session.
func (c *Contract) RecordGoblin() {
	if c.MeltdownActive {
		c.MeltdownGoblins++
	}
}

// DeactivateMeltdown clears the flag and returns how many goblin tasks were done during it.
func (c *Contract) DeactivateMeltdown() int {
	goblins := c.MeltdownGoblins
	c.MeltdownActive = false
	c.MeltdownGoblins = 0
	return goblins
}

// Abandon is an explicit user decision; nothing triggers it automatically.
func (c *Contract) Abandon() error {
	if c.Status == ContractCompleted || c.Status == ContractAbandoned {
		return c.stateError("abandon")
	}
	c.Status = ContractAbandoned
	return nil
}

func (c *Contract) recalculateEstimates() {
	total := 0
	for _, t := range c.Tasks {
		total += t.Estimate()
	}
	c.TotalEstimatedMinutes = total
}

func (c *Contract) recalculateStability() {
	base := 0.5 + c.Progress()*0.5
	penalty := float64(c.MeltdownCount) * MeltdownStabilityWeight
	c.StabilityScore = clamp01(base - penalty)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
