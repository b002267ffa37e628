package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinEstimateMinutes = 5
	MaxEstimateMinutes = 480
)

// Task is one unit of work. XPValue is fixed when the task is created.
type Task struct {
	ID               string
	Title            string
	Description      *string
	Bucket           Bucket
	Status           TaskStatus
	EstimatedMinutes *int
	ActualMinutes    *int
	Interest         InterestLevel
	Energy           EnergyLevel
	IsAnchor         bool
	CreatedAt        time.Time
	CompletedAt      *time.Time
	ScheduledFor     *time.Time
	SnoozeCount      int
	IgnoreCount      int
	ArchivedAt       *time.Time
	XPValue          int

	// ContractID is the owning contract, nil while the task sits in the backlog.
	ContractID *string
}

type NewTaskInput struct {
	Title            string
	Description      string
	Bucket           Bucket
	EstimatedMinutes *int
	Interest         InterestLevel
	Energy           EnergyLevel
	ScheduledFor     *time.Time
}

func normalizeTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", errors.New("title is required")
	}
	return t, nil
}

// ClampEstimate keeps an estimate inside the supported range.
func ClampEstimate(minutes int) int {
	if minutes < MinEstimateMinutes {
		return MinEstimateMinutes
	}
	if minutes > MaxEstimateMinutes {
		return MaxEstimateMinutes
	}
	return minutes
}

func NewTask(in NewTaskInput, now time.Time) (*Task, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	bucket := in.Bucket
	if bucket == "" {
		bucket = BucketDirective
	}
	if !bucket.IsValid() {
		return nil, fmt.Errorf("invalid bucket: %q", in.Bucket)
	}
	if in.EstimatedMinutes != nil && *in.EstimatedMinutes < 0 {
		return nil, fmt.Errorf("estimate must not be negative: %d", *in.EstimatedMinutes)
	}
	interest := in.Interest
	if !interest.IsValid() {
		interest = LevelMedium
	}
	energy := in.Energy
	if !energy.IsValid() {
		energy = LevelMedium
	}

	var desc *string
	if d := strings.TrimSpace(in.Description); d != "" {
		desc = &d
	}

	return &Task{
		ID:               uuid.New().String(),
		Title:            title,
		Description:      desc,
		Bucket:           bucket,
		Status:           TaskPending,
		EstimatedMinutes: in.EstimatedMinutes,
		Interest:         interest,
		Energy:           energy,
		CreatedAt:        now,
		ScheduledFor:     in.ScheduledFor,
		XPValue:          CalculateXP(interest, energy),
	}, nil
}

func (t *Task) stateError(op string) error {
	return StateError{Entity: "task", ID: t.ID, Status: string(t.Status), Op: op}
}

// Estimate returns the estimate in minutes, 0 when unset.
func (t *Task) Estimate() int {
	if t.EstimatedMinutes == nil {
		return 0
	}
	return *t.EstimatedMinutes
}

// Start moves the task into progress and stamps scheduledFor so completion can measure it.
func (t *Task) Start(now time.Time) error {
	switch t.Status {
	case TaskPending, TaskSnoozed:
	default:
		return t.stateError("start")
	}
	t.Status = TaskInProgress
	t.ScheduledFor = &now
	return nil
}

func (t *Task) complete(now time.Time) error {
	switch t.Status {
	case TaskPending, TaskInProgress, TaskSnoozed:
	default:
		return t.stateError("complete")
	}
	t.Status = TaskCompleted
	t.CompletedAt = &now
	if t.ScheduledFor != nil && t.EstimatedMinutes != nil {
		actual := int(now.Sub(*t.ScheduledFor) / time.Minute)
		if actual < 0 {
			actual = 0
		}
		t.ActualMinutes = &actual
	}
	return nil
}

// Complete finishes a task that is not owned by a contract. Owned tasks go
// through Contract.CompleteTask so the contract can update itself.
func (t *Task) Complete(now time.Time) error {
	if t.ContractID != nil {
		return ErrTaskOwned
	}
	return t.complete(now)
}

func (t *Task) Snooze() error {
	if !t.Status.IsOpen() {
		return t.stateError("snooze")
	}
	t.SnoozeCount++
	t.Status = TaskSnoozed
	return nil
}

func (t *Task) Cancel() error {
	switch t.Status {
	case TaskCompleted, TaskCancelled:
		return t.stateError("cancel")
	}
	t.Status = TaskCancelled
	return nil
}

// Ignore records that the user passed on a pending backlog task again.
func (t *Task) Ignore() error {
	if t.ContractID != nil {
		return ErrTaskOwned
	}
	if t.Status != TaskPending {
		return t.stateError("ignore")
	}
	t.IgnoreCount++
	return nil
}

// MoveToColdStorage archives an unowned task.
func (t *Task) MoveToColdStorage(now time.Time) error {
	if t.ContractID != nil {
		return ErrTaskOwned
	}
	if t.Status != TaskPending && t.Status != TaskSnoozed {
		return t.stateError("archive")
	}
	t.Status = TaskColdStorage
	t.ArchivedAt = &now
	return nil
}

func (t *Task) Revive() error {
	if t.Status != TaskColdStorage {
		return t.stateError("revive")
	}
	t.Status = TaskPending
	t.IgnoreCount = 0
	t.ArchivedAt = nil
	return nil
}

// DismissRevival keeps the task archived and restarts its revival clock.
func (t *Task) DismissRevival(now time.Time) error {
	if t.Status != TaskColdStorage {
		return t.stateError("dismiss revival of")
	}
	t.ArchivedAt = &now
	return nil
}
