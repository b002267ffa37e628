// Package pattern turns the append-only log of completion and snooze observations
// into productivity rhythms, snooze risk, estimate buffers and adaptive suggestions.
// Everything here is a pure function of its inputs.
package pattern

import (
	"time"

	"github.com/google/uuid"

	"cove/internal/engine"
)

// DefaultEstimateMinutes is recorded when a task carried no estimate.
const DefaultEstimateMinutes = 30

// Observation is one immutable record of a task's completion or snooze context.
type Observation struct {
	ID               string
	TaskTitle        string
	Hour             int
	DayOfWeek        time.Weekday
	EstimatedMinutes int
	ActualMinutes    *int
	WasCompleted     bool
	WasSnoozed       bool
	SnoozeCount      int
	Interest         engine.InterestLevel
	Energy           engine.EnergyLevel
	UserEnergy       *engine.EnergyLevel
	CreatedAt        time.Time
}

func newObservation(task *engine.Task, at time.Time) Observation {
	est := task.Estimate()
	if est <= 0 {
		est = DefaultEstimateMinutes
	}
	var actual *int
	if task.ActualMinutes != nil {
		v := *task.ActualMinutes
		actual = &v
	}
	return Observation{
		ID:               uuid.New().String(),
		TaskTitle:        task.Title,
		Hour:             at.Hour(),
		DayOfWeek:        at.Weekday(),
		EstimatedMinutes: est,
		ActualMinutes:    actual,
		SnoozeCount:      task.SnoozeCount,
		Interest:         task.Interest,
		Energy:           task.Energy,
		CreatedAt:        at,
	}
}

// CompletionObservation records a finished task. userEnergy is optional.
// WasSnoozed stays false: each snooze already has its own observation, and
// SnoozeCount still carries the total.
func CompletionObservation(task *engine.Task, at time.Time, userEnergy *engine.EnergyLevel) Observation {
	o := newObservation(task, at)
	o.WasCompleted = true
	o.UserEnergy = userEnergy
	return o
}

// SnoozeObservation records a task being pushed back.
func SnoozeObservation(task *engine.Task, at time.Time) Observation {
	o := newObservation(task, at)
	o.WasSnoozed = true
	return o
}

// Accuracy is actual/estimated minutes; ok is false when either side is missing.
func (o Observation) Accuracy() (float64, bool) {
	if o.ActualMinutes == nil || o.EstimatedMinutes <= 0 {
		return 0, false
	}
	return float64(*o.ActualMinutes) / float64(o.EstimatedMinutes), true
}

func (o Observation) Underestimated() bool {
	a, ok := o.Accuracy()
	return ok && a > 1.2
}

func (o Observation) Overestimated() bool {
	a, ok := o.Accuracy()
	return ok && a < 0.8
}
