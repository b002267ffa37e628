package engine

import (
	"fmt"
	"strings"
)

// Bucket is the classification a captured input lands in.
type Bucket string

const (
	BucketDirective Bucket = "directive"
	BucketArchive   Bucket = "archive"
	BucketVenting   Bucket = "venting"
)

func (b Bucket) IsValid() bool {
	switch b {
	case BucketDirective, BucketArchive, BucketVenting:
		return true
	default:
		return false
	}
}

// ParseBucket accepts any casing ("DIRECTIVE" comes back from the classifier).
func ParseBucket(input string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(input)))
	if !b.IsValid() {
		return "", fmt.Errorf("invalid bucket: %q", input)
	}
	return b, nil
}

type TaskStatus string

const (
	TaskPending     TaskStatus = "pending"
	TaskInProgress  TaskStatus = "inProgress"
	TaskCompleted   TaskStatus = "completed"
	TaskSnoozed     TaskStatus = "snoozed"
	TaskCancelled   TaskStatus = "cancelled"
	TaskColdStorage TaskStatus = "coldStorage"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskSnoozed, TaskCancelled, TaskColdStorage:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the task still counts as pending work for its contract.
func (s TaskStatus) IsOpen() bool {
	return s == TaskPending || s == TaskInProgress
}

// Level is the shared high/medium/low scale used by interest and energy tags.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

func (l Level) IsValid() bool {
	switch l {
	case LevelHigh, LevelMedium, LevelLow:
		return true
	default:
		return false
	}
}

func (l Level) rank() int {
	switch l {
	case LevelHigh:
		return 2
	case LevelLow:
		return 0
	default:
		return 1
	}
}

// Distance is 0 for equal levels, 1 for adjacent ones and 2 for high vs low.
func (l Level) Distance(other Level) int {
	d := l.rank() - other.rank()
	if d < 0 {
		return -d
	}
	return d
}

// ParseLevel returns LevelMedium for empty or unknown input.
func ParseLevel(input string) Level {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "high", "h":
		return LevelHigh
	case "low", "l":
		return LevelLow
	default:
		return LevelMedium
	}
}

// InterestLevel tags how engaging a task is; EnergyLevel how much focus it needs.
type (
	InterestLevel = Level
	EnergyLevel   = Level
)

type ContractStatus string

const (
	ContractDraft     ContractStatus = "draft"
	ContractActive    ContractStatus = "active"
	ContractCompleted ContractStatus = "completed"
	ContractAbandoned ContractStatus = "abandoned"
)

func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractDraft, ContractActive, ContractCompleted, ContractAbandoned:
		return true
	default:
		return false
	}
}

type EnergyPattern string

const (
	PatternMorningPerson EnergyPattern = "morningPerson"
	PatternNightOwl      EnergyPattern = "nightOwl"
	PatternAfternoonPeak EnergyPattern = "afternoonPeak"
	PatternConsistent    EnergyPattern = "consistent"
)

func (p EnergyPattern) IsValid() bool {
	switch p {
	case PatternMorningPerson, PatternNightOwl, PatternAfternoonPeak, PatternConsistent:
		return true
	default:
		return false
	}
}

func (p EnergyPattern) DisplayName() string {
	switch p {
	case PatternMorningPerson:
		return "Morning Person"
	case PatternNightOwl:
		return "Night Owl"
	case PatternAfternoonPeak:
		return "Afternoon Peak"
	default:
		return "Consistent"
	}
}
