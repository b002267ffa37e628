package engine

import (
	"sort"
	"time"
)

// ColdStoragePolicy holds the archive/revival thresholds. They are configuration,
// not game constants.
type ColdStoragePolicy struct {
	IgnoreThreshold    int
	MinRevivalInterval time.Duration
	MaxDailyRevivals   int
}

func DefaultColdStoragePolicy() ColdStoragePolicy {
	return ColdStoragePolicy{
		IgnoreThreshold:    3,
		MinRevivalInterval: 30 * 24 * time.Hour,
		MaxDailyRevivals:   2,
	}
}

func (p ColdStoragePolicy) ShouldSuggestColdStorage(t *Task) bool {
	if p.IgnoreThreshold <= 0 {
		return false
	}
	return t.Status == TaskPending && t.ContractID == nil && t.IgnoreCount >= p.IgnoreThreshold
}

// ArchiveCandidates lists tasks ignored often enough to suggest archiving.
func (p ColdStoragePolicy) ArchiveCandidates(tasks []*Task) []*Task {
	var out []*Task
	for _, t := range tasks {
		if p.ShouldSuggestColdStorage(t) {
			out = append(out, t)
		}
	}
	return out
}

// ColdTasks returns archived tasks, most recently archived first.
func ColdTasks(tasks []*Task) []*Task {
	var out []*Task
	for _, t := range tasks {
		if t.Status == TaskColdStorage {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return archivedAt(out[i]).After(archivedAt(out[j]))
	})
	return out
}

func archivedAt(t *Task) time.Time {
	if t.ArchivedAt == nil {
		return time.Time{}
	}
	return *t.ArchivedAt
}

// RevivalCandidates returns cold tasks archived at least MinRevivalInterval ago,
// oldest first, capped at MaxDailyRevivals.
func (p ColdStoragePolicy) RevivalCandidates(tasks []*Task, now time.Time) []*Task {
	var out []*Task
	for _, t := range ColdTasks(tasks) {
		if t.ArchivedAt != nil && now.Sub(*t.ArchivedAt) >= p.MinRevivalInterval {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return archivedAt(out[i]).Before(archivedAt(out[j]))
	})
	if p.MaxDailyRevivals >= 0 && len(out) > p.MaxDailyRevivals {
		out = out[:p.MaxDailyRevivals]
	}
	return out
}

type ColdStorageStats struct {
	TotalArchived  int
	OldestArchived *time.Time
	AverageAge     time.Duration
}

func ColdStorageStatistics(tasks []*Task, now time.Time) ColdStorageStats {
	cold := ColdTasks(tasks)
	stats := ColdStorageStats{TotalArchived: len(cold)}
	var total time.Duration
	n := 0
	for _, t := range cold {
		if t.ArchivedAt == nil {
			continue
		}
		if stats.OldestArchived == nil || t.ArchivedAt.Before(*stats.OldestArchived) {
			at := *t.ArchivedAt
			stats.OldestArchived = &at
		}
		total += now.Sub(*t.ArchivedAt)
		n++
	}
	if n > 0 {
		stats.AverageAge = total / time.Duration(n)
	}
	return stats
}
