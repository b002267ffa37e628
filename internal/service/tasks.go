package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cove/internal/capture"
	"cove/internal/engine"
	"cove/internal/pattern"
	"cove/internal/storage"
)

func (s *Service) CreateTask(ctx context.Context, in engine.NewTaskInput) (*engine.Task, error) {
	var task *engine.Task
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		t, err := engine.NewTask(in, now)
		if err != nil {
			return err
		}
		if err := st.Tasks.Insert(ctx, t); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("task created", "task", task.ID, "bucket", task.Bucket, "xp", task.XPValue)
	return task, nil
}

func (s *Service) GetTask(ctx context.Context, id string) (*engine.Task, error) {
	var task *engine.Task
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, _ time.Time) error {
		t, err := s.task(ctx, st, id)
		task = t
		return err
	})
	return task, err
}

// ResolveTaskID expands a unique ID prefix (as printed by the CLI) to the full task ID.
func (s *Service) ResolveTaskID(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("task id is required")
	}
	var ids []string
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, _ time.Time) error {
		found, err := st.Tasks.IDsWithPrefix(ctx, ref, 2)
		ids = found
		return err
	})
	if err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", NotFoundError{Kind: "task", ID: ref}
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("task id %q is ambiguous", ref)
	}
}

// Notes lists tasks captured into a non-directive bucket.
func (s *Service) Notes(ctx context.Context, bucket engine.Bucket) ([]*engine.Task, error) {
	var out []*engine.Task
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, _ time.Time) error {
		tasks, err := st.Tasks.ListByBucket(ctx, bucket)
		out = tasks
		return err
	})
	return out, err
}

// Backlog lists directive tasks not yet committed to any contract.
func (s *Service) Backlog(ctx context.Context) ([]*engine.Task, error) {
	var out []*engine.Task
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, _ time.Time) error {
		tasks, err := st.Tasks.ListBacklog(ctx)
		out = tasks
		return err
	})
	return out, err
}

// mutateTask loads a task (through its contract when owned), applies fn and saves.
func (s *Service) mutateTask(ctx context.Context, id, op string, fn func(ctx context.Context, st *storage.Store, c *engine.Contract, t *engine.Task, now time.Time) error) (*engine.Task, error) {
	var task *engine.Task
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		t, err := s.task(ctx, st, id)
		if err != nil {
			return err
		}
		c, err := s.owner(ctx, st, t)
		if err != nil {
			return err
		}
		if c != nil {
			if owned := ownedTask(c, id); owned != nil {
				t = owned
			}
		}
		if err := fn(ctx, st, c, t, now); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		s.logRejection("task update rejected", err, "op", op, "task", id)
		return nil, err
	}
	s.log.Info("task updated", "op", op, "task", id, "status", task.Status)
	return task, nil
}

func (s *Service) StartTask(ctx context.Context, id string) (*engine.Task, error) {
	return s.mutateTask(ctx, id, "start", func(ctx context.Context, st *storage.Store, c *engine.Contract, t *engine.Task, now time.Time) error {
		if err := t.Start(now); err != nil {
			return err
		}
		return saveTask(ctx, st, c, t)
	})
}

// SnoozeTask pushes a task back and records the snooze in the pattern log.
func (s *Service) SnoozeTask(ctx context.Context, id string) (*engine.Task, error) {
	return s.mutateTask(ctx, id, "snooze", func(ctx context.Context, st *storage.Store, c *engine.Contract, t *engine.Task, now time.Time) error {
		if err := t.Snooze(); err != nil {
			return err
		}
		l, err := s.ledger(ctx, st, now)
		if err != nil {
			return err
		}
		if err := st.Observations.Append(ctx, l.ID, pattern.SnoozeObservation(t, now)); err != nil {
			return err
		}
		return saveTask(ctx, st, c, t)
	})
}

func (s *Service) CancelTask(ctx context.Context, id string) (*engine.Task, error) {
	return s.mutateTask(ctx, id, "cancel", func(ctx context.Context, st *storage.Store, c *engine.Contract, t *engine.Task, _ time.Time) error {
		if err := t.Cancel(); err != nil {
			return err
		}
		return saveTask(ctx, st, c, t)
	})
}

// IgnoreTask records that the user passed on a backlog task. The returned flag
// reports whether it should now be offered for cold storage.
func (s *Service) IgnoreTask(ctx context.Context, id string) (*engine.Task, bool, error) {
	t, err := s.mutateTask(ctx, id, "ignore", func(ctx context.Context, st *storage.Store, c *engine.Contract, t *engine.Task, _ time.Time) error {
		if err := t.Ignore(); err != nil {
			return err
		}
		return saveTask(ctx, st, c, t)
	})
	if err != nil {
		return nil, false, err
	}
	return t, s.policy.ShouldSuggestColdStorage(t), nil
}

// ArchiveTask moves a task to cold storage, releasing it from its contract first.
func (s *Service) ArchiveTask(ctx context.Context, id string) (*engine.Task, error) {
	return s.mutateTask(ctx, id, "archive", func(ctx context.Context, st *storage.Store, c *engine.Contract, t *engine.Task, now time.Time) error {
		if c != nil {
			if err := c.ReleaseTask(t); err != nil {
				return err
			}
			if err := st.Contracts.Save(ctx, c); err != nil {
				return err
			}
		}
		if err := t.MoveToColdStorage(now); err != nil {
			return err
		}
		return st.Tasks.Update(ctx, t)
	})
}

func (s *Service) ReviveTask(ctx context.Context, id string) (*engine.Task, error) {
	return s.mutateTask(ctx, id, "revive", func(ctx context.Context, st *storage.Store, c *engine.Contract, t *engine.Task, _ time.Time) error {
		if err := t.Revive(); err != nil {
			return err
		}
		return saveTask(ctx, st, c, t)
	})
}

func (s *Service) DismissRevival(ctx context.Context, id string) (*engine.Task, error) {
	return s.mutateTask(ctx, id, "dismiss revival", func(ctx context.Context, st *storage.Store, c *engine.Contract, t *engine.Task, now time.Time) error {
		if err := t.DismissRevival(now); err != nil {
			return err
		}
		return saveTask(ctx, st, c, t)
	})
}

// ColdStorageView is everything the cold storage screen shows.
type ColdStorageView struct {
	Archived []*engine.Task
	// Suggested are backlog tasks ignored often enough to archive.
	Suggested []*engine.Task
	// Revivals are archived tasks old enough to offer back today.
	Revivals []*engine.Task
	Stats    engine.ColdStorageStats
}

func (s *Service) ColdStorage(ctx context.Context) (*ColdStorageView, error) {
	var view ColdStorageView
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		cold, err := st.Tasks.ListByStatus(ctx, engine.TaskColdStorage)
		if err != nil {
			return err
		}
		backlog, err := st.Tasks.ListBacklog(ctx)
		if err != nil {
			return err
		}
		view = ColdStorageView{
			Archived:  engine.ColdTasks(cold),
			Suggested: s.policy.ArchiveCandidates(backlog),
			Revivals:  s.policy.RevivalCandidates(cold, now),
			Stats:     engine.ColdStorageStatistics(cold, now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ImportClassification lands a classifier result as new tasks.
func (s *Service) ImportClassification(ctx context.Context, res *capture.Result) ([]*engine.Task, error) {
	var landed []*engine.Task
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		tasks, err := capture.Land(res, now)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if err := st.Tasks.Insert(ctx, t); err != nil {
				return err
			}
		}
		landed = tasks
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("classification imported", "bucket", res.Bucket, "tasks", len(landed))
	return landed, nil
}
