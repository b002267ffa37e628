package service

import (
	"context"
	"time"

	"cove/internal/engine"
	"cove/internal/pattern"
	"cove/internal/storage"
)

// Today returns today's contract, creating an empty draft on first use.
func (s *Service) Today(ctx context.Context) (*engine.Contract, error) {
	var out *engine.Contract
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		c, err := s.today(ctx, st, now, true)
		out = c
		return err
	})
	return out, err
}

// AbandonContract gives up on today's contract. Unfinished tasks return to the backlog.
func (s *Service) AbandonContract(ctx context.Context) (*engine.Contract, error) {
	var out *engine.Contract
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		c, err := s.today(ctx, st, now, false)
		if err != nil {
			return err
		}
		if c == nil {
			return NotFoundError{Kind: "contract", ID: engine.DayKey(now)}
		}
		if err := c.Abandon(); err != nil {
			return err
		}
		var released []*engine.Task
		for _, t := range append([]*engine.Task(nil), c.Tasks...) {
			if t.Status != engine.TaskCompleted && t.Status != engine.TaskCancelled {
				c.RemoveTask(t)
				released = append(released, t)
			}
		}
		if err := st.Contracts.Save(ctx, c); err != nil {
			return err
		}
		for _, t := range released {
			if err := st.Tasks.Update(ctx, t); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	if err != nil {
		s.logRejection("abandon rejected", err)
		return nil, err
	}
	s.log.Info("contract abandoned", "contract", out.ID)
	return out, nil
}

// CommitTask adds a backlog task to today's contract as an anchor or side quest.
func (s *Service) CommitTask(ctx context.Context, id string, asAnchor bool) (*engine.Contract, error) {
	var out *engine.Contract
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		t, err := s.task(ctx, st, id)
		if err != nil {
			return err
		}
		c, err := s.today(ctx, st, now, true)
		if err != nil {
			return err
		}
		if err := c.AddTask(t, asAnchor); err != nil {
			return err
		}
		if err := st.Contracts.Save(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		s.logRejection("commit rejected", err, "task", id, "anchor", asAnchor)
		return nil, err
	}
	s.log.Info("task committed", "task", id, "contract", out.ID, "anchor", asAnchor)
	return out, nil
}

// DropTask releases a task from its contract back to the backlog.
func (s *Service) DropTask(ctx context.Context, id string) (*engine.Contract, error) {
	var out *engine.Contract
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, _ time.Time) error {
		t, err := s.task(ctx, st, id)
		if err != nil {
			return err
		}
		c, err := s.owner(ctx, st, t)
		if err != nil {
			return err
		}
		if c == nil {
			return engine.ErrTaskNotInContract
		}
		owned := ownedTask(c, id)
		if owned == nil {
			return engine.ErrTaskNotInContract
		}
		if err := c.ReleaseTask(owned); err != nil {
			return err
		}
		if err := st.Contracts.Save(ctx, c); err != nil {
			return err
		}
		if err := st.Tasks.Update(ctx, owned); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		s.logRejection("drop rejected", err, "task", id)
		return nil, err
	}
	s.log.Info("task dropped", "task", id, "contract", out.ID)
	return out, nil
}

// CompleteResult reports everything one completion changed.
type CompleteResult struct {
	TaskID      string
	XPAwarded   int
	LevelBefore int
	LevelAfter  int
	LevelUp     bool
	StreakBonus bool
	Streak      int
	Unlocked    []engine.AchievementDef

	// Contract is nil for a task completed outside any contract.
	Contract          *engine.Contract
	ContractCompleted bool
}

// CompleteTask finishes a task and applies every consequence atomically: contract
// progress and stability, XP, streak, skills, achievements and the pattern log.
// userEnergy is optional.
func (s *Service) CompleteTask(ctx context.Context, id string, userEnergy *engine.EnergyLevel) (*CompleteResult, error) {
	var res *CompleteResult
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		t, err := s.task(ctx, st, id)
		if err != nil {
			return err
		}
		c, err := s.owner(ctx, st, t)
		if err != nil {
			return err
		}
		l, err := s.ledger(ctx, st, now)
		if err != nil {
			return err
		}

		closed := false
		if c != nil {
			if owned := ownedTask(c, id); owned != nil {
				t = owned
			}
			if closed, err = c.CompleteTask(t, now); err != nil {
				return err
			}
		} else if err := t.Complete(now); err != nil {
			return err
		}

		levelBefore := l.Level()
		g := engine.NewGamifier(func() time.Time { return now })
		outcome := g.ProcessTaskCompletion(l, t)
		if closed {
			outcome = outcome.Merge(g.ProcessContractCompletion(l))
		}

		if err := saveTask(ctx, st, c, t); err != nil {
			return err
		}
		if err := st.Ledgers.Save(ctx, l); err != nil {
			return err
		}
		if err := st.Observations.Append(ctx, l.ID, pattern.CompletionObservation(t, now, userEnergy)); err != nil {
			return err
		}

		res = &CompleteResult{
			TaskID:            t.ID,
			XPAwarded:         outcome.XPEarned,
			LevelBefore:       levelBefore,
			LevelAfter:        l.Level(),
			LevelUp:           outcome.LevelUp != nil,
			StreakBonus:       engine.HasStreakBonus(l),
			Streak:            l.CurrentStreak,
			Unlocked:          outcome.Unlocked,
			Contract:          c,
			ContractCompleted: closed,
		}
		return nil
	})
	if err != nil {
		s.logRejection("complete rejected", err, "task", id)
		return nil, err
	}

	s.log.Info("task completed", "task", id, "xp", res.XPAwarded, "streak", res.Streak)
	if res.ContractCompleted {
		s.log.Info("contract completed", "contract", res.Contract.ID)
	}
	if res.LevelUp {
		s.log.Info("level up", "from", res.LevelBefore, "to", res.LevelAfter)
	}
	for _, a := range res.Unlocked {
		s.log.Info("achievement unlocked", "achievement", a.Kind, "xp", a.XPReward)
	}
	return res, nil
}
