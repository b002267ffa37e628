package service

import (
	"context"
	"time"

	"cove/internal/engine"
	"cove/internal/storage"
)

// MeltdownResult is what ending a meltdown earned.
type MeltdownResult struct {
	Goblins  int
	Survived bool
	Outcome  engine.Outcome
	Contract *engine.Contract
}

// StartMeltdown flags today's contract and charges its stability penalty.
func (s *Service) StartMeltdown(ctx context.Context) (*engine.Contract, error) {
	var out *engine.Contract
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		c, err := s.today(ctx, st, now, true)
		if err != nil {
			return err
		}
		l, err := s.ledger(ctx, st, now)
		if err != nil {
			return err
		}
		c.ActivateMeltdown()
		l.RecordMeltdown(now)
		if err := st.Contracts.Save(ctx, c); err != nil {
			return err
		}
		if err := st.Ledgers.Save(ctx, l); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("meltdown activated", "contract", out.ID, "count", out.MeltdownCount, "stability", out.StabilityScore)
	return out, nil
}

// CompleteGoblinTask records one self-care action. It counts toward survival only
// while a meltdown is active, but the XP is awarded either way.
func (s *Service) CompleteGoblinTask(ctx context.Context) (engine.Outcome, error) {
	var out engine.Outcome
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		l, err := s.ledger(ctx, st, now)
		if err != nil {
			return err
		}
		c, err := s.today(ctx, st, now, false)
		if err != nil {
			return err
		}
		out = engine.NewGamifier(func() time.Time { return now }).ProcessGoblinTaskCompletion(l)
		if c != nil {
			c.RecordGoblin()
			if err := st.Contracts.Save(ctx, c); err != nil {
				return err
			}
		}
		return st.Ledgers.Save(ctx, l)
	})
	if err != nil {
		return engine.Outcome{}, err
	}
	s.log.Info("goblin task completed", "xp", out.XPEarned)
	s.logUnlocks(out)
	return out, nil
}

// EndMeltdown clears the flag and awards survival when goblin tasks were done.
func (s *Service) EndMeltdown(ctx context.Context) (*MeltdownResult, error) {
	var res *MeltdownResult
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		c, err := s.today(ctx, st, now, false)
		if err != nil {
			return err
		}
		if c == nil || !c.MeltdownActive {
			id := engine.DayKey(now)
			if c != nil {
				id = c.ID
			}
			return engine.StateError{Entity: "contract", ID: id, Status: "calm", Op: "end meltdown on"}
		}
		l, err := s.ledger(ctx, st, now)
		if err != nil {
			return err
		}
		goblins := c.DeactivateMeltdown()
		outcome := engine.NewGamifier(func() time.Time { return now }).ProcessMeltdownSurvival(l, goblins)
		if err := st.Contracts.Save(ctx, c); err != nil {
			return err
		}
		if err := st.Ledgers.Save(ctx, l); err != nil {
			return err
		}
		res = &MeltdownResult{Goblins: goblins, Survived: goblins > 0, Outcome: outcome, Contract: c}
		return nil
	})
	if err != nil {
		s.logRejection("end meltdown rejected", err)
		return nil, err
	}
	s.log.Info("meltdown ended", "contract", res.Contract.ID, "goblins", res.Goblins, "survived", res.Survived)
	s.logUnlocks(res.Outcome)
	return res, nil
}

func (s *Service) logUnlocks(o engine.Outcome) {
	if o.LevelUp != nil {
		s.log.Info("level up", "from", o.LevelUp.OldLevel, "to", o.LevelUp.NewLevel)
	}
	for _, a := range o.Unlocked {
		s.log.Info("achievement unlocked", "achievement", a.Kind, "xp", a.XPReward)
	}
}
