package service

import (
	"context"
	"time"

	"cove/internal/engine"
	"cove/internal/pattern"
	"cove/internal/storage"
)

// StatusDays is how many days of activity Status returns.
const StatusDays = 14

// Snapshot is the read-only progression view behind `cove status`.
type Snapshot struct {
	Ledger *engine.Ledger
	// Today is nil when no contract has been opened today.
	Today  *engine.Contract
	Recent []engine.DailyActivity
}

func (s *Service) Status(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		l, err := s.ledger(ctx, st, now)
		if err != nil {
			return err
		}
		c, err := s.today(ctx, st, now, false)
		if err != nil {
			return err
		}
		snap = Snapshot{Ledger: l, Today: c, Recent: l.RecentActivity(now, StatusDays)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

type Insights struct {
	Observations        int
	Rhythm              pattern.EnergyRhythm
	Hourly              []pattern.HourlyProductivity
	Snooze              []pattern.SnoozePattern
	Accuracy            float64
	SuggestedMultiplier float64
	CurrentMultiplier   float64
	EnergyPattern       engine.EnergyPattern
}

func (s *Service) observations(ctx context.Context, st *storage.Store, now time.Time) (*engine.Ledger, []pattern.Observation, error) {
	l, err := s.ledger(ctx, st, now)
	if err != nil {
		return nil, nil, err
	}
	obs, err := st.Observations.List(ctx, l.ID)
	if err != nil {
		return nil, nil, err
	}
	return l, obs, nil
}

// Insights runs the analyzer over the whole pattern log.
func (s *Service) Insights(ctx context.Context) (*Insights, error) {
	var out Insights
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		l, obs, err := s.observations(ctx, st, now)
		if err != nil {
			return err
		}
		out = Insights{
			Observations:        len(obs),
			Rhythm:              pattern.AnalyzeEnergyRhythm(obs),
			Hourly:              pattern.AnalyzeHourlyProductivity(obs),
			Snooze:              pattern.AnalyzeSnoozePatterns(obs),
			Accuracy:            pattern.CalculateAverageAccuracy(obs),
			SuggestedMultiplier: pattern.SuggestPessimismMultiplier(obs),
			CurrentMultiplier:   l.PessimismMultiplier,
			EnergyPattern:       l.EnergyPattern,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplySuggestedMultiplier stores the suggested pessimism multiplier and the
// energy pattern inferred from peak hours on the ledger.
func (s *Service) ApplySuggestedMultiplier(ctx context.Context) (*engine.Ledger, error) {
	var out *engine.Ledger
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		l, obs, err := s.observations(ctx, st, now)
		if err != nil {
			return err
		}
		l.PessimismMultiplier = pattern.SuggestPessimismMultiplier(obs)
		l.EnergyPattern = pattern.EnergyPatternForPeaks(pattern.DetectPeakHours(obs))
		out = l
		return st.Ledgers.Save(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("multiplier applied", "multiplier", out.PessimismMultiplier, "pattern", out.EnergyPattern)
	return out, nil
}

// pending is today's open contract work followed by the backlog.
func (s *Service) pending(ctx context.Context, st *storage.Store, now time.Time) ([]*engine.Task, error) {
	var out []*engine.Task
	c, err := s.today(ctx, st, now, false)
	if err != nil {
		return nil, err
	}
	if c != nil {
		out = append(out, c.PendingTasks()...)
	}
	backlog, err := st.Tasks.ListBacklog(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range backlog {
		if t.Status == engine.TaskPending {
			out = append(out, t)
		}
	}
	return out, nil
}

// Suggestions returns the analyzer's nudges for the given hour of day.
func (s *Service) Suggestions(ctx context.Context, hour int) ([]pattern.Suggestion, error) {
	var out []pattern.Suggestion
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		_, obs, err := s.observations(ctx, st, now)
		if err != nil {
			return err
		}
		pending, err := s.pending(ctx, st, now)
		if err != nil {
			return err
		}
		out = pattern.GenerateSuggestions(obs, hour, pending)
		return nil
	})
	return out, err
}

// MatchEnergy orders open tasks by how well they fit the user's energy right now.
func (s *Service) MatchEnergy(ctx context.Context, energy engine.EnergyLevel, hour int) ([]*engine.Task, error) {
	var out []*engine.Task
	err := s.exec(ctx, func(ctx context.Context, st *storage.Store, now time.Time) error {
		_, obs, err := s.observations(ctx, st, now)
		if err != nil {
			return err
		}
		pending, err := s.pending(ctx, st, now)
		if err != nil {
			return err
		}
		out = pattern.SuggestTasksForCurrentEnergy(pending, energy, hour, obs)
		return nil
	})
	return out, err
}
