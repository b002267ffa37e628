package engine

import "time"

// Outcome is what one progression event produced, for celebration UI and logs.
type Outcome struct {
	XPEarned int
	LevelUp  *LevelUp
	Unlocked []AchievementDef
}

// Gamifier applies task, contract, meltdown and goblin events to a ledger and
// evaluates achievements after each one. It holds no state of its own.
type Gamifier struct {
	now func() time.Time
}

func NewGamifier(now func() time.Time) *Gamifier {
	if now == nil {
		now = time.Now
	}
	return &Gamifier{now: now}
}

func (g *Gamifier) apply(l *Ledger, event func(now time.Time)) Outcome {
	now := g.now()
	levelBefore := l.Level()
	xpBefore := l.TotalXP

	event(now)
	unlocked := l.CheckAchievements(now)

	out := Outcome{XPEarned: l.TotalXP - xpBefore, Unlocked: unlocked}
	if after := l.Level(); after > levelBefore {
		out.LevelUp = &LevelUp{OldLevel: levelBefore, NewLevel: after, XPEarned: out.XPEarned}
	}
	return out
}

func (g *Gamifier) ProcessTaskCompletion(l *Ledger, task *Task) Outcome {
	return g.apply(l, func(now time.Time) { l.RecordTaskCompletion(task, now) })
}

func (g *Gamifier) ProcessGoblinTaskCompletion(l *Ledger) Outcome {
	return g.apply(l, l.RecordGoblinTaskCompletion)
}

// ProcessMeltdownSurvival awards survival only when goblin tasks were done during the meltdown.
func (g *Gamifier) ProcessMeltdownSurvival(l *Ledger, goblinTasksCompleted int) Outcome {
	if goblinTasksCompleted <= 0 {
		return Outcome{}
	}
	return g.apply(l, l.RecordMeltdownSurvival)
}

func (g *Gamifier) ProcessContractCompletion(l *Ledger) Outcome {
	return g.apply(l, l.RecordContractCompletion)
}

// HasStreakBonus reports whether the next task completion earns StreakBonusXP.
func HasStreakBonus(l *Ledger) bool {
	return l.CurrentStreak >= 2
}

// Merge folds b into a, keeping the highest level reached.
func (a Outcome) Merge(b Outcome) Outcome {
	out := Outcome{
		XPEarned: a.XPEarned + b.XPEarned,
		Unlocked: append(append([]AchievementDef{}, a.Unlocked...), b.Unlocked...),
		LevelUp:  a.LevelUp,
	}
	switch {
	case a.LevelUp == nil:
		out.LevelUp = b.LevelUp
	case b.LevelUp != nil:
		out.LevelUp = &LevelUp{OldLevel: a.LevelUp.OldLevel, NewLevel: b.LevelUp.NewLevel, XPEarned: out.XPEarned}
	}
	return out
}
