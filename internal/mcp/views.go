package mcp

import (
	"cove/internal/engine"
	"cove/internal/service"
)

type taskView struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	Anchor           bool   `json:"anchor,omitempty"`
	EstimatedMinutes *int   `json:"estimated_minutes,omitempty"`
	Interest         string `json:"interest"`
	Energy           string `json:"energy"`
	XP               int    `json:"xp"`
	SnoozeCount      int    `json:"snooze_count,omitempty"`
}

func taskViewOf(t *engine.Task) taskView {
	return taskView{
		ID:               t.ID,
		Title:            t.Title,
		Status:           string(t.Status),
		Anchor:           t.IsAnchor,
		EstimatedMinutes: t.EstimatedMinutes,
		Interest:         string(t.Interest),
		Energy:           string(t.Energy),
		XP:               t.XPValue,
		SnoozeCount:      t.SnoozeCount,
	}
}

type contractView struct {
	ID                    string     `json:"id"`
	Day                   string     `json:"day"`
	Status                string     `json:"status"`
	Stability             float64    `json:"stability"`
	Progress              float64    `json:"progress"`
	TotalEstimatedMinutes int        `json:"total_estimated_minutes"`
	Meltdown              bool       `json:"meltdown"`
	Anchors               []taskView `json:"anchors"`
	SideQuests            []taskView `json:"side_quests"`
}

func contractViewOf(c *engine.Contract) contractView {
	v := contractView{
		ID:                    c.ID,
		Day:                   engine.DayKey(c.Day),
		Status:                string(c.Status),
		Stability:             c.StabilityScore,
		Progress:              c.Progress(),
		TotalEstimatedMinutes: c.TotalEstimatedMinutes,
		Meltdown:              c.MeltdownActive,
		Anchors:               []taskView{},
		SideQuests:            []taskView{},
	}
	for _, t := range c.AnchorTasks() {
		v.Anchors = append(v.Anchors, taskViewOf(t))
	}
	for _, t := range c.SideQuests() {
		v.SideQuests = append(v.SideQuests, taskViewOf(t))
	}
	return v
}

type achievementView struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	XP   int    `json:"xp"`
}

func achievementViews(defs []engine.AchievementDef) []achievementView {
	out := make([]achievementView, 0, len(defs))
	for _, d := range defs {
		out = append(out, achievementView{Kind: string(d.Kind), Name: d.Name, XP: d.XPReward})
	}
	return out
}

type outcomeView struct {
	XPEarned int               `json:"xp_earned"`
	LevelUp  *int              `json:"level_up,omitempty"`
	Unlocked []achievementView `json:"unlocked"`
}

func outcomeViewOf(o engine.Outcome) outcomeView {
	v := outcomeView{XPEarned: o.XPEarned, Unlocked: achievementViews(o.Unlocked)}
	if o.LevelUp != nil {
		lvl := o.LevelUp.NewLevel
		v.LevelUp = &lvl
	}
	return v
}

type completeView struct {
	TaskID            string            `json:"task_id"`
	XPAwarded         int               `json:"xp_awarded"`
	LevelBefore       int               `json:"level_before"`
	LevelAfter        int               `json:"level_after"`
	Streak            int               `json:"streak"`
	Unlocked          []achievementView `json:"unlocked"`
	ContractCompleted bool              `json:"contract_completed"`
	Stability         *float64          `json:"stability,omitempty"`
}

func completeViewOf(r *service.CompleteResult) completeView {
	v := completeView{
		TaskID:            r.TaskID,
		XPAwarded:         r.XPAwarded,
		LevelBefore:       r.LevelBefore,
		LevelAfter:        r.LevelAfter,
		Streak:            r.Streak,
		Unlocked:          achievementViews(r.Unlocked),
		ContractCompleted: r.ContractCompleted,
	}
	if r.Contract != nil {
		s := r.Contract.StabilityScore
		v.Stability = &s
	}
	return v
}

type statusView struct {
	Level          int               `json:"level"`
	TotalXP        int               `json:"total_xp"`
	XPToNextLevel  int               `json:"xp_to_next_level"`
	CurrentStreak  int               `json:"current_streak"`
	LongestStreak  int               `json:"longest_streak"`
	TasksCompleted int               `json:"tasks_completed"`
	Skills         map[string]int    `json:"skill_levels"`
	Achievements   []achievementView `json:"achievements"`
	Today          *contractView     `json:"today,omitempty"`
}

func statusViewOf(snap *service.Snapshot) statusView {
	l := snap.Ledger
	v := statusView{
		Level:          l.Level(),
		TotalXP:        l.TotalXP,
		XPToNextLevel:  l.XPToNextLevel(),
		CurrentStreak:  l.CurrentStreak,
		LongestStreak:  l.LongestStreak,
		TasksCompleted: l.TotalTasksCompleted,
		Skills:         map[string]int{},
	}
	for _, s := range engine.SkillTypes() {
		v.Skills[string(s)] = l.SkillLevel(s)
	}
	var unlocked []engine.AchievementDef
	for _, def := range engine.Achievements() {
		if p := l.Achievements[def.Kind]; p != nil && p.IsUnlocked() {
			unlocked = append(unlocked, def)
		}
	}
	v.Achievements = achievementViews(unlocked)
	if snap.Today != nil {
		cv := contractViewOf(snap.Today)
		v.Today = &cv
	}
	return v
}

type suggestionView struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Action   string `json:"action,omitempty"`
	Priority int    `json:"priority"`
}

type snoozeView struct {
	Interest    string  `json:"interest"`
	SnoozeRate  float64 `json:"snooze_rate"`
	AvgSnoozes  float64 `json:"average_snoozes"`
	Problematic bool    `json:"problematic"`
	CommonHours []int   `json:"common_hours"`
}

type insightsView struct {
	Observations        int          `json:"observations"`
	PeakHours           []int        `json:"peak_hours"`
	LowHours            []int        `json:"low_hours"`
	Recommended         string       `json:"recommended_pattern"`
	CurrentPattern      string       `json:"current_pattern"`
	Accuracy            float64      `json:"estimate_accuracy"`
	SuggestedMultiplier float64      `json:"suggested_multiplier"`
	CurrentMultiplier   float64      `json:"current_multiplier"`
	Snooze              []snoozeView `json:"snooze_patterns"`
}

func insightsViewOf(in *service.Insights) insightsView {
	v := insightsView{
		Observations:        in.Observations,
		PeakHours:           append([]int{}, in.Rhythm.PeakHours...),
		LowHours:            append([]int{}, in.Rhythm.LowHours...),
		Recommended:         string(in.Rhythm.Recommended),
		CurrentPattern:      string(in.EnergyPattern),
		Accuracy:            in.Accuracy,
		SuggestedMultiplier: in.SuggestedMultiplier,
		CurrentMultiplier:   in.CurrentMultiplier,
		Snooze:              []snoozeView{},
	}
	for _, p := range in.Snooze {
		v.Snooze = append(v.Snooze, snoozeView{
			Interest:    string(p.Interest),
			SnoozeRate:  p.SnoozeRate,
			AvgSnoozes:  p.AverageSnoozeCount,
			Problematic: p.IsProblematic(),
			CommonHours: p.CommonSnoozeHours,
		})
	}
	return v
}
