package engine

import "time"

type AchievementKind string

const (
	AchievementFirstStreak      AchievementKind = "firstStreak"
	AchievementWeekStreak       AchievementKind = "weekStreak"
	AchievementMonthStreak      AchievementKind = "monthStreak"
	AchievementFirstTask        AchievementKind = "firstTask"
	AchievementTenTasks         AchievementKind = "tenTasks"
	AchievementFiftyTasks       AchievementKind = "fiftyTasks"
	AchievementHundredTasks     AchievementKind = "hundredTasks"
	AchievementLevelFive        AchievementKind = "levelFive"
	AchievementLevelTen         AchievementKind = "levelTen"
	AchievementLevelTwenty      AchievementKind = "levelTwenty"
	AchievementMeltdownSurvivor AchievementKind = "meltdownSurvivor"
	AchievementGoblinMaster     AchievementKind = "goblinMaster"
)

// AchievementCategory selects which ledger counter feeds an achievement's progress.
type AchievementCategory string

const (
	CategoryStreak   AchievementCategory = "streak"
	CategoryTasks    AchievementCategory = "tasks"
	CategoryLevel    AchievementCategory = "level"
	CategorySurvival AchievementCategory = "survival"
	CategoryGoblin   AchievementCategory = "goblin"
)

// AchievementDef is the static metadata of one catalog entry.
type AchievementDef struct {
	Kind        AchievementKind
	Name        string
	Description string
	Icon        string
	Category    AchievementCategory
	Requirement int
	XPReward    int
}

var achievementCatalog = []AchievementDef{
	// Streaks
	{AchievementFirstStreak, "Getting Started", "Complete your first 3-day streak", "🔥", CategoryStreak, 3, 25},
	{AchievementWeekStreak, "Week Warrior", "Maintain a 7-day streak", "🔥", CategoryStreak, 7, 50},
	{AchievementMonthStreak, "Monthly Master", "Maintain a 30-day streak", "🔥", CategoryStreak, 30, 150},

	// Task completion milestones
	{AchievementFirstTask, "First Step", "Complete your first task", "✓", CategoryTasks, 1, 10},
	{AchievementTenTasks, "Getting Momentum", "Complete 10 tasks", "📋", CategoryTasks, 10, 50},
	{AchievementFiftyTasks, "Task Tackler", "Complete 50 tasks", "🏅", CategoryTasks, 50, 100},
	{AchievementHundredTasks, "Centurion", "Complete 100 tasks", "🏆", CategoryTasks, 100, 250},

	// Level milestones
	{AchievementLevelFive, "Rising Star", "Reach level 5", "⭐", CategoryLevel, 5, 50},
	{AchievementLevelTen, "Skill Builder", "Reach level 10", "🌟", CategoryLevel, 10, 100},
	{AchievementLevelTwenty, "Elite Status", "Reach level 20", "💫", CategoryLevel, 20, 250},

	// Special
	{AchievementMeltdownSurvivor, "Resilient", "Survive 5 meltdowns", "💛", CategorySurvival, 5, 75},
	{AchievementGoblinMaster, "Goblin Master", "Complete 20 goblin tasks", "👺", CategoryGoblin, 20, 100},
}

// Achievements returns the fixed catalog in display order.
func Achievements() []AchievementDef {
	out := make([]AchievementDef, len(achievementCatalog))
	copy(out, achievementCatalog)
	return out
}

func AchievementDefFor(kind AchievementKind) (AchievementDef, bool) {
	for _, def := range achievementCatalog {
		if def.Kind == kind {
			return def, true
		}
	}
	return AchievementDef{}, false
}

// AchievementProgress is the mutable half of an achievement.
type AchievementProgress struct {
	Kind       AchievementKind
	Progress   int
	UnlockedAt *time.Time
}

func (p *AchievementProgress) IsUnlocked() bool {
	return p.UnlockedAt != nil
}

// Fraction is progress toward the requirement, capped at 1.
func (p *AchievementProgress) Fraction() float64 {
	def, ok := AchievementDefFor(p.Kind)
	if !ok || def.Requirement <= 0 {
		return 0
	}
	return clamp01(float64(p.Progress) / float64(def.Requirement))
}

// update refreshes the counter and reports whether this call unlocked it.
func (p *AchievementProgress) update(progress, requirement int, now time.Time) bool {
	wasLocked := !p.IsUnlocked()
	p.Progress = progress
	if wasLocked && p.Progress >= requirement {
		p.UnlockedAt = &now
		return true
	}
	return false
}

func (l *Ledger) progressFor(category AchievementCategory) int {
	switch category {
	case CategoryStreak:
		return l.CurrentStreak
	case CategoryTasks:
		return l.TotalTasksCompleted
	case CategoryLevel:
		return l.Level()
	case CategorySurvival:
		return l.MeltdownsSurvived
	case CategoryGoblin:
		return l.GoblinTasksCompleted
	default:
		return 0
	}
}

// CheckAchievements refreshes every progress counter and unlocks what was reached.
// Rewards can push the level over a level milestone, so the catalog is walked again
// until a pass unlocks nothing; a second call right after therefore unlocks nothing.
func (l *Ledger) CheckAchievements(now time.Time) []AchievementDef {
	l.EnsureCatalog()

	var unlocked []AchievementDef
	for {
		changed := false
		for _, def := range achievementCatalog {
			p := l.Achievements[def.Kind]
			if p.update(l.progressFor(def.Category), def.Requirement, now) {
				l.TotalXP += def.XPReward
				unlocked = append(unlocked, def)
				changed = true
			}
		}
		if !changed {
			return unlocked
		}
	}
}

// UnlockedCount returns how many achievements are unlocked.
func (l *Ledger) UnlockedCount() int {
	n := 0
	for _, p := range l.Achievements {
		if p.IsUnlocked() {
			n++
		}
	}
	return n
}
