package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type SkillType string

const (
	SkillFocus               SkillType = "focus"
	SkillEnergyManagement    SkillType = "energyManagement"
	SkillEmotionalRegulation SkillType = "emotionalRegulation"
	SkillConsistency         SkillType = "consistency"
)

var skillTypes = []SkillType{SkillFocus, SkillEnergyManagement, SkillEmotionalRegulation, SkillConsistency}

// SkillTypes returns the fixed skill set in display order.
func SkillTypes() []SkillType {
	out := make([]SkillType, len(skillTypes))
	copy(out, skillTypes)
	return out
}

func (s SkillType) DisplayName() string {
	switch s {
	case SkillFocus:
		return "Focus"
	case SkillEnergyManagement:
		return "Energy"
	case SkillEmotionalRegulation:
		return "Calm"
	case SkillConsistency:
		return "Consistency"
	default:
		return string(s)
	}
}

type ActivityLevel string

const (
	ActivityNone   ActivityLevel = "none"
	ActivityLow    ActivityLevel = "low"
	ActivityMedium ActivityLevel = "medium"
	ActivityHigh   ActivityLevel = "high"
	ActivityMax    ActivityLevel = "max"
)

// DailyActivity aggregates one calendar day of progression events.
type DailyActivity struct {
	Day                  time.Time
	TasksCompleted       int
	XPEarned             int
	MeltdownCount        int
	GoblinTasksCompleted int
	ContractsCompleted   int
}

func (a DailyActivity) Level() ActivityLevel {
	switch {
	case a.TasksCompleted == 0:
		return ActivityNone
	case a.TasksCompleted <= 2:
		return ActivityLow
	case a.TasksCompleted <= 4:
		return ActivityMedium
	case a.TasksCompleted <= 6:
		return ActivityHigh
	default:
		return ActivityMax
	}
}

// LevelUp is reported when an event raised the derived level.
type LevelUp struct {
	OldLevel int
	NewLevel int
	XPEarned int
}

// Ledger is the per-user progression aggregate. Level is always derived from TotalXP.
type Ledger struct {
	ID     string
	UserID string

	PessimismMultiplier float64
	EnergyPattern       EnergyPattern

	TotalTasksCompleted  int
	TotalXP              int
	CurrentStreak        int
	LongestStreak        int
	LastActiveDate       *time.Time
	GoblinTasksCompleted int
	MeltdownsSurvived    int
	ContractsCompleted   int

	Skills       map[SkillType]int
	Achievements map[AchievementKind]*AchievementProgress
	// Activity is keyed by DayKey.
	Activity map[string]*DailyActivity

	CreatedAt time.Time
}

func NewLedger(userID string, now time.Time) *Ledger {
	l := &Ledger{
		ID:                  uuid.New().String(),
		UserID:              userID,
		PessimismMultiplier: DefaultPessimismMultiplier,
		EnergyPattern:       PatternConsistent,
		CreatedAt:           now,
	}
	l.EnsureCatalog()
	return l
}

// EnsureCatalog creates any missing skill or achievement entry. Safe to call repeatedly.
func (l *Ledger) EnsureCatalog() {
	if l.Skills == nil {
		l.Skills = make(map[SkillType]int, len(skillTypes))
	}
	for _, s := range skillTypes {
		if _, ok := l.Skills[s]; !ok {
			l.Skills[s] = 0
		}
	}
	if l.Achievements == nil {
		l.Achievements = make(map[AchievementKind]*AchievementProgress, len(achievementCatalog))
	}
	for _, def := range achievementCatalog {
		if _, ok := l.Achievements[def.Kind]; !ok {
			l.Achievements[def.Kind] = &AchievementProgress{Kind: def.Kind}
		}
	}
	if l.Activity == nil {
		l.Activity = map[string]*DailyActivity{}
	}
}

func (l *Ledger) Level() int            { return LevelForTotalXP(l.TotalXP) }
func (l *Ledger) XPToNextLevel() int    { return XPToNextLevel(l.TotalXP) }
func (l *Ledger) LevelProgress() float64 { return LevelProgress(l.TotalXP) }

func (l *Ledger) SkillLevel(s SkillType) int {
	return SkillLevelForXP(l.Skills[s])
}

func (l *Ledger) addSkillXP(s SkillType, xp int) {
	l.EnsureCatalog()
	l.Skills[s] += xp
}

func focusXP(energy EnergyLevel) int {
	switch energy {
	case LevelHigh:
		return 15
	case LevelLow:
		return 5
	default:
		return 10
	}
}

// ActivityOn returns the aggregate for the day containing t, creating it if absent.
func (l *Ledger) ActivityOn(t time.Time) *DailyActivity {
	l.EnsureCatalog()
	key := DayKey(t)
	a, ok := l.Activity[key]
	if !ok {
		a = &DailyActivity{Day: StartOfDay(t)}
		l.Activity[key] = a
	}
	return a
}

// RecentActivity lists the last `days` days ending at now, oldest first, with zero rows for idle days.
func (l *Ledger) RecentActivity(now time.Time, days int) []DailyActivity {
	out := make([]DailyActivity, 0, days)
	today := StartOfDay(now)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		if a, ok := l.Activity[DayKey(day)]; ok {
			out = append(out, *a)
			continue
		}
		out = append(out, DailyActivity{Day: day})
	}
	return out
}

// ActivityDays returns the stored aggregates sorted by day.
func (l *Ledger) ActivityDays() []DailyActivity {
	out := make([]DailyActivity, 0, len(l.Activity))
	for _, a := range l.Activity {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// updateStreak runs on every XP-earning event.
func (l *Ledger) updateStreak(now time.Time) {
	today := StartOfDay(now)
	if l.LastActiveDate == nil {
		l.CurrentStreak = 1
	} else {
		gap := DaysBetween(*l.LastActiveDate, today)
		switch {
		case gap == 1:
			l.CurrentStreak++
		case gap > 1:
			l.CurrentStreak = 1
		}
	}
	if l.CurrentStreak > l.LongestStreak {
		l.LongestStreak = l.CurrentStreak
	}
	l.LastActiveDate = &today
}

// RecordTaskCompletion awards the task's XP, streak bonus and skill XP.
// It returns a LevelUp only when the derived level went up.
func (l *Ledger) RecordTaskCompletion(task *Task, now time.Time) *LevelUp {
	oldLevel := l.Level()

	l.TotalTasksCompleted++
	earned := task.XPValue
	l.updateStreak(now)
	if l.CurrentStreak >= 2 {
		earned += StreakBonusXP
	}
	l.TotalXP += earned

	l.addSkillXP(SkillFocus, focusXP(task.Energy))
	l.addSkillXP(SkillEnergyManagement, 10)
	consistency := 5
	if l.CurrentStreak > 0 {
		consistency += 5
	}
	l.addSkillXP(SkillConsistency, consistency)

	a := l.ActivityOn(now)
	a.TasksCompleted++
	a.XPEarned += earned

	if newLevel := l.Level(); newLevel > oldLevel {
		return &LevelUp{OldLevel: oldLevel, NewLevel: newLevel, XPEarned: earned}
	}
	return nil
}

func (l *Ledger) RecordGoblinTaskCompletion(now time.Time) {
	l.TotalXP += GoblinTaskXP
	l.GoblinTasksCompleted++
	l.updateStreak(now)
	l.addSkillXP(SkillEmotionalRegulation, 10)

	a := l.ActivityOn(now)
	a.GoblinTasksCompleted++
	a.XPEarned += GoblinTaskXP
}

// RecordMeltdownSurvival must only be called when at least one goblin task was
// completed during the meltdown; the caller decides that.
func (l *Ledger) RecordMeltdownSurvival(now time.Time) {
	l.TotalXP += MeltdownSurvivalXP
	l.MeltdownsSurvived++
	l.updateStreak(now)
	l.addSkillXP(SkillEmotionalRegulation, 15)

	a := l.ActivityOn(now)
	a.XPEarned += MeltdownSurvivalXP
}

// RecordMeltdown notes an activation in today's activity. Meltdowns never break streaks.
func (l *Ledger) RecordMeltdown(now time.Time) {
	l.ActivityOn(now).MeltdownCount++
}

func (l *Ledger) RecordContractCompletion(now time.Time) {
	l.ContractsCompleted++
	l.ActivityOn(now).ContractsCompleted++
}
