package engine

const (
	XPPerLevel      = 100
	XPPerSkillLevel = 50

	// TaskBaseXP is scaled by the interest multiplier before the energy bonus is added.
	TaskBaseXP = 10

	StreakBonusXP      = 5
	MeltdownSurvivalXP = 25
	GoblinTaskXP       = 5

	DefaultPessimismMultiplier = 1.5
)

// LevelForTotalXP derives the global level. Level 1 starts at 0 XP.
func LevelForTotalXP(totalXP int) int {
	return levelFor(totalXP, XPPerLevel)
}

// XPToNextLevel is never 0: at an exact boundary the whole next level is still ahead.
func XPToNextLevel(totalXP int) int {
	return toNext(totalXP, XPPerLevel)
}

// LevelProgress is the fraction of the current level already earned, in [0, 1).
func LevelProgress(totalXP int) float64 {
	return progress(totalXP, XPPerLevel)
}

func SkillLevelForXP(skillXP int) int {
	return levelFor(skillXP, XPPerSkillLevel)
}

func SkillXPToNextLevel(skillXP int) int {
	return toNext(skillXP, XPPerSkillLevel)
}

func SkillLevelProgress(skillXP int) float64 {
	return progress(skillXP, XPPerSkillLevel)
}

func levelFor(xp, per int) int {
	if xp <= 0 {
		return 1
	}
	return xp/per + 1
}

func toNext(xp, per int) int {
	if xp <= 0 {
		return per
	}
	return per - xp%per
}

func progress(xp, per int) float64 {
	if xp <= 0 {
		return 0
	}
	return float64(xp%per) / float64(per)
}

func interestMultiplier(interest InterestLevel) float64 {
	switch interest {
	case LevelHigh:
		return 1.0
	case LevelLow:
		return 2.0
	default:
		return 1.5
	}
}

func energyBonus(energy EnergyLevel) int {
	switch energy {
	case LevelHigh:
		return 15
	case LevelLow:
		return 5
	default:
		return 10
	}
}

// CalculateXP computes the XP a task is worth. Low-interest tasks pay more because
// they are the ones that need the push. The value is frozen at task creation time.
func CalculateXP(interest InterestLevel, energy EnergyLevel) int {
	return int(float64(TaskBaseXP)*interestMultiplier(interest)) + energyBonus(energy)
}

// AdjustedEstimate applies a pessimism multiplier to a raw estimate.
func AdjustedEstimate(minutes int, multiplier float64) int {
	if minutes <= 0 {
		return 0
	}
	if multiplier <= 0 {
		multiplier = DefaultPessimismMultiplier
	}
	return int(float64(minutes) * multiplier)
}
