package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cove/internal/engine"
)

// Cove theme (CLI + TUI).

const (
	IconAnchor  = "⚓"
	IconQuest   = "🗺️"
	IconSparkle = "✨"
	IconPlus    = "➕"
	IconDone    = "✅"
	IconTrophy  = "🏆"
	IconFire    = "🔥"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconSnow    = "🧊"
	IconGoblin  = "👺"
	IconWave    = "🌊"
	IconScroll  = "📜"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
	cIce     = lipgloss.Color("117") // light blue
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)
	Ice   = lipgloss.NewStyle().Foreground(cIce)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	PanelTitle  = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)

	BadgeLevelUp  = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
	BadgeMeltdown = lipgloss.NewStyle().Bold(true).Foreground(cBad).Render("MELTDOWN")
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

func StatusText(status engine.TaskStatus) string {
	switch status {
	case engine.TaskCompleted:
		return Good.Render("done")
	case engine.TaskInProgress:
		return H2.Render("in progress")
	case engine.TaskPending:
		return Warn.Render("pending")
	case engine.TaskSnoozed:
		return Muted.Render("snoozed")
	case engine.TaskColdStorage:
		return Ice.Render("cold")
	default:
		return Muted.Render(string(status))
	}
}

func ContractStatusText(status engine.ContractStatus) string {
	switch status {
	case engine.ContractCompleted:
		return Good.Render("completed")
	case engine.ContractActive:
		return H2.Render("active")
	case engine.ContractAbandoned:
		return Bad.Render("abandoned")
	default:
		return Muted.Render(string(status))
	}
}

// SlotIcon marks anchors apart from side quests.
func SlotIcon(isAnchor bool) string {
	if isAnchor {
		return IconAnchor
	}
	return IconQuest
}

// LevelTag is a compact I:h E:l style tag for interest and energy.
func LevelTag(interest engine.InterestLevel, energy engine.EnergyLevel) string {
	return Muted.Render(fmt.Sprintf("I:%s E:%s", short(interest), short(energy)))
}

func short(l engine.Level) string {
	if l == "" {
		return "?"
	}
	return string(l[:1])
}

// Bar renders value/total as a fixed-width ASCII bar.
func Bar(value, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 3 {
		width = 3
	}
	if value < 0 {
		value = 0
	}
	if value > total {
		value = total
	}
	filled := value * width / total
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// FractionBar is Bar for a ratio in [0, 1].
func FractionBar(f float64, width int) string {
	return Bar(int(f*1000), 1000, width)
}

// StabilityText colors the stability score by how the day is going.
func StabilityText(score float64) string {
	text := fmt.Sprintf("%.0f%%", score*100)
	switch {
	case score >= 0.7:
		return Good.Render(text)
	case score >= 0.4:
		return Warn.Render(text)
	default:
		return Bad.Render(text)
	}
}

// LevelLine is "Level 3 [####------] 40/100 XP".
func LevelLine(l *engine.Ledger, width int) string {
	into := l.TotalXP % engine.XPPerLevel
	return fmt.Sprintf("Level %d %s %d/%d XP", l.Level(), Bar(into, engine.XPPerLevel, width), into, engine.XPPerLevel)
}

// ActivityCell is one heatmap cell for a day's activity level.
func ActivityCell(level engine.ActivityLevel) string {
	switch level {
	case engine.ActivityLow:
		return Muted.Render("▂")
	case engine.ActivityMedium:
		return Warn.Render("▄")
	case engine.ActivityHigh:
		return Good.Render("▆")
	case engine.ActivityMax:
		return Gold.Render("█")
	default:
		return Muted.Render("·")
	}
}
