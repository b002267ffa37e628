package pattern

import (
	"fmt"
	"sort"

	"cove/internal/engine"
)

// MinSuggestionHistory is how many observations are needed before suggestions are made.
const MinSuggestionHistory = 10

type SuggestionType string

const (
	SuggestScheduleTask   SuggestionType = "scheduleTask"
	SuggestAvoidSnooze    SuggestionType = "avoidSnooze"
	SuggestAdjustEstimate SuggestionType = "adjustEstimate"
	SuggestTakeBreak      SuggestionType = "takeBreak"
)

// Suggestion is ordered by Priority; a lower number wins.
type Suggestion struct {
	Type        SuggestionType
	Message     string
	ActionLabel string
	Priority    int
}

// GenerateSuggestions derives prioritized hints for the current hour and pending tasks.
func GenerateSuggestions(obs []Observation, currentHour int, pending []*engine.Task) []Suggestion {
	if len(obs) < MinSuggestionHistory {
		return nil
	}
	rhythm := AnalyzeEnergyRhythm(obs)

	var out []Suggestion
	if rhythm.IsPeak(currentHour) && anyTask(pending, func(t *engine.Task) bool { return t.Energy == engine.LevelHigh }) {
		out = append(out, Suggestion{
			Type:        SuggestScheduleTask,
			Message:     "You're in your peak hours! Great time for high-focus tasks.",
			ActionLabel: "View Tasks",
			Priority:    1,
		})
	}

	if rhythm.IsLow(currentHour) {
		out = append(out, Suggestion{
			Type:     SuggestTakeBreak,
			Message:  "Energy typically dips around now. Consider a break or low-effort tasks.",
			Priority: 2,
		})
	}

	for _, sp := range AnalyzeSnoozePatterns(obs) {
		if !sp.IsProblematic() {
			continue
		}
		interest := sp.Interest
		if anyTask(pending, func(t *engine.Task) bool { return t.Interest == interest }) {
			out = append(out, Suggestion{
				Type:     SuggestAvoidSnooze,
				Message:  fmt.Sprintf("%s-interest tasks often get snoozed. Try tackling them during peak hours.", capitalize(string(interest))),
				Priority: 3,
			})
			break
		}
	}

	if accuracy := CalculateAverageAccuracy(obs); accuracy > 1.3 {
		out = append(out, Suggestion{
			Type:        SuggestAdjustEstimate,
			Message:     fmt.Sprintf("Tasks are taking %d%% longer than estimated. Consider increasing your time buffer.", int((accuracy-1)*100)),
			ActionLabel: "Adjust Settings",
			Priority:    4,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

func anyTask(tasks []*engine.Task, pred func(*engine.Task) bool) bool {
	for _, t := range tasks {
		if pred(t) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// EnergyMatchScore rates how well a task fits the user's current energy.
func EnergyMatchScore(task *engine.Task, userEnergy engine.EnergyLevel, isPeakHour bool) int {
	score := 0
	switch task.Energy.Distance(userEnergy) {
	case 0:
		score += 3
	case 1:
		score++
	}
	if userEnergy == engine.LevelLow && task.Interest == engine.LevelHigh {
		score += 2
	}
	if isPeakHour && task.Energy == engine.LevelHigh {
		score += 2
	}
	return score
}

// SuggestTasksForCurrentEnergy returns a copy of tasks ordered by match score, best first.
// Equal scores keep their input order.
func SuggestTasksForCurrentEnergy(tasks []*engine.Task, userEnergy engine.EnergyLevel, currentHour int, obs []Observation) []*engine.Task {
	peak := AnalyzeEnergyRhythm(obs).IsPeak(currentHour)
	out := make([]*engine.Task, len(tasks))
	copy(out, tasks)
	scores := make(map[string]int, len(out))
	for _, t := range out {
		scores[t.ID] = EnergyMatchScore(t, userEnergy, peak)
	}
	sort.SliceStable(out, func(i, j int) bool { return scores[out[i].ID] > scores[out[j].ID] })
	return out
}
