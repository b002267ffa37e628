package pattern

import (
	"sort"

	"cove/internal/engine"
)

const (
	// MinHourObservations is the insufficient-data cutoff for an hour to be reported at all.
	MinHourObservations = 3

	PeakRate            = 0.7
	PeakMinObservations = 5
	LowRate             = 0.4
	LowMinObservations  = 3
	MaxRhythmHours      = 4

	MinSnoozeGroup        = 5
	MaxCommonSnoozeHours  = 3
	ProblematicSnoozeRate = 0.5
	ProblematicSnoozeAvg  = 2.0
)

type ProductivityLevel string

const (
	ProductivityPeak     ProductivityLevel = "peak"
	ProductivityGood     ProductivityLevel = "good"
	ProductivityModerate ProductivityLevel = "moderate"
	ProductivityLow      ProductivityLevel = "low"
)

type HourlyProductivity struct {
	Hour           int
	CompletionRate float64
	TaskCount      int
}

func (h HourlyProductivity) Level() ProductivityLevel {
	switch {
	case h.CompletionRate >= 0.8:
		return ProductivityPeak
	case h.CompletionRate >= 0.6:
		return ProductivityGood
	case h.CompletionRate >= 0.4:
		return ProductivityModerate
	default:
		return ProductivityLow
	}
}

// AnalyzeHourlyProductivity returns one entry per hour with at least
// MinHourObservations observations, sorted by hour.
func AnalyzeHourlyProductivity(obs []Observation) []HourlyProductivity {
	var completed, total [24]int
	for _, o := range obs {
		if o.Hour < 0 || o.Hour > 23 {
			continue
		}
		total[o.Hour]++
		if o.WasCompleted {
			completed[o.Hour]++
		}
	}

	var out []HourlyProductivity
	for hour := 0; hour < 24; hour++ {
		if total[hour] < MinHourObservations {
			continue
		}
		out = append(out, HourlyProductivity{
			Hour:           hour,
			CompletionRate: float64(completed[hour]) / float64(total[hour]),
			TaskCount:      total[hour],
		})
	}
	return out
}

func hoursOf(list []HourlyProductivity) []int {
	out := make([]int, 0, len(list))
	for _, h := range list {
		out = append(out, h.Hour)
	}
	return out
}

// DetectPeakHours returns up to four hours with a high completion rate, best first.
func DetectPeakHours(obs []Observation) []int {
	var peaks []HourlyProductivity
	for _, h := range AnalyzeHourlyProductivity(obs) {
		if h.CompletionRate >= PeakRate && h.TaskCount >= PeakMinObservations {
			peaks = append(peaks, h)
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].CompletionRate > peaks[j].CompletionRate })
	if len(peaks) > MaxRhythmHours {
		peaks = peaks[:MaxRhythmHours]
	}
	return hoursOf(peaks)
}

// DetectLowHours returns up to four hours with a low completion rate, worst first.
func DetectLowHours(obs []Observation) []int {
	var lows []HourlyProductivity
	for _, h := range AnalyzeHourlyProductivity(obs) {
		if h.CompletionRate < LowRate && h.TaskCount >= LowMinObservations {
			lows = append(lows, h)
		}
	}
	sort.SliceStable(lows, func(i, j int) bool { return lows[i].CompletionRate < lows[j].CompletionRate })
	if len(lows) > MaxRhythmHours {
		lows = lows[:MaxRhythmHours]
	}
	return hoursOf(lows)
}

type EnergyRhythm struct {
	PeakHours   []int
	LowHours    []int
	Recommended engine.EnergyPattern
}

func contains(hours []int, hour int) bool {
	for _, h := range hours {
		if h == hour {
			return true
		}
	}
	return false
}

func (r EnergyRhythm) IsPeak(hour int) bool { return contains(r.PeakHours, hour) }
func (r EnergyRhythm) IsLow(hour int) bool  { return contains(r.LowHours, hour) }

func AnalyzeEnergyRhythm(obs []Observation) EnergyRhythm {
	peaks := DetectPeakHours(obs)
	return EnergyRhythm{
		PeakHours:   peaks,
		LowHours:    DetectLowHours(obs),
		Recommended: EnergyPatternForPeaks(peaks),
	}
}

// EnergyPatternForPeaks labels a rhythm by the (integer) average of its peak hours.
func EnergyPatternForPeaks(peaks []int) engine.EnergyPattern {
	if len(peaks) == 0 {
		return engine.PatternConsistent
	}
	sum := 0
	for _, h := range peaks {
		sum += h
	}
	avg := sum / len(peaks)
	switch {
	case avg < 10:
		return engine.PatternMorningPerson
	case avg < 14:
		return engine.PatternConsistent
	case avg < 18:
		return engine.PatternAfternoonPeak
	default:
		return engine.PatternNightOwl
	}
}

type SnoozePattern struct {
	Interest           engine.InterestLevel
	SampleSize         int
	SnoozeRate         float64
	AverageSnoozeCount float64
	CommonSnoozeHours  []int
}

func (p SnoozePattern) IsProblematic() bool {
	return p.SnoozeRate > ProblematicSnoozeRate || p.AverageSnoozeCount > ProblematicSnoozeAvg
}

// AnalyzeSnoozePatterns groups observations by interest level, high to low, and skips
// groups smaller than MinSnoozeGroup.
func AnalyzeSnoozePatterns(obs []Observation) []SnoozePattern {
	groups := map[engine.InterestLevel][]Observation{}
	for _, o := range obs {
		interest := o.Interest
		if !interest.IsValid() {
			interest = engine.LevelMedium
		}
		groups[interest] = append(groups[interest], o)
	}

	var out []SnoozePattern
	for _, interest := range []engine.InterestLevel{engine.LevelHigh, engine.LevelMedium, engine.LevelLow} {
		group := groups[interest]
		if len(group) < MinSnoozeGroup {
			continue
		}
		snoozed := 0
		snoozeTotal := 0
		var hours []int
		for _, o := range group {
			if !o.WasSnoozed {
				continue
			}
			snoozed++
			snoozeTotal += o.SnoozeCount
			hours = append(hours, o.Hour)
		}
		avg := 0.0
		if snoozed > 0 {
			avg = float64(snoozeTotal) / float64(snoozed)
		}
		out = append(out, SnoozePattern{
			Interest:           interest,
			SampleSize:         len(group),
			SnoozeRate:         float64(snoozed) / float64(len(group)),
			AverageSnoozeCount: avg,
			CommonSnoozeHours:  mostCommon(hours, MaxCommonSnoozeHours),
		})
	}
	return out
}

// mostCommon returns up to n values by descending frequency, lower value first on ties.
func mostCommon(values []int, n int) []int {
	counts := map[int]int{}
	for _, v := range values {
		counts[v]++
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// CalculateAverageAccuracy averages actual/estimated over observations that have both.
// It is 1.0 when there is nothing to measure.
func CalculateAverageAccuracy(obs []Observation) float64 {
	sum := 0.0
	n := 0
	for _, o := range obs {
		if a, ok := o.Accuracy(); ok {
			sum += a
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return sum / float64(n)
}

// MultiplierForAccuracy maps an average accuracy to a time-buffer multiplier.
func MultiplierForAccuracy(accuracy float64) float64 {
	switch {
	case accuracy > 1.3:
		return 2.0
	case accuracy > 1.1:
		return 1.75
	case accuracy > 0.9:
		return 1.5
	default:
		return 1.25
	}
}

func SuggestPessimismMultiplier(obs []Observation) float64 {
	return MultiplierForAccuracy(CalculateAverageAccuracy(obs))
}
