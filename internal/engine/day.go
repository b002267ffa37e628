package engine

import "time"

// StartOfDay normalizes t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b in b's location. It is negative when a is later.
// Days are compared as civil dates so DST shifts do not produce 23h/25h gaps.
func DaysBetween(a, b time.Time) int {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

// DayKey formats a day for use as a map or storage key.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
