package scheduler

import (
	"time"

	"github.com/manav03panchal/timeblock/internal/model"
)

// NextOccurrence returns the next instant at or after now that falls on
// weekday at time-of-day t, in now's location with seconds zeroed.
//
// When weekday is today and t has not passed yet, the result is today.
// When t is now or earlier today, the result is one week later. Days are
// added on the calendar so the wall clock survives DST changes.
func NextOccurrence(now time.Time, weekday model.Weekday, t model.TimeOfDay) time.Time {
	dayDiff := (int(weekday) - int(now.Weekday()) + 7) % 7
	candidate := t.On(now)

	if dayDiff == 0 && !candidate.After(now) {
		return candidate.AddDate(0, 0, 7)
	}
	return candidate.AddDate(0, 0, dayDiff)
}

// Occurrence pairs a weekday with its next trigger instant.
type Occurrence struct {
	Weekday model.Weekday
	At      time.Time
}

// Occurrences returns the next occurrence of t for each day in days, in
// Sunday-first order.
func Occurrences(now time.Time, days model.WeekdaySet, t model.TimeOfDay) []Occurrence {
	out := make([]Occurrence, 0, days.Len())
	for _, d := range days.Days() {
		out = append(out, Occurrence{Weekday: d, At: NextOccurrence(now, d, t)})
	}
	return out
}

// NextForBlock returns the earliest upcoming occurrence of b. The second
// result is false when b has no days.
func NextForBlock(now time.Time, b *model.TimeBlock) (time.Time, bool) {
	var next time.Time
	found := false
	for _, o := range Occurrences(now, b.Days, b.Time) {
		if !found || o.At.Before(next) {
			next = o.At
			found = true
		}
	}
	return next, found
}
