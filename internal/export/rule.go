// Package export renders time blocks for other tools: an iCalendar feed
// with one weekly recurring event per block, and a flat agenda of upcoming
// occurrences.
package export

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/manav03panchal/timeblock/internal/model"
)

var rruleDays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Rule returns the weekly recurrence of b starting at dtstart.
func Rule(b *model.TimeBlock, dtstart time.Time) rrule.ROption {
	days := b.Days.Days()
	by := make([]rrule.Weekday, len(days))
	for i, d := range days {
		by[i] = rruleDays[d]
	}
	return rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: by,
		Wkst:      rrule.SU,
		Dtstart:   dtstart,
	}
}

// RuleString returns the RRULE value for b, e.g. "FREQ=WEEKLY;BYDAY=MO,WE".
func RuleString(b *model.TimeBlock) string {
	opt := Rule(b, time.Time{})
	return opt.RRuleString()
}
