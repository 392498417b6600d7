package export

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/scheduler"
)

// floatingLayout is an iCalendar local date-time without zone, so events
// follow the wall clock of whoever imports them.
const floatingLayout = "20060102T150405"

// CalendarOptions controls iCalendar output.
type CalendarOptions struct {
	Name     string
	Duration time.Duration
	Alarm    bool
}

// DefaultCalendarOptions returns 30-minute events with a display alarm.
func DefaultCalendarOptions() CalendarOptions {
	return CalendarOptions{Name: "Time Blocks", Duration: 30 * time.Minute, Alarm: true}
}

// Calendar builds a VCALENDAR with one weekly VEVENT per block. Each event
// starts at the block's next occurrence after now.
func Calendar(blocks []*model.TimeBlock, now time.Time, opts CalendarOptions) *ical.Calendar {
	if opts.Duration <= 0 {
		opts.Duration = 30 * time.Minute
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//timeblock//EN")
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, b := range blocks {
		start, ok := scheduler.NextForBlock(now, b)
		if !ok {
			continue
		}

		ev := cal.AddEvent(b.ID + "@timeblock")
		ev.SetDtStampTime(now.UTC())
		ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(floatingLayout))
		ev.SetProperty(ical.ComponentPropertyDtEnd, start.Add(opts.Duration).Format(floatingLayout))
		ev.SetSummary(b.DisplayLabel())
		ev.SetDescription(fmt.Sprintf("%s • %s", b.Time, b.Days))
		ev.AddRrule(RuleString(b))

		if opts.Alarm {
			alarm := ev.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger("-PT0M")
			alarm.SetProperty(ical.ComponentPropertyDescription, b.ReminderBody(""))
		}
	}
	return cal
}

// WriteCalendar serializes Calendar(blocks, now, opts) to w.
func WriteCalendar(w io.Writer, blocks []*model.TimeBlock, now time.Time, opts CalendarOptions) error {
	_, err := io.WriteString(w, Calendar(blocks, now, opts).Serialize())
	return err
}
