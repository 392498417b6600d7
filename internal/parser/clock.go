package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/model"
)

// StampLayout is the durable date+time form of a time of day.
const StampLayout = "2006-01-02T15:04:05"

// clockPattern matches HH:MM with a one or two digit hour.
var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// FormatClock encodes a time of day as HH:MM.
func FormatClock(t model.TimeOfDay) string {
	return t.String()
}

// ParseClock decodes HH:MM. It is the exact inverse of FormatClock.
func ParseClock(input string) (model.TimeOfDay, error) {
	s := strings.TrimSpace(input)
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return model.TimeOfDay{}, NewTimeParseError("time", input,
			"expected two colon-separated numbers", errors.ErrInvalidTime, ClockExamples...)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	t := model.TimeOfDay{Hour: hour, Minute: minute}
	if hour > 23 {
		return model.TimeOfDay{}, NewTimeParseError("time", input,
			"hour must be between 0 and 23", errors.ErrInvalidTime, ClockExamples...)
	}
	if minute > 59 {
		return model.TimeOfDay{}, NewTimeParseError("time", input,
			"minute must be between 0 and 59", errors.ErrInvalidTime, ClockExamples...)
	}
	return t, nil
}

// stampDateLayout is the date part of StampLayout.
const stampDateLayout = "2006-01-02"

// FormatClockStamp writes t on anchor's calendar date in StampLayout. The
// text is built from the fields so a wall time skipped by DST on that date
// is written unchanged.
func FormatClockStamp(t model.TimeOfDay, anchor time.Time) string {
	y, m, d := anchor.Date()
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:00", y, int(m), d, t.Hour, t.Minute)
}

// ParseClockStamp reads the time of day back out of a stored stamp.
// Besides StampLayout it accepts bare HH:MM and RFC 3339 stamps with a zone,
// which are converted to the local clock first.
func ParseClockStamp(input string) (model.TimeOfDay, error) {
	s := strings.TrimSpace(input)

	if !strings.Contains(s, "T") {
		return ParseClock(s)
	}

	// A zoneless stamp is read in UTC, which has no DST gaps.
	if t, err := time.ParseInLocation(StampLayout, s, time.UTC); err == nil {
		return model.TimeOfDayFrom(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return model.TimeOfDayFrom(t.In(time.Local)), nil
	}

	// Date part plus HH:MM with no seconds.
	date, clock, _ := strings.Cut(s, "T")
	if _, err := time.Parse(stampDateLayout, date); err != nil {
		return model.TimeOfDay{}, NewTimeParseError("time", input,
			"expected a date before the time", errors.ErrInvalidTime)
	}
	return ParseClock(clock)
}

// ParseClockInput parses user input for a time of day relative to now.
// Strict HH:MM is tried first, then natural language ("9:30pm", "noon").
func ParseClockInput(input string, now time.Time) (model.TimeOfDay, error) {
	input = strings.TrimSpace(input)
	if t, err := ParseClock(input); err == nil {
		return t, nil
	}
	if input == "" {
		return model.TimeOfDay{}, NewTimeParseError("time", input,
			"time is required", errors.ErrInvalidTime, ClockExamples...)
	}
	if strings.EqualFold(input, "now") {
		return model.TimeOfDayFrom(now), nil
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil || result.Time.IsZero() {
		return model.TimeOfDay{}, NewTimeParseError("time", input,
			"could not understand time", errors.ErrInvalidTime, ClockExamples...)
	}
	return model.TimeOfDayFrom(result.Time), nil
}
