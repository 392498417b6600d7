package parser

import (
	"strings"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/model"
)

// dayShortcuts are whole-set keywords accepted in place of a day list.
var dayShortcuts = map[string]model.WeekdaySet{
	"daily":    model.EveryDay,
	"everyday": model.EveryDay,
	"all":      model.EveryDay,
	"weekdays": model.WorkDays,
	"workdays": model.WorkDays,
	"weekends": model.Weekend,
	"weekend":  model.Weekend,
}

// ParseWeekdays parses a comma or space separated list of days. Each item
// is a day name or any prefix of at least three letters ("wed", "wednesday"),
// or a shortcut like "weekdays". An empty input yields an empty set.
func ParseWeekdays(input string) (model.WeekdaySet, error) {
	var set model.WeekdaySet

	fields := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	for _, f := range fields {
		if s, ok := dayShortcuts[f]; ok {
			set |= s
			continue
		}
		d, ok := matchDay(f)
		if !ok {
			return 0, NewTimeParseError("day", f, "unknown weekday", errors.ErrInvalidDay, DayExamples...)
		}
		set = set.With(d)
	}
	return set, nil
}

var dayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func matchDay(s string) (model.Weekday, bool) {
	if len(s) < 3 {
		return 0, false
	}
	for i, name := range dayNames {
		if strings.HasPrefix(name, s) {
			return model.Weekday(i), true
		}
	}
	return 0, false
}

// ParseWeekdayCodes decodes stored weekday codes into a set. Duplicate codes
// are rejected so a record's day count stays meaningful.
func ParseWeekdayCodes(codes []string) (model.WeekdaySet, error) {
	var set model.WeekdaySet
	for _, c := range codes {
		d, err := model.ParseWeekdayCode(c)
		if err != nil {
			return 0, NewTimeParseError("day", c, "unknown weekday code", errors.ErrInvalidDay)
		}
		if set.Has(d) {
			return 0, NewTimeParseError("day", c, "duplicate weekday code", errors.ErrInvalidDay)
		}
		set = set.With(d)
	}
	return set, nil
}
