package model

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is a day index with Sunday = 0, matching time.Weekday.
type Weekday int

// Weekdays in canonical order.
const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayCodes = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Valid reports whether w is one of the seven days.
func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

// Code returns the three letter storage code ("Sun".."Sat").
func (w Weekday) Code() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayCodes[w]
}

// String implements fmt.Stringer.
func (w Weekday) String() string {
	return w.Code()
}

// Std converts to the standard library weekday.
func (w Weekday) Std() time.Weekday {
	return time.Weekday(w)
}

// WeekdayOf returns the weekday of t.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

// ParseWeekdayCode parses a storage code. Matching is case-insensitive.
func ParseWeekdayCode(code string) (Weekday, error) {
	for i, c := range weekdayCodes {
		if strings.EqualFold(c, code) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday code %q", code)
}

// WeekdaySet is a set of weekdays. Iteration is always Sunday first.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given days, ignoring invalid ones.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// With returns a copy of s including d.
func (s WeekdaySet) With(d Weekday) WeekdaySet {
	if !d.Valid() {
		return s
	}
	return s | 1<<uint(d)
}

// Without returns a copy of s excluding d.
func (s WeekdaySet) Without(d Weekday) WeekdaySet {
	if !d.Valid() {
		return s
	}
	return s &^ (1 << uint(d))
}

// Toggle flips membership of d.
func (s WeekdaySet) Toggle(d Weekday) WeekdaySet {
	if s.Has(d) {
		return s.Without(d)
	}
	return s.With(d)
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d Weekday) bool {
	return d.Valid() && s&(1<<uint(d)) != 0
}

// Empty reports whether no day is selected.
func (s WeekdaySet) Empty() bool {
	return s&0x7f == 0
}

// Len returns the number of selected days.
func (s WeekdaySet) Len() int {
	n := 0
	for d := Sunday; d <= Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Days returns the selected days, Sunday first.
func (s WeekdaySet) Days() []Weekday {
	days := make([]Weekday, 0, 7)
	for d := Sunday; d <= Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// Codes returns the storage codes of the selected days, Sunday first.
func (s WeekdaySet) Codes() []string {
	days := s.Days()
	codes := make([]string, len(days))
	for i, d := range days {
		codes[i] = d.Code()
	}
	return codes
}

// String returns the codes joined by ", ".
func (s WeekdaySet) String() string {
	return strings.Join(s.Codes(), ", ")
}

// Predefined sets used by the day shortcuts.
const (
	EveryDay WeekdaySet = 0x7f
	WorkDays WeekdaySet = 1<<uint(Monday) | 1<<uint(Tuesday) | 1<<uint(Wednesday) | 1<<uint(Thursday) | 1<<uint(Friday)
	Weekend  WeekdaySet = 1<<uint(Saturday) | 1<<uint(Sunday)
)
