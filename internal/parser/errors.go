package parser

import (
	"fmt"
	"strings"

	"github.com/manav03panchal/timeblock/internal/errors"
)

// TimeParseError represents a parsing error with helpful examples.
type TimeParseError struct {
	Input    string
	Field    string
	Message  string
	Examples []string
	Cause    error
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

// Unwrap lets the error match ErrValidation and its sentinel cause.
func (e *TimeParseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{errors.ErrValidation, e.Cause}
	}
	return []error{errors.ErrValidation}
}

// NewTimeParseError creates a new parse error with examples.
func NewTimeParseError(field, input, message string, cause error, examples ...string) *TimeParseError {
	return &TimeParseError{
		Input:    input,
		Field:    field,
		Message:  message,
		Examples: examples,
		Cause:    cause,
	}
}

// FormatWithExamples returns the error message with example suggestions.
func (e *TimeParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// ClockExamples provides example time-of-day formats.
var ClockExamples = []string{
	"09:30",
	"21:05",
	"9:30pm",
	"7am",
	"noon",
}

// DayExamples provides example weekday selections.
var DayExamples = []string{
	"mon,wed,fri",
	"tue thu",
	"weekdays",
	"weekends",
	"daily",
}
