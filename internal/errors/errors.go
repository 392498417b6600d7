// Package errors provides consistent error types for timeblock.
// Each category matches a sentinel through errors.Is so callers can branch
// on the kind of failure without knowing the concrete type.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error categories and common conditions.
var (
	ErrValidation       = errors.New("invalid input")
	ErrPermissionDenied = errors.New("notification permission not granted")
	ErrScheduling       = errors.New("failed to schedule notification")
	ErrStorage          = errors.New("storage failure")
	ErrBlockNotFound    = errors.New("block not found")

	ErrNoDays        = errors.New("at least one weekday is required")
	ErrInvalidTime   = errors.New("invalid time of day")
	ErrInvalidDay    = errors.New("invalid weekday")
	ErrInvalidTheme  = errors.New("unknown theme")
	ErrHandleUnknown = errors.New("unknown notification handle")
	ErrLockHeld      = errors.New("database locked by another process")
)

// UserError represents an error that the user can fix by correcting input.
// It always matches ErrValidation.
type UserError struct {
	Message    string // What happened
	Suggestion string // How to fix it
	Field      string // The field/input that caused the error (optional)
	Value      string // The invalid value (optional)
	Cause      error  // Underlying sentinel or parse error (optional)
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Field != "" && e.Value != "" {
		msg = fmt.Sprintf("%s: '%s'", e.Message, e.Value)
	}
	return msg
}

func (e *UserError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidation, e.Cause}
	}
	return []error{ErrValidation}
}

// ValidationError is the name the engine uses for input rejections.
type ValidationError = UserError

// NewUserError creates a new UserError.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// NewUserErrorWithField creates a new UserError with field context.
func NewUserErrorWithField(field, value, message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Field:      field,
		Value:      value,
		Suggestion: suggestion,
	}
}

// NewValidationError wraps cause as a rejection of field.
func NewValidationError(field string, cause error) *UserError {
	return &UserError{
		Message: fmt.Sprintf("%s: %v", field, cause),
		Field:   field,
		Cause:   cause,
	}
}

// PermissionError is returned when the notification service refuses to
// schedule because permission was not granted.
type PermissionError struct {
	Cause error
}

func (e *PermissionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", ErrPermissionDenied, e.Cause)
	}
	return ErrPermissionDenied.Error()
}

func (e *PermissionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrPermissionDenied, e.Cause}
	}
	return []error{ErrPermissionDenied}
}

// SchedulingError reports a failed schedule call. Op names the weekday or
// step that failed.
type SchedulingError struct {
	Op    string
	Cause error
}

func (e *SchedulingError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s for %s: %v", ErrScheduling, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %v", ErrScheduling, e.Cause)
}

func (e *SchedulingError) Unwrap() []error {
	return []error{ErrScheduling, e.Cause}
}

// SystemError represents a storage-level failure the user cannot fix directly.
type SystemError struct {
	Message string // What happened
	Cause   error  // The underlying error
	Op      string // The operation that failed (optional)
}

func (e *SystemError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s during %s", e.Message, e.Op)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SystemError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrStorage, e.Cause}
	}
	return []error{ErrStorage}
}

// StorageError is the name the engine uses for read/write failures.
type StorageError = SystemError

// NewStorageError creates a StorageError for op.
func NewStorageError(op string, cause error) *SystemError {
	return &SystemError{
		Message: "storage failure",
		Cause:   cause,
		Op:      op,
	}
}

// NotFoundError is returned when a block id is unknown.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrBlockNotFound, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrBlockNotFound
}

// IsUserError checks if an error is a validation error.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsPermissionError checks if an error is a permission error.
func IsPermissionError(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsSchedulingError checks if an error is a scheduling error.
func IsSchedulingError(err error) bool {
	return errors.Is(err, ErrScheduling)
}

// IsStorageError checks if an error is a storage error.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBlockNotFound)
}

// AsUserError extracts a UserError from an error chain.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	ok := errors.As(err, &ue)
	return ue, ok
}

// AsSchedulingError extracts a SchedulingError from an error chain.
func AsSchedulingError(err error) (*SchedulingError, bool) {
	var se *SchedulingError
	ok := errors.As(err, &se)
	return se, ok
}

// AsSystemError extracts a SystemError from an error chain.
func AsSystemError(err error) (*SystemError, bool) {
	var se *SystemError
	ok := errors.As(err, &se)
	return se, ok
}

// Is, As and Join are re-exported so callers need a single errors import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
	New  = errors.New
)

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted additional context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
