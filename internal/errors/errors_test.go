package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserErrorMatchesValidation(t *testing.T) {
	err := NewValidationError("days", ErrNoDays)

	assert.True(t, IsUserError(err))
	assert.True(t, errors.Is(err, ErrNoDays))
	assert.Equal(t, CategoryValidation, Classify(err))
	assert.Equal(t, "days: at least one weekday is required", err.Error())
}

func TestUserErrorWithField(t *testing.T) {
	err := NewUserErrorWithField("time", "25:00", "invalid time", "use HH:MM")
	assert.Equal(t, "invalid time: '25:00'", err.Error())
	assert.Equal(t, "use HH:MM", GetSuggestion(err))
}

func TestSchedulingError(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := fmt.Errorf("create: %w", &SchedulingError{Op: "Wed", Cause: cause})

	assert.True(t, IsSchedulingError(err))
	assert.True(t, errors.Is(err, cause))
	se, ok := AsSchedulingError(err)
	assert.True(t, ok)
	assert.Equal(t, "Wed", se.Op)
	assert.Contains(t, err.Error(), "for Wed: quota exceeded")
}

func TestStorageError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("persist", cause)

	assert.True(t, IsStorageError(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "storage failure during persist: disk full", err.Error())
	assert.Equal(t, CategoryStorage, Classify(err))
}

func TestPermissionAndNotFound(t *testing.T) {
	assert.True(t, IsPermissionError(&PermissionError{}))
	assert.Equal(t, CategoryPermission, Classify(&PermissionError{}))

	nf := &NotFoundError{ID: "abc"}
	assert.True(t, IsNotFound(nf))
	assert.Equal(t, "block not found: abc", nf.Error())
	assert.Equal(t, CategoryNotFound.String(), Classify(nf).String())
}

func TestGetSuggestion(t *testing.T) {
	assert.Empty(t, GetSuggestion(nil))
	assert.Empty(t, GetSuggestion(errors.New("other")))
	assert.Contains(t, GetSuggestion(NewValidationError("time", ErrInvalidTime)), "HH:MM")
	assert.Contains(t, GetSuggestion(&PermissionError{}), "notifications allow")
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	err := Wrapf(ErrStorage, "write %s", "key")
	assert.True(t, errors.Is(err, ErrStorage))
	assert.Equal(t, "write key: storage failure", err.Error())
}
