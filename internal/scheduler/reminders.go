package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/notify"
)

// Reminders arms and disarms the weekly notifications of a time block
// through a notify.Gateway.
type Reminders struct {
	gateway     notify.Gateway
	granted     bool
	now         func() time.Time
	title       string
	defaultBody string
	logger      *slog.Logger
}

// NewReminders creates a Reminders for gateway. granted is the result of the
// gateway's permission request made once at startup.
func NewReminders(gateway notify.Gateway, granted bool) *Reminders {
	return &Reminders{
		gateway:     gateway,
		granted:     granted,
		now:         time.Now,
		title:       "Time Block",
		defaultBody: model.DefaultReminder,
		logger:      logging.Logger(),
	}
}

// SetClock replaces the clock used to compute trigger instants.
func (r *Reminders) SetClock(now func() time.Time) {
	r.now = now
}

// SetContent sets the notification title and the body used for blocks
// without a label.
func (r *Reminders) SetContent(title, defaultBody string) {
	if title != "" {
		r.title = title
	}
	if defaultBody != "" {
		r.defaultBody = defaultBody
	}
}

// SetLogger sets the logger used for disarm failures.
func (r *Reminders) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetGranted updates the permission state.
func (r *Reminders) SetGranted(granted bool) {
	r.granted = granted
}

// Granted reports the permission state.
func (r *Reminders) Granted() bool {
	return r.granted
}

// Arm schedules one weekly notification per selected day of block, in
// Sunday-first order, and returns the handles in the same order.
//
// Either every day is armed or none is: on the first failure all handles
// obtained so far are cancelled and a SchedulingError naming the day is
// returned.
func (r *Reminders) Arm(ctx context.Context, block *model.TimeBlock) ([]model.Handle, error) {
	if !r.granted {
		return nil, &errors.PermissionError{}
	}
	if block.Days.Empty() {
		return nil, errors.NewValidationError("days", errors.ErrNoDays)
	}

	content := model.Content{
		Title:  r.title,
		Body:   block.ReminderBody(r.defaultBody),
		Repeat: model.RepeatWeekly,
	}

	now := r.now()
	handles := make([]model.Handle, 0, block.Days.Len())
	for _, o := range Occurrences(now, block.Days, block.Time) {
		h, err := r.gateway.Schedule(ctx, o.At, content)
		if err != nil {
			r.rollback(ctx, handles)
			if errors.IsPermissionError(err) {
				return nil, err
			}
			return nil, &errors.SchedulingError{Op: o.Weekday.Code(), Cause: err}
		}
		r.logger.Debug("reminder armed",
			logging.KeyHandle, string(h),
			logging.KeyWeekday, o.Weekday.Code(),
			logging.KeyTrigger, o.At)
		handles = append(handles, h)
	}
	return handles, nil
}

// Disarm cancels every handle. Failures are logged and skipped; the number
// of failed cancels is returned.
func (r *Reminders) Disarm(ctx context.Context, handles []model.Handle) int {
	failed := 0
	for _, h := range handles {
		if err := r.gateway.Cancel(ctx, h); err != nil {
			failed++
			r.logger.Warn("failed to cancel reminder",
				logging.KeyHandle, string(h),
				logging.KeyError, err)
		}
	}
	return failed
}

func (r *Reminders) rollback(ctx context.Context, handles []model.Handle) {
	if n := r.Disarm(ctx, handles); n > 0 {
		r.logger.Warn("rollback left reminders armed", logging.KeyCount, n)
	}
}
