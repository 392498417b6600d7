package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/model"
)

// DeliveryReport summarizes one Deliverer pass.
type DeliveryReport struct {
	Fired    int
	Missed   int
	Failed   int
	Rearmed  int
	Finished int
}

// Deliverer fires due triggers of a LocalGateway through its channels and
// re-arms weekly ones.
type Deliverer struct {
	gateway    *LocalGateway
	channels   []Channel
	staleAfter time.Duration
	logger     *slog.Logger

	// pass serializes Deliver calls so a trigger is never fired twice.
	pass sync.Mutex
}

// NewDeliverer creates a Deliverer. Triggers more than staleAfter overdue
// (the machine was asleep or the daemon stopped) are re-armed without being
// delivered; zero disables that cut-off.
func NewDeliverer(gateway *LocalGateway, staleAfter time.Duration, channels ...Channel) *Deliverer {
	return &Deliverer{
		gateway:    gateway,
		channels:   channels,
		staleAfter: staleAfter,
		logger:     logging.Logger(),
	}
}

// SetLogger sets the logger.
func (d *Deliverer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// Channels returns the configured channels.
func (d *Deliverer) Channels() []Channel {
	return d.channels
}

// Name identifies the check in the scheduler log.
func (d *Deliverer) Name() string {
	return "deliver"
}

// Check runs one delivery pass at now.
func (d *Deliverer) Check(ctx context.Context, now time.Time) {
	d.Deliver(ctx, now)
}

// Deliver fires every trigger due at now. The gateway lock is held only
// while triggers are read and written, never during channel sends, so
// Schedule and Cancel stay responsive while webhooks retry.
func (d *Deliverer) Deliver(ctx context.Context, now time.Time) DeliveryReport {
	var report DeliveryReport

	d.pass.Lock()
	defer d.pass.Unlock()

	due, err := d.listDue(now)
	if err != nil {
		d.logger.Error("failed to list due triggers", logging.KeyError, err)
		return report
	}

	for _, t := range due {
		if ctx.Err() != nil {
			return report
		}

		if d.staleAfter > 0 && now.Sub(t.FireAt) > d.staleAfter {
			report.Missed++
			d.logger.Info("skipping missed reminder",
				logging.KeyHandle, string(t.Handle),
				logging.KeyTrigger, t.FireAt)
		} else {
			report.Fired++
			if failed := d.send(ctx, t); failed > 0 {
				report.Failed += failed
			}
			t.LastFiredAt = now
			t.FireCount++
		}

		rearmed, ok := d.settle(t, now)
		if !ok {
			continue
		}
		if rearmed {
			report.Rearmed++
		} else {
			report.Finished++
		}
	}

	if report.Fired+report.Missed > 0 {
		d.logger.Info("delivery pass",
			"fired", report.Fired,
			"missed", report.Missed,
			"failed", report.Failed)
	}
	return report
}

func (d *Deliverer) listDue(now time.Time) ([]*model.Trigger, error) {
	d.gateway.mu.Lock()
	defer d.gateway.mu.Unlock()

	return d.gateway.triggers.ListDue(now, func(key string, err error) {
		d.logger.Warn("storage corrupt: skipping trigger", logging.KeyKey, key, logging.KeyError, err)
	})
}

// settle re-arms or removes t after it fired. A trigger cancelled while it
// was being delivered stays cancelled; ok is false then.
func (d *Deliverer) settle(t *model.Trigger, now time.Time) (rearmed, ok bool) {
	d.gateway.mu.Lock()
	defer d.gateway.mu.Unlock()

	exists, err := d.gateway.triggers.Exists(t.Handle)
	if err != nil {
		d.logger.Error("failed to look up fired trigger", logging.KeyHandle, string(t.Handle), logging.KeyError, err)
		return false, false
	}
	if !exists {
		d.logger.Debug("trigger cancelled during delivery", logging.KeyHandle, string(t.Handle))
		return false, false
	}

	if t.Advance(now) {
		if err := d.gateway.triggers.Update(t); err != nil {
			d.logger.Error("failed to re-arm trigger", logging.KeyHandle, string(t.Handle), logging.KeyError, err)
		}
		return true, true
	}

	if err := d.gateway.triggers.Delete(t.Handle); err != nil {
		d.logger.Error("failed to remove fired trigger", logging.KeyHandle, string(t.Handle), logging.KeyError, err)
	}
	return false, true
}

// send delivers t on every channel and returns the number of failures.
func (d *Deliverer) send(ctx context.Context, t *model.Trigger) int {
	n := NotificationFor(t)
	failed := 0
	for _, ch := range d.channels {
		if err := ch.Deliver(ctx, n); err != nil {
			failed++
			d.logger.Warn("delivery failed",
				"channel", ch.Name(),
				logging.KeyHandle, string(t.Handle),
				logging.KeyError, err)
		}
	}
	return failed
}

// NotificationFor builds the notification delivered when t fires.
func NotificationFor(t *model.Trigger) *model.Notification {
	n := model.NewNotification(model.NotifyReminder, t.Content.Title, t.Content.Body).
		WithColor(model.DefaultColorForType(model.NotifyReminder))
	n.Timestamp = t.FireAt
	n.WithField("Time", t.FireAt.Format("Mon 15:04"))
	if t.Content.Repeat == model.RepeatWeekly {
		n.WithField("Repeats", "weekly")
	}
	return n
}

// TestNotification builds the notification sent by 'notifications test'.
func TestNotification(title string, now time.Time) *model.Notification {
	n := model.NewNotification(model.NotifyTest, title,
		"This is a test notification. If you see this, delivery is configured correctly!")
	n.Timestamp = now
	return n.WithField("Time", now.Format("Mon 15:04"))
}
