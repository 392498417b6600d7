// Package notify provides the notification service that time blocks are
// armed against, and the channels that deliver fired reminders (log,
// webhooks, LINE).
package notify

import (
	"context"
	"time"

	"github.com/manav03panchal/timeblock/internal/model"
)

// Gateway is a notification service that fires content at a future instant.
type Gateway interface {
	// RequestPermission asks for permission to schedule notifications.
	RequestPermission(ctx context.Context) (bool, error)

	// Schedule registers content to fire at at. Weekly content repeats
	// every seven days until cancelled.
	Schedule(ctx context.Context, at time.Time, content model.Content) (model.Handle, error)

	// Cancel removes a scheduled notification.
	Cancel(ctx context.Context, h model.Handle) error
}

// Channel delivers a fired notification somewhere the user will see it.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, n *model.Notification) error
}
