package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/manav03panchal/timeblock/internal/model"
)

// DispatchResult contains the result of dispatching to a single webhook.
type DispatchResult struct {
	WebhookName string
	Success     bool
	StatusCode  int
	Duration    time.Duration
	Error       error
}

// Dispatcher sends notifications to configured webhooks.
type Dispatcher struct {
	webhooks   []model.Webhook
	httpClient *HTTPClient
}

// NewDispatcher creates a dispatcher for webhooks.
func NewDispatcher(webhooks []model.Webhook, client *HTTPClient) *Dispatcher {
	if client == nil {
		client = NewHTTPClient(0, 3)
	}
	return &Dispatcher{webhooks: webhooks, httpClient: client}
}

// Enabled returns the enabled webhooks.
func (d *Dispatcher) Enabled() []model.Webhook {
	var out []model.Webhook
	for _, w := range d.webhooks {
		if w.Enabled {
			out = append(out, w)
		}
	}
	return out
}

// Name implements Channel.
func (d *Dispatcher) Name() string { return "webhooks" }

// Deliver implements Channel. It fails when any enabled webhook fails.
func (d *Dispatcher) Deliver(ctx context.Context, n *model.Notification) error {
	var failed []string
	for _, r := range d.SendNotification(ctx, n) {
		if !r.Success {
			failed = append(failed, fmt.Sprintf("%s: %v", r.WebhookName, r.Error))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d webhook(s) failed: %v", len(failed), failed)
	}
	return nil
}

// SendNotification sends n to all enabled webhooks concurrently.
func (d *Dispatcher) SendNotification(ctx context.Context, n *model.Notification) []DispatchResult {
	webhooks := d.Enabled()
	if len(webhooks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	results := make([]DispatchResult, len(webhooks))
	for i, w := range webhooks {
		wg.Add(1)
		go func(idx int, w model.Webhook) {
			defer wg.Done()
			results[idx] = d.send(ctx, n, w)
		}(i, w)
	}
	wg.Wait()
	return results
}

// SendToSingle sends n to the webhook called name, enabled or not.
func (d *Dispatcher) SendToSingle(ctx context.Context, n *model.Notification, name string) DispatchResult {
	for _, w := range d.webhooks {
		if w.Name == name {
			return d.send(ctx, n, w)
		}
	}
	return DispatchResult{WebhookName: name, Error: fmt.Errorf("webhook not found: %s", name)}
}

func (d *Dispatcher) send(ctx context.Context, n *model.Notification, w model.Webhook) DispatchResult {
	result := DispatchResult{WebhookName: w.Name}

	f := FormatterFor(w)
	payload, err := f.Format(n)
	if err != nil {
		result.Error = fmt.Errorf("failed to format notification: %w", err)
		return result
	}

	sent := d.httpClient.Send(ctx, w.URL, f.ContentType(), payload)
	result.StatusCode = sent.StatusCode
	result.Duration = sent.Duration
	result.Error = sent.Error
	result.Success = sent.Error == nil
	return result
}
