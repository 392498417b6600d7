package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/manav03panchal/timeblock/internal/model"
)

// LogChannel writes fired reminders to a logger.
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel creates a channel that logs at Info level.
func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

// Name implements Channel.
func (c *LogChannel) Name() string { return "log" }

// Deliver implements Channel.
func (c *LogChannel) Deliver(ctx context.Context, n *model.Notification) error {
	args := []any{"title", n.Title, "body", n.Message, "type", string(n.Type)}
	for k, v := range n.Fields {
		args = append(args, k, v)
	}
	c.logger.InfoContext(ctx, "reminder", args...)
	return nil
}

// WriterChannel prints fired reminders as one line each, for a terminal
// running the daemon in the foreground.
type WriterChannel struct {
	w  io.Writer
	mu sync.Mutex
}

// NewWriterChannel creates a channel writing to w.
func NewWriterChannel(w io.Writer) *WriterChannel {
	return &WriterChannel{w: w}
}

// Name implements Channel.
func (c *WriterChannel) Name() string { return "terminal" }

// Deliver implements Channel.
func (c *WriterChannel) Deliver(_ context.Context, n *model.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "\a[%s] %s: %s\n", n.Timestamp.Format("Mon 15:04"), n.Title, n.Message)
	return err
}
