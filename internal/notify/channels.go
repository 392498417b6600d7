package notify

import (
	"io"
	"log/slog"

	"github.com/manav03panchal/timeblock/internal/config"
)

// ChannelsFromConfig builds the delivery channels enabled in cfg. Logging is
// always on; w (when non-nil and console output is enabled) gets one line per
// reminder.
func ChannelsFromConfig(cfg *config.Config, logger *slog.Logger, w io.Writer) ([]Channel, error) {
	channels := []Channel{NewLogChannel(logger)}

	if cfg.Notifications.Console && w != nil {
		channels = append(channels, NewWriterChannel(w))
	}

	if len(cfg.Notifications.Webhooks) > 0 {
		client := NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.MaxRetries)
		channels = append(channels, NewDispatcher(cfg.Notifications.Webhooks, client))
	}

	if line := cfg.Notifications.Line; line.Configured() {
		ch, err := NewLineChannel(line.ChannelSecret, line.ChannelToken, line.To)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	return channels, nil
}
