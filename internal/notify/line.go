package notify

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"github.com/manav03panchal/timeblock/internal/model"
)

// LineChannel pushes fired reminders to a LINE user or group.
type LineChannel struct {
	bot *linebot.Client
	to  string
}

// NewLineChannel creates a LINE push channel. opts are passed to linebot.New
// (for example linebot.WithEndpointBase in tests).
func NewLineChannel(channelSecret, channelToken, to string, opts ...linebot.ClientOption) (*LineChannel, error) {
	if channelSecret == "" || channelToken == "" || to == "" {
		return nil, fmt.Errorf("LINE channel secret, token and recipient are required")
	}
	bot, err := linebot.New(channelSecret, channelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE Bot client: %w", err)
	}
	return &LineChannel{bot: bot, to: to}, nil
}

// Name implements Channel.
func (c *LineChannel) Name() string { return "line" }

// Deliver implements Channel.
func (c *LineChannel) Deliver(ctx context.Context, n *model.Notification) error {
	msg := linebot.NewTextMessage(LineText(n))
	if _, err := c.bot.PushMessage(c.to, msg).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("LINE push failed: %w", err)
	}
	return nil
}

// LineText renders n as a plain-text LINE message.
func LineText(n *model.Notification) string {
	text := n.Title
	if n.Message != "" {
		text += "\n" + n.Message
	}
	for _, k := range sortedFields(n) {
		text += fmt.Sprintf("\n%s: %s", k, n.Fields[k])
	}
	return text
}
