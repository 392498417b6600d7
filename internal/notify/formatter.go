package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"text/template"

	"github.com/manav03panchal/timeblock/internal/model"
)

// footer tags every webhook message.
const footer = "timeblock"

// Formatter formats notifications for a specific webhook type.
type Formatter interface {
	// Format converts a notification into the webhook-specific payload.
	Format(n *model.Notification) ([]byte, error)

	// ContentType returns the HTTP Content-Type for the payload.
	ContentType() string
}

// GetFormatter returns the formatter for a webhook type. Unknown types get
// the generic formatter.
func GetFormatter(webhookType string) Formatter {
	switch webhookType {
	case model.WebhookTypeDiscord:
		return &DiscordFormatter{}
	case model.WebhookTypeSlack:
		return &SlackFormatter{}
	case model.WebhookTypeTeams:
		return &TeamsFormatter{}
	default:
		return &GenericFormatter{}
	}
}

// FormatterFor returns the formatter for a configured webhook.
func FormatterFor(w model.Webhook) Formatter {
	if w.Type == model.WebhookTypeGeneric && w.Template != "" {
		return &GenericFormatter{Template: w.Template}
	}
	return GetFormatter(w.Type)
}

func colorOf(n *model.Notification) int {
	if n.Color != 0 {
		return n.Color
	}
	return model.DefaultColorForType(n.Type)
}

// sortedFields returns field keys in a stable order.
func sortedFields(n *model.Notification) []string {
	keys := make([]string, 0, len(n.Fields))
	for k := range n.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// Discord
// =============================================================================

// DiscordFormatter formats notifications as a Discord embed.
type DiscordFormatter struct{}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
	Footer      *discordFooter `json:"footer,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// Format implements Formatter.
func (f *DiscordFormatter) Format(n *model.Notification) ([]byte, error) {
	embed := discordEmbed{
		Title:       n.Title,
		Description: n.Message,
		Color:       colorOf(n),
		Timestamp:   n.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		Footer:      &discordFooter{Text: footer},
	}
	for _, k := range sortedFields(n) {
		embed.Fields = append(embed.Fields, discordField{Name: k, Value: n.Fields[k], Inline: true})
	}
	return json.Marshal(discordPayload{Embeds: []discordEmbed{embed}})
}

// ContentType implements Formatter.
func (f *DiscordFormatter) ContentType() string { return "application/json" }

// =============================================================================
// Slack
// =============================================================================

// SlackFormatter formats notifications as Slack blocks.
type SlackFormatter struct{}

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Blocks      []slackBlock      `json:"blocks,omitempty"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackAttachment struct {
	Color    string `json:"color,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// Format implements Formatter.
func (f *SlackFormatter) Format(n *model.Notification) ([]byte, error) {
	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: n.Title}},
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: slackEscape(n.Message)}},
	}

	if len(n.Fields) > 0 {
		var fields []slackText
		for _, k := range sortedFields(n) {
			fields = append(fields, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s*\n%s", k, slackEscape(n.Fields[k]))})
		}
		blocks = append(blocks, slackBlock{Type: "section", Fields: fields})
	}

	blocks = append(blocks, slackBlock{
		Type: "context",
		Elements: []slackText{{
			Type: "mrkdwn",
			Text: fmt.Sprintf("%s | %s", footer, n.Timestamp.Format("Jan 2, 3:04 PM")),
		}},
	})

	return json.Marshal(slackPayload{
		Text:        fmt.Sprintf("*%s*", n.Title),
		Blocks:      blocks,
		Attachments: []slackAttachment{{Color: colorToHex(colorOf(n)), Fallback: n.Title}},
	})
}

// ContentType implements Formatter.
func (f *SlackFormatter) ContentType() string { return "application/json" }

func colorToHex(color int) string {
	return fmt.Sprintf("#%06X", color)
}

// slackEscape escapes the characters Slack mrkdwn treats as control.
func slackEscape(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// =============================================================================
// Teams
// =============================================================================

// TeamsFormatter formats notifications as a Teams MessageCard.
type TeamsFormatter struct{}

type teamsPayload struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Summary    string         `json:"summary"`
	Sections   []teamsSection `json:"sections,omitempty"`
}

type teamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	Text             string      `json:"text,omitempty"`
	Facts            []teamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown"`
}

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Format implements Formatter.
func (f *TeamsFormatter) Format(n *model.Notification) ([]byte, error) {
	section := teamsSection{
		ActivityTitle:    n.Title,
		ActivitySubtitle: fmt.Sprintf("%s | %s", footer, n.Timestamp.Format("Jan 2, 3:04 PM")),
		Text:             n.Message,
		Markdown:         true,
	}
	for _, k := range sortedFields(n) {
		section.Facts = append(section.Facts, teamsFact{Name: k, Value: n.Fields[k]})
	}

	return json.Marshal(teamsPayload{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: fmt.Sprintf("%06X", colorOf(n)),
		Summary:    n.Title,
		Sections:   []teamsSection{section},
	})
}

// ContentType implements Formatter.
func (f *TeamsFormatter) ContentType() string { return "application/json" }

// =============================================================================
// Generic
// =============================================================================

// GenericFormatter posts a flat JSON object, or renders Template when set.
type GenericFormatter struct {
	Template string
}

type genericPayload struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp string            `json:"timestamp"`
	Color     int               `json:"color,omitempty"`
}

// Format implements Formatter.
func (f *GenericFormatter) Format(n *model.Notification) ([]byte, error) {
	if f.Template != "" {
		return f.formatWithTemplate(n)
	}
	return json.Marshal(genericPayload{
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Fields:    n.Fields,
		Timestamp: n.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		Color:     colorOf(n),
	})
}

func (f *GenericFormatter) formatWithTemplate(n *model.Notification) ([]byte, error) {
	tmpl, err := template.New("webhook").Parse(f.Template)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]any{
		"Type":      string(n.Type),
		"Title":     n.Title,
		"Message":   n.Message,
		"Fields":    n.Fields,
		"Timestamp": n.Timestamp,
		"Color":     colorOf(n),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ContentType implements Formatter.
func (f *GenericFormatter) ContentType() string { return "application/json" }
