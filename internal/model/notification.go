package model

import (
	"time"
)

// Repeat declares how the notification service re-arms a trigger after it fires.
type Repeat string

// Repeat rules.
const (
	RepeatNone   Repeat = ""
	RepeatWeekly Repeat = "weekly"
)

// Content is what the notification service shows when a trigger fires.
type Content struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Repeat Repeat `json:"repeat,omitempty"`
}

// NotificationType defines the type of notification.
type NotificationType string

// Notification types.
const (
	NotifyReminder NotificationType = "reminder"
	NotifyTest     NotificationType = "test"
)

// Notification represents a notification to be delivered.
type Notification struct {
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Color     int               `json:"color,omitempty"` // Hex color for embeds
}

// NewNotification creates a new notification.
func NewNotification(t NotificationType, title, message string) *Notification {
	return &Notification{
		Type:      t,
		Title:     title,
		Message:   message,
		Fields:    make(map[string]string),
		Timestamp: time.Now(),
	}
}

// WithField adds a field to the notification.
func (n *Notification) WithField(key, value string) *Notification {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[key] = value
	return n
}

// WithColor sets the embed color.
func (n *Notification) WithColor(color int) *Notification {
	n.Color = color
	return n
}

// Notification colors (Discord-compatible hex values).
const (
	ColorWarning = 0xFEE75C
	ColorInfo    = 0x5865F2
	ColorPrimary = 0x3498DB
)

// DefaultColorForType returns the default color for a notification type.
func DefaultColorForType(t NotificationType) int {
	switch t {
	case NotifyReminder:
		return ColorWarning
	case NotifyTest:
		return ColorPrimary
	default:
		return ColorInfo
	}
}
