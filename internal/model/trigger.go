package model

import (
	"fmt"
	"strings"
	"time"
)

// Trigger is one notification held by the local notification service.
type Trigger struct {
	Key         string    `json:"key"`
	Handle      Handle    `json:"handle"`
	FireAt      time.Time `json:"fire_at"`
	Content     Content   `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	LastFiredAt time.Time `json:"last_fired_at,omitempty"`
	FireCount   int       `json:"fire_count"`
}

// SetKey sets the database key for this trigger.
func (t *Trigger) SetKey(key string) {
	t.Key = key
}

// GetKey returns the database key for this trigger.
func (t *Trigger) GetKey() string {
	return t.Key
}

// IsDue reports whether the trigger should fire at now.
func (t *Trigger) IsDue(now time.Time) bool {
	return !t.FireAt.After(now)
}

// Advance moves a repeating trigger to its next occurrence strictly after
// now and reports whether the trigger is still live.
func (t *Trigger) Advance(now time.Time) bool {
	if t.Content.Repeat != RepeatWeekly {
		return false
	}
	for !t.FireAt.After(now) {
		t.FireAt = t.FireAt.AddDate(0, 0, 7)
	}
	return true
}

// GenerateTriggerKey returns the database key for a handle.
func GenerateTriggerKey(h Handle) string {
	return fmt.Sprintf("%s:%s", PrefixTrigger, h)
}

// HandleFromTriggerKey extracts the handle from a trigger key.
func HandleFromTriggerKey(key string) (Handle, bool) {
	rest, ok := strings.CutPrefix(key, PrefixTrigger+":")
	if !ok || rest == "" {
		return "", false
	}
	return Handle(rest), true
}
