package model

// Handle identifies one scheduled notification. Its content is opaque to
// everything except the notification service that issued it.
type Handle string

// Default display strings.
const (
	DefaultBlockLabel = "Unnamed Block"
	DefaultReminder   = "Reminder!"
)

// TimeBlock is a recurring weekly reminder.
type TimeBlock struct {
	ID      string
	Label   string
	Time    TimeOfDay
	Days    WeekdaySet
	Handles []Handle
}

// DisplayLabel returns the label or a placeholder when it is empty.
func (b *TimeBlock) DisplayLabel() string {
	if b.Label == "" {
		return DefaultBlockLabel
	}
	return b.Label
}

// ReminderBody returns the notification body for the block.
func (b *TimeBlock) ReminderBody(fallback string) string {
	if b.Label != "" {
		return b.Label
	}
	if fallback == "" {
		return DefaultReminder
	}
	return fallback
}

// Armed reports whether the block holds one handle per selected day.
func (b *TimeBlock) Armed() bool {
	return !b.Days.Empty() && len(b.Handles) == b.Days.Len()
}

// ShortID returns the first 8 characters of the ID for display.
func (b *TimeBlock) ShortID() string {
	if len(b.ID) > 8 {
		return b.ID[:8]
	}
	return b.ID
}

// Clone returns a deep copy.
func (b *TimeBlock) Clone() *TimeBlock {
	c := *b
	c.Handles = append([]Handle(nil), b.Handles...)
	return &c
}
