// Package model defines the domain models for timeblock.
package model

// Model is the interface that all database models must implement.
type Model interface {
	// SetKey sets the database key for this model.
	SetKey(key string)
	// GetKey returns the database key for this model.
	GetKey() string
}

// Storage keys. KeyTimeBlocks is owned by the block store, KeyTheme by the
// theme manager; nothing else writes them.
const (
	KeyTimeBlocks = "time_blocks"
	KeyTheme      = "app_theme"
	KeyPermission = "notify_permission"
	PrefixTrigger = "trigger"
)
