// Package theme holds the color palettes for terminal output and the
// persisted choice of palette. The block engine never imports it.
package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/timeblock/internal/errors"
)

// Default is the palette used until the user picks one.
const Default = "gray"

// Status colors shared by every palette.
var (
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Yellow
	ColorError   = lipgloss.Color("#EF4444") // Red
)

// Palette is a named set of colors.
type Palette struct {
	Key             string
	Name            string
	BackgroundDark  lipgloss.Color
	BackgroundLight lipgloss.Color
	Accent          lipgloss.Color
	Card            lipgloss.Color
	Text            lipgloss.Color
	TextMuted       lipgloss.Color
	Active          lipgloss.Color
}

// palettes in display order.
var palettes = []Palette{
	{
		Key:             "gray",
		Name:            "Gray",
		BackgroundDark:  "#0e0e0e",
		BackgroundLight: "#4A4A4A",
		Accent:          "#594d9e",
		Card:            "#303030",
		Text:            "#E8E8E8",
		TextMuted:       "#A0A0A0",
		Active:          "#5851b4",
	},
	{
		Key:             "purple",
		Name:            "Purple",
		BackgroundDark:  "#1A0B2E",
		BackgroundLight: "#3A2B69",
		Accent:          "#7B42F6",
		Card:            "#2A1D52",
		Text:            "#FFFFFF",
		TextMuted:       "#B8B5CC",
		Active:          "#FF4D8D",
	},
	{
		Key:             "blue",
		Name:            "Blue",
		BackgroundDark:  "#0F1A2E",
		BackgroundLight: "#1E3A5F",
		Accent:          "#3B82F6",
		Card:            "#1E293B",
		Text:            "#F1F5F9",
		TextMuted:       "#94A3B8",
		Active:          "#60A5FA",
	},
	{
		Key:             "velvet",
		Name:            "Velvet",
		BackgroundDark:  "#22192e",
		BackgroundLight: "#3f2e4e",
		Accent:          "#51419a",
		Card:            "#392e4e",
		Text:            "#FFFFFF",
		TextMuted:       "#b3b3b3",
		Active:          "#d471cc",
	},
}

// Names returns the palette keys in display order.
func Names() []string {
	names := make([]string, len(palettes))
	for i, p := range palettes {
		names[i] = p.Key
	}
	return names
}

// All returns every palette in display order.
func All() []Palette {
	return append([]Palette(nil), palettes...)
}

// Valid reports whether name is a known palette key.
func Valid(name string) bool {
	_, ok := lookup(name)
	return ok
}

// Get returns the palette for name.
func Get(name string) (Palette, error) {
	if p, ok := lookup(name); ok {
		return p, nil
	}
	return Palette{}, &errors.UserError{
		Message: "unknown theme",
		Field:   "theme",
		Value:   name,
		Cause:   errors.ErrInvalidTheme,
	}
}

// MustGet is Get for keys known at compile time.
func MustGet(name string) Palette {
	p, err := Get(name)
	if err != nil {
		panic(fmt.Sprintf("theme: %v", err))
	}
	return p
}

// Next returns the key after name, wrapping around. Unknown names map to
// the first palette.
func Next(name string) string {
	for i, p := range palettes {
		if p.Key == name {
			return palettes[(i+1)%len(palettes)].Key
		}
	}
	return palettes[0].Key
}

func lookup(name string) (Palette, bool) {
	for _, p := range palettes {
		if p.Key == name {
			return p, true
		}
	}
	return Palette{}, false
}
