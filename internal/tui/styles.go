// Package tui provides the terminal user interface for timeblock.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/theme"
)

// dayLetters label the week strip, Sunday first.
var dayLetters = [7]string{"S", "M", "T", "W", "T", "F", "S"}

// WeekStrip renders the seven days with the selected ones highlighted and
// today underlined.
func WeekStrip(days model.WeekdaySet, today model.Weekday, s theme.Styles) string {
	parts := make([]string, 0, 7)
	for d := model.Sunday; d <= model.Saturday; d++ {
		style := s.Muted
		if days.Has(d) {
			style = s.Time
		}
		if d == today {
			style = style.Underline(true)
		}
		parts = append(parts, style.Render(dayLetters[d]))
	}
	return strings.Join(parts, " ")
}

// cardStyle returns the block card style, highlighted when selected.
func cardStyle(p theme.Palette, selected bool, width int) lipgloss.Style {
	border := p.BackgroundLight
	if selected {
		border = p.Active
	}
	st := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	if width > 4 {
		st = st.Width(width - 4)
	}
	return st
}
