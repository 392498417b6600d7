package theme

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles derived from a palette.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Time     lipgloss.Style
	Days     lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Selected lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Card     lipgloss.Style
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	Swatch   lipgloss.Style
}

// Styles builds the style set for p.
func (p Palette) Styles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.TextMuted),
		Label: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text),
		Time: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Active),
		Days: lipgloss.NewStyle().
			Foreground(p.TextMuted),
		Muted: lipgloss.NewStyle().
			Foreground(p.TextMuted),
		Accent: lipgloss.NewStyle().
			Foreground(p.Accent),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text).
			Background(p.Card),
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Error: lipgloss.NewStyle().
			Foreground(ColorError),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.BackgroundLight).
			Padding(1, 2).
			MarginBottom(1),
		Help: lipgloss.NewStyle().
			Foreground(p.TextMuted).
			MarginTop(1),
		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent),
		Swatch: lipgloss.NewStyle().
			Background(p.Accent).
			Foreground(p.Text).
			Padding(0, 1),
	}
}
