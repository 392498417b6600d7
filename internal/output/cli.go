package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/timeblock/internal/export"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/scheduler"
	"github.com/manav03panchal/timeblock/internal/theme"
)

// Empty-state and heading text.
const (
	TitleBlocks  = "My blocks"
	EmptyBlocks  = "No time blocks scheduled yet"
	EmptyAgenda  = "Nothing coming up."
	EmptyPending = "No pending notifications."
)

// CLIFormatter provides CLI-specific formatting in the colors of a palette.
type CLIFormatter struct {
	*Formatter
	palette theme.Palette
	styles  theme.Styles
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter, p theme.Palette) *CLIFormatter {
	return &CLIFormatter{Formatter: f, palette: p, styles: p.Styles()}
}

func (c *CLIFormatter) render(s lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return s.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(c.styles.Title, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(c.styles.Success, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(c.styles.Warning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(c.styles.Error, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(c.styles.Muted, text))
}

// BlockSchedule returns "HH:MM • Mon, Wed" for b.
func BlockSchedule(b *model.TimeBlock) string {
	return fmt.Sprintf("%s • %s", b.Time, b.Days)
}

// scheduleLine renders the schedule with the time emphasized.
func (c *CLIFormatter) scheduleLine(b *model.TimeBlock) string {
	return c.render(c.styles.Time, b.Time.String()) + " • " + c.render(c.styles.Days, b.Days.String())
}

// PrintBlock prints one block with its next occurrence.
func (c *CLIFormatter) PrintBlock(b *model.TimeBlock, now time.Time) {
	c.Printf("%s  %s\n", c.render(c.styles.Label, b.DisplayLabel()), c.render(c.styles.Muted, b.ShortID()))
	c.Printf("  %s\n", c.scheduleLine(b))
	if next, ok := scheduler.NextForBlock(now, b); ok {
		c.Printf("  %s\n", c.render(c.styles.Muted,
			fmt.Sprintf("next %s (in %s)", FormatWhen(next), FormatDuration(next.Sub(now)))))
	}
	if !b.Armed() {
		c.Printf("  %s\n", c.render(c.styles.Warning, "reminders not armed"))
	}
}

// PrintBlocks prints the block listing or the empty state.
func (c *CLIFormatter) PrintBlocks(blocks []*model.TimeBlock, now time.Time) {
	c.Title(TitleBlocks)
	if len(blocks) == 0 {
		c.Muted(EmptyBlocks)
		return
	}
	for i, b := range blocks {
		if i > 0 {
			c.Println()
		}
		c.PrintBlock(b, now)
	}
}

// PrintAgenda prints upcoming occurrences grouped by day.
func (c *CLIFormatter) PrintAgenda(entries []export.Entry) {
	if len(entries) == 0 {
		c.Muted(EmptyAgenda)
		return
	}
	var day string
	for _, e := range entries {
		if d := e.At.Format("Monday, Jan 2"); d != day {
			if day != "" {
				c.Println()
			}
			day = d
			c.Title(d)
		}
		c.Printf("  %s  %s\n", c.render(c.styles.Time, e.At.Format("15:04")), e.Label)
	}
}

// PrintThemes lists the palettes and marks the current one.
func (c *CLIFormatter) PrintThemes(palettes []theme.Palette, current string) {
	for _, p := range palettes {
		marker := "  "
		if p.Key == current {
			marker = "* "
		}
		swatch := p.Styles().Swatch.Render(string(p.Accent))
		if !c.IsColorEnabled() {
			swatch = string(p.Accent)
		}
		c.Printf("%s%-8s %-8s %s\n", marker, p.Key, p.Name, swatch)
	}
}

// PrintTriggers lists pending notifications.
func (c *CLIFormatter) PrintTriggers(triggers []*model.Trigger, now time.Time) {
	if len(triggers) == 0 {
		c.Muted(EmptyPending)
		return
	}
	rows := make([]TableRow, len(triggers))
	for i, t := range triggers {
		rows[i] = TableRow{Columns: []string{
			shortHandle(t.Handle),
			FormatWhen(t.FireAt),
			"in " + FormatDuration(t.FireAt.Sub(now)),
			t.Content.Body,
		}}
	}
	c.PrintTable([]string{"HANDLE", "NEXT", "DUE", "BODY"}, rows)
}

func shortHandle(h model.Handle) string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// TableRow is one row of PrintTable.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && len(col) > widths[i] {
				widths[i] = len(col)
			}
		}
	}

	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(fmt.Sprintf("%-*s  ", widths[i], h))
	}
	c.Println(c.render(c.styles.Label, strings.TrimRight(headerLine.String(), " ")))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var rowLine strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				rowLine.WriteString(fmt.Sprintf("%-*s  ", widths[i], col))
			}
		}
		c.Println(strings.TrimRight(rowLine.String(), " "))
	}
}
