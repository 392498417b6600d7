package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/output"
	"github.com/manav03panchal/timeblock/internal/scheduler"
	"github.com/manav03panchal/timeblock/internal/theme"
)

// NextComponent shows the soonest upcoming reminder across all blocks.
type NextComponent struct {
	Blocks  []*model.TimeBlock
	Now     time.Time
	Palette theme.Palette
	Width   int
}

// Soonest returns the block that fires first after Now and when.
func (nc *NextComponent) Soonest() (*model.TimeBlock, time.Time, bool) {
	var (
		best   *model.TimeBlock
		bestAt time.Time
	)
	for _, b := range nc.Blocks {
		at, ok := scheduler.NextForBlock(nc.Now, b)
		if !ok {
			continue
		}
		if best == nil || at.Before(bestAt) {
			best, bestAt = b, at
		}
	}
	return best, bestAt, best != nil
}

// View renders the component.
func (nc *NextComponent) View() string {
	s := nc.Palette.Styles()
	box := s.Card
	if nc.Width > 4 {
		box = box.Width(nc.Width - 4)
	}

	b, at, ok := nc.Soonest()
	if !ok {
		return box.Render(s.Muted.Render("Nothing scheduled"))
	}

	var content strings.Builder
	content.WriteString(s.Subtitle.Render("Up next"))
	content.WriteString("\n")
	content.WriteString(s.Label.Render(b.DisplayLabel()))
	content.WriteString("\n")
	content.WriteString(s.Time.Render(output.FormatWhen(at)))
	content.WriteString(s.Muted.Render(fmt.Sprintf("  in %s", output.FormatDuration(at.Sub(nc.Now)))))
	return box.Render(content.String())
}

// BlockListComponent renders the blocks as cards.
type BlockListComponent struct {
	Blocks   []*model.TimeBlock
	Selected int
	Now      time.Time
	Palette  theme.Palette
	Width    int
}

// View renders the component.
func (bc *BlockListComponent) View() string {
	s := bc.Palette.Styles()

	var content strings.Builder
	content.WriteString(s.Title.Render(output.TitleBlocks))
	content.WriteString("\n")

	if len(bc.Blocks) == 0 {
		content.WriteString(s.Muted.Render(output.EmptyBlocks))
		return content.String()
	}

	today := model.WeekdayOf(bc.Now)
	for i, b := range bc.Blocks {
		var card strings.Builder
		card.WriteString(s.Label.Render(b.DisplayLabel()))
		card.WriteString("\n")
		card.WriteString(s.Time.Render(b.Time.String()))
		card.WriteString(s.Muted.Render(" • "))
		card.WriteString(s.Days.Render(b.Days.String()))
		card.WriteString("\n")
		card.WriteString(WeekStrip(b.Days, today, s))
		if !b.Armed() {
			card.WriteString("  ")
			card.WriteString(s.Warning.Render("not armed"))
		}
		content.WriteString(cardStyle(bc.Palette, i == bc.Selected, bc.Width).Render(card.String()))
		content.WriteString("\n")
	}
	return strings.TrimRight(content.String(), "\n")
}

// HelpBar renders the key help line.
func HelpBar(s theme.Styles, confirming bool) string {
	keys := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "move"},
		{"d", "delete"},
		{"t", "theme"},
		{"r", "reload"},
		{"q", "quit"},
	}
	if confirming {
		keys = []struct {
			key  string
			desc string
		}{
			{"y", "confirm delete"},
			{"any key", "cancel"},
		}
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, s.HelpKey.Render(k.key)+" "+s.Muted.Render(k.desc))
	}
	return s.Help.Render(strings.Join(parts, "  •  "))
}
