package output

import (
	"time"

	"github.com/manav03panchal/timeblock/internal/export"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/scheduler"
	"github.com/manav03panchal/timeblock/internal/theme"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// BlockOutput represents a block in JSON output.
type BlockOutput struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Display  string   `json:"display"`
	Time     string   `json:"time"`
	Days     []string `json:"days"`
	Schedule string   `json:"schedule"`
	Handles  []string `json:"handles"`
	Armed    bool     `json:"armed"`
	Next     string   `json:"next,omitempty"`
}

// NewBlockOutput creates a BlockOutput from a block.
func NewBlockOutput(b *model.TimeBlock, now time.Time) *BlockOutput {
	handles := make([]string, len(b.Handles))
	for i, h := range b.Handles {
		handles[i] = string(h)
	}
	out := &BlockOutput{
		ID:       b.ID,
		Label:    b.Label,
		Display:  b.DisplayLabel(),
		Time:     b.Time.String(),
		Days:     b.Days.Codes(),
		Schedule: BlockSchedule(b),
		Handles:  handles,
		Armed:    b.Armed(),
	}
	if next, ok := scheduler.NextForBlock(now, b); ok {
		out.Next = next.Format(time.RFC3339)
	}
	return out
}

// BlockResponse is the output of commands acting on one block.
type BlockResponse struct {
	Status string       `json:"status"`
	Block  *BlockOutput `json:"block"`
	// Warning is set when the change happened but was not saved.
	Warning string `json:"warning,omitempty"`
}

// BlocksResponse represents the blocks list output in JSON.
type BlocksResponse struct {
	Blocks []*BlockOutput `json:"blocks"`
	Count  int            `json:"count"`
}

// NewBlocksResponse creates a BlocksResponse from blocks.
func NewBlocksResponse(blocks []*model.TimeBlock, now time.Time) *BlocksResponse {
	outputs := make([]*BlockOutput, len(blocks))
	for i, b := range blocks {
		outputs[i] = NewBlockOutput(b, now)
	}
	return &BlocksResponse{Blocks: outputs, Count: len(blocks)}
}

// AgendaResponse lists upcoming occurrences.
type AgendaResponse struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Entries []export.Entry `json:"entries"`
}

// ThemeOutput represents a palette in JSON output.
type ThemeOutput struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Accent  string `json:"accent"`
	Active  string `json:"active"`
	Current bool   `json:"current"`
}

// NewThemeOutput creates a ThemeOutput from a palette.
func NewThemeOutput(p theme.Palette, current string) ThemeOutput {
	return ThemeOutput{
		Key:     p.Key,
		Name:    p.Name,
		Accent:  string(p.Accent),
		Active:  string(p.Active),
		Current: p.Key == current,
	}
}

// TriggerOutput represents a pending notification.
type TriggerOutput struct {
	Handle    string `json:"handle"`
	FireAt    string `json:"fire_at"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Repeat    string `json:"repeat,omitempty"`
	FireCount int    `json:"fire_count"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	Category   string `json:"category,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PrintBlock outputs a single block result.
func (j *JSONFormatter) PrintBlock(status string, b *model.TimeBlock, now time.Time, warning string) error {
	return j.JSON(BlockResponse{Status: status, Block: NewBlockOutput(b, now), Warning: warning})
}

// PrintBlocks outputs blocks in JSON format.
func (j *JSONFormatter) PrintBlocks(blocks []*model.TimeBlock, now time.Time) error {
	return j.JSON(NewBlocksResponse(blocks, now))
}

// PrintAgenda outputs upcoming occurrences.
func (j *JSONFormatter) PrintAgenda(entries []export.Entry, from, to time.Time) error {
	if entries == nil {
		entries = []export.Entry{}
	}
	return j.JSON(AgendaResponse{
		From:    from.Format(time.RFC3339),
		To:      to.Format(time.RFC3339),
		Entries: entries,
	})
}

// PrintThemes outputs the palettes.
func (j *JSONFormatter) PrintThemes(palettes []theme.Palette, current string) error {
	out := make([]ThemeOutput, len(palettes))
	for i, p := range palettes {
		out[i] = NewThemeOutput(p, current)
	}
	return j.JSON(out)
}

// PrintTriggers outputs pending notifications.
func (j *JSONFormatter) PrintTriggers(triggers []*model.Trigger) error {
	out := make([]TriggerOutput, len(triggers))
	for i, t := range triggers {
		out[i] = TriggerOutput{
			Handle:    string(t.Handle),
			FireAt:    t.FireAt.Format(time.RFC3339),
			Title:     t.Content.Title,
			Body:      t.Content.Body,
			Repeat:    string(t.Content.Repeat),
			FireCount: t.FireCount,
		}
	}
	return j.JSON(out)
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(errMsg, category, suggestion string) error {
	return j.JSON(ErrorResponse{
		Status:     "error",
		Error:      errMsg,
		Category:   category,
		Suggestion: suggestion,
	})
}
