package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/timeblock/internal/export"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/theme"
)

// wed10 is Wednesday 2026-06-03 10:00 local.
var wed10 = time.Date(2026, 6, 3, 10, 0, 0, 0, time.Local)

func standup() *model.TimeBlock {
	return &model.TimeBlock{
		ID:      "0f8fad5b-d9cb-469f-a165-70867728950e",
		Label:   "Stand-up",
		Time:    model.TimeOfDay{Hour: 9, Minute: 30},
		Days:    model.NewWeekdaySet(model.Monday, model.Wednesday),
		Handles: []model.Handle{"h1", "h2"},
	}
}

func newCLI(buf *bytes.Buffer) *CLIFormatter {
	return NewCLIFormatter(&Formatter{Writer: buf, ColorMode: ColorNever}, theme.MustGet(theme.Default))
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestNewFormatter(t *testing.T) {
	f := NewFormatter()
	assert.NotNil(t, f)
	assert.Equal(t, FormatCLI, f.Format)
	assert.Equal(t, ColorAuto, f.ColorMode)
	assert.False(t, f.IsJSON())
}

func TestFormatterIsColorEnabled(t *testing.T) {
	t.Run("color_always", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorAlways}
		assert.True(t, f.IsColorEnabled())
	})

	t.Run("color_never", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorNever}
		assert.False(t, f.IsColorEnabled())
	})

	t.Run("plain_format", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorAlways, Format: FormatPlain}
		assert.False(t, f.IsColorEnabled())
	})

	t.Run("color_auto_non_terminal", func(t *testing.T) {
		var buf bytes.Buffer
		f := &Formatter{Writer: &buf, ColorMode: ColorAuto}
		assert.False(t, f.IsColorEnabled())
	})
}

func TestFormatterPrint(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	f.Print("hello")
	f.Println(" world")
	f.Printf("%d", 42)
	assert.Equal(t, "hello world\n42", buf.String())
}

func TestFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	require.NoError(t, f.JSON(map[string]string{"key": "value"}))
	assert.Contains(t, buf.String(), `"key": "value"`)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{12 * time.Minute, "12m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{24 * time.Hour, "1d"},
		{3*24*time.Hour + 4*time.Hour + 10*time.Minute, "3d 4h"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.d))
		})
	}
}

func TestFormatWhen(t *testing.T) {
	assert.Equal(t, "Wed 10:00", FormatWhen(wed10))
}

// =============================================================================
// CLI Formatter Tests
// =============================================================================

func TestBlockSchedule(t *testing.T) {
	assert.Equal(t, "09:30 • Mon, Wed", BlockSchedule(standup()))
}

func TestPrintBlocksEmpty(t *testing.T) {
	var buf bytes.Buffer
	newCLI(&buf).PrintBlocks(nil, wed10)

	assert.Contains(t, buf.String(), TitleBlocks)
	assert.Contains(t, buf.String(), "No time blocks scheduled yet")
}

func TestPrintBlocks(t *testing.T) {
	var buf bytes.Buffer
	unnamed := &model.TimeBlock{ID: "abc", Time: model.TimeOfDay{Hour: 18}, Days: model.NewWeekdaySet(model.Wednesday)}
	newCLI(&buf).PrintBlocks([]*model.TimeBlock{standup(), unnamed}, wed10)

	out := buf.String()
	assert.Contains(t, out, "Stand-up  0f8fad5b")
	assert.Contains(t, out, "09:30 • Mon, Wed")
	assert.Contains(t, out, "next Mon 09:30 (in 4d 23h)")
	assert.Contains(t, out, "Unnamed Block")
	assert.Contains(t, out, "next Wed 18:00 (in 8h)")
	assert.Contains(t, out, "reminders not armed", "unnamed block has no handles")
}

func TestCLIMessages(t *testing.T) {
	var buf bytes.Buffer
	c := newCLI(&buf)
	c.Success("saved")
	c.Warning("careful")
	c.Error("failed")
	c.Muted("quiet")

	assert.Equal(t, "✓ saved\n⚠ careful\n✗ failed\nquiet\n", buf.String())
}

func TestPrintAgenda(t *testing.T) {
	var buf bytes.Buffer
	entries, err := export.Upcoming([]*model.TimeBlock{standup()}, wed10, wed10.AddDate(0, 0, 7))
	require.NoError(t, err)

	newCLI(&buf).PrintAgenda(entries)
	out := buf.String()
	assert.Contains(t, out, "Monday, Jun 8")
	assert.Contains(t, out, "Wednesday, Jun 10")
	assert.Contains(t, out, "09:30  Stand-up")

	buf.Reset()
	newCLI(&buf).PrintAgenda(nil)
	assert.Contains(t, buf.String(), EmptyAgenda)
}

func TestPrintThemes(t *testing.T) {
	var buf bytes.Buffer
	newCLI(&buf).PrintThemes(theme.All(), "blue")

	out := buf.String()
	assert.Contains(t, out, "* blue")
	assert.Contains(t, out, "  gray")
	assert.Contains(t, out, "#3B82F6")
}

func TestPrintTriggers(t *testing.T) {
	var buf bytes.Buffer
	triggers := []*model.Trigger{{
		Handle:  "3f2b6c1e-aaaa-bbbb-cccc-000000000000",
		FireAt:  wed10.Add(90 * time.Minute),
		Content: model.Content{Title: "Time Block", Body: "Stand-up", Repeat: model.RepeatWeekly},
	}}
	newCLI(&buf).PrintTriggers(triggers, wed10)

	out := buf.String()
	assert.Contains(t, out, "HANDLE")
	assert.Contains(t, out, "3f2b6c1e")
	assert.Contains(t, out, "Wed 11:30")
	assert.Contains(t, out, "in 1h 30m")

	buf.Reset()
	newCLI(&buf).PrintTriggers(nil, wed10)
	assert.Contains(t, buf.String(), EmptyPending)
}

func TestPrintTableSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	newCLI(&buf).PrintTable([]string{"A"}, nil)
	assert.Empty(t, buf.String())
}

// =============================================================================
// JSON Formatter Tests
// =============================================================================

func TestJSONPrintBlocks(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf, Format: FormatJSON})

	require.NoError(t, j.PrintBlocks([]*model.TimeBlock{standup()}, wed10))

	var resp BlocksResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Blocks, 1)
	assert.Equal(t, 1, resp.Count)

	b := resp.Blocks[0]
	assert.Equal(t, "Stand-up", b.Display)
	assert.Equal(t, "09:30", b.Time)
	assert.Equal(t, []string{"Mon", "Wed"}, b.Days)
	assert.Equal(t, []string{"h1", "h2"}, b.Handles)
	assert.True(t, b.Armed)
	assert.Equal(t, time.Date(2026, 6, 8, 9, 30, 0, 0, time.Local).Format(time.RFC3339), b.Next)
}

func TestJSONPrintBlockWarning(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintBlock("created", standup(), wed10, "not saved"))

	var resp BlockResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "created", resp.Status)
	assert.Equal(t, "not saved", resp.Warning)
}

func TestJSONPrintAgendaEmpty(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintAgenda(nil, wed10, wed10.Add(time.Hour)))
	assert.Contains(t, buf.String(), `"entries": []`)
}

func TestJSONPrintThemesAndError(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintThemes(theme.All(), "velvet"))
	var themes []ThemeOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &themes))
	require.Len(t, themes, 4)
	assert.True(t, themes[3].Current)
	assert.Equal(t, "velvet", themes[3].Key)

	buf.Reset()
	require.NoError(t, j.PrintError("unknown theme", "user", "Use 'timeblock theme list'"))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "user", resp.Category)
}

func TestJSONPrintTriggers(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintTriggers([]*model.Trigger{{Handle: "h", FireAt: wed10, FireCount: 2}}))
	var out []TriggerOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].FireCount)
}
