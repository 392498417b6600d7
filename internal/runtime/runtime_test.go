package runtime

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/timeblock/internal/config"
	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/output"
)

func memOptions() Options {
	return Options{
		Config:   config.DefaultConfig(),
		InMemory: true,
		Format:   output.FormatCLI,
		Logger:   logging.Discard(),
	}
}

// =============================================================================
// Context Tests
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.NotEmpty(t, opts.ConfigPath)
	assert.False(t, opts.InMemory)
	assert.Equal(t, output.FormatCLI, opts.Format)
	assert.Equal(t, output.ColorAuto, opts.ColorMode)
}

func TestNewInMemory(t *testing.T) {
	c, err := New(memOptions())
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.DB)
	assert.NotNil(t, c.Storage)
	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.Themes)
	assert.True(t, c.Granted, "first request grants permission")
	assert.Equal(t, 0, c.Store.Len())
	assert.Equal(t, "gray", c.Themes.Current().Key)
}

func TestNewArmsThroughLocalGateway(t *testing.T) {
	c, err := New(memOptions())
	require.NoError(t, err)
	defer c.Close()

	block, err := c.Store.Create(context.Background(), "Stand-up",
		model.TimeOfDay{Hour: 9, Minute: 30},
		model.NewWeekdaySet(model.Monday, model.Wednesday))
	require.NoError(t, err)
	assert.Len(t, block.Handles, 2)

	triggers, err := c.Notifier.Pending(nil)
	require.NoError(t, err)
	require.Len(t, triggers, 2)
	assert.Equal(t, "Time Block", triggers[0].Content.Title)
	assert.Equal(t, "Stand-up", triggers[0].Content.Body)
}

func TestNewNotificationsDisabled(t *testing.T) {
	opts := memOptions()
	opts.Config.Notifications.Enabled = false

	c, err := New(opts)
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.Granted)
	_, err = c.Store.Create(context.Background(), "", model.TimeOfDay{Hour: 8}, model.EveryDay)
	assert.True(t, errors.IsPermissionError(err))
}

func TestNewFileBackendPersists(t *testing.T) {
	dir := t.TempDir()
	newConfig := func() *config.Config {
		cfg := config.DefaultConfig()
		cfg.Storage.Backend = config.BackendFile
		cfg.Storage.DataDir = dir
		return cfg
	}

	c, err := New(Options{Config: newConfig(), Logger: logging.Discard()})
	require.NoError(t, err)
	created, err := c.Store.Create(context.Background(), "Gym",
		model.TimeOfDay{Hour: 18}, model.NewWeekdaySet(model.Tuesday))
	require.NoError(t, err)
	_, err = c.Themes.Set(context.Background(), "velvet")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	assert.FileExists(t, filepath.Join(dir, BlocksDirName, model.KeyTimeBlocks+".json"))

	c, err = New(Options{Config: newConfig(), Logger: logging.Discard()})
	require.NoError(t, err)
	defer c.Close()

	blocks := c.Store.List()
	require.Len(t, blocks, 1)
	assert.Equal(t, created.ID, blocks[0].ID)
	assert.Equal(t, created.Handles, blocks[0].Handles)
	assert.Equal(t, "velvet", c.Themes.Current().Key)
}

func TestNewSQLiteBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.BackendSQLite
	cfg.Storage.DataDir = t.TempDir()

	c, err := New(Options{Config: cfg, Logger: logging.Discard()})
	require.NoError(t, err)

	_, err = c.Store.Create(context.Background(), "Read", model.TimeOfDay{Hour: 21}, model.Weekend)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	assert.FileExists(t, filepath.Join(cfg.Storage.DataDir, SQLiteFileName))

	c, err = New(Options{Config: cfg, Logger: logging.Discard()})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 1, c.Store.Len())
}

func TestSetGranted(t *testing.T) {
	c, err := New(memOptions())
	require.NoError(t, err)
	defer c.Close()

	c.SetGranted(false)
	assert.False(t, c.Granted)
	assert.False(t, c.Reminders.Granted())
}

func TestDeliverer(t *testing.T) {
	opts := memOptions()
	opts.Config.Notifications.Webhooks = []model.Webhook{{Name: "ops", URL: "https://example.com/hook", Enabled: true}}

	c, err := New(opts)
	require.NoError(t, err)
	defer c.Close()

	var buf bytes.Buffer
	d, err := c.Deliverer(&buf)
	require.NoError(t, err)

	names := make([]string, 0, len(d.Channels()))
	for _, ch := range d.Channels() {
		names = append(names, ch.Name())
	}
	assert.Equal(t, []string{"log", "terminal", "webhooks"}, names)
}

func TestContextFormatters(t *testing.T) {
	opts := memOptions()
	opts.Format = output.FormatJSON

	c, err := New(opts)
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, c.IsJSON())
	assert.NotNil(t, c.JSONFormatter())
	assert.NotNil(t, c.CLIFormatter())
}

func TestCloseTwice(t *testing.T) {
	c, err := New(memOptions())
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

// =============================================================================
// Error Presentation Tests
// =============================================================================

func TestFormatError(t *testing.T) {
	err := errors.NewValidationError("days", errors.ErrNoDays)
	msg := FormatError(err)
	assert.Contains(t, msg, "weekday")
	assert.Contains(t, msg, "--days")

	assert.Equal(t, "boom", FormatError(fmt.Errorf("boom")))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", fmt.Errorf("boom"), ExitError},
		{"validation", errors.NewValidationError("time", errors.ErrInvalidTime), ExitUsage},
		{"not found", &errors.NotFoundError{ID: "abc"}, ExitUsage},
		{"permission", &errors.PermissionError{}, ExitPermission},
		{"storage", errors.NewStorageError("persist", fmt.Errorf("disk")), ExitStorage},
		{"scheduling", &errors.SchedulingError{Op: "Mon", Cause: fmt.Errorf("down")}, ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestPrintErrorText(t *testing.T) {
	var stderr bytes.Buffer
	PrintError(output.NewFormatter(), &stderr, &errors.NotFoundError{ID: "abc"})
	assert.Contains(t, stderr.String(), "Error: ")
	assert.Contains(t, stderr.String(), "timeblock blocks")
}

func TestPrintErrorJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := output.NewFormatter()
	f.Writer = &stdout
	f.Format = output.FormatJSON

	PrintError(f, &stderr, &errors.PermissionError{})
	assert.Empty(t, stderr.String())
	assert.Contains(t, stdout.String(), `"category": "permission"`)
	assert.Contains(t, stdout.String(), `"status": "error"`)
}

func TestIsDiskFullError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrDiskFull, true},
		{"wrapped sentinel", fmt.Errorf("write: %w", ErrDiskFull), true},
		{"enospc", syscall.ENOSPC, true},
		{"wrapped enospc", fmt.Errorf("sync: %w", syscall.ENOSPC), true},
		{"message", fmt.Errorf("write /data: no space left on device"), true},
		{"other errno", syscall.EACCES, false},
		{"other", fmt.Errorf("permission denied"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDiskFullError(tt.err))
		})
	}
}

func TestSuggestionDiskFull(t *testing.T) {
	err := errors.NewStorageError("persist", syscall.ENOSPC)
	assert.Contains(t, Suggestion(err), "disk space")
}
