package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/timeblock/internal/config"
	"github.com/manav03panchal/timeblock/internal/daemon"
	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/output"
	"github.com/manav03panchal/timeblock/internal/runtime"
)

// Tuesday 2026-03-03 08:00 local time.
var testNow = time.Date(2026, time.March, 3, 8, 0, 0, 0, time.Local)

type cliEnv struct {
	t   *testing.T
	dir string
}

// setupCLI points the CLI at a temporary config file, file-backed block
// list and daemon state directory.
func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("TIMEBLOCK_CONFIG", filepath.Join(dir, "config.yaml"))
	t.Setenv("TIMEBLOCK_STORAGE_BACKEND", "file")
	t.Setenv("TIMEBLOCK_DATA_DIR", filepath.Join(dir, "data"))

	prevNow, prevPaths := now, daemonPaths
	now = func() time.Time { return testNow }
	daemonPaths = func() daemon.Paths { return daemon.Paths{StateDir: filepath.Join(dir, "state")} }
	t.Cleanup(func() {
		closeRuntime()
		now, daemonPaths = prevNow, prevPaths
	})

	return &cliEnv{t: t, dir: dir}
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI with args and returns stdout, stderr and the error.
func (e *cliEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)

	err := Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	stdout, stderr, err := e.run(args...)
	require.NoError(e.t, err, "stderr: %s", stderr)
	return stdout
}

func (e *cliEnv) addBlock(label, at, days string) *output.BlockOutput {
	e.t.Helper()
	out := e.mustRun("blocks", "add", label, "--at", at, "--days", days, "-f", "json")

	var resp output.BlockResponse
	require.NoError(e.t, json.Unmarshal([]byte(out), &resp), out)
	require.NotNil(e.t, resp.Block)
	return resp.Block
}

func (e *cliEnv) listBlocks() output.BlocksResponse {
	e.t.Helper()
	out := e.mustRun("blocks", "-f", "json")

	var resp output.BlocksResponse
	require.NoError(e.t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func (e *cliEnv) pendingCount() int {
	e.t.Helper()
	out := e.mustRun("notifications", "pending", "-f", "json")

	var triggers []output.TriggerOutput
	require.NoError(e.t, json.Unmarshal([]byte(out), &triggers), out)
	return len(triggers)
}

func TestVersionDoesNotOpenStorage(t *testing.T) {
	e := setupCLI(t)

	out := e.mustRun("version")
	assert.Contains(t, out, "timeblock dev")
	assert.NoDirExists(t, filepath.Join(e.dir, "data"))
}

func TestBlocksAddListShowRemove(t *testing.T) {
	e := setupCLI(t)

	b := e.addBlock("Stand-up", "09:30", "mon,wed")
	assert.Equal(t, "Stand-up", b.Label)
	assert.Equal(t, "09:30", b.Time)
	assert.Equal(t, []string{"Mon", "Wed"}, b.Days)
	assert.Len(t, b.Handles, 2)
	assert.True(t, b.Armed)
	assert.Equal(t, "2026-03-04T09:30:00", b.Next[:19])

	list := e.listBlocks()
	require.Equal(t, 1, list.Count)
	assert.Equal(t, b.ID, list.Blocks[0].ID)
	assert.Equal(t, 2, e.pendingCount())

	out := e.mustRun("blocks", "show", b.ID[:8])
	assert.Contains(t, out, "Stand-up")

	e.mustRun("blocks", "rm", b.ID, "--force")
	assert.Equal(t, 0, e.listBlocks().Count)
	assert.Equal(t, 0, e.pendingCount())
}

func TestBlocksAddWithoutLabelUsesDefault(t *testing.T) {
	e := setupCLI(t)

	b := e.addBlock("", "07:00", "weekdays")
	assert.Equal(t, "", b.Label)
	assert.Equal(t, "Reminder!", b.Display)
	assert.Equal(t, "07:00", b.Time)
	assert.Len(t, b.Handles, 5)
}

func TestBlocksAddRejectsEmptyDays(t *testing.T) {
	e := setupCLI(t)

	_, stderr, err := e.run("blocks", "add", "Gym", "--at", "18:00")
	require.Error(t, err)
	assert.Equal(t, runtime.ExitUsage, ExitCode(err))
	assert.Contains(t, stderr, "Error:")
	assert.Equal(t, 0, e.listBlocks().Count)
}

func TestBlocksAddRejectsBadTime(t *testing.T) {
	e := setupCLI(t)

	_, _, err := e.run("blocks", "add", "Gym", "--at", "not-a-time", "--days", "mon")
	require.Error(t, err)
	assert.Equal(t, runtime.ExitUsage, ExitCode(err))
}

func TestBlocksEditReplacesBlock(t *testing.T) {
	e := setupCLI(t)
	b := e.addBlock("Read", "21:00", "daily")

	out := e.mustRun("blocks", "edit", b.ID, "--at", "22:15", "-f", "json")
	var resp output.BlockResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, "updated", resp.Status)
	assert.NotEqual(t, b.ID, resp.Block.ID)
	assert.Equal(t, "Read", resp.Block.Label)
	assert.Equal(t, "22:15", resp.Block.Time)
	assert.Len(t, resp.Block.Days, 7)

	list := e.listBlocks()
	require.Equal(t, 1, list.Count)
	assert.Equal(t, resp.Block.ID, list.Blocks[0].ID)
	assert.Equal(t, 7, e.pendingCount())
}

func TestBlocksShowUnknown(t *testing.T) {
	e := setupCLI(t)

	stdout, _, err := e.run("blocks", "show", "nope", "-f", "json")
	require.Error(t, err)
	assert.Equal(t, runtime.ExitUsage, ExitCode(err))

	var resp output.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "not_found", resp.Category)
}

func TestNotificationsDenyBlocksNewReminders(t *testing.T) {
	e := setupCLI(t)

	e.mustRun("notifications", "deny")
	_, _, err := e.run("blocks", "add", "Gym", "--at", "18:00", "--days", "mon")
	require.Error(t, err)
	assert.Equal(t, runtime.ExitPermission, ExitCode(err))
	assert.Equal(t, 0, e.listBlocks().Count)

	e.mustRun("notifications", "allow")
	e.addBlock("Gym", "18:00", "mon")
	assert.Equal(t, 1, e.listBlocks().Count)
}

func TestNotificationsStatus(t *testing.T) {
	e := setupCLI(t)
	e.addBlock("Gym", "18:00", "mon,thu")

	out := e.mustRun("notifications", "status", "-f", "json")
	var status NotificationStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status), out)

	assert.True(t, status.Enabled)
	assert.True(t, status.Granted)
	assert.Equal(t, "granted", status.Permission)
	assert.Equal(t, 2, status.Pending)
	assert.Equal(t, []string{"log", "terminal"}, status.Channels)
}

func TestNotificationsTestWritesToTerminal(t *testing.T) {
	e := setupCLI(t)

	out := e.mustRun("notifications", "test")
	assert.Contains(t, out, "log: delivered")
	assert.Contains(t, out, "terminal: delivered")
	assert.Contains(t, out, "Time Block")
}

func TestAgenda(t *testing.T) {
	e := setupCLI(t)
	e.addBlock("Stand-up", "09:30", "weekdays")

	out := e.mustRun("agenda", "--days", "2", "-f", "json")
	var resp output.AgendaResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)

	// Tue 09:30 and Wed 09:30
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "Stand-up", resp.Entries[0].Label)
	assert.True(t, resp.Entries[0].At.Before(resp.Entries[1].At))

	_, _, err := e.run("agenda", "--days", "100")
	require.Error(t, err)
	assert.Equal(t, runtime.ExitUsage, ExitCode(err))
}

func TestExportImportRoundTrip(t *testing.T) {
	e := setupCLI(t)
	e.addBlock("Stand-up", "09:30", "weekdays")
	e.addBlock("Gym", "18:00", "tue,thu")

	backup := filepath.Join(e.dir, "backup.json")
	e.mustRun("export", "--as", "json", "-o", backup)
	require.FileExists(t, backup)

	// Everything already exists, so nothing is imported
	out := e.mustRun("import", backup, "-f", "json")
	var result ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Skipped)

	list := e.listBlocks()
	for _, b := range list.Blocks {
		e.mustRun("blocks", "rm", b.ID, "--force")
	}

	out = e.mustRun("import", backup, "-f", "json")
	result = ImportResult{}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, e.listBlocks().Count)
	assert.Equal(t, 7, e.pendingCount())
}

func TestExportCalendar(t *testing.T) {
	e := setupCLI(t)
	e.addBlock("Stand-up", "09:30", "mon,wed")

	out := e.mustRun("export")
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Stand-up")
	assert.Contains(t, out, "BYDAY=MO,WE")

	_, _, err := e.run("export", "--as", "xml")
	require.Error(t, err)
}

func TestThemeSetPersists(t *testing.T) {
	e := setupCLI(t)

	e.mustRun("theme", "set", "velvet")

	out := e.mustRun("theme", "-f", "json")
	var current output.ThemeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &current), out)
	assert.Equal(t, "velvet", current.Key)

	_, _, err := e.run("theme", "set", "nope")
	require.Error(t, err)
	assert.Equal(t, runtime.ExitUsage, ExitCode(err))
}

func TestThemeList(t *testing.T) {
	e := setupCLI(t)

	out := e.mustRun("theme", "list", "-f", "json")
	var themes []output.ThemeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &themes), out)
	require.NotEmpty(t, themes)

	var current int
	for _, th := range themes {
		if th.Current {
			current++
			assert.Equal(t, "gray", th.Key)
		}
	}
	assert.Equal(t, 1, current)
}

func TestConfigSetGet(t *testing.T) {
	e := setupCLI(t)

	e.mustRun("config", "set", "notifications.title", "Focus")
	assert.Equal(t, "Focus\n", e.mustRun("config", "get", "notifications.title"))

	cfg, err := config.Load(filepath.Join(e.dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Focus", cfg.Notifications.Title)

	e.mustRun("config", "set", "http.timeout", "5s")
	assert.Equal(t, "5s\n", e.mustRun("config", "get", "http.timeout"))
}

func TestConfigSetRejectsBadValues(t *testing.T) {
	e := setupCLI(t)

	tests := [][]string{
		{"config", "set", "storage.backend", "postgres"},
		{"config", "set", "daemon.check_interval", "whenever"},
		{"config", "set", "http.max_retries", "-1"},
		{"config", "set", "notifications.enabled", "maybe"},
		{"config", "set", "no.such.key", "1"},
	}
	for _, args := range tests {
		t.Run(args[3], func(t *testing.T) {
			_, _, err := e.run(args...)
			require.Error(t, err)
			assert.Equal(t, runtime.ExitUsage, ExitCode(err))
		})
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	e := setupCLI(t)
	t.Setenv("TIMEBLOCK_LINE_CHANNEL_SECRET", "very-secret")

	out := e.mustRun("config", "show")
	assert.Contains(t, out, "backend: file")
	assert.NotContains(t, out, "very-secret")
}

func TestWebhookLifecycle(t *testing.T) {
	e := setupCLI(t)

	var hits atomic.Int32
	var body atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body.Store(string(data))
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	e.mustRun("webhook", "add", "local", server.URL+"/hook")

	out := e.mustRun("webhook", "list", "-f", "json")
	assert.Contains(t, out, `"name": "local"`)
	assert.Contains(t, out, `"type": "generic"`)

	out = e.mustRun("webhook", "test", "local")
	assert.Contains(t, out, "local: delivered")
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, body.Load().(string), "Time Block")

	_, _, err := e.run("webhook", "add", "local", server.URL)
	require.Error(t, err, "duplicate name")

	e.mustRun("webhook", "disable", "local")
	_, _, err = e.run("webhook", "test", "--all")
	require.Error(t, err, "no enabled webhooks")

	e.mustRun("webhook", "enable", "local")
	e.mustRun("webhook", "test", "--all")
	assert.Equal(t, int32(2), hits.Load())

	e.mustRun("webhook", "remove", "local", "--force")
	out = e.mustRun("webhook", "list", "-f", "json")
	assert.Contains(t, out, `"count": 0`)
}

func TestWebhookAddValidates(t *testing.T) {
	e := setupCLI(t)

	_, _, err := e.run("webhook", "add", "bad name", "https://example.com/hook")
	require.Error(t, err)
	_, _, err = e.run("webhook", "add", "plain", "http://example.com/hook")
	require.Error(t, err)
	_, _, err = e.run("webhook", "add", "typed", "https://example.com/hook", "--type", "pager")
	require.Error(t, err)
}

func TestDaemonStatusWhenStopped(t *testing.T) {
	e := setupCLI(t)

	out := e.mustRun("daemon", "status", "-f", "json")
	var status daemon.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status), out)
	assert.False(t, status.Running)
	assert.Equal(t, filepath.Join(e.dir, "state", daemon.LogFileName), status.LogFile)

	out = e.mustRun("daemon", "stop")
	assert.Contains(t, out, "not running")
}

func TestDaemonLogsTail(t *testing.T) {
	e := setupCLI(t)

	out := e.mustRun("daemon", "logs")
	assert.Contains(t, out, "No log file found")

	path := daemonPaths().LogFile()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644))

	out = e.mustRun("daemon", "logs", "--tail", "2")
	assert.Equal(t, "two\nthree\n", out)
}

func TestCompleteDays(t *testing.T) {
	got, _ := completeDays(nil, nil, "we")
	assert.Equal(t, []string{"weekdays\tMonday to Friday", "weekends\tSaturday and Sunday", "wed"}, got)

	got, _ = completeDays(nil, nil, "mon,t")
	assert.Equal(t, []string{"mon,tue", "mon,thu"}, got)
}

func TestCompleteThemes(t *testing.T) {
	got, _ := completeThemes(nil, nil, "")
	assert.NotEmpty(t, got)
	assert.True(t, strings.HasPrefix(got[0], "gray\t"))
}

func TestReportDeletedStorageFailure(t *testing.T) {
	prev := ctx
	t.Cleanup(func() { ctx = prev })

	block := &model.TimeBlock{ID: "b1", Label: "Gym", Days: model.NewWeekdaySet(model.Monday)}
	saveErr := errors.NewStorageError("persist blocks", fmt.Errorf("disk full"))

	tests := []struct {
		name    string
		format  output.Format
		warning bool
	}{
		{"cli", output.FormatCLI, true},
		{"json", output.FormatJSON, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := output.NewFormatter()
			f.Writer = &buf
			f.Format = tt.format
			f.ColorMode = output.ColorNever
			ctx = &runtime.Context{Formatter: f}

			err := reportDeleted(block, saveErr)
			require.ErrorIs(t, err, saveErr)
			if tt.warning {
				assert.Contains(t, buf.String(), "Deleted, but the change was not saved")
			} else {
				assert.Empty(t, buf.String(), "JSON mode leaves the error document to Execute")
			}
		})
	}
}

func TestBlocksRemoveJSON(t *testing.T) {
	e := setupCLI(t)
	b := e.addBlock("Gym", "18:00", "mon")

	out := e.mustRun("blocks", "rm", b.ID, "-f", "json")
	var resp map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "deleted", resp["status"])
	assert.Equal(t, b.ID, resp["block_id"])
}
