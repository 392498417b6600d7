package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/notify"
	"github.com/manav03panchal/timeblock/internal/output"
)

// notificationsCmd represents the notifications command.
var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notify", "n"},
	Short:   "Manage reminder delivery",
	Long: `Inspect and control the local notification service that fires your reminders.

Examples:
  timeblock notifications
  timeblock notifications allow
  timeblock notifications pending
  timeblock notifications test`,
	Args: cobra.NoArgs,
	RunE: runNotificationsStatus,
}

var notificationsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show permission and pending reminder count",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsStatus,
}

var notificationsAllowCmd = &cobra.Command{
	Use:   "allow",
	Short: "Allow reminders to be scheduled",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsAllow,
}

var notificationsDenyCmd = &cobra.Command{
	Use:   "deny",
	Short: "Refuse new reminders (existing ones keep firing)",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsDeny,
}

var notificationsPendingCmd = &cobra.Command{
	Use:     "pending",
	Aliases: []string{"ls"},
	Short:   "List armed reminders",
	Args:    cobra.NoArgs,
	RunE:    runNotificationsPending,
}

var notificationsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification through every channel",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsTest,
}

func init() {
	notificationsCmd.AddCommand(notificationsStatusCmd)
	notificationsCmd.AddCommand(notificationsAllowCmd)
	notificationsCmd.AddCommand(notificationsDenyCmd)
	notificationsCmd.AddCommand(notificationsPendingCmd)
	notificationsCmd.AddCommand(notificationsTestCmd)

	rootCmd.AddCommand(notificationsCmd)
}

// NotificationStatus is the JSON form of 'notifications status'.
type NotificationStatus struct {
	Enabled    bool     `json:"enabled"`
	Permission string   `json:"permission"`
	Granted    bool     `json:"granted"`
	Pending    int      `json:"pending"`
	Channels   []string `json:"channels"`
}

func runNotificationsStatus(cmd *cobra.Command, args []string) error {
	state, err := ctx.Notifier.PermissionState()
	if err != nil {
		return err
	}
	pending, err := ctx.Notifier.Pending(skipLogger())
	if err != nil {
		return err
	}
	channels, err := notify.ChannelsFromConfig(ctx.Config, ctx.Logger, io.Discard)
	if err != nil {
		return err
	}

	status := NotificationStatus{
		Enabled:    ctx.Notifier.Enabled(),
		Permission: state,
		Granted:    ctx.Granted,
		Pending:    len(pending),
	}
	for _, ch := range channels {
		status.Channels = append(status.Channels, ch.Name())
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(status)
	}

	cli := ctx.CLIFormatter()
	cli.Title("Notifications")
	permission := status.Permission
	if permission == notify.PermissionUnset {
		permission = "not asked"
	}
	rows := []output.TableRow{
		{Columns: []string{"Enabled", yesNo(status.Enabled)}},
		{Columns: []string{"Permission", permission}},
		{Columns: []string{"Pending", fmt.Sprintf("%d", status.Pending)}},
		{Columns: []string{"Channels", fmt.Sprintf("%v", status.Channels)}},
	}
	cli.PrintTable([]string{"Setting", "Value"}, rows)

	if !status.Granted {
		cli.Println()
		cli.Warning("Reminders cannot be armed. Enable notifications first: 'timeblock notifications allow'")
	}
	return nil
}

func runNotificationsAllow(cmd *cobra.Command, args []string) error {
	if err := ctx.Notifier.Allow(); err != nil {
		return err
	}
	ctx.SetGranted(ctx.Notifier.Enabled())

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"status": "allowed", "enabled": ctx.Notifier.Enabled()})
	}
	cli := ctx.CLIFormatter()
	cli.Success("Notifications allowed")
	if !ctx.Notifier.Enabled() {
		cli.Warning("Notifications are disabled in the config file (notifications.enabled)")
	}
	return nil
}

func runNotificationsDeny(cmd *cobra.Command, args []string) error {
	if err := ctx.Notifier.Deny(); err != nil {
		return err
	}
	ctx.SetGranted(false)

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "denied"})
	}
	cli := ctx.CLIFormatter()
	cli.Success("Notifications denied")
	cli.Muted("Existing reminders keep firing; delete their blocks to stop them.")
	return nil
}

func runNotificationsPending(cmd *cobra.Command, args []string) error {
	triggers, err := ctx.Notifier.Pending(skipLogger())
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTriggers(triggers)
	}
	ctx.CLIFormatter().PrintTriggers(triggers, now())
	return nil
}

// ChannelResult is the outcome of a test send on one channel.
type ChannelResult struct {
	Channel    string `json:"channel"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func runNotificationsTest(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if ctx.IsJSON() {
		w = nil
	}
	d, err := ctx.Deliverer(w)
	if err != nil {
		return err
	}

	c, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	n := notify.TestNotification(ctx.Config.Notifications.Title, now())
	var results []ChannelResult
	for _, ch := range d.Channels() {
		start := time.Now()
		err := ch.Deliver(c, n)
		r := ChannelResult{
			Channel:    ch.Name(),
			Success:    err == nil,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"results": results})
	}

	cli := ctx.CLIFormatter()
	for _, r := range results {
		if r.Success {
			cli.Success(fmt.Sprintf("%s: delivered (%dms)", r.Channel, r.DurationMs))
		} else {
			cli.Error(fmt.Sprintf("%s: %s", r.Channel, r.Error))
		}
	}
	return nil
}

// skipLogger logs unreadable trigger records.
func skipLogger() func(key string, err error) {
	return func(key string, err error) {
		ctx.Logger.Warn("storage corrupt: skipping trigger", logging.KeyKey, key, logging.KeyError, err)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
