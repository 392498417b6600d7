package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manav03panchal/timeblock/internal/config"
	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/notify"
	"github.com/manav03panchal/timeblock/internal/output"
	"github.com/manav03panchal/timeblock/internal/validate"
)

// Webhook command flags.
var (
	webhookAddFlagType     string
	webhookAddFlagTemplate string
	webhookRemoveFlagForce bool
	webhookTestFlagAll     bool
)

// webhookCmd represents the webhook command. Webhooks live in the config
// file, so these commands work while the daemon holds the database.
var webhookCmd = &cobra.Command{
	Use:     "webhook [command]",
	Aliases: []string{"w", "wh", "hook"},
	Short:   "Configure notification webhooks",
	Long: `Configure webhooks for Discord, Slack, Teams, or custom endpoints.
Every fired reminder is posted to each enabled webhook. A running daemon picks
up changes on restart.

Examples:
  timeblock webhook add discord https://discord.com/api/webhooks/...
  timeblock webhook add slack https://hooks.slack.com/services/...
  timeblock webhook list
  timeblock webhook test discord
  timeblock webhook disable slack
  timeblock webhook remove discord`,
	Annotations: map[string]string{noRuntime: "true"},
	RunE:        runWebhookList,
}

// webhookAddCmd adds a new webhook.
var webhookAddCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Add a new webhook",
	Long: `Add a webhook for receiving reminders.

The webhook type is auto-detected from the URL:
  - Discord: discord.com/api/webhooks/...
  - Slack:   hooks.slack.com/services/...
  - Teams:   outlook.office.com/webhook/...
  - Generic: Any other URL

Examples:
  timeblock webhook add discord https://discord.com/api/webhooks/123/abc
  timeblock webhook add my-webhook https://example.com/hook --type generic`,
	Args: cobra.ExactArgs(2),
	RunE: runWebhookAdd,
}

// webhookListCmd lists all webhooks.
var webhookListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all webhooks",
	Args:    cobra.NoArgs,
	RunE:    runWebhookList,
}

// webhookTestCmd tests a webhook.
var webhookTestCmd = &cobra.Command{
	Use:   "test [NAME]",
	Short: "Test a webhook by sending a test notification",
	Long: `Send a test notification to verify webhook configuration.

Examples:
  timeblock webhook test discord
  timeblock webhook test --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWebhookTest,
}

// webhookRemoveCmd removes a webhook.
var webhookRemoveCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a webhook",
	Args:    cobra.ExactArgs(1),
	RunE:    runWebhookRemove,
}

// webhookEnableCmd enables a webhook.
var webhookEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "Enable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setWebhookEnabled(args[0], true)
	},
}

// webhookDisableCmd disables a webhook.
var webhookDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "Disable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setWebhookEnabled(args[0], false)
	},
}

func init() {
	webhookAddCmd.Flags().StringVarP(&webhookAddFlagType, "type", "t", "",
		"Webhook type: discord, slack, teams, generic (auto-detected from URL if not specified)")
	webhookAddCmd.Flags().StringVar(&webhookAddFlagTemplate, "template", "",
		"Custom payload template for generic webhooks")

	webhookRemoveCmd.Flags().BoolVar(&webhookRemoveFlagForce, "force", false,
		"Skip confirmation")

	webhookTestCmd.Flags().BoolVarP(&webhookTestFlagAll, "all", "a", false,
		"Test all enabled webhooks")

	webhookTestCmd.ValidArgsFunction = completeWebhookArgs
	webhookRemoveCmd.ValidArgsFunction = completeWebhookArgs
	webhookEnableCmd.ValidArgsFunction = completeWebhookArgs
	webhookDisableCmd.ValidArgsFunction = completeWebhookArgs

	webhookCmd.AddCommand(webhookAddCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookTestCmd)
	webhookCmd.AddCommand(webhookRemoveCmd)
	webhookCmd.AddCommand(webhookEnableCmd)
	webhookCmd.AddCommand(webhookDisableCmd)

	rootCmd.AddCommand(webhookCmd)
}

// WebhookOutput is the JSON form of a webhook. The URL is masked.
type WebhookOutput struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

func newWebhookOutput(w model.Webhook) WebhookOutput {
	return WebhookOutput{Name: w.Name, Type: w.Type, URL: w.MaskedURL(), Enabled: w.Enabled}
}

// completeWebhookArgs provides completion for webhook names.
func completeWebhookArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := loadFileConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, wh := range cfg.Notifications.Webhooks {
		if strings.HasPrefix(wh.Name, toComplete) {
			names = append(names, wh.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// loadFileConfig reads the config file without environment overrides, so a
// later Save writes back only what the user configured.
func loadFileConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	return config.Load(configPath())
}

func findWebhook(cfg *config.Config, name string) (int, error) {
	for i, w := range cfg.Notifications.Webhooks {
		if w.Name == name {
			return i, nil
		}
	}
	return -1, errors.NewUserErrorWithField("webhook", name, "webhook not found",
		"List webhooks with 'timeblock webhook list'.")
}

func runWebhookAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	webhookURL := args[1]

	if !model.IsValidWebhookName(name) {
		return errors.NewUserErrorWithField("name", name, "invalid webhook name",
			"Use letters, digits, dash or underscore, at most 50 characters.")
	}
	if err := validate.URL(webhookURL); err != nil {
		return err
	}

	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	if _, err := findWebhook(cfg, name); err == nil {
		return errors.NewUserErrorWithField("name", name, "webhook already exists",
			"Pick another name or remove the existing webhook first.")
	}

	webhookType := webhookAddFlagType
	if webhookType == "" {
		webhookType = model.DetectWebhookType(webhookURL)
	}
	if !model.IsValidWebhookType(webhookType) {
		return errors.NewUserErrorWithField("type", webhookType, "invalid webhook type",
			"Use one of: "+strings.Join(model.ValidWebhookTypes(), ", ")+".")
	}

	webhook := model.Webhook{
		Name:     name,
		Type:     webhookType,
		URL:      webhookURL,
		Enabled:  true,
		Template: webhookAddFlagTemplate,
	}
	cfg.Notifications.Webhooks = append(cfg.Notifications.Webhooks, webhook)
	if err := config.Save(configPath(), cfg); err != nil {
		return err
	}

	f := newFormatter()
	if f.IsJSON() {
		return f.JSON(newWebhookOutput(webhook))
	}

	cli := defaultCLI(f)
	cli.Success("Added webhook: " + name)
	f.Printf("  Type: %s\n", webhook.Type)
	f.Printf("  URL: %s\n", webhook.MaskedURL())
	f.Println("")
	cli.Muted(fmt.Sprintf("Test with: timeblock webhook test %s", name))
	return nil
}

func runWebhookList(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	webhooks := cfg.Notifications.Webhooks

	f := newFormatter()
	if f.IsJSON() {
		out := make([]WebhookOutput, 0, len(webhooks))
		for _, w := range webhooks {
			out = append(out, newWebhookOutput(w))
		}
		return f.JSON(map[string]interface{}{
			"webhooks": out,
			"count":    len(out),
		})
	}

	cli := defaultCLI(f)
	if len(webhooks) == 0 {
		cli.Muted("No webhooks configured.")
		cli.Muted("Add one with: timeblock webhook add discord <url>")
		return nil
	}

	cli.Title("Webhooks")
	rows := make([]output.TableRow, 0, len(webhooks))
	for _, wh := range webhooks {
		status := "enabled"
		if !wh.Enabled {
			status = "disabled"
		}
		rows = append(rows, output.TableRow{Columns: []string{wh.Name, wh.Type, status, wh.MaskedURL()}})
	}
	cli.PrintTable([]string{"Name", "Type", "Status", "URL"}, rows)
	return nil
}

func runWebhookTest(cmd *cobra.Command, args []string) error {
	if !webhookTestFlagAll && len(args) == 0 {
		return errors.NewUserError("webhook name required", "Name a webhook or use --all.")
	}

	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg.Resolve()

	dispatcher := notify.NewDispatcher(cfg.Notifications.Webhooks,
		notify.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.MaxRetries))
	c, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var names []string
	if webhookTestFlagAll {
		for _, w := range dispatcher.Enabled() {
			names = append(names, w.Name)
		}
		if len(names) == 0 {
			return errors.NewUserError("no enabled webhooks to test",
				"Add one with 'timeblock webhook add NAME URL'.")
		}
	} else {
		if _, err := findWebhook(cfg, args[0]); err != nil {
			return err
		}
		names = args[:1]
	}

	n := notify.TestNotification(cfg.Notifications.Title, now())
	var results []notify.DispatchResult
	for _, name := range names {
		results = append(results, dispatcher.SendToSingle(c, n, name))
	}

	f := newFormatter()
	if f.IsJSON() {
		out := make([]map[string]interface{}, 0, len(results))
		for _, r := range results {
			out = append(out, map[string]interface{}{
				"webhook":     r.WebhookName,
				"success":     r.Success,
				"status_code": r.StatusCode,
				"duration_ms": r.Duration.Milliseconds(),
				"error":       errorString(r.Error),
			})
		}
		return f.JSON(map[string]interface{}{"results": out})
	}

	cli := defaultCLI(f)
	for _, r := range results {
		if r.Success {
			cli.Success(fmt.Sprintf("%s: delivered (%dms)", r.WebhookName, r.Duration.Milliseconds()))
		} else {
			cli.Error(fmt.Sprintf("%s: %s", r.WebhookName, errorString(r.Error)))
		}
	}
	return nil
}

func runWebhookRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	i, err := findWebhook(cfg, name)
	if err != nil {
		return err
	}

	f := newFormatter()
	if !webhookRemoveFlagForce && !f.IsJSON() && term.IsTerminal(int(os.Stdin.Fd())) {
		confirmed, err := promptConfirmation(cmd, fmt.Sprintf("Remove webhook %q? (y/N): ", name))
		if err != nil {
			return err
		}
		if !confirmed {
			defaultCLI(f).Muted("Cancelled")
			return nil
		}
	}

	hooks := cfg.Notifications.Webhooks
	cfg.Notifications.Webhooks = append(hooks[:i:i], hooks[i+1:]...)
	if err := config.Save(configPath(), cfg); err != nil {
		return err
	}

	if f.IsJSON() {
		return f.JSON(map[string]interface{}{
			"status":  "removed",
			"webhook": name,
		})
	}
	defaultCLI(f).Success("Removed webhook: " + name)
	return nil
}

func setWebhookEnabled(name string, enabled bool) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	i, err := findWebhook(cfg, name)
	if err != nil {
		return err
	}
	cfg.Notifications.Webhooks[i].Enabled = enabled
	if err := config.Save(configPath(), cfg); err != nil {
		return err
	}

	status := "disabled"
	if enabled {
		status = "enabled"
	}
	f := newFormatter()
	if f.IsJSON() {
		return f.JSON(map[string]interface{}{
			"status":  status,
			"webhook": name,
		})
	}
	defaultCLI(f).Success(fmt.Sprintf("Webhook %s %s", name, status))
	return nil
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
