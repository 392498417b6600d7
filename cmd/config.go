package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/manav03panchal/timeblock/internal/config"
	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/scheduler"
)

// configCmd represents the config command. It edits the config file only,
// so it works while the daemon holds the database.
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg", "settings"},
	Short:   "Manage application configuration",
	Long: `View and modify the configuration file. Environment variables
(TIMEBLOCK_*) override the file at run time.

Examples:
  timeblock config path
  timeblock config show
  timeblock config get daemon.check_interval
  timeblock config set notifications.title "Focus"
  timeblock config set storage.backend file`,
	Annotations: map[string]string{noRuntime: "true"},
	RunE:        runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := newFormatter()
		if f.IsJSON() {
			return f.JSON(map[string]string{"path": configPath()})
		}
		f.Println(configPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// configGetCmd gets configuration values.
var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Long: `Get a configuration value.

Keys:
` + configKeyHelp(),
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeConfigKeys,
	RunE:              runConfigGet,
}

// configSetCmd sets configuration values.
var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Keys:
` + configKeyHelp() + `
Examples:
  timeblock config set notifications.enabled false
  timeblock config set daemon.check_interval "*/30 * * * * *"
  timeblock config set http.timeout 10s`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeConfigKeys,
	RunE:              runConfigSet,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configKey is one settable config field.
type configKey struct {
	help string
	get  func(c *config.Config) string
	set  func(c *config.Config, v string) error
}

var configKeys = map[string]configKey{
	"storage.backend": {
		help: "badger, file or sqlite",
		get:  func(c *config.Config) string { return c.Storage.Backend },
		set: func(c *config.Config, v string) error {
			switch v {
			case config.BackendBadger, config.BackendFile, config.BackendSQLite:
				c.Storage.Backend = v
				return nil
			}
			return fmt.Errorf("must be badger, file or sqlite")
		},
	},
	"storage.path": {
		help: "backend location, \":memory:\" for no persistence",
		get:  func(c *config.Config) string { return c.Storage.Path },
		set:  func(c *config.Config, v string) error { c.Storage.Path = v; return nil },
	},
	"storage.data_dir": {
		help: "directory of the reminder database",
		get:  func(c *config.Config) string { return c.Storage.DataDir },
		set:  func(c *config.Config, v string) error { c.Storage.DataDir = v; return nil },
	},
	"notifications.enabled": {
		help: "true or false",
		get:  func(c *config.Config) string { return strconv.FormatBool(c.Notifications.Enabled) },
		set:  boolSetter(func(c *config.Config, b bool) { c.Notifications.Enabled = b }),
	},
	"notifications.title": {
		help: "title of every reminder",
		get:  func(c *config.Config) string { return c.Notifications.Title },
		set:  requiredSetter(func(c *config.Config, v string) { c.Notifications.Title = v }),
	},
	"notifications.default_body": {
		help: "message for blocks without a label",
		get:  func(c *config.Config) string { return c.Notifications.DefaultBody },
		set:  requiredSetter(func(c *config.Config, v string) { c.Notifications.DefaultBody = v }),
	},
	"notifications.console": {
		help: "print reminders in a foreground daemon",
		get:  func(c *config.Config) string { return strconv.FormatBool(c.Notifications.Console) },
		set:  boolSetter(func(c *config.Config, b bool) { c.Notifications.Console = b }),
	},
	"daemon.check_interval": {
		help: "cron spec with seconds, e.g. \"0 * * * * *\"",
		get:  func(c *config.Config) string { return c.Daemon.CheckInterval },
		set: func(c *config.Config, v string) error {
			if err := scheduler.ValidateSpec(v); err != nil {
				return err
			}
			c.Daemon.CheckInterval = v
			return nil
		},
	},
	"daemon.sleep_threshold": {
		help: "duration after which missed reminders are skipped",
		get:  func(c *config.Config) string { return c.Daemon.SleepThreshold.String() },
		set:  durationSetter(func(c *config.Config, d time.Duration) { c.Daemon.SleepThreshold = d }),
	},
	"http.timeout": {
		help: "webhook request timeout",
		get:  func(c *config.Config) string { return c.HTTP.Timeout.String() },
		set:  durationSetter(func(c *config.Config, d time.Duration) { c.HTTP.Timeout = d }),
	},
	"http.max_retries": {
		help: "webhook retry count",
		get:  func(c *config.Config) string { return strconv.Itoa(c.HTTP.MaxRetries) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 || n > 10 {
				return fmt.Errorf("must be a number from 0 to 10")
			}
			c.HTTP.MaxRetries = n
			return nil
		},
	},
	"api.listen": {
		help: "address of 'timeblock serve'",
		get:  func(c *config.Config) string { return c.API.Listen },
		set:  requiredSetter(func(c *config.Config, v string) { c.API.Listen = v }),
	},
}

func boolSetter(apply func(*config.Config, bool)) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		b, err := parseEnabled(v)
		if err != nil {
			return err
		}
		apply(c, b)
		return nil
	}
}

func durationSetter(apply func(*config.Config, time.Duration)) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("must be a positive duration such as 30s or 1h")
		}
		apply(c, d)
		return nil
	}
}

func requiredSetter(apply func(*config.Config, string)) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("must not be empty")
		}
		apply(c, v)
		return nil
	}
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func configKeyHelp() string {
	var b strings.Builder
	for _, k := range sortedConfigKeys() {
		fmt.Fprintf(&b, "  %-28s %s\n", k, configKeys[k].help)
	}
	return b.String()
}

func completeConfigKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var keys []string
	for _, k := range sortedConfigKeys() {
		if strings.HasPrefix(k, toComplete) {
			keys = append(keys, k+"\t"+configKeys[k].help)
		}
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}

func lookupConfigKey(key string) (configKey, error) {
	k, ok := configKeys[key]
	if !ok {
		return configKey{}, errors.NewUserErrorWithField("key", key, "unknown config key",
			"Run 'timeblock config set --help' for the list of keys.")
	}
	return k, nil
}

// runConfigShow prints the effective configuration with secrets masked.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg.Resolve()
	redactConfig(cfg)

	f := newFormatter()
	if f.IsJSON() {
		return f.JSON(cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	f.Print(string(data))
	return nil
}

func redactConfig(cfg *config.Config) {
	for i := range cfg.Notifications.Webhooks {
		w := &cfg.Notifications.Webhooks[i]
		w.URL = w.MaskedURL()
	}
	line := &cfg.Notifications.Line
	if line.ChannelSecret != "" {
		line.ChannelSecret = "***"
	}
	if line.ChannelToken != "" {
		line.ChannelToken = "***"
	}
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	k, err := lookupConfigKey(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg.Resolve()

	value := k.get(cfg)
	f := newFormatter()
	if f.IsJSON() {
		return f.JSON(map[string]string{"key": args[0], "value": value})
	}
	f.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	k, err := lookupConfigKey(key)
	if err != nil {
		return err
	}
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	if err := k.set(cfg, value); err != nil {
		return errors.NewUserErrorWithField(key, value, err.Error(),
			"Valid values: "+k.help+".")
	}
	if err := config.Save(configPath(), cfg); err != nil {
		return err
	}

	f := newFormatter()
	if f.IsJSON() {
		return f.JSON(map[string]string{"status": "updated", "key": key, "value": k.get(cfg)})
	}
	defaultCLI(f).Success(fmt.Sprintf("Updated %s = %s", key, k.get(cfg)))
	return nil
}

// parseEnabled parses an enabled/disabled value.
func parseEnabled(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "enabled", "on", "true", "yes", "1":
		return true, nil
	case "disabled", "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid value: %s (use true/false)", s)
	}
}
