// Package config provides configuration for timeblock.
//
// Values come from three layers, later ones winning: built-in defaults, the
// YAML file at DefaultPath (created on first run), and TIMEBLOCK_*
// environment variables, which may themselves come from a .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/manav03panchal/timeblock/internal/model"
)

// AppName is used for config, data and state directories.
const AppName = "timeblock"

// Storage backends.
const (
	BackendBadger = "badger"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the top-level application configuration.
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Daemon        DaemonConfig        `yaml:"daemon"`
	HTTP          HTTPConfig          `yaml:"http"`
	API           APIConfig           `yaml:"api"`
}

// StorageConfig selects where the block list lives.
type StorageConfig struct {
	// Backend is one of badger, file or sqlite. Default: badger.
	Backend string `yaml:"backend"`

	// Path overrides the backend's default location. ":memory:" keeps
	// everything in memory (badger only).
	Path string `yaml:"path,omitempty"`

	// DataDir holds the badger database used by the notification service.
	DataDir string `yaml:"data_dir,omitempty"`
}

// NotificationsConfig configures the local notification service.
type NotificationsConfig struct {
	// Enabled is the master switch. When false, permission is never granted.
	Enabled bool `yaml:"enabled"`

	// Title is shown on every reminder. Default: "Time Block".
	Title string `yaml:"title"`

	// DefaultBody is used when a block has no label. Default: "Reminder!".
	DefaultBody string `yaml:"default_body"`

	// Console prints fired reminders to the daemon log.
	Console bool `yaml:"console"`

	Webhooks []model.Webhook `yaml:"webhooks,omitempty"`
	Line     LineConfig      `yaml:"line,omitempty"`
}

// LineConfig holds LINE Messaging API credentials for push delivery.
type LineConfig struct {
	ChannelSecret string `yaml:"channel_secret,omitempty"`
	ChannelToken  string `yaml:"channel_token,omitempty"`
	To            string `yaml:"to,omitempty"`
}

// Configured reports whether all LINE fields are set.
func (l LineConfig) Configured() bool {
	return l.ChannelSecret != "" && l.ChannelToken != "" && l.To != ""
}

// DaemonConfig holds delivery loop configuration.
type DaemonConfig struct {
	// CheckInterval is a cron spec with seconds. Default: every minute.
	CheckInterval string `yaml:"check_interval"`

	// SleepThreshold is the gap after which missed occurrences are skipped
	// instead of delivered late. Default: 1h.
	SleepThreshold time.Duration `yaml:"sleep_threshold"`
}

// HTTPConfig holds webhook client configuration.
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// APIConfig configures the HTTP API served by 'timeblock serve'.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendBadger,
		},
		Notifications: NotificationsConfig{
			Enabled:     true,
			Title:       "Time Block",
			DefaultBody: model.DefaultReminder,
			Console:     true,
		},
		Daemon: DaemonConfig{
			CheckInterval:  "0 * * * * *",
			SleepThreshold: time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		API: APIConfig{
			Listen: "127.0.0.1:8787",
		},
	}
}

// DefaultPath returns the config file path following the XDG spec.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DefaultDataDir returns the data directory following the XDG spec.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultStateDir returns the state directory (logs, pid) following the XDG spec.
func DefaultStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// Normalize fills in missing or invalid values so partially-filled files
// still behave correctly.
func (c *Config) Normalize() {
	defaults := DefaultConfig()

	switch c.Storage.Backend {
	case BackendBadger, BackendFile, BackendSQLite:
	default:
		c.Storage.Backend = BackendBadger
	}
	if c.Notifications.Title == "" {
		c.Notifications.Title = defaults.Notifications.Title
	}
	if c.Notifications.DefaultBody == "" {
		c.Notifications.DefaultBody = defaults.Notifications.DefaultBody
	}
	if c.Daemon.CheckInterval == "" {
		c.Daemon.CheckInterval = defaults.Daemon.CheckInterval
	}
	if c.Daemon.SleepThreshold <= 0 {
		c.Daemon.SleepThreshold = defaults.Daemon.SleepThreshold
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = defaults.HTTP.Timeout
	}
	if c.HTTP.MaxRetries < 0 {
		c.HTTP.MaxRetries = 0
	}
	if c.API.Listen == "" {
		c.API.Listen = defaults.API.Listen
	}
	for i := range c.Notifications.Webhooks {
		w := &c.Notifications.Webhooks[i]
		if w.Type == "" {
			w.Type = model.DetectWebhookType(w.URL)
		}
	}
}

// Resolve applies environment overrides and fills derived paths. Call it
// after Load.
func (c *Config) Resolve() {
	c.loadFromEnv()
	c.Normalize()
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultDataDir()
	}
}

// InMemory reports whether storage should not touch the disk.
func (c *Config) InMemory() bool {
	return c.Storage.Path == ":memory:"
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default one is written with 0600 permissions
// and the defaults are returned. Fields missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".timeblock-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the environment. Missing files are ignored and variables that are
// already set are never overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// loadFromEnv applies TIMEBLOCK_* overrides.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("TIMEBLOCK_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("TIMEBLOCK_DATABASE"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("TIMEBLOCK_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}

	if v := os.Getenv("TIMEBLOCK_NOTIFICATIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Notifications.Enabled = b
		}
	}
	if v := os.Getenv("TIMEBLOCK_NOTIFY_TITLE"); v != "" {
		c.Notifications.Title = v
	}
	if v := os.Getenv("TIMEBLOCK_LINE_CHANNEL_SECRET"); v != "" {
		c.Notifications.Line.ChannelSecret = v
	}
	if v := os.Getenv("TIMEBLOCK_LINE_CHANNEL_TOKEN"); v != "" {
		c.Notifications.Line.ChannelToken = v
	}
	if v := os.Getenv("TIMEBLOCK_LINE_TO"); v != "" {
		c.Notifications.Line.To = v
	}

	if v := os.Getenv("TIMEBLOCK_CHECK_INTERVAL"); v != "" {
		c.Daemon.CheckInterval = v
	}
	if v := os.Getenv("TIMEBLOCK_SLEEP_THRESHOLD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Daemon.SleepThreshold = d
		}
	}

	if v := os.Getenv("TIMEBLOCK_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTP.Timeout = d
		}
	}
	if v := os.Getenv("TIMEBLOCK_HTTP_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.HTTP.MaxRetries = n
		}
	}

	if v := os.Getenv("TIMEBLOCK_API_LISTEN"); v != "" {
		c.API.Listen = v
	}
}
