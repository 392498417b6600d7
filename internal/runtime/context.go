// Package runtime builds the application context shared by the CLI, the
// TUI, the HTTP API and the daemon: configuration, storage, the local
// notification service, the block store and the theme.
package runtime

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/manav03panchal/timeblock/internal/blockstore"
	"github.com/manav03panchal/timeblock/internal/config"
	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/notify"
	"github.com/manav03panchal/timeblock/internal/output"
	"github.com/manav03panchal/timeblock/internal/scheduler"
	"github.com/manav03panchal/timeblock/internal/storage"
	"github.com/manav03panchal/timeblock/internal/theme"
)

// File names used by the file and sqlite backends under the data directory.
const (
	BlocksDirName  = "blocks"
	SQLiteFileName = "timeblock.sqlite"
)

// Context holds the application runtime context.
type Context struct {
	Config    *config.Config
	DB        *storage.DB
	Storage   blockstore.Gateway
	Notifier  *notify.LocalGateway
	Reminders *scheduler.Reminders
	Store     *blockstore.Store
	Themes    *theme.Manager
	Formatter *output.Formatter
	Logger    *slog.Logger

	// Granted is the permission answer obtained at startup.
	Granted bool

	Debug bool

	closers []io.Closer
}

// Options configures the runtime context.
type Options struct {
	// Config is used as is when set; otherwise ConfigPath is loaded.
	Config     *config.Config
	ConfigPath string
	InMemory   bool
	Format     output.Format
	ColorMode  output.ColorMode
	Debug      bool
	Logger     *slog.Logger
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		ConfigPath: config.DefaultPath(),
		Format:     output.FormatCLI,
		ColorMode:  output.ColorAuto,
	}
}

// LoadConfig reads the configuration named by opts and applies environment
// overrides.
func LoadConfig(opts Options) (*config.Config, error) {
	cfg := opts.Config
	if cfg == nil {
		if err := config.LoadDotEnv(); err != nil {
			return nil, errors.Wrap(err, "failed to load .env")
		}
		path := opts.ConfigPath
		if path == "" {
			path = config.DefaultPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load config %s", path)
		}
		cfg = loaded
	}
	cfg.Resolve()
	if opts.InMemory {
		cfg.Storage.Path = ":memory:"
		if cfg.Storage.Backend != config.BackendSQLite {
			cfg.Storage.Backend = config.BackendBadger
		}
	}
	return cfg, nil
}

// New creates a runtime context. It opens the database, asks the
// notification service for permission once and loads the persisted blocks
// and theme.
func New(opts Options) (*Context, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Logger()
	}

	c := &Context{
		Config: cfg,
		Logger: logger,
		Debug:  opts.Debug,
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode
	c.Formatter = formatter

	db, err := storage.Open(storage.Options{
		Path:     badgerPath(cfg),
		InMemory: cfg.InMemory(),
	})
	if err != nil {
		return nil, err
	}
	c.DB = db
	c.closers = append(c.closers, db)

	gw, err := c.openGateway()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Storage = gw

	ctx := context.Background()

	c.Notifier = notify.NewLocalGateway(db, cfg.Notifications.Enabled)
	granted, err := c.Notifier.RequestPermission(ctx)
	if err != nil {
		logger.Warn("failed to request notification permission", logging.KeyError, err)
	}
	c.Granted = granted

	c.Reminders = scheduler.NewReminders(c.Notifier, granted)
	c.Reminders.SetContent(cfg.Notifications.Title, cfg.Notifications.DefaultBody)
	c.Reminders.SetLogger(logger)

	c.Store = blockstore.New(gw, c.Reminders)
	c.Store.SetLogger(logger)
	if _, err := c.Store.Load(ctx); err != nil {
		c.Close()
		return nil, err
	}

	c.Themes = theme.NewManager(gw)
	c.Themes.SetLogger(logger)
	c.Themes.Load(ctx)

	logger.Debug("runtime ready",
		"backend", cfg.Storage.Backend,
		"granted", granted,
		logging.KeyCount, c.Store.Len(),
		logging.KeyTheme, c.Themes.Current().Key)
	return c, nil
}

// badgerPath is where the badger database lives. The badger backend honors
// storage.path; the others keep triggers under the data directory.
func badgerPath(cfg *config.Config) string {
	if cfg.Storage.Backend == config.BackendBadger && cfg.Storage.Path != "" && !cfg.InMemory() {
		return cfg.Storage.Path
	}
	return filepath.Join(cfg.Storage.DataDir, "db")
}

func (c *Context) openGateway() (blockstore.Gateway, error) {
	cfg := c.Config
	switch cfg.Storage.Backend {
	case config.BackendFile:
		dir := cfg.Storage.Path
		if dir == "" {
			dir = filepath.Join(cfg.Storage.DataDir, BlocksDirName)
		}
		return storage.NewFileGateway(dir)
	case config.BackendSQLite:
		dsn := cfg.Storage.Path
		if dsn == "" {
			dsn = filepath.Join(cfg.Storage.DataDir, SQLiteFileName)
		}
		gw, err := storage.OpenSQLGateway(dsn)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, gw)
		return gw, nil
	default:
		return storage.NewKVGateway(c.DB), nil
	}
}

// Deliverer builds the trigger deliverer with the channels enabled in the
// configuration. w receives console output when non-nil.
func (c *Context) Deliverer(w io.Writer) (*notify.Deliverer, error) {
	channels, err := notify.ChannelsFromConfig(c.Config, c.Logger, w)
	if err != nil {
		return nil, err
	}
	d := notify.NewDeliverer(c.Notifier, c.Config.Daemon.SleepThreshold, channels...)
	d.SetLogger(c.Logger)
	return d, nil
}

// SetGranted records a permission change for the rest of the run.
func (c *Context) SetGranted(granted bool) {
	c.Granted = granted
	c.Reminders.SetGranted(granted)
}

// Close releases storage in reverse order of opening.
func (c *Context) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// CLIFormatter returns a CLI formatter using the current theme.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	p := theme.MustGet(theme.Default)
	if c.Themes != nil {
		p = c.Themes.Current()
	}
	return output.NewCLIFormatter(c.Formatter, p)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.IsJSON()
}

// Debugf logs at debug level when debug mode is enabled.
func (c *Context) Debugf(msg string, args ...any) {
	if c.Debug {
		c.Logger.Debug(msg, args...)
	}
}
