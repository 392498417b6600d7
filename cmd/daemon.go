package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manav03panchal/timeblock/internal/api"
	"github.com/manav03panchal/timeblock/internal/daemon"
	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/logging"
)

// Daemon command flags.
var (
	daemonStartFlagForeground bool
	daemonStartFlagServe      bool
	daemonLogsFlagTail        int
	daemonLogsFlagFollow      bool
	daemonInstallFlagForce    bool
	daemonStopFlagTimeout     time.Duration
)

// daemonPaths locates the daemon's PID, state and log files.
var daemonPaths = daemon.DefaultPaths

// daemonCmd represents the daemon command. Only a foreground start opens
// the database; everything else works from the PID and state files.
var daemonCmd = &cobra.Command{
	Use:     "daemon [command]",
	Aliases: []string{"d", "bg", "service"},
	Short:   "Manage the background daemon",
	Long: `Manage the Timeblock daemon that fires your reminders.

Examples:
  timeblock daemon start
  timeblock daemon start --serve
  timeblock daemon status
  timeblock daemon stop
  timeblock daemon logs --tail 20`,
	Annotations: map[string]string{noRuntime: "true"},
	RunE:        runDaemonStatus,
}

// daemonStartCmd starts the daemon.
var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the background daemon",
	Long: `Start the Timeblock daemon. It checks for due reminders on the
daemon.check_interval schedule and delivers them through every configured
channel.

Examples:
  timeblock daemon start             # Start in background
  timeblock daemon start --serve     # Also serve the HTTP API
  timeblock daemon start --foreground`,
	Args: cobra.NoArgs,
	RunE: runDaemonStart,
}

// daemonStopCmd stops the daemon.
var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStop,
}

// daemonStatusCmd shows daemon status.
var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

// daemonLogsCmd shows daemon logs.
var daemonLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View daemon logs",
	Long: `View the daemon log file.

Examples:
  timeblock daemon logs
  timeblock daemon logs --tail 50
  timeblock daemon logs --follow`,
	Args: cobra.NoArgs,
	RunE: runDaemonLogs,
}

// daemonInstallCmd installs the daemon as a system service.
var daemonInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install daemon as a system service",
	Long: `Install the Timeblock daemon as a service that starts automatically on login.

On macOS, this creates a launchd agent in ~/Library/LaunchAgents.
On Linux, this creates a systemd user service in ~/.config/systemd/user.

Examples:
  timeblock daemon install
  timeblock daemon install --force   # Reinstall if already installed`,
	Args: cobra.NoArgs,
	RunE: runDaemonInstall,
}

// daemonUninstallCmd uninstalls the daemon system service.
var daemonUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall daemon system service",
	Args:  cobra.NoArgs,
	RunE:  runDaemonUninstall,
}

func init() {
	daemonStartCmd.Flags().BoolVar(&daemonStartFlagForeground, "foreground", false,
		"Run in foreground (don't daemonize)")
	daemonStartCmd.Flags().BoolVar(&daemonStartFlagServe, "serve", false,
		"Also serve the HTTP API on api.listen")

	daemonStopCmd.Flags().DurationVar(&daemonStopFlagTimeout, "timeout", 10*time.Second,
		"How long to wait before killing the daemon")

	daemonLogsCmd.Flags().IntVarP(&daemonLogsFlagTail, "tail", "n", 20,
		"Number of lines to show")
	daemonLogsCmd.Flags().BoolVar(&daemonLogsFlagFollow, "follow", false,
		"Follow log output (like tail -f)")

	daemonInstallCmd.Flags().BoolVar(&daemonInstallFlagForce, "force", false,
		"Force reinstall if already installed")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonLogsCmd)
	daemonCmd.AddCommand(daemonInstallCmd)
	daemonCmd.AddCommand(daemonUninstallCmd)

	rootCmd.AddCommand(daemonCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	if daemonStartFlagForeground {
		return runDaemonForeground(cmd, daemonStartFlagServe)
	}

	childArgs := []string{"daemon", "start", "--foreground"}
	if daemonStartFlagServe {
		childArgs = append(childArgs, "--serve")
	}
	if flagConfig != "" {
		childArgs = append(childArgs, "--config", flagConfig)
	}
	if flagDebug {
		childArgs = append(childArgs, "--debug")
	}

	f := newFormatter()
	pid, err := daemon.StartBackground(daemonPaths(), childArgs, 5*time.Second)
	if errors.Is(err, daemon.ErrAlreadyRunning) {
		if f.IsJSON() {
			return f.JSON(map[string]interface{}{"status": "already_running", "pid": pid})
		}
		defaultCLI(f).Warning(fmt.Sprintf("Daemon is already running (PID: %d)", pid))
		return nil
	}
	if err != nil {
		return err
	}

	if f.IsJSON() {
		return f.JSON(map[string]interface{}{"status": "started", "pid": pid})
	}
	defaultCLI(f).Success(fmt.Sprintf("Daemon started (PID: %d)", pid))
	return nil
}

// runDaemonForeground opens the runtime and delivers reminders until a
// shutdown signal. With serve set it also runs the HTTP API.
func runDaemonForeground(cmd *cobra.Command, serve bool) error {
	paths := daemonPaths()
	logFile, err := daemon.OpenLogFile(paths.LogFile())
	if err != nil {
		return err
	}
	defer logFile.Close()

	if err := openRuntime(); err != nil {
		return err
	}
	ctx.Formatter.Writer = cmd.OutOrStdout()

	logger := daemon.NewFileLogger(logFile, flagDebug)
	ctx.Logger = logger
	ctx.Store.SetLogger(logger)
	ctx.Reminders.SetLogger(logger)

	// Reminders go to the terminal only when someone is watching it
	var console io.Writer
	if term.IsTerminal(int(os.Stdout.Fd())) {
		console = cmd.OutOrStdout()
	}
	deliverer, err := ctx.Deliverer(console)
	if err != nil {
		return err
	}

	opts := daemon.Options{
		Paths:     paths,
		CheckSpec: ctx.Config.Daemon.CheckInterval,
		Deliverer: deliverer,
		Pending: func() (int, error) {
			triggers, err := ctx.Notifier.Pending(nil)
			return len(triggers), err
		},
		LogFile: logFile,
		Logger:  logger,
		Version: Version,
		Now:     now,
	}
	if serve {
		router := api.NewRouter(&api.Config{
			Store:    ctx.Store,
			Logger:   logger,
			Now:      now,
			Calendar: ctx.Config.Notifications.Title,
		})
		opts.Server = api.NewServer(ctx.Config.API.Listen, router, logger)
		opts.Listen = ctx.Config.API.Listen
	}

	d := daemon.New(opts)
	d.Health().AddCheck("storage", ctx.DB.CheckIntegrity)

	if !ctx.IsJSON() {
		cli := ctx.CLIFormatter()
		cli.Success(fmt.Sprintf("Daemon running (PID: %d, %d blocks)", os.Getpid(), ctx.Store.Len()))
		if serve {
			cli.Muted("API listening on " + ctx.Config.API.Listen)
		}
		if !ctx.Granted {
			cli.Warning("Notifications are not allowed; new reminders cannot be armed")
		}
		cli.Muted("Logging to " + paths.LogFile())
	}
	logger.Info("starting daemon", logging.KeyCount, ctx.Store.Len(), logging.KeyPath, ctx.Config.Storage.DataDir)

	return d.Run(cmd.Context())
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	f := newFormatter()
	status := daemon.GetStatus(daemonPaths())

	err := daemon.Stop(daemonPaths(), daemonStopFlagTimeout)
	if errors.Is(err, daemon.ErrNotRunning) {
		if f.IsJSON() {
			return f.JSON(map[string]interface{}{"status": "not_running"})
		}
		defaultCLI(f).Muted("Daemon is not running")
		return nil
	}
	if err != nil {
		return err
	}

	if f.IsJSON() {
		return f.JSON(map[string]interface{}{"status": "stopped", "pid": status.PID})
	}
	defaultCLI(f).Success(fmt.Sprintf("Daemon stopped (was PID: %d)", status.PID))
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	f := newFormatter()
	status := daemon.GetStatus(daemonPaths())

	if f.IsJSON() {
		return f.JSON(status)
	}

	cli := defaultCLI(f)
	cli.Title("Daemon")
	if !status.Running {
		f.Printf("  Status:    stopped\n")
		if status.LastError != "" {
			f.Printf("  Last error: %s\n", status.LastError)
		}
		f.Println("")
		cli.Muted("Start with: timeblock daemon start")
		return nil
	}

	f.Printf("  Status:    running\n")
	f.Printf("  PID:       %d\n", status.PID)
	if status.Uptime != "" {
		f.Printf("  Uptime:    %s\n", status.Uptime)
	}
	if status.Listen != "" {
		f.Printf("  API:       http://%s\n", status.Listen)
	}
	if s := status.State; s != nil {
		m := s.Metrics
		f.Printf("  Checks:    %d\n", m.Checks)
		f.Printf("  Fired:     %d (missed %d, failed %d)\n", m.Fired, m.Missed, m.Failed)
		if s.Health != nil {
			f.Printf("  Pending:   %d\n", s.Health.PendingTriggers)
			f.Printf("  Health:    %s\n", s.Health.Status)
		}
		if m.LastError != "" {
			f.Printf("  Last error: %s\n", m.LastError)
		}
	}
	f.Printf("  Log:       %s\n", status.LogFile)
	return nil
}

func runDaemonLogs(cmd *cobra.Command, args []string) error {
	logPath := daemonPaths().LogFile()
	out := cmd.OutOrStdout()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No log file found.")
		fmt.Fprintf(out, "Log path: %s\n", logPath)
		return nil
	}

	lines, err := tailFile(logPath, daemonLogsFlagTail)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	if daemonLogsFlagFollow {
		return followLogs(cmd, logPath)
	}
	return nil
}

// tailFile reads the last n lines from a file.
func tailFile(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// followLogs prints lines appended to the log until the command's context
// ends.
func followLogs(cmd *cobra.Command, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	c, stop := daemon.ShutdownContext(cmd.Context())
	defer stop()

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				fmt.Fprint(cmd.OutOrStdout(), line)
			}
			if err != nil {
				break
			}
		}
		select {
		case <-c.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func runDaemonInstall(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager(daemonPaths())
	if err != nil {
		return err
	}
	f := newFormatter()
	cli := defaultCLI(f)

	if mgr.IsInstalled() && !daemonInstallFlagForce {
		if f.IsJSON() {
			return f.JSON(map[string]interface{}{"status": "already_installed"})
		}
		cli.Muted("Service is already installed. Use --force to reinstall.")
		return nil
	}
	if mgr.IsInstalled() {
		if err := mgr.Uninstall(); err != nil {
			return fmt.Errorf("failed to remove existing service: %w", err)
		}
	}

	if err := mgr.Install(); err != nil {
		return err
	}
	path, _ := mgr.Path()

	if f.IsJSON() {
		return f.JSON(map[string]interface{}{"status": "installed", "path": path})
	}
	cli.Success("Service installed: " + path)
	cli.Muted("The daemon now starts automatically when you log in.")
	cli.Muted("To remove: timeblock daemon uninstall")
	return nil
}

func runDaemonUninstall(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager(daemonPaths())
	if err != nil {
		return err
	}
	f := newFormatter()
	cli := defaultCLI(f)

	if !mgr.IsInstalled() {
		if f.IsJSON() {
			return f.JSON(map[string]interface{}{"status": "not_installed"})
		}
		cli.Muted("Service is not installed.")
		return nil
	}

	if err := daemon.Stop(daemonPaths(), daemonStopFlagTimeout); err != nil && !errors.Is(err, daemon.ErrNotRunning) {
		logging.Logger().Warn("failed to stop daemon", logging.KeyError, err)
	}
	if err := mgr.Uninstall(); err != nil {
		return err
	}

	if f.IsJSON() {
		return f.JSON(map[string]interface{}{"status": "uninstalled"})
	}
	cli.Success("Service uninstalled")
	return nil
}
