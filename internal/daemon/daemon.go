package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/notify"
	"github.com/manav03panchal/timeblock/internal/scheduler"
)

// Deliverer runs one delivery pass.
type Deliverer interface {
	Deliver(ctx context.Context, now time.Time) notify.DeliveryReport
}

// Server is served alongside the delivery loop until shutdown.
type Server interface {
	ListenAndServe(ctx context.Context) error
}

// Options configures a Daemon.
type Options struct {
	Paths     Paths
	CheckSpec string
	Deliverer Deliverer
	// Pending counts armed triggers for the health report. Optional.
	Pending func() (int, error)
	// Server is optional; when set its address is recorded in the state file.
	Server  Server
	Listen  string
	LogFile *LogFile
	Logger  *slog.Logger
	Version string
	Now     func() time.Time
}

// Daemon delivers due reminders on a cron schedule until shut down.
type Daemon struct {
	opts    Options
	pidFile *PIDFile
	metrics *Metrics
	health  *HealthChecker
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	startedAt time.Time
	sched     *scheduler.Scheduler
}

// New creates a Daemon.
func New(opts Options) *Daemon {
	if opts.Logger == nil {
		opts.Logger = logging.Logger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Daemon{
		opts:    opts,
		pidFile: NewPIDFile(opts.Paths.PIDFile()),
		metrics: NewMetrics(),
		health:  NewHealthChecker(opts.Version),
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// Metrics returns the run's metrics.
func (d *Daemon) Metrics() *Metrics {
	return d.metrics
}

// Health returns the health checker; add checks before Run.
func (d *Daemon) Health() *HealthChecker {
	return d.health
}

// State is what a running daemon publishes to its state file.
type State struct {
	PID       int             `json:"pid"`
	StartedAt time.Time       `json:"started_at"`
	Listen    string          `json:"listen,omitempty"`
	Version   string          `json:"version,omitempty"`
	Health    *HealthStatus   `json:"health,omitempty"`
	Metrics   MetricsSnapshot `json:"metrics"`
}

// Run writes the PID file, delivers once to catch up, then delivers on the
// check schedule and serves the optional Server until ctx is cancelled or a
// shutdown signal arrives.
func (d *Daemon) Run(ctx context.Context) error {
	if d.opts.Deliverer == nil {
		return errors.New("daemon: no deliverer configured")
	}
	if pid := d.pidFile.RunningPID(); pid > 0 && pid != os.Getpid() {
		return ErrAlreadyRunning
	}
	if err := d.pidFile.Write(); err != nil {
		return err
	}
	defer d.cleanup()

	d.mu.Lock()
	d.startedAt = d.now()
	d.mu.Unlock()

	sched := scheduler.NewScheduler(d.opts.CheckSpec)
	sched.SetLogger(d.logger)
	sched.SetClock(d.now)
	sched.Add(scheduler.CheckFunc{Label: "deliver", Fn: d.deliver})
	if err := sched.Start(); err != nil {
		return err
	}
	d.mu.Lock()
	d.sched = sched
	d.mu.Unlock()
	defer sched.Stop()

	d.logger.Info("daemon started",
		logging.KeyPID, os.Getpid(),
		"spec", d.opts.CheckSpec,
		"listen", d.opts.Listen)

	sched.RunOnce()

	ctx, stop := ShutdownContext(ctx)
	defer stop()

	serveErr := make(chan error, 1)
	if d.opts.Server != nil {
		go func() { serveErr <- d.opts.Server.ListenAndServe(ctx) }()
	}

	select {
	case <-ctx.Done():
		d.logger.Info("daemon stopping")
		if d.opts.Server != nil {
			if err := <-serveErr; err != nil {
				d.logger.Error("failed to stop api server", logging.KeyError, err)
			}
		}
		return nil
	case err := <-serveErr:
		if err != nil {
			d.metrics.RecordError("api", err)
			d.logger.Error("failed to serve api", logging.KeyError, err)
			return err
		}
		return nil
	}
}

func (d *Daemon) deliver(ctx context.Context, now time.Time) {
	report := d.opts.Deliverer.Deliver(ctx, now)
	d.metrics.RecordDelivery(report, now)

	if d.opts.Pending != nil {
		if n, err := d.opts.Pending(); err != nil {
			d.metrics.RecordError("pending", err)
		} else {
			d.health.SetPending(n)
		}
	}

	d.mu.Lock()
	if d.sched != nil {
		d.health.SetNextCheck(d.sched.NextRun())
	}
	d.mu.Unlock()

	if d.opts.LogFile != nil {
		if rotated, err := d.opts.LogFile.Rotate(DefaultMaxLogSize); err != nil {
			d.metrics.RecordError("log", err)
		} else if rotated {
			d.logger.Info("log rotated", logging.KeyPath, d.opts.LogFile.Path())
		}
	}

	if err := d.writeState(); err != nil {
		d.metrics.RecordError("state", err)
		d.logger.Warn("failed to write daemon state", logging.KeyError, err)
	}
}

func (d *Daemon) writeState() error {
	d.mu.Lock()
	startedAt := d.startedAt
	d.mu.Unlock()

	state := State{
		PID:       os.Getpid(),
		StartedAt: startedAt,
		Listen:    d.opts.Listen,
		Version:   d.opts.Version,
		Health:    d.health.Check(),
		Metrics:   d.metrics.Snapshot(),
	}
	return WriteState(d.opts.Paths.StateFile(), &state)
}

func (d *Daemon) cleanup() {
	if err := d.pidFile.Remove(); err != nil {
		d.logger.Warn("failed to remove PID file", logging.KeyError, err)
	}
	removeState(d.opts.Paths.StateFile(), d.logger)
	d.logger.Info("daemon stopped")
}

// WriteState writes state as JSON to path.
func WriteState(path string, state *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadState reads the state file at path.
func ReadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func removeState(path string, logger *slog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove daemon state file", logging.KeyError, err, logging.KeyPath, path)
	}
}

// Status describes the daemon as seen from another process.
type Status struct {
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Listen    string    `json:"listen,omitempty"`
	State     *State    `json:"state,omitempty"`
	LogFile   string    `json:"log_file"`
	LastError string    `json:"last_error,omitempty"`
}

// GetStatus reports on the daemon from its PID and state files. It never
// opens the database.
func GetStatus(p Paths) *Status {
	status := &Status{LogFile: p.LogFile()}

	pid := NewPIDFile(p.PIDFile()).RunningPID()
	if pid == 0 {
		status.LastError = LastError(p.LogFile())
		return status
	}
	status.Running = true
	status.PID = pid

	if state, err := ReadState(p.StateFile()); err == nil {
		status.State = state
		status.StartedAt = state.StartedAt
		status.Listen = state.Listen
		status.Uptime = formatUptime(time.Since(state.StartedAt))
	}
	return status
}

// StartBackground launches the current executable with args, its output
// appended to the log file, and waits up to wait for the PID file to
// appear.
func StartBackground(p Paths, args []string, wait time.Duration) (int, error) {
	pidFile := NewPIDFile(p.PIDFile())
	if pid := pidFile.RunningPID(); pid > 0 {
		return pid, ErrAlreadyRunning
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	logFile, err := OpenLogFile(p.LogFile())
	if err != nil {
		return 0, err
	}
	defer logFile.Close()

	cmd := exec.Command(executable, args...)
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	go cmd.Wait()

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if pid := pidFile.RunningPID(); pid > 0 {
			return pid, nil
		}
		if !IsProcessRunning(cmd.Process.Pid) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	if pid := pidFile.RunningPID(); pid > 0 {
		return pid, nil
	}
	if msg := LastError(p.LogFile()); msg != "" {
		return 0, fmt.Errorf("daemon failed to start: %s", msg)
	}
	return 0, fmt.Errorf("daemon failed to start (check logs: %s)", p.LogFile())
}

// Stop signals the running daemon and waits up to timeout for it to exit,
// killing it after that.
func Stop(p Paths, timeout time.Duration) error {
	pidFile := NewPIDFile(p.PIDFile())
	pid := pidFile.RunningPID()
	if pid == 0 {
		return ErrNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
	}

	deadline := time.Now().Add(timeout)
	for IsProcessRunning(pid) && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	if IsProcessRunning(pid) {
		process.Kill()
	}

	pidFile.Remove()
	removeState(p.StateFile(), logging.Logger())
	return nil
}

// formatUptime formats a duration as uptime.
func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}
