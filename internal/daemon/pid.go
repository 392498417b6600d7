// Package daemon runs timeblock in the background: it delivers due
// reminders on a schedule, optionally serves the HTTP API, and manages its
// own PID, state and log files.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/manav03panchal/timeblock/internal/config"
	"github.com/manav03panchal/timeblock/internal/errors"
)

// File names inside the state directory.
const (
	PIDFileName   = "timeblock.pid"
	StateFileName = "daemon.json"
	LogFileName   = "daemon.log"
)

// Errors
var (
	ErrNotRunning     = errors.New("daemon is not running")
	ErrAlreadyRunning = errors.New("daemon is already running")
)

// Paths locates the daemon's files.
type Paths struct {
	StateDir string
}

// DefaultPaths uses the XDG state directory.
func DefaultPaths() Paths {
	return Paths{StateDir: config.DefaultStateDir()}
}

// PIDFile returns the PID file path.
func (p Paths) PIDFile() string {
	return filepath.Join(p.StateDir, PIDFileName)
}

// StateFile returns the state file path.
func (p Paths) StateFile() string {
	return filepath.Join(p.StateDir, StateFileName)
}

// LogFile returns the log file path.
func (p Paths) LogFile() string {
	return filepath.Join(p.StateDir, LogFileName)
}

// PIDFile manages the daemon PID file.
type PIDFile struct {
	path string
}

// NewPIDFile creates a PID file manager for path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Write writes the current process PID to the file.
func (p *PIDFile) Write() error {
	return p.WritePID(os.Getpid())
}

// WritePID writes a specific PID to the file.
func (p *PIDFile) WritePID(pid int) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Read reads the PID from the file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotRunning
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// Remove removes the PID file.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// RunningPID returns the PID if that process is alive, or 0.
func (p *PIDFile) RunningPID() int {
	pid, err := p.Read()
	if err != nil || !IsProcessRunning(pid) {
		return 0
	}
	return pid
}

// IsRunning checks if the daemon is currently running.
func (p *PIDFile) IsRunning() bool {
	return p.RunningPID() > 0
}

// Path returns the PID file path.
func (p *PIDFile) Path() string {
	return p.path
}

// IsProcessRunning checks if a process with the given PID is running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix FindProcess always succeeds; signal 0 probes the process.
	return process.Signal(syscall.Signal(0)) == nil
}
