package daemon

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/manav03panchal/timeblock/internal/logging"
)

// DefaultMaxLogSize is the size at which the log file is rotated.
const DefaultMaxLogSize = 5 << 20

// LogFile is an append-only log file that can rotate itself. It is safe
// for concurrent writes.
type LogFile struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenLogFile opens path for appending, creating its directory.
func OpenLogFile(path string) (*LogFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &LogFile{path: path, file: file}, nil
}

// Write implements io.Writer.
func (l *LogFile) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return 0, os.ErrClosed
	}
	return l.file.Write(p)
}

// Path returns the log file path.
func (l *LogFile) Path() string {
	return l.path
}

// Close closes the log file.
func (l *LogFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Rotate moves the file to <path>.old once it reaches maxSize bytes and
// starts a fresh one. It reports whether a rotation happened.
func (l *LogFile) Rotate(maxSize int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return false, nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() < maxSize {
		return false, nil
	}

	l.file.Close()
	backup := l.path + ".old"
	os.Remove(backup)
	if err := os.Rename(l.path, backup); err != nil {
		return false, err
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		l.file = nil
		return false, err
	}
	l.file = file
	return true, nil
}

// NewFileLogger returns a JSON slog logger writing to l.
func NewFileLogger(l *LogFile, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return logging.New(logging.Config{
		Level:  level,
		JSON:   true,
		Output: l,
	})
}

// LastError scans the tail of the log at path for the last error line.
func LastError(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	start := len(lines) - 10
	if start < 0 {
		start = 0
	}
	for i := len(lines) - 1; i >= start; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.Contains(line, `"level":"ERROR"`) || strings.Contains(line, "failed to") {
			return line
		}
	}
	return ""
}
