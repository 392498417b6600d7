package storage

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manav03panchal/timeblock/internal/errors"
)

// LockFileName is the name of the lock file in a locked directory.
const LockFileName = "timeblock.lock"

var (
	// ErrLockAcquireFailed is returned when the lock cannot be acquired.
	ErrLockAcquireFailed = stderrors.New("failed to acquire lock")
	// ErrLockAlreadyHeld is returned when another process holds the lock.
	ErrLockAlreadyHeld = stderrors.New("locked by another process")
)

// FileLock is a PID-stamped advisory lock on a directory.
type FileLock struct {
	path string
	file *os.File
	pid  int
}

// NewFileLock creates a lock for dir. Nothing is touched until Acquire.
func NewFileLock(dir string) *FileLock {
	return &FileLock{path: filepath.Join(dir, LockFileName)}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking. A lock file left behind by a dead
// process is removed first.
func (l *FileLock) Acquire() error {
	if err := l.cleanStaleLock(); err != nil {
		return err
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	if err := flockAcquire(file); err != nil {
		file.Close()
		if stderrors.Is(err, ErrLockAlreadyHeld) {
			l.pid = l.readPID()
		}
		return err
	}

	fail := func(err error) error {
		flockRelease(file)
		file.Close()
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if err := file.Truncate(0); err != nil {
		return fail(err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fail(err)
	}
	if _, err := fmt.Fprintf(file, "%d", os.Getpid()); err != nil {
		return fail(err)
	}
	if err := file.Sync(); err != nil {
		return fail(err)
	}

	l.file = file
	return nil
}

// Release drops the lock and removes the lock file. Releasing an unheld
// lock is a no-op.
func (l *FileLock) Release() error {
	if l.file == nil {
		return nil
	}

	if err := flockRelease(l.file); err != nil {
		l.file.Close()
		l.file = nil
		return err
	}
	if err := l.file.Close(); err != nil {
		l.file = nil
		return err
	}
	l.file = nil

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// HolderPID returns the PID recorded in the lock file, or 0.
func (l *FileLock) HolderPID() int {
	return l.readPID()
}

func (l *FileLock) cleanStaleLock() error {
	pid := l.readPID()
	if pid <= 0 || pid == os.Getpid() || isProcessRunning(pid) {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clean stale lock: %v", err)
	}
	return nil
}

func (l *FileLock) readPID() int {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// LockError wraps a lock failure with the holder's PID when known.
type LockError struct {
	Err error
	PID int
}

func (e *LockError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("cannot access database: another timeblock instance (PID %d) is running", e.PID)
	}
	return fmt.Sprintf("cannot access database: %v", e.Err)
}

func (e *LockError) Unwrap() []error {
	if stderrors.Is(e.Err, ErrLockAlreadyHeld) {
		return []error{e.Err, errors.ErrLockHeld}
	}
	return []error{e.Err}
}

// NewLockError creates a LockError for err. The holder's PID is filled in
// when err came from a FileLock that saw one.
func NewLockError(err error) *LockError {
	return &LockError{Err: err}
}

// newLockErrorFor is NewLockError with the PID taken from l.
func newLockErrorFor(l *FileLock, err error) *LockError {
	le := NewLockError(err)
	if l != nil {
		le.PID = l.pid
	}
	return le
}
