package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manav03panchal/timeblock/internal/errors"
)

const (
	// MinFreeSpace is the minimum free space required for file writes (10MB).
	MinFreeSpace = 10 * 1024 * 1024
	// MinFreeSpaceWarning is the threshold for warning about low disk space (50MB).
	MinFreeSpaceWarning = 50 * 1024 * 1024
)

// ErrDiskFull is the cause attached to storage errors raised for lack of space.
var ErrDiskFull = errors.New("disk full")

// DiskSpaceInfo contains information about available disk space.
type DiskSpaceInfo struct {
	Path       string
	TotalBytes uint64
	FreeBytes  uint64
	UsedBytes  uint64
}

// FreePercent returns the percentage of free space.
func (d *DiskSpaceInfo) FreePercent() float64 {
	if d.TotalBytes == 0 {
		return 0
	}
	return float64(d.FreeBytes) / float64(d.TotalBytes) * 100
}

// CheckDiskSpace fails when free space at path is below MinFreeSpace. If the
// space cannot be measured the check passes.
func CheckDiskSpace(path string) error {
	info, err := GetDiskSpace(path)
	if err != nil {
		return nil
	}
	if info.FreeBytes < MinFreeSpace {
		return errors.NewStorageError("disk check", fmt.Errorf("%w: %d MB free, need at least %d MB",
			ErrDiskFull, info.FreeBytes/(1024*1024), MinFreeSpace/(1024*1024)))
	}
	return nil
}

// CheckDiskSpaceWarning returns a warning when space is low, or "".
func CheckDiskSpaceWarning(path string) string {
	info, err := GetDiskSpace(path)
	if err != nil {
		return ""
	}
	if info.FreeBytes < MinFreeSpaceWarning {
		return fmt.Sprintf("Warning: Low disk space (%d MB free)", info.FreeBytes/(1024*1024))
	}
	return ""
}

// SafeWrite writes data to path through a synced temp file and a rename, so
// readers see either the old content or the new content.
func SafeWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := CheckDiskSpace(dir); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".timeblock-*.tmp")
	if err != nil {
		return diskError("create temp file", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return diskError("write", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return diskError("sync", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// EnsureDirectory creates a directory with 0700 permissions if needed.
func EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return diskError("mkdir", err)
	}
	return nil
}

func diskError(op string, err error) error {
	if isDiskFullError(err) {
		return errors.NewStorageError(op, ErrDiskFull)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
