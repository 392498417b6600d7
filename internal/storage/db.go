// Package storage provides the persistence layer for timeblock: a Badger
// key-value database, a byte-level Gateway with Badger, file and SQLite
// implementations, and the trigger repository used by the local
// notification service.
package storage

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	badger "github.com/dgraph-io/badger/v4"
)

// AppName is the application name used for data directories.
const AppName = "timeblock"

// DB wraps a Badger database connection.
type DB struct {
	db   *badger.DB
	path string
	lock *FileLock
}

// Options configures the database connection.
type Options struct {
	// Path is the database directory path. Empty string uses in-memory mode.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
}

// DefaultPath returns the default database path following XDG spec.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, AppName, "db")
}

// Open opens or creates a database at the given path. On-disk databases are
// guarded by a FileLock so only one process uses them at a time.
func Open(opts Options) (*DB, error) {
	var badgerOpts badger.Options
	var lock *FileLock

	if opts.InMemory || opts.Path == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o700); err != nil {
			return nil, err
		}
		lock = NewFileLock(opts.Path)
		if err := lock.Acquire(); err != nil {
			return nil, newLockErrorFor(lock, err)
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
	}

	badgerOpts = badgerOpts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		if lock != nil {
			lock.Release()
		}
		return nil, err
	}

	path := ""
	if lock != nil {
		path = opts.Path
	}
	return &DB{db: db, path: path, lock: lock}, nil
}

// OpenWithIntegrityCheck opens the database and verifies that stored values
// can be read back.
func OpenWithIntegrityCheck(opts Options) (*DB, error) {
	db, err := Open(opts)
	if err != nil {
		return nil, err
	}
	if err := db.CheckIntegrity(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection and releases its lock.
func (d *DB) Close() error {
	err := d.db.Close()
	if d.lock != nil {
		if lerr := d.lock.Release(); err == nil {
			err = lerr
		}
	}
	return err
}

// Path returns the on-disk directory, or "" for in-memory databases.
func (d *DB) Path() string {
	return d.path
}

// Badger returns the underlying Badger database for advanced operations.
func (d *DB) Badger() *badger.DB {
	return d.db
}
