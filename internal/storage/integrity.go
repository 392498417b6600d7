package storage

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/manav03panchal/timeblock/internal/errors"
)

// integritySample bounds how many values CheckIntegrity reads.
const integritySample = 100

// CheckIntegrity reads back a sample of stored values and reports the first
// one that cannot be decoded by Badger.
func (d *DB) CheckIntegrity() error {
	if d == nil || d.db == nil {
		return errors.NewStorageError("integrity check", fmt.Errorf("database not initialized"))
	}

	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10
		it := txn.NewIterator(opts)
		defer it.Close()

		count := 0
		for it.Rewind(); it.Valid() && count < integritySample; it.Next() {
			item := it.Item()
			if err := item.Value(func([]byte) error { return nil }); err != nil {
				return fmt.Errorf("key %q: %w", item.Key(), err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return errors.NewStorageError("integrity check", err)
	}
	return nil
}
