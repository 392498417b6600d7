package storage

import (
	"context"
)

// Gateway is a durable byte store addressed by string keys. Read reports
// found=false with a nil error when the key has never been written.
type Gateway interface {
	Read(ctx context.Context, key string) (data []byte, found bool, err error)
	Write(ctx context.Context, key string, data []byte) error
}

// KVGateway stores values in the Badger database.
type KVGateway struct {
	db *DB
}

// NewKVGateway creates a Gateway over db.
func NewKVGateway(db *DB) *KVGateway {
	return &KVGateway{db: db}
}

// Read implements Gateway.
func (g *KVGateway) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := g.db.GetBytes(key)
	if err != nil {
		if IsErrKeyNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Write implements Gateway.
func (g *KVGateway) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.db.SetBytes(key, data)
}

var (
	_ Gateway = (*KVGateway)(nil)
	_ Gateway = (*FileGateway)(nil)
	_ Gateway = (*SQLGateway)(nil)
)
