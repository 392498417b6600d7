package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileGateway stores each key as one JSON file in a directory. Writes are
// atomic through SafeWrite.
type FileGateway struct {
	dir string
}

// NewFileGateway creates a Gateway rooted at dir, creating it if needed.
func NewFileGateway(dir string) (*FileGateway, error) {
	if dir == "" {
		return nil, fmt.Errorf("file gateway directory is empty")
	}
	if err := EnsureDirectory(dir); err != nil {
		return nil, err
	}
	return &FileGateway{dir: dir}, nil
}

// Dir returns the root directory.
func (g *FileGateway) Dir() string {
	return g.dir
}

// Read implements Gateway.
func (g *FileGateway) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(g.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Write implements Gateway.
func (g *FileGateway) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return SafeWrite(g.pathFor(key), data, 0o600)
}

func (g *FileGateway) pathFor(key string) string {
	return filepath.Join(g.dir, url.PathEscape(key)+".json")
}
