package theme

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/model"
)

// Gateway is the key-value store the manager persists its choice in.
type Gateway interface {
	Read(ctx context.Context, key string) (data []byte, found bool, err error)
	Write(ctx context.Context, key string, data []byte) error
}

// Manager tracks the active palette and persists it under model.KeyTheme.
type Manager struct {
	mu      sync.RWMutex
	gateway Gateway
	current Palette
	logger  *slog.Logger
}

// NewManager returns a manager starting on the default palette.
func NewManager(gateway Gateway) *Manager {
	return &Manager{
		gateway: gateway,
		current: MustGet(Default),
		logger:  logging.Logger(),
	}
}

// SetLogger sets the logger used for load and save failures.
func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Load reads the saved palette. A missing, unknown or unreadable value
// leaves the current palette in place; read errors are logged only.
func (m *Manager) Load(ctx context.Context) Palette {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, found, err := m.gateway.Read(ctx, model.KeyTheme)
	if err != nil {
		m.logger.Warn("failed to load theme", logging.KeyError, err)
		return m.current
	}
	if !found {
		return m.current
	}

	name := strings.TrimSpace(string(data))
	p, ok := lookup(name)
	if !ok {
		m.logger.Debug("ignoring unknown saved theme", logging.KeyTheme, name)
		return m.current
	}
	m.current = p
	return p
}

// Current returns the active palette.
func (m *Manager) Current() Palette {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Styles returns the styles of the active palette.
func (m *Manager) Styles() Styles {
	return m.Current().Styles()
}

// Set switches to name and saves it. The switch takes effect even when the
// save fails; the failure is returned as a storage error.
func (m *Manager) Set(ctx context.Context, name string) (Palette, error) {
	p, err := Get(name)
	if err != nil {
		return m.Current(), err
	}

	m.mu.Lock()
	m.current = p
	m.mu.Unlock()

	if err := m.gateway.Write(ctx, model.KeyTheme, []byte(p.Key)); err != nil {
		m.logger.Warn("failed to save theme", logging.KeyTheme, p.Key, logging.KeyError, err)
		return p, errors.NewStorageError("save theme", err)
	}
	return p, nil
}

// Cycle switches to the palette after the current one.
func (m *Manager) Cycle(ctx context.Context) (Palette, error) {
	return m.Set(ctx, Next(m.Current().Key))
}
