package theme

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/model"
)

type memGateway struct {
	data      map[string][]byte
	failRead  bool
	failWrite bool
}

func newMemGateway() *memGateway {
	return &memGateway{data: make(map[string][]byte)}
}

func (g *memGateway) Read(_ context.Context, key string) ([]byte, bool, error) {
	if g.failRead {
		return nil, false, fmt.Errorf("read failed")
	}
	d, ok := g.data[key]
	return d, ok, nil
}

func (g *memGateway) Write(_ context.Context, key string, data []byte) error {
	if g.failWrite {
		return fmt.Errorf("write failed")
	}
	g.data[key] = append([]byte(nil), data...)
	return nil
}

func newManager(g *memGateway) *Manager {
	m := NewManager(g)
	m.SetLogger(logging.Discard())
	return m
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"gray", "purple", "blue", "velvet"}, Names())
	assert.Len(t, All(), 4)
	assert.True(t, Valid("velvet"))
	assert.False(t, Valid("Velvet"))
}

func TestGet(t *testing.T) {
	p, err := Get("blue")
	require.NoError(t, err)
	assert.Equal(t, "Blue", p.Name)
	assert.Equal(t, "#3B82F6", string(p.Accent))

	_, err = Get("neon")
	assert.ErrorIs(t, err, errors.ErrInvalidTheme)
	assert.True(t, errors.IsUserError(err))
	assert.NotEmpty(t, errors.GetSuggestion(err))
}

func TestNext(t *testing.T) {
	tests := []struct {
		from, want string
	}{
		{"gray", "purple"},
		{"purple", "blue"},
		{"blue", "velvet"},
		{"velvet", "gray"},
		{"unknown", "gray"},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.from))
		})
	}
}

func TestManagerDefaults(t *testing.T) {
	m := newManager(newMemGateway())
	assert.Equal(t, Default, m.Load(context.Background()).Key)
	assert.Equal(t, Default, m.Current().Key)
}

func TestManagerSetPersists(t *testing.T) {
	g := newMemGateway()
	m := newManager(g)

	p, err := m.Set(context.Background(), "purple")
	require.NoError(t, err)
	assert.Equal(t, "purple", p.Key)
	assert.Equal(t, []byte("purple"), g.data[model.KeyTheme])

	reloaded := newManager(g)
	assert.Equal(t, "purple", reloaded.Load(context.Background()).Key)
}

func TestManagerSetRejectsUnknown(t *testing.T) {
	g := newMemGateway()
	m := newManager(g)

	_, err := m.Set(context.Background(), "neon")
	assert.ErrorIs(t, err, errors.ErrInvalidTheme)
	assert.Equal(t, Default, m.Current().Key)
	assert.Empty(t, g.data)
}

func TestManagerSetWriteFailure(t *testing.T) {
	g := newMemGateway()
	g.failWrite = true
	m := newManager(g)

	p, err := m.Set(context.Background(), "blue")
	assert.True(t, errors.IsStorageError(err))
	assert.Equal(t, "blue", p.Key)
	assert.Equal(t, "blue", m.Current().Key, "switch applies even if the save fails")
}

func TestManagerLoadIgnoresBadValues(t *testing.T) {
	g := newMemGateway()
	g.data[model.KeyTheme] = []byte("neon")
	m := newManager(g)
	assert.Equal(t, Default, m.Load(context.Background()).Key)

	g.failRead = true
	assert.Equal(t, Default, m.Load(context.Background()).Key)
}

func TestManagerCycle(t *testing.T) {
	m := newManager(newMemGateway())
	seen := []string{m.Current().Key}
	for i := 0; i < 4; i++ {
		p, err := m.Cycle(context.Background())
		require.NoError(t, err)
		seen = append(seen, p.Key)
	}
	assert.Equal(t, []string{"gray", "purple", "blue", "velvet", "gray"}, seen)
}

func TestStylesRender(t *testing.T) {
	s := MustGet("velvet").Styles()
	assert.Contains(t, s.Title.Render("My blocks"), "My blocks")
	assert.Contains(t, s.Time.Render("09:30"), "09:30")
}
