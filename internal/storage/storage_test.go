package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/model"
)

// Helper to create an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	db, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// =============================================================================
// DB Tests
// =============================================================================

func TestOpenClose(t *testing.T) {
	t.Run("in_memory", func(t *testing.T) {
		db, err := Open(Options{InMemory: true})
		require.NoError(t, err)
		assert.Equal(t, "", db.Path())
		assert.NotNil(t, db.Badger())
		assert.NoError(t, db.Close())
	})

	t.Run("empty_path_uses_in_memory", func(t *testing.T) {
		db, err := Open(Options{Path: ""})
		require.NoError(t, err)
		assert.Nil(t, db.lock)
		db.Close()
	})

	t.Run("on_disk", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db")
		db, err := Open(Options{Path: dir})
		require.NoError(t, err)
		assert.Equal(t, dir, db.Path())
		assert.NotNil(t, db.lock)
		require.NoError(t, db.Close())

		_, err = os.Stat(filepath.Join(dir, LockFileName))
		assert.True(t, os.IsNotExist(err), "lock file should be removed after close")
	})
}

func TestOpenLocked(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	db1, err := Open(Options{Path: dir})
	require.NoError(t, err)
	defer db1.Close()

	_, err = Open(Options{Path: dir})
	require.Error(t, err)

	var lockErr *LockError
	assert.ErrorAs(t, err, &lockErr)
	assert.ErrorIs(t, err, ErrLockAlreadyHeld)
	assert.ErrorIs(t, err, errors.ErrLockHeld)
}

func TestOpenWithIntegrityCheck(t *testing.T) {
	db, err := OpenWithIntegrityCheck(Options{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SetBytes("a", []byte("1")))
	assert.NoError(t, db.CheckIntegrity())
}

func TestDefaultPath(t *testing.T) {
	path := DefaultPath()
	assert.Contains(t, path, "timeblock")
	assert.Contains(t, path, "db")
}

// =============================================================================
// CRUD Tests
// =============================================================================

func TestBytesRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetBytes("missing")
	assert.True(t, IsErrKeyNotFound(err))

	require.NoError(t, db.SetBytes("k", []byte("v")))
	data, err := db.GetBytes("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)

	ok, err := db.Exists("k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, db.Delete("k"))
	ok, err = db.Exists("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListByPrefix(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SetBytes("trigger:a", []byte("{}")))
	require.NoError(t, db.SetBytes("trigger:b", []byte("{}")))
	require.NoError(t, db.SetBytes("theme", []byte("gray")))

	keys, err := db.ListByPrefix("trigger:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"trigger:a", "trigger:b"}, keys)
}

// =============================================================================
// Gateway Tests
// =============================================================================

func gateways(t *testing.T) map[string]Gateway {
	fg, err := NewFileGateway(filepath.Join(t.TempDir(), "blocks"))
	require.NoError(t, err)

	sg, err := OpenSQLGateway(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sg.Close() })

	return map[string]Gateway{
		"badger": NewKVGateway(setupTestDB(t)),
		"file":   fg,
		"sqlite": sg,
	}
}

func TestGateways(t *testing.T) {
	ctx := context.Background()

	for name, g := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			data, found, err := g.Read(ctx, model.KeyTimeBlocks)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, data)

			require.NoError(t, g.Write(ctx, model.KeyTimeBlocks, []byte(`[]`)))
			require.NoError(t, g.Write(ctx, model.KeyTimeBlocks, []byte(`[{"id":"x"}]`)))

			data, found, err = g.Read(ctx, model.KeyTimeBlocks)
			require.NoError(t, err)
			assert.True(t, found)
			assert.JSONEq(t, `[{"id":"x"}]`, string(data))

			require.NoError(t, g.Write(ctx, model.KeyTheme, []byte(`"blue"`)))
			data, _, err = g.Read(ctx, model.KeyTimeBlocks)
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":"x"}]`, string(data), "keys are independent")
		})
	}
}

func TestGatewayCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewKVGateway(setupTestDB(t))
	_, _, err := g.Read(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, g.Write(ctx, "k", nil), context.Canceled)
}

func TestFileGatewayEscapesKeys(t *testing.T) {
	fg, err := NewFileGateway(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fg.Write(context.Background(), "a/b", []byte("1")))
	_, err = os.Stat(filepath.Join(fg.Dir(), "a%2Fb.json"))
	assert.NoError(t, err)
}

func TestNewFileGatewayEmptyDir(t *testing.T) {
	_, err := NewFileGateway("")
	assert.Error(t, err)
}

// =============================================================================
// Safety Tests
// =============================================================================

func TestSafeWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, SafeWrite(path, []byte("one"), 0o600))
	require.NoError(t, SafeWrite(path, []byte("two"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".timeblock-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSafeWriteMissingDir(t *testing.T) {
	err := SafeWrite(filepath.Join(t.TempDir(), "nope", "out.json"), []byte("x"), 0o600)
	assert.Error(t, err)
}

func TestGetDiskSpace(t *testing.T) {
	info, err := GetDiskSpace(filepath.Join(t.TempDir(), "not", "yet"))
	require.NoError(t, err)
	assert.Greater(t, info.TotalBytes, uint64(0))
	assert.GreaterOrEqual(t, info.FreePercent(), 0.0)
}

// =============================================================================
// TriggerRepo Tests
// =============================================================================

func TestTriggerRepo(t *testing.T) {
	repo := NewTriggerRepo(setupTestDB(t))
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.Local)

	later := &model.Trigger{FireAt: now.Add(time.Hour), Content: model.Content{Title: "T", Body: "later"}}
	soon := &model.Trigger{FireAt: now.Add(-time.Minute), Content: model.Content{Title: "T", Body: "soon"}}
	require.NoError(t, repo.Create(later))
	require.NoError(t, repo.Create(soon))

	assert.NotEmpty(t, later.Handle)
	assert.NotEqual(t, later.Handle, soon.Handle)
	assert.Equal(t, model.GenerateTriggerKey(later.Handle), later.Key)
	assert.False(t, later.CreatedAt.IsZero())

	got, err := repo.Get(soon.Handle)
	require.NoError(t, err)
	assert.Equal(t, "soon", got.Content.Body)
	assert.Equal(t, soon.Key, got.Key)

	all, err := repo.List(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, soon.Handle, all[0].Handle, "ordered by fire time")

	due, err := repo.ListDue(now, nil)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, soon.Handle, due[0].Handle)

	got.FireCount = 3
	require.NoError(t, repo.Update(got))
	got, err = repo.Get(soon.Handle)
	require.NoError(t, err)
	assert.Equal(t, 3, got.FireCount)

	require.NoError(t, repo.Delete(soon.Handle))
	ok, err := repo.Exists(soon.Handle)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Get(soon.Handle)
	assert.True(t, IsErrKeyNotFound(err))
}

func TestTriggerRepoSkipsCorrupt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTriggerRepo(db)

	require.NoError(t, repo.Create(&model.Trigger{FireAt: time.Now()}))
	require.NoError(t, db.SetBytes(model.PrefixTrigger+":broken", []byte("{not json")))

	var skipped []string
	all, err := repo.List(func(key string, err error) { skipped = append(skipped, key) })
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, []string{model.PrefixTrigger + ":broken"}, skipped)
}
