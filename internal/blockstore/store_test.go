package blockstore

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/notify"
	"github.com/manav03panchal/timeblock/internal/scheduler"
	"github.com/manav03panchal/timeblock/internal/storage"
)

var wed10 = time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local)

// memGateway is an in-memory Gateway with injectable failures.
type memGateway struct {
	data      map[string][]byte
	failRead  bool
	failWrite bool
	writes    int
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
		return fmt.Errorf("disk full")
	}
	g.writes++
	g.data[key] = append([]byte(nil), data...)
	return nil
}

// env wires a Store to a real local notification service on an in-memory DB.
type env struct {
	store   *Store
	gateway *memGateway
	notify  *notify.LocalGateway
}

func setup(t *testing.T) *env {
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ng := notify.NewLocalGateway(db, true)
	granted, err := ng.RequestPermission(context.Background())
	require.NoError(t, err)

	r := scheduler.NewReminders(ng, granted)
	r.SetClock(func() time.Time { return wed10 })
	r.SetLogger(logging.Discard())

	mg := newMemGateway()
	s := New(mg, r)
	s.SetClock(func() time.Time { return wed10 })
	s.SetLogger(logging.Discard())

	return &env{store: s, gateway: mg, notify: ng}
}

func (e *env) pending(t *testing.T) map[model.Handle]bool {
	triggers, err := e.notify.Pending(nil)
	require.NoError(t, err)
	out := make(map[model.Handle]bool, len(triggers))
	for _, tr := range triggers {
		out[tr.Handle] = true
	}
	return out
}

var monWed = model.NewWeekdaySet(model.Monday, model.Wednesday)

// =============================================================================
// Create
// =============================================================================

func TestCreate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	b, err := e.store.Create(ctx, "  Stand-up ", model.TimeOfDay{Hour: 9, Minute: 30}, monWed)
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "Stand-up", b.Label)
	assert.Len(t, b.Handles, 2)
	assert.True(t, b.Armed())
	assert.Equal(t, 1, e.gateway.writes)
	assert.Len(t, e.pending(t), 2)

	got, err := e.store.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestCreateCleansLabel(t *testing.T) {
	e := setup(t)

	b, err := e.store.Create(context.Background(), "Deep\nwork\x00", model.TimeOfDay{Hour: 8}, monWed)
	require.NoError(t, err)
	assert.Equal(t, "Deep work", b.Label)
}

func TestCreateRejectsEmptyDays(t *testing.T) {
	e := setup(t)

	_, err := e.store.Create(context.Background(), "x", model.TimeOfDay{Hour: 9}, 0)
	assert.True(t, errors.IsUserError(err))
	assert.ErrorIs(t, err, errors.ErrNoDays)
	assert.Equal(t, 0, e.store.Len())
	assert.Equal(t, 0, e.gateway.writes)
	assert.Empty(t, e.pending(t))
}

func TestCreateRejectsInvalidTime(t *testing.T) {
	e := setup(t)

	_, err := e.store.Create(context.Background(), "x", model.TimeOfDay{Hour: 24}, monWed)
	assert.ErrorIs(t, err, errors.ErrInvalidTime)
	assert.Equal(t, 0, e.store.Len())
}

func TestCreateWithoutPermission(t *testing.T) {
	e := setup(t)
	require.NoError(t, e.notify.Deny())

	r := scheduler.NewReminders(e.notify, false)
	s := New(e.gateway, r)
	s.SetLogger(logging.Discard())

	_, err := s.Create(context.Background(), "x", model.TimeOfDay{Hour: 9}, monWed)
	assert.True(t, errors.IsPermissionError(err))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, e.gateway.writes)
}

func TestCreatePersistFailureKeepsBlock(t *testing.T) {
	e := setup(t)
	e.gateway.failWrite = true
	ctx := context.Background()

	b, err := e.store.Create(ctx, "Focus", model.TimeOfDay{Hour: 14}, monWed)
	require.Error(t, err)
	assert.True(t, errors.IsStorageError(err))
	require.NotNil(t, b)
	assert.Len(t, b.Handles, 2)
	assert.Equal(t, 1, e.store.Len())

	e.gateway.failWrite = false
	require.NoError(t, e.store.Persist(ctx))

	blocks, err := e.store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, b.ID, blocks[0].ID)
}

func TestCreateDuplicatesAllowed(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	a, err := e.store.Create(ctx, "Same", model.TimeOfDay{Hour: 8}, monWed)
	require.NoError(t, err)
	b, err := e.store.Create(ctx, "Same", model.TimeOfDay{Hour: 8}, monWed)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, e.store.Len())
}

// =============================================================================
// Load / Persist
// =============================================================================

func TestCreateThenLoad(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	a, err := e.store.Create(ctx, "Stand-up", model.TimeOfDay{Hour: 9, Minute: 30}, monWed)
	require.NoError(t, err)
	b, err := e.store.Create(ctx, "", model.TimeOfDay{Hour: 23, Minute: 5}, model.Weekend)
	require.NoError(t, err)

	fresh := New(e.gateway, scheduler.NewReminders(e.notify, true))
	fresh.SetLogger(logging.Discard())
	blocks, err := fresh.Load(ctx)
	require.NoError(t, err)

	require.Len(t, blocks, 2)
	assert.Equal(t, a, blocks[0])
	assert.Equal(t, b, blocks[1])
	assert.Equal(t, blocks, fresh.List())
}

func TestCreateThenLoadOnDSTDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })

	e := setup(t)
	ctx := context.Background()
	// Clocks skip 02:00-03:00 on this date.
	e.store.SetClock(func() time.Time { return time.Date(2026, 3, 8, 12, 0, 0, 0, loc) })

	tod := model.TimeOfDay{Hour: 2, Minute: 30}
	created, err := e.store.Create(ctx, "x", tod, model.NewWeekdaySet(model.Monday))
	require.NoError(t, err)
	assert.Contains(t, string(e.gateway.data[model.KeyTimeBlocks]), `"time":"2026-03-08T02:30:00"`)

	fresh := New(e.gateway, scheduler.NewReminders(e.notify, true))
	fresh.SetLogger(logging.Discard())
	blocks, err := fresh.Load(ctx)
	require.NoError(t, err)

	require.Len(t, blocks, 1)
	assert.Equal(t, tod, blocks[0].Time)
	assert.Equal(t, created, blocks[0])
}

func TestLoadMissingKey(t *testing.T) {
	e := setup(t)
	blocks, err := e.store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestLoadSkipsCorruptRecords(t *testing.T) {
	e := setup(t)
	e.gateway.data[model.KeyTimeBlocks] = []byte(`[
		{"id":"good","label":"Read","time":"2026-03-04T07:15:00","days":["Mon","Fri"],"handles":["h1","h2"],"color":"ignored"},
		{"id":"bad-time","label":"x","time":"tomorrow","days":["Mon"],"handles":["h3"]},
		{"id":"bad-date","label":"x","time":"garbageT09:30","days":["Mon"],"handles":["h6"]},
		{"id":"bad-day","label":"x","time":"2026-03-04T07:15:00","days":["Funday"],"handles":["h4"]},
		{"id":"no-days","label":"x","time":"2026-03-04T07:15:00","days":[],"handles":[]},
		"not an object",
		{"id":"good","label":"dup","time":"2026-03-04T08:00:00","days":["Tue"],"handles":["h5"]}
	]`)

	blocks, err := e.store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	b := blocks[0]
	assert.Equal(t, "good", b.ID)
	assert.Equal(t, "Read", b.Label)
	assert.Equal(t, model.TimeOfDay{Hour: 7, Minute: 15}, b.Time)
	assert.Equal(t, model.NewWeekdaySet(model.Monday, model.Friday), b.Days)
	assert.Equal(t, []model.Handle{"h1", "h2"}, b.Handles)
}

func TestLoadLegacyTimeFormats(t *testing.T) {
	e := setup(t)
	e.gateway.data[model.KeyTimeBlocks] = []byte(`[
		{"id":"a","label":"","time":"06:45","days":["Sun"],"handles":["h"]}
	]`)

	blocks, err := e.store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, model.TimeOfDay{Hour: 6, Minute: 45}, blocks[0].Time)
	assert.Equal(t, model.DefaultBlockLabel, blocks[0].DisplayLabel())
}

func TestLoadNotAnArray(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.store.Create(ctx, "x", model.TimeOfDay{Hour: 9}, monWed)
	require.NoError(t, err)

	e.gateway.data[model.KeyTimeBlocks] = []byte(`{"oops":true}`)
	blocks, err := e.store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, blocks)
	assert.Equal(t, 0, e.store.Len())
}

func TestLoadReadFailureKeepsList(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.store.Create(ctx, "x", model.TimeOfDay{Hour: 9}, monWed)
	require.NoError(t, err)

	e.gateway.failRead = true
	_, err = e.store.Load(ctx)
	assert.True(t, errors.IsStorageError(err))
	assert.Equal(t, 1, e.store.Len())
}

func TestPersistFormat(t *testing.T) {
	e := setup(t)

	b, err := e.store.Create(context.Background(), "Gym", model.TimeOfDay{Hour: 18}, model.NewWeekdaySet(model.Saturday, model.Tuesday))
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(e.gateway.data[model.KeyTimeBlocks], &records))
	require.Len(t, records, 1)
	assert.Equal(t, b.ID, records[0]["id"])
	assert.Equal(t, "Gym", records[0]["label"])
	assert.Equal(t, "2026-03-04T18:00:00", records[0]["time"])
	assert.Equal(t, []any{"Tue", "Sat"}, records[0]["days"])
	assert.Len(t, records[0]["handles"], 2)
}

func TestStoreOverKVGateway(t *testing.T) {
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	ng := notify.NewLocalGateway(db, true)
	_, err = ng.RequestPermission(context.Background())
	require.NoError(t, err)

	s := New(storage.NewKVGateway(db), scheduler.NewReminders(ng, true))
	s.SetLogger(logging.Discard())

	b, err := s.Create(context.Background(), "kv", model.TimeOfDay{Hour: 5}, model.WorkDays)
	require.NoError(t, err)

	other := New(storage.NewKVGateway(db), scheduler.NewReminders(ng, true))
	other.SetLogger(logging.Discard())
	blocks, err := other.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, b, blocks[0])
}

// =============================================================================
// Delete / Edit / Find
// =============================================================================

func TestDeleteTouchesOnlyThatBlock(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	a, err := e.store.Create(ctx, "A", model.TimeOfDay{Hour: 8}, monWed)
	require.NoError(t, err)
	b, err := e.store.Create(ctx, "B", model.TimeOfDay{Hour: 9}, model.NewWeekdaySet(model.Friday))
	require.NoError(t, err)

	require.NoError(t, e.store.Delete(ctx, a.ID))

	pending := e.pending(t)
	assert.Len(t, pending, 1)
	assert.True(t, pending[b.Handles[0]])

	blocks := e.store.List()
	require.Len(t, blocks, 1)
	assert.Equal(t, b.ID, blocks[0].ID)

	_, err = e.store.Get(a.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteUnknownID(t *testing.T) {
	e := setup(t)
	writes := e.gateway.writes

	err := e.store.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, errors.ErrBlockNotFound)
	assert.Equal(t, writes, e.gateway.writes)
}

func TestDeleteSurvivesCancelFailures(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	b, err := e.store.Create(ctx, "A", model.TimeOfDay{Hour: 8}, monWed)
	require.NoError(t, err)

	// Cancel one handle behind the store's back so Disarm partly fails.
	require.NoError(t, e.notify.Cancel(ctx, b.Handles[0]))

	require.NoError(t, e.store.Delete(ctx, b.ID))
	assert.Equal(t, 0, e.store.Len())
	assert.Empty(t, e.pending(t))
}

func TestDeletePersistFailure(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	b, err := e.store.Create(ctx, "A", model.TimeOfDay{Hour: 8}, monWed)
	require.NoError(t, err)

	e.gateway.failWrite = true
	err = e.store.Delete(ctx, b.ID)
	assert.True(t, errors.IsStorageError(err))
	assert.Equal(t, 0, e.store.Len())
}

func TestEdit(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	old, err := e.store.Create(ctx, "Old", model.TimeOfDay{Hour: 8}, monWed)
	require.NoError(t, err)

	edited, err := e.store.Edit(ctx, old.ID, "New", model.TimeOfDay{Hour: 10, Minute: 15}, model.NewWeekdaySet(model.Thursday))
	require.NoError(t, err)

	assert.NotEqual(t, old.ID, edited.ID)
	assert.Equal(t, "New", edited.Label)
	assert.Len(t, edited.Handles, 1)
	assert.Len(t, e.pending(t), 1)
	assert.Equal(t, 1, e.store.Len())

	_, err = e.store.Edit(ctx, old.ID, "x", model.TimeOfDay{}, monWed)
	assert.True(t, errors.IsNotFound(err))

	_, err = e.store.Edit(ctx, edited.ID, "x", model.TimeOfDay{}, 0)
	assert.ErrorIs(t, err, errors.ErrNoDays)
	assert.Equal(t, 1, e.store.Len(), "validation happens before delete")
}

func TestFind(t *testing.T) {
	e := setup(t)
	ids := []string{"abc12345-0000", "abd99999-0000", "xyz00000-0000"}
	i := 0
	e.store.newID = func() string { i++; return ids[i-1] }

	ctx := context.Background()
	for range ids {
		_, err := e.store.Create(ctx, "b", model.TimeOfDay{Hour: 1}, monWed)
		require.NoError(t, err)
	}

	b, err := e.store.Find("xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz00000-0000", b.ID)

	b, err = e.store.Find("abd99999-0000")
	require.NoError(t, err)
	assert.Equal(t, "abd99999-0000", b.ID)

	_, err = e.store.Find("ab")
	assert.True(t, errors.IsUserError(err))

	_, err = e.store.Find("q")
	assert.True(t, errors.IsNotFound(err))

	_, err = e.store.Find("")
	assert.True(t, errors.IsNotFound(err))
}

func TestListReturnsCopies(t *testing.T) {
	e := setup(t)
	_, err := e.store.Create(context.Background(), "A", model.TimeOfDay{Hour: 8}, monWed)
	require.NoError(t, err)

	list := e.store.List()
	list[0].Label = "mutated"
	list[0].Handles[0] = "zzz"

	again := e.store.List()
	assert.Equal(t, "A", again[0].Label)
	assert.NotEqual(t, model.Handle("zzz"), again[0].Handles[0])
}
