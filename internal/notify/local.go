package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/storage"
)

// Permission states stored under model.KeyPermission.
const (
	PermissionUnset   = ""
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

// LocalGateway is a Gateway that keeps triggers in the local database. A
// Deliverer running in the daemon fires them.
type LocalGateway struct {
	db       *storage.DB
	triggers *storage.TriggerRepo
	enabled  bool
	now      func() time.Time
	mu       sync.Mutex
}

// NewLocalGateway creates a gateway over db. When enabled is false
// permission is never granted.
func NewLocalGateway(db *storage.DB, enabled bool) *LocalGateway {
	return &LocalGateway{
		db:       db,
		triggers: storage.NewTriggerRepo(db),
		enabled:  enabled,
		now:      time.Now,
	}
}

// Triggers returns the trigger repository.
func (g *LocalGateway) Triggers() *storage.TriggerRepo {
	return g.triggers
}

// PermissionState returns the stored permission state.
func (g *LocalGateway) PermissionState() (string, error) {
	data, err := g.db.GetBytes(model.KeyPermission)
	if err != nil {
		if storage.IsErrKeyNotFound(err) {
			return PermissionUnset, nil
		}
		return "", err
	}
	return string(data), nil
}

// Allow records that the user granted permission.
func (g *LocalGateway) Allow() error {
	return g.db.SetBytes(model.KeyPermission, []byte(PermissionGranted))
}

// Deny records that the user refused permission.
func (g *LocalGateway) Deny() error {
	return g.db.SetBytes(model.KeyPermission, []byte(PermissionDenied))
}

// Enabled reports whether notifications are enabled in configuration.
func (g *LocalGateway) Enabled() bool {
	return g.enabled
}

// RequestPermission implements Gateway. The first request on an enabled
// service grants permission; a previous Deny is respected.
func (g *LocalGateway) RequestPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !g.enabled {
		return false, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.PermissionState()
	if err != nil {
		return false, err
	}
	switch state {
	case PermissionDenied:
		return false, nil
	case PermissionGranted:
		return true, nil
	}
	if err := g.Allow(); err != nil {
		return false, err
	}
	return true, nil
}

func (g *LocalGateway) granted() (bool, error) {
	if !g.enabled {
		return false, nil
	}
	state, err := g.PermissionState()
	if err != nil {
		return false, err
	}
	return state == PermissionGranted, nil
}

// Schedule implements Gateway.
func (g *LocalGateway) Schedule(ctx context.Context, at time.Time, content model.Content) (model.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ok, err := g.granted()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &errors.PermissionError{}
	}

	t := &model.Trigger{
		FireAt:    at,
		Content:   content,
		CreatedAt: g.now(),
	}
	if err := g.triggers.Create(t); err != nil {
		return "", fmt.Errorf("failed to store trigger: %w", err)
	}
	return t.Handle, nil
}

// Cancel implements Gateway. Unknown handles fail with ErrHandleUnknown.
func (g *LocalGateway) Cancel(ctx context.Context, h model.Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ok, err := g.triggers.Exists(h)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrHandleUnknown, h)
	}
	return g.triggers.Delete(h)
}

// Pending returns every stored trigger ordered by fire time.
func (g *LocalGateway) Pending(onSkip func(key string, err error)) ([]*model.Trigger, error) {
	return g.triggers.List(onSkip)
}
