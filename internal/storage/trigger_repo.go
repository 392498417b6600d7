package storage

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/timeblock/internal/model"
)

// TriggerRepo provides operations for pending notification triggers.
type TriggerRepo struct {
	db *DB
}

// NewTriggerRepo creates a new trigger repository.
func NewTriggerRepo(db *DB) *TriggerRepo {
	return &TriggerRepo{db: db}
}

// Create stores a trigger, assigning a fresh handle and key when missing.
func (r *TriggerRepo) Create(t *model.Trigger) error {
	if t.Handle == "" {
		t.Handle = model.Handle(uuid.New().String())
	}
	t.Key = model.GenerateTriggerKey(t.Handle)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return r.db.Set(t)
}

// Get retrieves the trigger for a handle.
func (r *TriggerRepo) Get(h model.Handle) (*model.Trigger, error) {
	t := &model.Trigger{}
	if err := r.db.Get(model.GenerateTriggerKey(h), t); err != nil {
		return nil, err
	}
	return t, nil
}

// Exists reports whether a trigger is stored for h.
func (r *TriggerRepo) Exists(h model.Handle) (bool, error) {
	return r.db.Exists(model.GenerateTriggerKey(h))
}

// Update overwrites a stored trigger.
func (r *TriggerRepo) Update(t *model.Trigger) error {
	return r.db.Set(t)
}

// Delete removes the trigger for a handle.
func (r *TriggerRepo) Delete(h model.Handle) error {
	return r.db.Delete(model.GenerateTriggerKey(h))
}

// List returns all triggers ordered by fire time. Undecodable records are
// reported to onSkip and omitted.
func (r *TriggerRepo) List(onSkip func(key string, err error)) ([]*model.Trigger, error) {
	triggers, err := GetAllByPrefix(r.db, model.PrefixTrigger+":", func() *model.Trigger {
		return &model.Trigger{}
	}, onSkip)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(triggers, func(i, j int) bool {
		return triggers[i].FireAt.Before(triggers[j].FireAt)
	})
	return triggers, nil
}

// ListDue returns the triggers whose fire time is at or before now.
func (r *TriggerRepo) ListDue(now time.Time, onSkip func(key string, err error)) ([]*model.Trigger, error) {
	all, err := r.List(onSkip)
	if err != nil {
		return nil, err
	}
	var due []*model.Trigger
	for _, t := range all {
		if t.IsDue(now) {
			due = append(due, t)
		}
	}
	return due, nil
}
