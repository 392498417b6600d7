// Package blockstore keeps the list of time blocks in memory, arms their
// reminders on creation, disarms them on deletion and mirrors the list to a
// storage gateway.
package blockstore

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/validate"
)

// Gateway is the durable byte store the list is mirrored to.
type Gateway interface {
	Read(ctx context.Context, key string) (data []byte, found bool, err error)
	Write(ctx context.Context, key string, data []byte) error
}

// Reminders arms and disarms the notifications of a block.
type Reminders interface {
	Arm(ctx context.Context, block *model.TimeBlock) ([]model.Handle, error)
	Disarm(ctx context.Context, handles []model.Handle) int
}

// Store owns the block list. All mutations are serialized.
type Store struct {
	mu        sync.Mutex
	gateway   Gateway
	reminders Reminders
	blocks    []*model.TimeBlock
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// New creates an empty Store. Call Load to read the persisted list.
func New(gateway Gateway, reminders Reminders) *Store {
	return &Store{
		gateway:   gateway,
		reminders: reminders,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		logger:    logging.Logger(),
	}
}

// SetLogger sets the logger.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetClock replaces the clock used to date stored time stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Create arms reminders for a new block, appends it and persists the list.
//
// An empty day set or an invalid time is rejected before anything else
// happens. If arming fails nothing is added. If persisting fails the block
// is kept in memory and returned together with a StorageError; a later
// Persist can retry.
func (s *Store) Create(ctx context.Context, label string, t model.TimeOfDay, days model.WeekdaySet) (*model.TimeBlock, error) {
	if days.Empty() {
		return nil, errors.NewValidationError("days", errors.ErrNoDays)
	}
	if !t.Valid() {
		return nil, errors.NewValidationError("time", errors.ErrInvalidTime)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	block := &model.TimeBlock{
		Label: validate.SanitizeLabel(label),
		Time:  t,
		Days:  days,
	}

	handles, err := s.reminders.Arm(ctx, block)
	if err != nil {
		return nil, err
	}

	block.ID = s.newID()
	block.Handles = handles
	s.blocks = append(s.blocks, block)

	s.logger.Info("block created",
		logging.KeyBlockID, block.ID,
		"time", t.String(),
		"days", days.String(),
		logging.KeyCount, len(handles))

	if err := s.persistLocked(ctx); err != nil {
		return block.Clone(), err
	}
	return block.Clone(), nil
}

// Delete disarms the block's reminders, removes it and persists the list.
// Cancel failures are logged and do not stop the deletion.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return &errors.NotFoundError{ID: id}
	}
	block := s.blocks[idx]

	if failed := s.reminders.Disarm(ctx, block.Handles); failed > 0 {
		s.logger.Warn("some reminders could not be cancelled",
			logging.KeyBlockID, id,
			logging.KeyCount, failed)
	}

	s.blocks = append(s.blocks[:idx:idx], s.blocks[idx+1:]...)
	s.logger.Info("block deleted", logging.KeyBlockID, id)

	return s.persistLocked(ctx)
}

// Edit replaces a block by deleting it and creating a new one with a new ID.
// The old block is gone even when creating the replacement fails.
func (s *Store) Edit(ctx context.Context, id, label string, t model.TimeOfDay, days model.WeekdaySet) (*model.TimeBlock, error) {
	if days.Empty() {
		return nil, errors.NewValidationError("days", errors.ErrNoDays)
	}
	if !t.Valid() {
		return nil, errors.NewValidationError("time", errors.ErrInvalidTime)
	}
	if err := s.Delete(ctx, id); err != nil {
		return nil, err
	}
	return s.Create(ctx, label, t, days)
}

// Load replaces the in-memory list with the persisted one.
//
// A missing key yields an empty list. Records that cannot be decoded are
// logged and skipped; a blob that is not a list at all is logged and treated
// as empty. Only a failing read is returned as an error, and then the
// in-memory list is left untouched.
func (s *Store) Load(ctx context.Context) ([]*model.TimeBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, found, err := s.gateway.Read(ctx, model.KeyTimeBlocks)
	if err != nil {
		return nil, errors.NewStorageError("load", err)
	}

	var blocks []*model.TimeBlock
	if found && len(data) > 0 {
		var issues []decodeIssue
		blocks, issues, err = decode(data)
		if err != nil {
			s.logger.Warn("storage corrupt: block list unreadable",
				logging.KeyKey, model.KeyTimeBlocks,
				logging.KeyError, err)
		}
		for _, is := range issues {
			s.logger.Warn("storage corrupt: skipping block record",
				logging.KeyKey, model.KeyTimeBlocks,
				"index", is.Index,
				logging.KeyError, is.Err)
		}
	}

	s.blocks = blocks
	s.logger.Debug("blocks loaded", logging.KeyCount, len(blocks))
	return s.cloneLocked(), nil
}

// Persist writes the current list to storage, overwriting what is there.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := encode(s.blocks, s.now())
	if err != nil {
		return errors.NewStorageError("persist", err)
	}
	if err := s.gateway.Write(ctx, model.KeyTimeBlocks, data); err != nil {
		s.logger.Error("failed to persist blocks", logging.KeyError, err)
		return errors.NewStorageError("persist", err)
	}
	return nil
}

// List returns a copy of the blocks in creation order.
func (s *Store) List() []*model.TimeBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneLocked()
}

// Len returns the number of blocks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocks)
}

// Get returns a copy of the block with the given ID.
func (s *Store) Get(id string) (*model.TimeBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &errors.NotFoundError{ID: id}
	}
	return s.blocks[idx].Clone(), nil
}

// Find resolves a full ID or a unique ID prefix, as printed by ShortID.
func (s *Store) Find(ref string) (*model.TimeBlock, error) {
	ref = strings.TrimSpace(ref)

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexLocked(ref); idx >= 0 {
		return s.blocks[idx].Clone(), nil
	}
	if ref == "" {
		return nil, &errors.NotFoundError{ID: ref}
	}

	var match *model.TimeBlock
	for _, b := range s.blocks {
		if strings.HasPrefix(b.ID, ref) {
			if match != nil {
				return nil, errors.NewUserErrorWithField("id", ref,
					"ambiguous block id",
					"Use more characters of the ID shown by 'timeblock blocks ls'")
			}
			match = b
		}
	}
	if match == nil {
		return nil, &errors.NotFoundError{ID: ref}
	}
	return match.Clone(), nil
}

func (s *Store) indexLocked(id string) int {
	for i, b := range s.blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) cloneLocked() []*model.TimeBlock {
	out := make([]*model.TimeBlock, len(s.blocks))
	for i, b := range s.blocks {
		out[i] = b.Clone()
	}
	return out
}
