// Package scheduler turns time blocks into trigger instants and arms them
// with the notification service. It also hosts the cron loop the daemon
// uses to run periodic checks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/manav03panchal/timeblock/internal/logging"
)

// DefaultSpec runs checks at second zero of every minute.
const DefaultSpec = "0 * * * * *"

// Check is a periodic task run by the Scheduler.
type Check interface {
	Name() string
	Check(ctx context.Context, now time.Time)
}

// CheckFunc adapts a function to Check.
type CheckFunc struct {
	Label string
	Fn    func(ctx context.Context, now time.Time)
}

// Name implements Check.
func (f CheckFunc) Name() string { return f.Label }

// Check implements Check.
func (f CheckFunc) Check(ctx context.Context, now time.Time) { f.Fn(ctx, now) }

// Scheduler runs registered checks on a cron spec with seconds.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	checks    []Check
	lastCheck time.Time
	mu        sync.Mutex
	now       func() time.Time
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler that fires on spec (DefaultSpec when empty).
func NewScheduler(spec string) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		spec:   spec,
		now:    time.Now,
		logger: logging.Logger(),
	}
}

// SetLogger sets the logger.
func (s *Scheduler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetClock replaces the clock passed to checks.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Add registers a check. Checks run in registration order.
func (s *Scheduler) Add(c Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, c)
}

// Start starts the cron loop. Checks receive a context that is cancelled by
// Stop.
func (s *Scheduler) Start() error {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.lastCheck = s.now()

	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce() }); err != nil {
		s.cancel()
		return fmt.Errorf("invalid check interval %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Debug("scheduler started", "spec", s.spec)
	return nil
}

// Stop stops the cron loop and waits for a running check to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.logger.Debug("scheduler stopped")
}

// RunOnce runs every registered check immediately.
func (s *Scheduler) RunOnce() {
	s.mu.Lock()
	now := s.now()
	elapsed := now.Sub(s.lastCheck)
	s.lastCheck = now
	checks := append([]Check(nil), s.checks...)
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	s.logger.Debug("running checks", "elapsed", elapsed.Round(time.Second), logging.KeyCount, len(checks))
	for _, c := range checks {
		if ctx.Err() != nil {
			return
		}
		c.Check(ctx, now)
	}
}

// NextRun returns the next scheduled run, or the zero time when stopped.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

// ValidateSpec reports whether spec is a valid cron spec with seconds.
func ValidateSpec(spec string) error {
	p := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err := p.Parse(spec)
	return err
}
