package daemon

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/manav03panchal/timeblock/internal/notify"
)

// Metrics tracks delivery counters for one daemon run.
type Metrics struct {
	checks   atomic.Int64
	fired    atomic.Int64
	missed   atomic.Int64
	failed   atomic.Int64
	rearmed  atomic.Int64
	finished atomic.Int64
	errors   atomic.Int64

	mu            sync.RWMutex
	lastCheck     time.Time
	lastDelivery  time.Time
	lastError     string
	lastErrorAt   time.Time
	errorsByPhase map[string]int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{errorsByPhase: make(map[string]int64)}
}

// MetricsSnapshot is a point-in-time view of Metrics.
type MetricsSnapshot struct {
	Checks        int64            `json:"checks_total"`
	Fired         int64            `json:"fired_total"`
	Missed        int64            `json:"missed_total"`
	Failed        int64            `json:"failed_total"`
	Rearmed       int64            `json:"rearmed_total"`
	Finished      int64            `json:"finished_total"`
	Errors        int64            `json:"errors_total"`
	LastCheck     *time.Time       `json:"last_check,omitempty"`
	LastDelivery  *time.Time       `json:"last_delivery,omitempty"`
	LastError     string           `json:"last_error,omitempty"`
	LastErrorAt   *time.Time       `json:"last_error_at,omitempty"`
	ErrorsByPhase map[string]int64 `json:"errors_by_phase,omitempty"`
}

// RecordDelivery adds one delivery pass at now.
func (m *Metrics) RecordDelivery(r notify.DeliveryReport, now time.Time) {
	m.checks.Add(1)
	m.fired.Add(int64(r.Fired))
	m.missed.Add(int64(r.Missed))
	m.failed.Add(int64(r.Failed))
	m.rearmed.Add(int64(r.Rearmed))
	m.finished.Add(int64(r.Finished))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCheck = now
	if r.Fired > 0 {
		m.lastDelivery = now
	}
}

// RecordError records an error in phase ("deliver", "state", "api").
func (m *Metrics) RecordError(phase string, err error) {
	m.errors.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err.Error()
	m.lastErrorAt = time.Now()
	if phase != "" {
		m.errorsByPhase[phase]++
	}
}

// Snapshot returns a copy of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		Checks:    m.checks.Load(),
		Fired:     m.fired.Load(),
		Missed:    m.missed.Load(),
		Failed:    m.failed.Load(),
		Rearmed:   m.rearmed.Load(),
		Finished:  m.finished.Load(),
		Errors:    m.errors.Load(),
		LastError: m.lastError,
	}
	if !m.lastCheck.IsZero() {
		t := m.lastCheck
		snap.LastCheck = &t
	}
	if !m.lastDelivery.IsZero() {
		t := m.lastDelivery
		snap.LastDelivery = &t
	}
	if !m.lastErrorAt.IsZero() {
		t := m.lastErrorAt
		snap.LastErrorAt = &t
	}
	if len(m.errorsByPhase) > 0 {
		snap.ErrorsByPhase = make(map[string]int64, len(m.errorsByPhase))
		for k, v := range m.errorsByPhase {
			snap.ErrorsByPhase[k] = v
		}
	}
	return snap
}
