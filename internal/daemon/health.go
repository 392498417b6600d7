package daemon

import (
	"runtime"
	"sync"
	"time"
)

// HealthStatus is the daemon's self-reported health.
type HealthStatus struct {
	Status          string        `json:"status"`
	UptimeSeconds   int64         `json:"uptime_seconds"`
	MemoryMB        float64       `json:"memory_mb"`
	Goroutines      int           `json:"goroutines"`
	PendingTriggers int           `json:"pending_triggers"`
	NextCheck       time.Time     `json:"next_check,omitempty"`
	Version         string        `json:"version,omitempty"`
	Checks          []CheckResult `json:"checks,omitempty"`
}

// CheckResult is the result of one named health check.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthChecker aggregates health checks.
type HealthChecker struct {
	mu        sync.RWMutex
	startTime time.Time
	pending   int
	nextCheck time.Time
	version   string
	checks    map[string]func() error
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		version:   version,
		checks:    make(map[string]func() error),
	}
}

// SetPending updates the pending trigger count.
func (h *HealthChecker) SetPending(count int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = count
}

// SetNextCheck records when the scheduler runs next.
func (h *HealthChecker) SetNextCheck(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextCheck = t
}

// AddCheck adds a named check; a non-nil error marks the daemon unhealthy.
func (h *HealthChecker) AddCheck(name string, check func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RemoveCheck removes a named check.
func (h *HealthChecker) RemoveCheck(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.checks, name)
}

// Check runs every check and returns the status.
func (h *HealthChecker) Check() *HealthStatus {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	h.mu.RLock()
	defer h.mu.RUnlock()

	status := &HealthStatus{
		Status:          "healthy",
		UptimeSeconds:   int64(time.Since(h.startTime).Seconds()),
		MemoryMB:        float64(mem.Alloc) / 1024 / 1024,
		Goroutines:      runtime.NumGoroutine(),
		PendingTriggers: h.pending,
		NextCheck:       h.nextCheck,
		Version:         h.version,
	}
	for name, check := range h.checks {
		result := CheckResult{Name: name, Healthy: true}
		if err := check(); err != nil {
			result.Healthy = false
			result.Error = err.Error()
			status.Status = "unhealthy"
		}
		status.Checks = append(status.Checks, result)
	}
	return status
}

// IsHealthy reports whether every check passes.
func (h *HealthChecker) IsHealthy() bool {
	return h.Check().Status == "healthy"
}

// Uptime returns how long the checker has existed.
func (h *HealthChecker) Uptime() time.Duration {
	return time.Since(h.startTime)
}
