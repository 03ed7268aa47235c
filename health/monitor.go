package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skillsenselab/svckit/logger"
	"github.com/skillsenselab/svckit/observability"
	"github.com/skillsenselab/svckit/service"
)

// UnhealthyFunc is invoked synchronously whenever a probe finds a
// service unhealthy.
type UnhealthyFunc func(id string, rec service.HealthRecord)

// Option configures a Monitor.
type Option func(*Monitor)

// WithOnUnhealthy sets the unhealthy callback.
func WithOnUnhealthy(fn UnhealthyFunc) Option {
	return func(m *Monitor) { m.onUnhealthy = fn }
}

// WithMetrics attaches supervision metrics to the monitor.
func WithMetrics(sm *observability.SupervisionMetrics) Option {
	return func(m *Monitor) { m.metrics = sm }
}

// Monitor holds the supervised service handles and their last-known
// health, and drives periodic or on-demand health probes.
//
// Probing is pull-based and centrally scheduled: services are
// heterogeneous and some expose no health signal at all, so the
// monitor treats a missing HealthChecker as "assumed healthy" rather
// than requiring every service to push status.
type Monitor struct {
	mu      sync.RWMutex
	handles map[string]service.Handle
	records map[string]service.HealthRecord

	interval     time.Duration
	probeTimeout time.Duration
	onUnhealthy  UnhealthyFunc
	metrics      *observability.SupervisionMetrics
	log          *logger.Logger

	pollMu   sync.Mutex
	stopPoll chan struct{}
	pollDone chan struct{}
}

// NewMonitor creates a monitor that probes every interval and bounds
// each individual probe by probeTimeout (0 means unbounded).
func NewMonitor(interval, probeTimeout time.Duration, opts ...Option) *Monitor {
	m := &Monitor{
		handles:      make(map[string]service.Handle),
		records:      make(map[string]service.HealthRecord),
		interval:     interval,
		probeTimeout: probeTimeout,
		log:          logger.Get("health"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Track registers a handle for polling and seeds its record with
// status starting. Tracking an already-tracked id replaces the handle
// and reseeds the record.
func (m *Monitor) Track(id string, handle service.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handles[id] = handle
	m.records[id] = service.HealthRecord{
		Healthy:     true,
		Status:      service.StatusStarting,
		Message:     "awaiting first health check",
		LastChecked: time.Now(),
	}
}

// Untrack stops polling id and discards its last record.
func (m *Monitor) Untrack(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handles, id)
	delete(m.records, id)
}

// Tracked returns the IDs currently under supervision, unordered.
func (m *Monitor) Tracked() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.handles))
	for id := range m.handles {
		ids = append(ids, id)
	}
	return ids
}

// Probe checks the health of one service, stores the fresh record, and
// fires the unhealthy callback when the result is unhealthy. An
// untracked id yields a not_found record which is not stored.
func (m *Monitor) Probe(ctx context.Context, id string) service.HealthRecord {
	m.mu.RLock()
	handle, ok := m.handles[id]
	m.mu.RUnlock()

	if !ok {
		return service.HealthRecord{
			Healthy:     false,
			Status:      service.StatusNotFound,
			Message:     fmt.Sprintf("service %s is not tracked", id),
			LastChecked: time.Now(),
		}
	}

	start := time.Now()
	rec := m.check(ctx, id, handle)
	rec.LastChecked = time.Now()

	m.mu.Lock()
	m.records[id] = rec
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordProbe(ctx, id, string(rec.Status), time.Since(start))
	}

	if !rec.Healthy {
		m.log.Warn("service unhealthy", logger.Fields(
			logger.FieldServiceID, id,
			logger.FieldStatus, string(rec.Status),
			"message", rec.Message,
		))
		if m.onUnhealthy != nil {
			m.onUnhealthy(id, rec)
		}
	}
	return rec
}

// ProbeAll probes every tracked service sequentially and returns the
// complete snapshot. A slow or failing probe never stops the sweep.
func (m *Monitor) ProbeAll(ctx context.Context) map[string]service.HealthRecord {
	ids := m.Tracked()

	out := make(map[string]service.HealthRecord, len(ids))
	for _, id := range ids {
		out[id] = m.Probe(ctx, id)
	}
	return out
}

// IsHealthy reads the cached record for id. An untracked id is
// reported unhealthy.
func (m *Monitor) IsHealthy(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	return ok && rec.Healthy
}

// Record returns the cached record for id, or a not_found record for
// an unknown id.
func (m *Monitor) Record(id string) service.HealthRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if rec, ok := m.records[id]; ok {
		return rec
	}
	return service.HealthRecord{
		Healthy: false,
		Status:  service.StatusNotFound,
		Message: fmt.Sprintf("service %s is not tracked", id),
	}
}

// Snapshot returns a copy of all cached records.
func (m *Monitor) Snapshot() map[string]service.HealthRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]service.HealthRecord, len(m.records))
	for id, rec := range m.records {
		out[id] = rec
	}
	return out
}

// StartPolling begins a recurring sweep that probes every tracked
// service each interval. Calling it again replaces the running sweep
// instead of stacking a second one.
func (m *Monitor) StartPolling() {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()

	m.stopLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	m.stopPoll = stop
	m.pollDone = done

	m.log.Info("health polling started", logger.Fields("interval", m.interval.String()))

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.ProbeAll(context.Background())
			}
		}
	}()
}

// StopPolling cancels the recurring sweep. In-flight probes run to
// completion; there is no mid-probe cancellation.
func (m *Monitor) StopPolling() {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.stopPoll == nil {
		return
	}
	close(m.stopPoll)
	<-m.pollDone
	m.stopPoll = nil
	m.pollDone = nil
	m.log.Info("health polling stopped")
}

// check invokes the handle's health check, bounded by the probe
// timeout. Handles without a HealthChecker default to healthy. A
// panicking or hanging probe is converted into an unhealthy record —
// it must never crash the monitor.
func (m *Monitor) check(ctx context.Context, id string, handle service.Handle) service.HealthRecord {
	checker, ok := handle.(service.HealthChecker)
	if !ok {
		return service.HealthRecord{
			Healthy: true,
			Status:  service.StatusHealthy,
			Message: "no health check exposed; assumed healthy",
		}
	}

	if m.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.probeTimeout)
		defer cancel()
	}

	result := make(chan service.HealthRecord, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- service.HealthRecord{
					Healthy: false,
					Status:  service.StatusUnhealthy,
					Message: fmt.Sprintf("health check panicked: %v", r),
					Details: map[string]any{"panic": fmt.Sprint(r)},
				}
			}
		}()
		result <- normalize(checker.CheckHealth(ctx))
	}()

	select {
	case rec := <-result:
		return rec
	case <-ctx.Done():
		return service.HealthRecord{
			Healthy: false,
			Status:  service.StatusUnhealthy,
			Message: fmt.Sprintf("health check timed out: %v", ctx.Err()),
		}
	}
}

// normalize fills in a consistent status when a checker only sets the
// boolean flag.
func normalize(rec service.HealthRecord) service.HealthRecord {
	if rec.Status == "" {
		if rec.Healthy {
			rec.Status = service.StatusHealthy
		} else {
			rec.Status = service.StatusUnhealthy
		}
	}
	return rec
}
