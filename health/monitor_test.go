package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skillsenselab/svckit/service"
)

// bareHandle exposes no lifecycle operations at all.
type bareHandle struct{}

// checkedHandle returns a scripted health record.
type checkedHandle struct {
	rec    service.HealthRecord
	checks int32
}

func (h *checkedHandle) CheckHealth(ctx context.Context) service.HealthRecord {
	atomic.AddInt32(&h.checks, 1)
	return h.rec
}

// panicHandle panics inside its health check.
type panicHandle struct{}

func (panicHandle) CheckHealth(ctx context.Context) service.HealthRecord {
	panic("probe exploded")
}

// hangingHandle never returns until the context is cancelled.
type hangingHandle struct{}

func (hangingHandle) CheckHealth(ctx context.Context) service.HealthRecord {
	<-ctx.Done()
	return service.HealthRecord{Healthy: true, Status: service.StatusHealthy}
}

func TestTrackSeedsStarting(t *testing.T) {
	m := NewMonitor(time.Minute, 0)
	m.Track("svc", bareHandle{})

	rec := m.Record("svc")
	if rec.Status != service.StatusStarting {
		t.Errorf("expected starting, got %s", rec.Status)
	}
	if !rec.Healthy {
		t.Error("starting services are considered healthy until the first check")
	}
}

func TestProbeDefaultsHealthy(t *testing.T) {
	m := NewMonitor(time.Minute, 0)
	m.Track("svc", bareHandle{})

	rec := m.Probe(context.Background(), "svc")
	if !rec.Healthy || rec.Status != service.StatusHealthy {
		t.Errorf("handle without CheckHealth must default to healthy, got %+v", rec)
	}
}

func TestProbeAdoptsCheckerResult(t *testing.T) {
	m := NewMonitor(time.Minute, 0)
	h := &checkedHandle{rec: service.HealthRecord{
		Healthy: false,
		Status:  service.StatusDegraded,
		Message: "queue backlog",
	}}
	m.Track("svc", h)

	rec := m.Probe(context.Background(), "svc")
	if rec.Status != service.StatusDegraded || rec.Message != "queue backlog" {
		t.Errorf("expected checker record to be adopted, got %+v", rec)
	}
	if rec.LastChecked.IsZero() {
		t.Error("expected LastChecked to be refreshed")
	}
}

func TestProbeNormalizesEmptyStatus(t *testing.T) {
	m := NewMonitor(time.Minute, 0)
	m.Track("svc", &checkedHandle{rec: service.HealthRecord{Healthy: true}})

	rec := m.Probe(context.Background(), "svc")
	if rec.Status != service.StatusHealthy {
		t.Errorf("expected healthy status to be filled in, got %q", rec.Status)
	}
}

func TestProbePanicBecomesUnhealthy(t *testing.T) {
	m := NewMonitor(time.Minute, 0)
	m.Track("svc", panicHandle{})

	rec := m.Probe(context.Background(), "svc")
	if rec.Healthy {
		t.Error("panicking probe must yield an unhealthy record")
	}
	if rec.Message == "" {
		t.Error("expected a non-empty message describing the panic")
	}
}

func TestProbeTimeout(t *testing.T) {
	m := NewMonitor(time.Minute, 20*time.Millisecond)
	m.Track("svc", hangingHandle{})

	rec := m.Probe(context.Background(), "svc")
	if rec.Healthy || rec.Status != service.StatusUnhealthy {
		t.Errorf("hanging probe must time out as unhealthy, got %+v", rec)
	}
}

func TestProbeUntracked(t *testing.T) {
	m := NewMonitor(time.Minute, 0)

	rec := m.Probe(context.Background(), "ghost")
	if rec.Status != service.StatusNotFound {
		t.Errorf("expected not_found, got %s", rec.Status)
	}
	if _, ok := m.Snapshot()["ghost"]; ok {
		t.Error("probing an untracked id must not create a record")
	}
}

func TestProbeAllSurvivesFailures(t *testing.T) {
	m := NewMonitor(time.Minute, 0)
	m.Track("bad", panicHandle{})
	m.Track("good", bareHandle{})

	snapshot := m.ProbeAll(context.Background())
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snapshot))
	}
	if snapshot["bad"].Healthy {
		t.Error("expected bad to be unhealthy")
	}
	if !snapshot["good"].Healthy {
		t.Error("a failing probe must not stop the sweep")
	}
}

func TestOnUnhealthyCallback(t *testing.T) {
	var gotID string
	var gotRec service.HealthRecord
	m := NewMonitor(time.Minute, 0, WithOnUnhealthy(func(id string, rec service.HealthRecord) {
		gotID = id
		gotRec = rec
	}))
	m.Track("svc", &checkedHandle{rec: service.HealthRecord{Healthy: false, Message: "down"}})

	m.Probe(context.Background(), "svc")
	if gotID != "svc" {
		t.Fatalf("expected callback for svc, got %q", gotID)
	}
	if gotRec.Message != "down" {
		t.Errorf("expected record to be passed through, got %+v", gotRec)
	}
}

func TestOnUnhealthyNotFiredWhenHealthy(t *testing.T) {
	fired := false
	m := NewMonitor(time.Minute, 0, WithOnUnhealthy(func(string, service.HealthRecord) {
		fired = true
	}))
	m.Track("svc", bareHandle{})

	m.Probe(context.Background(), "svc")
	if fired {
		t.Error("callback must not fire for healthy probes")
	}
}

func TestIsHealthy(t *testing.T) {
	m := NewMonitor(time.Minute, 0)
	if m.IsHealthy("ghost") {
		t.Error("untracked id must report unhealthy")
	}

	m.Track("svc", bareHandle{})
	m.Probe(context.Background(), "svc")
	if !m.IsHealthy("svc") {
		t.Error("expected svc to be healthy after probe")
	}
}

func TestUntrack(t *testing.T) {
	m := NewMonitor(time.Minute, 0)
	m.Track("svc", bareHandle{})
	m.Untrack("svc")

	if m.IsHealthy("svc") {
		t.Error("untracked service must report unhealthy")
	}
	if rec := m.Record("svc"); rec.Status != service.StatusNotFound {
		t.Errorf("expected not_found after untrack, got %s", rec.Status)
	}
}

func TestPollingProbesPeriodically(t *testing.T) {
	h := &checkedHandle{rec: service.HealthRecord{Healthy: true, Status: service.StatusHealthy}}
	m := NewMonitor(10*time.Millisecond, 0)
	m.Track("svc", h)

	m.StartPolling()
	defer m.StopPolling()

	deadline := time.After(time.Second)
	for atomic.LoadInt32(&h.checks) < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 polled probes, got %d", atomic.LoadInt32(&h.checks))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStartPollingIdempotent(t *testing.T) {
	m := NewMonitor(10*time.Millisecond, 0)
	m.Track("svc", bareHandle{})

	m.StartPolling()
	m.StartPolling() // replaces, never stacks
	m.StopPolling()
	m.StopPolling() // second stop is harmless
}
