package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skillsenselab/svckit/service"
)

// script records lifecycle calls and drives scripted outcomes for the
// composable test handles below.
type script struct {
	calls   []string
	healthy bool
	fail    map[string]error
}

func (s *script) do(op string) error {
	s.calls = append(s.calls, op)
	if s.fail != nil {
		return s.fail[op]
	}
	return nil
}

func (s *script) lifecycleCalls() []string {
	var out []string
	for _, c := range s.calls {
		if c != "checkHealth" {
			out = append(out, c)
		}
	}
	return out
}

type restartable struct{ s *script }

func (h restartable) Restart(ctx context.Context) error { return h.s.do("restart") }

type reconnectable struct{ s *script }

func (h reconnectable) Reconnect(ctx context.Context) error { return h.s.do("reconnect") }

type resettable struct{ s *script }

func (h resettable) Reset(ctx context.Context) error { return h.s.do("reset") }

type initializable struct{ s *script }

func (h initializable) Initialize(ctx context.Context) error { return h.s.do("initialize") }

type startable struct{ s *script }

func (h startable) Start(ctx context.Context) error { return h.s.do("start") }

type stoppable struct{ s *script }

func (h stoppable) Stop(ctx context.Context) error { return h.s.do("stop") }

type checked struct{ s *script }

func (h checked) CheckHealth(ctx context.Context) service.HealthRecord {
	h.s.do("checkHealth")
	return service.HealthRecord{Healthy: h.s.healthy}
}

// fullHandle exposes every lifecycle operation.
type fullHandle struct {
	restartable
	reconnectable
	resettable
	initializable
	startable
	stoppable
	checked
}

func newFullHandle(s *script) fullHandle {
	return fullHandle{
		restartable{s}, reconnectable{s}, resettable{s},
		initializable{s}, startable{s}, stoppable{s}, checked{s},
	}
}

func TestEscalationFor(t *testing.T) {
	cases := map[int]Strategy{
		1: StrategyRestart,
		2: StrategyReconnect,
		3: StrategyReinitialize,
		7: StrategyReinitialize,
	}
	for attempt, want := range cases {
		if got := EscalationFor(attempt); got != want {
			t.Errorf("attempt %d: expected %s, got %s", attempt, want, got)
		}
	}
}

func TestEscalationSequence(t *testing.T) {
	s := &script{healthy: false}
	h := newFullHandle(s)

	unrecoverable := ""
	c := NewCoordinator(3, 0, WithOnUnrecoverable(func(id string) { unrecoverable = id }))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if c.Attempt(ctx, "svc", h) {
			t.Fatalf("attempt %d: expected failure while handle stays unhealthy", i+1)
		}
	}

	got := s.lifecycleCalls()
	want := []string{"restart", "reconnect", "reset"}
	if len(got) != len(want) {
		t.Fatalf("expected lifecycle calls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected lifecycle calls %v, got %v", want, got)
		}
	}

	// Fourth call: exhausted. No lifecycle operation may run.
	before := len(s.calls)
	if c.Attempt(ctx, "svc", h) {
		t.Error("expected false once attempts are exhausted")
	}
	if unrecoverable != "svc" {
		t.Errorf("expected unrecoverable callback for svc, got %q", unrecoverable)
	}
	if len(s.calls) != before {
		t.Errorf("exhausted attempt must not invoke lifecycle operations, got %v", s.calls[before:])
	}
}

func TestSuccessfulRecoveryResetsState(t *testing.T) {
	s := &script{healthy: false}
	h := newFullHandle(s)

	recovered := ""
	c := NewCoordinator(5, 0, WithOnRecovered(func(id string) { recovered = id }))
	ctx := context.Background()

	c.Attempt(ctx, "svc", h)
	c.Attempt(ctx, "svc", h)

	if st, ok := c.State("svc"); !ok || st.Attempts != 2 {
		t.Fatalf("expected 2 recorded attempts, got %+v ok=%v", st, ok)
	}

	s.healthy = true
	if !c.Attempt(ctx, "svc", h) {
		t.Fatal("expected verified recovery to succeed")
	}
	if recovered != "svc" {
		t.Errorf("expected recovered callback, got %q", recovered)
	}
	if _, ok := c.State("svc"); ok {
		t.Error("expected state to be discarded after success")
	}

	// A later failure starts the escalation over from restart.
	s.healthy = false
	s.calls = nil
	c.Attempt(ctx, "svc", h)
	if got := s.lifecycleCalls(); len(got) != 1 || got[0] != "restart" {
		t.Errorf("expected escalation to restart from the beginning, got %v", got)
	}
}

func TestRestartFallbackStopStart(t *testing.T) {
	s := &script{}
	h := struct {
		stoppable
		startable
	}{stoppable{s}, startable{s}}

	c := NewCoordinator(3, 0)
	if !c.Attempt(context.Background(), "svc", h) {
		t.Fatal("expected optimistic success without a health check")
	}

	got := s.lifecycleCalls()
	if len(got) != 2 || got[0] != "stop" || got[1] != "start" {
		t.Errorf("expected [stop start], got %v", got)
	}
}

func TestRestartFallbackInitialize(t *testing.T) {
	s := &script{}
	h := initializable{s}

	c := NewCoordinator(3, 0)
	c.Attempt(context.Background(), "svc", h)

	if got := s.lifecycleCalls(); len(got) != 1 || got[0] != "initialize" {
		t.Errorf("expected [initialize], got %v", got)
	}
}

func TestReinitializeFallbackInitialize(t *testing.T) {
	s := &script{}
	h := initializable{s}

	c := NewCoordinator(3, 0)
	c.Attempt(context.Background(), "svc", h, WithStrategy(StrategyReinitialize))

	if got := s.lifecycleCalls(); len(got) != 1 || got[0] != "initialize" {
		t.Errorf("expected [initialize], got %v", got)
	}
}

func TestBareHandleOptimisticSuccess(t *testing.T) {
	c := NewCoordinator(3, 0)
	if !c.Attempt(context.Background(), "svc", struct{}{}) {
		t.Error("a handle with no operations at all recovers optimistically")
	}
}

func TestStrategyOverride(t *testing.T) {
	s := &script{healthy: true}
	h := newFullHandle(s)

	c := NewCoordinator(3, 0)
	c.Attempt(context.Background(), "svc", h, WithStrategy(StrategyReconnect))

	if got := s.lifecycleCalls(); len(got) != 1 || got[0] != "reconnect" {
		t.Errorf("expected explicit strategy to win, got %v", got)
	}
}

func TestStrategyErrorCountsAsFailedAttempt(t *testing.T) {
	s := &script{fail: map[string]error{"restart": errors.New("broken pipe")}}
	h := restartable{s}

	c := NewCoordinator(3, 0)
	if c.Attempt(context.Background(), "svc", h) {
		t.Fatal("expected failure when strategy errors")
	}
	if st, ok := c.State("svc"); !ok || st.Attempts != 1 {
		t.Errorf("failed attempt must persist, got %+v ok=%v", st, ok)
	}
}

type panicker struct{}

func (panicker) Restart(ctx context.Context) error { panic("kaboom") }

func TestStrategyPanicIsAbsorbed(t *testing.T) {
	c := NewCoordinator(3, 0)
	if c.Attempt(context.Background(), "svc", panicker{}) {
		t.Fatal("expected panicking strategy to count as failure")
	}
	if st, ok := c.State("svc"); !ok || st.Attempts != 1 {
		t.Errorf("expected attempt to be recorded, got %+v ok=%v", st, ok)
	}
}

func TestNilHandleNotRecoverable(t *testing.T) {
	c := NewCoordinator(3, 0)
	if c.Attempt(context.Background(), "svc", nil) {
		t.Error("nil handle must fail immediately")
	}
	if _, ok := c.State("svc"); ok {
		t.Error("nil handle must not create recovery state")
	}
}

func TestDelayHonorsCancellation(t *testing.T) {
	s := &script{healthy: true}
	h := newFullHandle(s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCoordinator(3, 0)
	if c.Attempt(ctx, "svc", h, WithDelay(time.Minute)) {
		t.Fatal("expected cancelled delay to abandon the attempt")
	}
	if got := s.lifecycleCalls(); len(got) != 0 {
		t.Errorf("abandoned attempt must not run the strategy, got %v", got)
	}
}

type blockingRestarter struct {
	release chan struct{}
	started chan struct{}
}

func (b *blockingRestarter) Restart(ctx context.Context) error {
	close(b.started)
	<-b.release
	return nil
}

func TestConcurrentAttemptsAreSerialized(t *testing.T) {
	b := &blockingRestarter{
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	c := NewCoordinator(3, 0)

	done := make(chan bool, 1)
	go func() {
		done <- c.Attempt(context.Background(), "svc", b)
	}()

	<-b.started
	if c.Attempt(context.Background(), "svc", b) {
		t.Error("second attempt for the same id must be rejected while one is in flight")
	}
	if st, ok := c.State("svc"); !ok || st.Attempts != 1 {
		t.Errorf("rejected attempt must not touch bookkeeping, got %+v ok=%v", st, ok)
	}

	close(b.release)
	if !<-done {
		t.Error("expected the in-flight attempt to succeed")
	}
}

func TestReset(t *testing.T) {
	s := &script{healthy: false}
	h := newFullHandle(s)

	c := NewCoordinator(3, 0)
	c.Attempt(context.Background(), "svc", h)
	c.Reset("svc")

	if _, ok := c.State("svc"); ok {
		t.Error("expected state to be gone after Reset")
	}

	s.calls = nil
	c.Attempt(context.Background(), "svc", h)
	if got := s.lifecycleCalls(); len(got) != 1 || got[0] != "restart" {
		t.Errorf("expected escalation to restart after Reset, got %v", got)
	}
}
