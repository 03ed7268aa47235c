package testutil

import (
	"context"
	"sync"

	"github.com/skillsenselab/svckit/service"
)

// StubService is a scriptable service handle implementing every
// optional lifecycle capability. All methods are safe for concurrent
// use.
type StubService struct {
	mu      sync.Mutex
	healthy bool
	message string
	failOps map[string]error
	calls   []string
	execFn  func(ctx context.Context, command string, params map[string]any) (any, error)
}

// NewStubService returns a stub that starts healthy and succeeds on
// every operation.
func NewStubService() *StubService {
	return &StubService{
		healthy: true,
		failOps: make(map[string]error),
	}
}

// SetHealthy scripts the result of subsequent health checks.
func (s *StubService) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

// SetHealthMessage scripts the message attached to health records.
func (s *StubService) SetHealthMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

// FailOp makes the named lifecycle operation (e.g. "restart",
// "initialize") return err. A nil err clears the failure.
func (s *StubService) FailOp(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failOps, op)
		return
	}
	s.failOps[op] = err
}

// OnExecute installs the handler backing Execute.
func (s *StubService) OnExecute(fn func(ctx context.Context, command string, params map[string]any) (any, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execFn = fn
}

// Calls returns the lifecycle operations invoked so far, in order.
func (s *StubService) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many times op was invoked.
func (s *StubService) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (s *StubService) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	return s.failOps[op]
}

func (s *StubService) Initialize(ctx context.Context) error { return s.record("initialize") }
func (s *StubService) Start(ctx context.Context) error      { return s.record("start") }
func (s *StubService) Stop(ctx context.Context) error       { return s.record("stop") }
func (s *StubService) Restart(ctx context.Context) error    { return s.record("restart") }
func (s *StubService) Reconnect(ctx context.Context) error  { return s.record("reconnect") }
func (s *StubService) Reset(ctx context.Context) error      { return s.record("reset") }

// CheckHealth reports the scripted health state.
func (s *StubService) CheckHealth(ctx context.Context) service.HealthRecord {
	if err := s.record("check_health"); err != nil {
		return service.HealthRecord{Healthy: false, Status: service.StatusUnhealthy, Message: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.healthy {
		return service.HealthRecord{Healthy: true, Status: service.StatusHealthy, Message: s.message}
	}
	return service.HealthRecord{Healthy: false, Status: service.StatusUnhealthy, Message: s.message}
}

// Execute runs the installed handler, or echoes the command when none
// is installed.
func (s *StubService) Execute(ctx context.Context, command string, params map[string]any) (any, error) {
	if err := s.record("execute"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	fn := s.execFn
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx, command, params)
	}
	return command, nil
}
