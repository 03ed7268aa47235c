package recovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skillsenselab/svckit/logger"
	"github.com/skillsenselab/svckit/observability"
	"github.com/skillsenselab/svckit/service"
)

// State is the per-service recovery bookkeeping, created lazily on the
// first failed health check and discarded on successful recovery.
type State struct {
	// Attempts counts recovery attempts since the last successful
	// recovery or since registration.
	Attempts int `json:"attempts"`
	// LastAttempt is the time of the most recent attempt.
	LastAttempt time.Time `json:"last_attempt"`
	// Strategy is the strategy last applied.
	Strategy Strategy `json:"strategy"`
}

// RecoveredFunc is invoked after a verified successful recovery.
type RecoveredFunc func(id string)

// UnrecoverableFunc is invoked when a service exhausts its recovery
// attempts.
type UnrecoverableFunc func(id string)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithOnRecovered sets the successful-recovery callback.
func WithOnRecovered(fn RecoveredFunc) Option {
	return func(c *Coordinator) { c.onRecovered = fn }
}

// WithOnUnrecoverable sets the exhaustion callback.
func WithOnUnrecoverable(fn UnrecoverableFunc) Option {
	return func(c *Coordinator) { c.onUnrecoverable = fn }
}

// WithMetrics attaches supervision metrics to the coordinator.
func WithMetrics(sm *observability.SupervisionMetrics) Option {
	return func(c *Coordinator) { c.metrics = sm }
}

// Coordinator attempts to bring failing services back to health using
// an escalating sequence of strategies, bounded by a maximum attempt
// count. Recovery for one service ID is serialized: a second Attempt
// racing an in-flight one for the same ID returns false without
// touching the bookkeeping.
type Coordinator struct {
	mu       sync.Mutex
	states   map[string]*State
	inFlight map[string]bool

	maxAttempts int
	opTimeout   time.Duration

	onRecovered     RecoveredFunc
	onUnrecoverable UnrecoverableFunc
	metrics         *observability.SupervisionMetrics
	log             *logger.Logger
}

// NewCoordinator creates a coordinator allowing maxAttempts recovery
// attempts per service, each lifecycle action bounded by opTimeout
// (0 means unbounded).
func NewCoordinator(maxAttempts int, opTimeout time.Duration, opts ...Option) *Coordinator {
	c := &Coordinator{
		states:      make(map[string]*State),
		inFlight:    make(map[string]bool),
		maxAttempts: maxAttempts,
		opTimeout:   opTimeout,
		log:         logger.Get("recovery"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AttemptOptions carries per-call overrides for one recovery attempt.
type AttemptOptions struct {
	// Strategy, when set, overrides the escalation rule.
	Strategy Strategy
	// Delay suspends this recovery before acting, without blocking
	// recovery of other services.
	Delay time.Duration
}

// AttemptOption mutates AttemptOptions.
type AttemptOption func(*AttemptOptions)

// WithStrategy forces a specific strategy for this attempt.
func WithStrategy(s Strategy) AttemptOption {
	return func(o *AttemptOptions) { o.Strategy = s }
}

// WithDelay waits d before executing the strategy.
func WithDelay(d time.Duration) AttemptOption {
	return func(o *AttemptOptions) { o.Delay = d }
}

// Attempt tries to recover one service and reports whether recovery
// was verified. Failures internal to the handle's own operations are
// absorbed and counted as a failed attempt; they never propagate.
func (c *Coordinator) Attempt(ctx context.Context, id string, handle service.Handle, opts ...AttemptOption) bool {
	if handle == nil {
		c.log.Warn("service has no handle, not recoverable", logger.Fields(logger.FieldServiceID, id))
		return false
	}

	var options AttemptOptions
	for _, opt := range opts {
		opt(&options)
	}

	c.mu.Lock()
	if c.inFlight[id] {
		c.mu.Unlock()
		c.log.Warn("recovery already in flight", logger.Fields(logger.FieldServiceID, id))
		return false
	}
	c.inFlight[id] = true

	st, ok := c.states[id]
	if !ok {
		st = &State{}
		c.states[id] = st
	}

	if st.Attempts >= c.maxAttempts {
		delete(c.states, id)
		delete(c.inFlight, id)
		c.mu.Unlock()

		c.log.Error("service unrecoverable, attempts exhausted", logger.Fields(
			logger.FieldServiceID, id,
			logger.FieldAttempt, st.Attempts,
		))
		if c.onUnrecoverable != nil {
			c.onUnrecoverable(id)
		}
		return false
	}

	st.Attempts++
	st.LastAttempt = time.Now()

	strategy := options.Strategy
	if strategy == "" {
		strategy = EscalationFor(st.Attempts)
	}
	st.Strategy = strategy
	attempt := st.Attempts
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inFlight, id)
		c.mu.Unlock()
	}()

	if options.Delay > 0 {
		select {
		case <-time.After(options.Delay):
		case <-ctx.Done():
			c.log.Warn("recovery abandoned during delay", logger.Fields(
				logger.FieldServiceID, id,
				logger.FieldError, ctx.Err().Error(),
			))
			return false
		}
	}

	c.log.Info("attempting recovery", logger.Fields(
		logger.FieldServiceID, id,
		logger.FieldStrategy, string(strategy),
		logger.FieldAttempt, attempt,
	))

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanRecovery)
	defer span.End()

	err := c.run(ctx, handle, strategy)
	recovered := err == nil && c.verify(ctx, handle)

	outcome := "failure"
	if recovered {
		outcome = "success"
	}
	if c.metrics != nil {
		c.metrics.RecordRecovery(ctx, id, string(strategy), outcome, time.Since(start))
	}

	if err != nil {
		observability.SetSpanError(ctx, err)
		c.log.Error("recovery strategy failed", logger.Fields(
			logger.FieldServiceID, id,
			logger.FieldStrategy, string(strategy),
			logger.FieldError, err.Error(),
		))
		return false
	}

	if !recovered {
		c.log.Warn("recovery not verified", logger.Fields(
			logger.FieldServiceID, id,
			logger.FieldStrategy, string(strategy),
			logger.FieldAttempt, attempt,
		))
		return false
	}

	c.mu.Lock()
	delete(c.states, id)
	c.mu.Unlock()

	c.log.Info("service recovered", logger.Fields(
		logger.FieldServiceID, id,
		logger.FieldStrategy, string(strategy),
		logger.FieldAttempt, attempt,
	))
	if c.onRecovered != nil {
		c.onRecovered(id)
	}
	return true
}

// Reset discards the recovery bookkeeping for id, typically after
// manual intervention restored the service.
func (c *Coordinator) Reset(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, id)
}

// State returns a snapshot of the recovery bookkeeping for id.
func (c *Coordinator) State(id string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// run executes the strategy, converting panics into errors so a
// misbehaving handle can never crash the coordinator.
func (c *Coordinator) run(ctx context.Context, handle service.Handle, strategy Strategy) (err error) {
	if c.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovery strategy panicked: %v", r)
		}
	}()
	return execute(ctx, handle, strategy)
}

// verify confirms recovery through the handle's own health check when
// it exposes one; its healthy flag is ground truth. Handles without a
// health check are assumed recovered.
func (c *Coordinator) verify(ctx context.Context, handle service.Handle) (healthy bool) {
	checker, ok := handle.(service.HealthChecker)
	if !ok {
		return true
	}

	if c.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			healthy = false
		}
	}()
	return checker.CheckHealth(ctx).Healthy
}
