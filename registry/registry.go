package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/skillsenselab/svckit/depgraph"
	"github.com/skillsenselab/svckit/errors"
	"github.com/skillsenselab/svckit/eventbus"
	"github.com/skillsenselab/svckit/health"
	"github.com/skillsenselab/svckit/logger"
	"github.com/skillsenselab/svckit/observability"
	"github.com/skillsenselab/svckit/recovery"
	"github.com/skillsenselab/svckit/resilience"
	"github.com/skillsenselab/svckit/service"
	"github.com/skillsenselab/svckit/validation"
)

// Option configures a Registry.
type Option func(*Registry)

// WithBus makes the registry publish on an existing event bus instead
// of creating its own.
func WithBus(bus *eventbus.Bus) Option {
	return func(r *Registry) { r.bus = bus }
}

// WithMetrics attaches supervision metrics to the registry and the
// components it owns.
func WithMetrics(sm *observability.SupervisionMetrics) Option {
	return func(r *Registry) { r.metrics = sm }
}

// Registry owns the table of registered service descriptions and wires
// dependency tracking, health polling, and recovery into one
// lifecycle: register, monitor, recover on failure, evict on
// exhaustion.
//
// The description, health, and recovery tables are private and mutated
// only through the registry's operations; each is guarded by its own
// lock.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*service.Description
	started  map[string]bool
	breakers map[string]*resilience.Breaker

	cfg         Config
	graph       *depgraph.Graph
	monitor     *health.Monitor
	coordinator *recovery.Coordinator
	bus         *eventbus.Bus
	metrics     *observability.SupervisionMetrics
	log         *logger.Logger
}

// New constructs a registry from the supervision config. The registry
// is built once by the process entry point and handed to whatever
// needs it; there is no global accessor.
func New(cfg Config, opts ...Option) *Registry {
	cfg.ApplyDefaults()

	r := &Registry{
		services: make(map[string]*service.Description),
		started:  make(map[string]bool),
		breakers: make(map[string]*resilience.Breaker),
		cfg:      cfg,
		graph:    depgraph.New(),
		log:      logger.Get("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.bus == nil {
		r.bus = eventbus.NewBus()
	}

	monitorOpts := []health.Option{health.WithOnUnhealthy(r.handleUnhealthy)}
	coordOpts := []recovery.Option{
		recovery.WithOnRecovered(r.handleRecovered),
		recovery.WithOnUnrecoverable(r.handleUnrecoverable),
	}
	if r.metrics != nil {
		monitorOpts = append(monitorOpts, health.WithMetrics(r.metrics))
		coordOpts = append(coordOpts, recovery.WithMetrics(r.metrics))
	}

	r.monitor = health.NewMonitor(cfg.HealthCheckInterval, cfg.ServiceTimeout, monitorOpts...)
	r.coordinator = recovery.NewCoordinator(cfg.MaxRecoveryAttempts, cfg.ServiceTimeout, coordOpts...)

	return r
}

// Bus returns the event bus carrying this registry's notifications.
func (r *Registry) Bus() *eventbus.Bus { return r.bus }

// Config returns the supervision configuration.
func (r *Registry) Config() Config { return r.cfg }

// Register installs a service description, feeds its dependency list
// into the dependency graph, begins health tracking, and publishes a
// registered event. Registration does not require dependencies to
// exist yet; callers that need ordering use ResolutionOrder and
// Satisfied explicitly.
func (r *Registry) Register(desc service.Description) error {
	if err := validation.Validate(desc); err != nil {
		return err
	}

	r.mu.Lock()
	if _, exists := r.services[desc.ID]; exists {
		r.mu.Unlock()
		return errors.AlreadyExists(desc.ID)
	}
	stored := desc
	r.services[desc.ID] = &stored
	r.mu.Unlock()

	r.graph.SetDependencies(desc.ID, desc.Dependencies)
	r.monitor.Track(desc.ID, desc.Instance)

	if r.metrics != nil {
		r.metrics.RecordRegistered(context.Background(), 1)
	}
	r.log.Info("service registered", logger.Fields(
		logger.FieldServiceID, desc.ID,
		"type", desc.Type,
	))
	r.bus.Publish(eventbus.TopicRegistered, desc.ID, map[string]any{
		"name": desc.Name,
		"type": desc.Type,
	})
	return nil
}

// Unregister removes a service. It returns false when the id is not
// registered.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	if _, exists := r.services[id]; !exists {
		r.mu.Unlock()
		return false
	}
	delete(r.services, id)
	delete(r.started, id)
	delete(r.breakers, id)
	r.mu.Unlock()

	r.monitor.Untrack(id)
	r.graph.Clear(id)
	r.coordinator.Reset(id)

	if r.metrics != nil {
		r.metrics.RecordRegistered(context.Background(), -1)
	}
	r.log.Info("service unregistered", logger.Fields(logger.FieldServiceID, id))
	r.bus.Publish(eventbus.TopicUnregistered, id, nil)
	return true
}

// Get returns the instance handle for id regardless of its current
// health; callers decide whether to trust a degraded service. It
// returns nil for an unknown id.
func (r *Registry) Get(id string) service.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if desc, ok := r.services[id]; ok {
		return desc.Instance
	}
	return nil
}

// Describe returns a copy of the stored description for id.
func (r *Registry) Describe(id string) (service.Description, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if desc, ok := r.services[id]; ok {
		return *desc, true
	}
	return service.Description{}, false
}

// List returns copies of all registered descriptions, sorted by ID.
func (r *Registry) List() []service.Description {
	r.mu.RLock()
	out := make([]service.Description, 0, len(r.services))
	for _, desc := range r.services {
		out = append(out, *desc)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindByType returns all descriptions whose Type matches.
func (r *Registry) FindByType(serviceType string) []service.Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []service.Description
	for _, desc := range r.services {
		if desc.Type == serviceType {
			out = append(out, *desc)
		}
	}
	return out
}

// FindByTags returns descriptions matching the given tags; matchAll
// selects between requiring every tag and requiring at least one.
func (r *Registry) FindByTags(tags []string, matchAll bool) []service.Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []service.Description
	for _, desc := range r.services {
		if matchAll && desc.HasAllTags(tags) || !matchAll && desc.HasAnyTag(tags) {
			out = append(out, *desc)
		}
	}
	return out
}

// CheckHealth probes one service on demand.
func (r *Registry) CheckHealth(ctx context.Context, id string) service.HealthRecord {
	return r.monitor.Probe(ctx, id)
}

// CheckAllHealth probes every registered service and returns the
// complete snapshot.
func (r *Registry) CheckAllHealth(ctx context.Context) map[string]service.HealthRecord {
	ctx, span := observability.StartSpan(ctx, observability.SpanHealthSweep)
	defer span.End()
	return r.monitor.ProbeAll(ctx)
}

// HealthSnapshot returns the cached health records without probing.
func (r *Registry) HealthSnapshot() map[string]service.HealthRecord {
	return r.monitor.Snapshot()
}

// HealthRecord reads the cached record for id without probing.
func (r *Registry) HealthRecord(id string) service.HealthRecord {
	return r.monitor.Record(id)
}

// IsHealthy reads the cached health flag for id.
func (r *Registry) IsHealthy(id string) bool {
	return r.monitor.IsHealthy(id)
}

// StartMonitoring begins the periodic health sweep.
func (r *Registry) StartMonitoring() { r.monitor.StartPolling() }

// StopMonitoring cancels the periodic health sweep.
func (r *Registry) StopMonitoring() { r.monitor.StopPolling() }

// Satisfied reports whether every declared dependency of id is
// currently registered.
func (r *Registry) Satisfied(id string) bool {
	return r.graph.Satisfied(id, r.registeredSet())
}

// HasCycle reports whether the dependency graph contains a cycle.
func (r *Registry) HasCycle() bool { return r.graph.HasCycle() }

// ResolutionOrder returns a dependency-consistent ordering of the
// registered service IDs.
func (r *Registry) ResolutionOrder() []string { return r.graph.ResolutionOrder() }

// Dependents returns the IDs that declare id as a dependency, used to
// judge the blast radius of evicting id.
func (r *Registry) Dependents(id string) []string { return r.graph.Dependents(id) }

// StartupLevels groups registered IDs into levels that can be started
// in parallel. It fails when the dependency graph is cyclic.
func (r *Registry) StartupLevels() ([][]string, error) {
	levels, err := r.graph.Levels()
	if err != nil {
		return nil, errors.DependencyCycle().WithCause(err)
	}
	return levels, nil
}

// Execute dispatches a command to a service through its circuit
// breaker, so callers fail fast on a service that keeps erroring
// instead of piling onto it while recovery runs.
func (r *Registry) Execute(ctx context.Context, id, command string, params map[string]any) (any, error) {
	r.mu.RLock()
	desc, ok := r.services[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(id)
	}

	executor, can := desc.Instance.(service.Executor)
	if !can {
		return nil, errors.InvalidInput("command", fmt.Sprintf("service %s does not accept commands", id))
	}

	if r.cfg.ServiceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ServiceTimeout)
		defer cancel()
	}

	var result any
	err := r.breaker(id).Execute(func() error {
		var execErr error
		result, execErr = executor.Execute(ctx, command, params)
		return execErr
	})
	if err == resilience.ErrBreakerOpen {
		return nil, errors.ServiceUnavailable(id).WithCause(err)
	}
	return result, err
}

// BreakerState reports the command breaker state for id.
func (r *Registry) BreakerState(id string) (resilience.State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	br, ok := r.breakers[id]
	if !ok {
		return resilience.StateClosed, false
	}
	return br.State(), true
}

func (r *Registry) breaker(id string) *resilience.Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	br, ok := r.breakers[id]
	if !ok {
		cfg := resilience.DefaultBreakerConfig(id)
		cfg.OnStateChange = func(name string, from, to resilience.State) {
			r.log.Warn("command breaker state changed", logger.Fields(
				logger.FieldServiceID, name,
				"from", from.String(),
				"to", to.String(),
			))
		}
		br = resilience.NewBreaker(cfg)
		r.breakers[id] = br
	}
	return br
}

// Recover triggers a manual recovery attempt for id.
func (r *Registry) Recover(ctx context.Context, id string, opts ...recovery.AttemptOption) (bool, error) {
	r.mu.RLock()
	desc, ok := r.services[id]
	r.mu.RUnlock()
	if !ok {
		return false, errors.NotFound(id)
	}
	return r.coordinator.Attempt(ctx, id, desc.Instance, opts...), nil
}

// ResetRecovery discards the recovery bookkeeping for id after manual
// intervention.
func (r *Registry) ResetRecovery(id string) { r.coordinator.Reset(id) }

// RecoveryState returns the recovery bookkeeping snapshot for id.
func (r *Registry) RecoveryState(id string) (recovery.State, bool) {
	return r.coordinator.State(id)
}

// StartAll starts every registered handle that exposes Start, in
// resolution order, so each service starts after its dependencies. It
// stops at the first failure.
func (r *Registry) StartAll(ctx context.Context) error {
	if r.graph.HasCycle() {
		return errors.DependencyCycle()
	}

	for _, id := range r.graph.ResolutionOrder() {
		r.mu.RLock()
		desc, ok := r.services[id]
		r.mu.RUnlock()
		if !ok {
			continue
		}

		starter, can := desc.Instance.(service.Starter)
		if !can {
			continue
		}
		if err := starter.Start(ctx); err != nil {
			r.log.Error("service start failed", logger.ErrorFields("start", err))
			return fmt.Errorf("failed to start %s: %w", id, err)
		}

		r.mu.Lock()
		r.started[id] = true
		r.mu.Unlock()
		r.log.Debug("service started", logger.Fields(logger.FieldServiceID, id))
	}
	return nil
}

// StopAll stops previously started handles in reverse resolution
// order, bounding each stop by a timeout and aggregating errors.
func (r *Registry) StopAll(ctx context.Context) error {
	order := r.graph.ResolutionOrder()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]

		r.mu.Lock()
		desc, ok := r.services[id]
		wasStarted := r.started[id]
		r.started[id] = false
		r.mu.Unlock()
		if !ok || !wasStarted {
			continue
		}

		stopper, can := desc.Instance.(service.Stopper)
		if !can {
			continue
		}

		stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := stopper.Stop(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", id, err))
			r.log.Error("service stop failed", logger.ErrorFields("stop", err))
		} else {
			r.log.Debug("service stopped", logger.Fields(logger.FieldServiceID, id))
		}
		cancel()
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleUnhealthy is the monitor's failure callback: publish the
// notification, then hand the service to the recovery coordinator
// while the polling cycle waits, so a new probe never races an
// in-flight recovery for the same service.
func (r *Registry) handleUnhealthy(id string, rec service.HealthRecord) {
	r.bus.Publish(eventbus.TopicUnhealthy, id, map[string]any{
		"status":  string(rec.Status),
		"message": rec.Message,
	})

	if !r.cfg.AutoRecover {
		return
	}

	r.mu.RLock()
	desc, ok := r.services[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	r.coordinator.Attempt(context.Background(), id, desc.Instance)
}

// handleRecovered publishes the recovery outcome.
func (r *Registry) handleRecovered(id string) {
	r.mu.RLock()
	br := r.breakers[id]
	r.mu.RUnlock()
	if br != nil {
		br.Reset()
	}
	r.bus.Publish(eventbus.TopicRecovered, id, nil)
}

// handleUnrecoverable publishes the terminal event before the entry
// disappears, so observers can react while the description is still
// queryable, then evicts the service.
func (r *Registry) handleUnrecoverable(id string) {
	r.bus.Publish(eventbus.TopicUnrecoverable, id, map[string]any{
		"dependents": r.graph.Dependents(id),
	})
	if r.metrics != nil {
		r.metrics.RecordEviction(context.Background(), id)
	}
	r.Unregister(id)
}

func (r *Registry) registeredSet() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{}, len(r.services))
	for id := range r.services {
		set[id] = struct{}{}
	}
	return set
}
