package recovery

import (
	"context"

	"github.com/skillsenselab/svckit/service"
)

// Strategy is one of the escalating remedies applied to an unhealthy
// handle. Retrying the same light-weight action rarely resolves a
// structural fault, so the coordinator escalates from a plain restart
// to reconnecting a transient link to fully reinitializing state.
type Strategy string

const (
	StrategyRestart      Strategy = "restart"
	StrategyReconnect    Strategy = "reconnect"
	StrategyReinitialize Strategy = "reinitialize"
)

// EscalationFor returns the strategy for the given 1-based attempt
// number: restart first, then reconnect, then reinitialize for every
// attempt after that.
func EscalationFor(attempt int) Strategy {
	switch {
	case attempt <= 1:
		return StrategyRestart
	case attempt == 2:
		return StrategyReconnect
	default:
		return StrategyReinitialize
	}
}

// execute applies one strategy to a handle. Every sub-step is a no-op
// when the handle does not expose the corresponding operation; a
// partial lifecycle contract degrades gracefully instead of failing.
func execute(ctx context.Context, handle service.Handle, strategy Strategy) error {
	switch strategy {
	case StrategyReconnect:
		if r, ok := handle.(service.Reconnector); ok {
			return r.Reconnect(ctx)
		}
	case StrategyReinitialize:
		if r, ok := handle.(service.Resetter); ok {
			return r.Reset(ctx)
		}
		if i, ok := handle.(service.Initializer); ok {
			return i.Initialize(ctx)
		}
	default: // StrategyRestart
		if r, ok := handle.(service.Restarter); ok {
			return r.Restart(ctx)
		}
		if _, canStop := handle.(service.Stopper); canStop {
			return stopThenStart(ctx, handle)
		}
		if _, canStart := handle.(service.Starter); canStart {
			return stopThenStart(ctx, handle)
		}
		if i, ok := handle.(service.Initializer); ok {
			return i.Initialize(ctx)
		}
	}
	return nil
}

func stopThenStart(ctx context.Context, handle service.Handle) error {
	if s, ok := handle.(service.Stopper); ok {
		if err := s.Stop(ctx); err != nil {
			return err
		}
	}
	if s, ok := handle.(service.Starter); ok {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}
