package service

import (
	"context"
	"time"
)

// Status represents the health state of a supervised service.
type Status string

const (
	StatusStarting  Status = "starting"
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusNotFound  Status = "not_found"
)

// HealthRecord holds the last observed health of one service.
type HealthRecord struct {
	Healthy     bool           `json:"healthy"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Details     map[string]any `json:"details,omitempty"`
}

// Handle is the opaque object a registered service is represented by.
// A handle exposes zero or more of the optional lifecycle interfaces
// below; the supervisor probes for each with a type assertion and
// treats absence as "operation not supported", never as an error.
type Handle any

// Initializer is implemented by handles that support initialization.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Starter is implemented by handles that support starting.
type Starter interface {
	Start(ctx context.Context) error
}

// Stopper is implemented by handles that support stopping.
type Stopper interface {
	Stop(ctx context.Context) error
}

// Restarter is implemented by handles that support an atomic restart.
// Handles without it are restarted as Stop followed by Start.
type Restarter interface {
	Restart(ctx context.Context) error
}

// Reconnector is implemented by handles that hold a re-establishable
// connection (brokers, databases, remote engines).
type Reconnector interface {
	Reconnect(ctx context.Context) error
}

// Resetter is implemented by handles whose internal state can be
// discarded and rebuilt without a full restart.
type Resetter interface {
	Reset(ctx context.Context) error
}

// HealthChecker is implemented by handles that can report their own
// health. Handles without it are assumed healthy.
type HealthChecker interface {
	CheckHealth(ctx context.Context) HealthRecord
}

// Executor is implemented by handles that accept generic commands.
// The supervisor passes it through untouched; it exists so callers can
// drive service-specific operations without widening the contract.
type Executor interface {
	Execute(ctx context.Context, command string, params map[string]any) (any, error)
}
