package registry

import (
	"fmt"
	"time"

	"github.com/skillsenselab/svckit/validation"
)

// Config holds the process-wide supervision settings, supplied once at
// registry construction.
type Config struct {
	// AutoRecover enables automatic recovery when a probe finds a
	// service unhealthy.
	AutoRecover bool `yaml:"auto_recover" mapstructure:"auto_recover" json:"auto_recover"`
	// HealthCheckInterval is the period of the polling sweep.
	HealthCheckInterval time.Duration `yaml:"health_check_interval" mapstructure:"health_check_interval" json:"health_check_interval"`
	// MaxRecoveryAttempts bounds recovery attempts per service.
	MaxRecoveryAttempts int `yaml:"max_recovery_attempts" mapstructure:"max_recovery_attempts" json:"max_recovery_attempts" validate:"min=0"`
	// ServiceTimeout bounds each individual probe and each recovery
	// lifecycle action. Zero means unbounded.
	ServiceTimeout time.Duration `yaml:"service_timeout" mapstructure:"service_timeout" json:"service_timeout"`
}

// DefaultConfig returns the supervision defaults: automatic recovery
// on, 30s polling, 3 attempts, 10s per-operation timeout.
func DefaultConfig() Config {
	return Config{
		AutoRecover:         true,
		HealthCheckInterval: 30 * time.Second,
		MaxRecoveryAttempts: 3,
		ServiceTimeout:      10 * time.Second,
	}
}

// ApplyDefaults fills unset duration and attempt fields. AutoRecover
// is left as provided; use DefaultConfig for the opinionated defaults.
func (c *Config) ApplyDefaults() {
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = 30 * time.Second
	}
	if c.MaxRecoveryAttempts == 0 {
		c.MaxRecoveryAttempts = 3
	}
	if c.ServiceTimeout == 0 {
		c.ServiceTimeout = 10 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.HealthCheckInterval < 0 {
		return fmt.Errorf("registry.health_check_interval must be non-negative (got: %s)", c.HealthCheckInterval)
	}
	if c.ServiceTimeout < 0 {
		return fmt.Errorf("registry.service_timeout must be non-negative (got: %s)", c.ServiceTimeout)
	}
	return nil
}
