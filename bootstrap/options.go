package bootstrap

import (
	"time"

	"github.com/skillsenselab/svckit/logger"
	"github.com/skillsenselab/svckit/registry"
	"github.com/skillsenselab/svckit/server"
)

// Option configures the App during creation. Options are non-generic
// so they can be used with any config type.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	registryConfig  *registry.Config
	serverConfig    *server.Config
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger. If not set, the logger is
// initialized from the config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithRegistryConfig overrides the supervision settings. Without it
// the registry uses registry.DefaultConfig().
func WithRegistryConfig(cfg registry.Config) Option {
	return func(o *appOptions) { o.registryConfig = &cfg }
}

// WithAdminServer enables the admin HTTP server with the given config.
func WithAdminServer(cfg server.Config) Option {
	return func(o *appOptions) { o.serverConfig = &cfg }
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = &d }
}
