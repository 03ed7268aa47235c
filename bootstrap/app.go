package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/svckit/logger"
	"github.com/skillsenselab/svckit/registry"
	"github.com/skillsenselab/svckit/server"
	"github.com/skillsenselab/svckit/service"
)

// App is a supervised application with uniform lifecycle management.
// The type parameter C is the config type; any struct embedding
// config.ServiceConfig satisfies the Config constraint.
type App[C Config] struct {
	Name     string
	Version  string
	Cfg      C
	Registry *registry.Registry
	Server   *server.Server
	Logger   *logger.Logger

	gracefulTimeout time.Duration

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates an application from a typed config. It applies
// defaults, validates the config, initializes the logger, and builds
// the service registry.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	regCfg := registry.DefaultConfig()
	if o.registryConfig != nil {
		regCfg = *o.registryConfig
	}
	app.Registry = registry.New(regCfg)

	if o.serverConfig != nil {
		srvCfg := *o.serverConfig
		srvCfg.ApplyDefaults()
		if err := srvCfg.Validate(); err != nil {
			return nil, fmt.Errorf("server config: %w", err)
		}
		app.Server = server.New(srvCfg, app.Logger)
		app.Server.ApplyDefaults(app.Name, app.Registry)
	}

	return app, nil
}

// ReadyCheck probes every registered service and fails when any is
// unhealthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var unhealthy []string
	for id, rec := range a.Registry.CheckAllHealth(ctx) {
		if rec.Status == service.StatusUnhealthy {
			detail := id + "=" + string(rec.Status)
			if rec.Message != "" {
				detail += "(" + rec.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy services: %v", unhealthy)
	}
	return nil
}

// Run executes the full lifecycle for long-running applications:
// start services, OnStart hooks, ready check, OnReady hooks, block on
// signal, OnStop hooks, graceful shutdown.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	a.Logger.Info("application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// RunTask executes a finite task with the full bootstrap lifecycle.
// Unlike Run it does not block on shutdown signals; it runs the task
// and shuts down when the task completes or a signal cancels it. Use
// it for CLI tools and batch jobs that need the same wiring.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// WaitForSignal blocks until SIGINT, SIGTERM, or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.Info("context canceled")
	}
}

// startup performs the initialization sequence shared by Run and
// RunTask.
func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("starting application", logger.Fields(
		"name", a.Name,
		"version", a.Version,
	))

	if err := a.Registry.StartAll(ctx); err != nil {
		return fmt.Errorf("service startup failed: %w", err)
	}
	a.Registry.StartMonitoring()

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := a.ReadyCheck(ctx); err != nil {
		return fmt.Errorf("ready check failed: %w", err)
	}

	if a.Server != nil {
		if err := a.Server.Start(ctx); err != nil {
			return fmt.Errorf("admin server failed: %w", err)
		}
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Logger.Info("application started", logger.Fields(
		"services", len(a.Registry.List()),
		logger.FieldDuration, time.Since(start).String(),
	))
	return nil
}

// stop performs graceful shutdown in reverse order of startup.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	a.Logger.Info("shutting down application")

	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook failed", logger.ErrorFields("shutdown", err))
	}

	if a.Server != nil {
		if err := a.Server.Stop(ctx); err != nil {
			a.Logger.Error("admin server stop failed", logger.ErrorFields("shutdown", err))
		}
	}

	a.Registry.StopMonitoring()
	if err := a.Registry.StopAll(ctx); err != nil {
		return fmt.Errorf("service shutdown failed: %w", err)
	}

	a.Logger.Info("application stopped")
	return nil
}
