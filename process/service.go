package process

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/skillsenselab/svckit/logger"
	"github.com/skillsenselab/svckit/service"
)

// ServiceConfig configures a supervised long-running process.
type ServiceConfig struct {
	// ID identifies the process in logs.
	ID string
	// Command describes the process to spawn. Stdin is ignored for
	// long-running services.
	Command Command
	// StartupWait is how long Start waits after spawning before
	// confirming the process is still alive. Defaults to 250ms.
	StartupWait time.Duration
	// HealthCheck is an optional one-shot command run by CheckHealth
	// while the process is alive. A non-zero exit marks the service
	// unhealthy even though the process is running, for daemons that
	// can wedge without dying. Unset means liveness alone decides.
	HealthCheck Command
}

// Service runs an OS process as a supervisable handle. Start spawns
// the process, Stop terminates it with SIGTERM escalating to SIGKILL,
// and CheckHealth reports whether it is still running, optionally
// backed by a health check command. Restart is a stop followed by a
// fresh start, so a registry can recover a crashed process the same
// way it recovers any other service, and Execute dispatches admin
// subcommands of the service binary.
type Service struct {
	cfg ServiceConfig
	log *logger.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	exitErr error
}

// NewService creates a process-backed service handle. The process is
// not spawned until Start is called.
func NewService(cfg ServiceConfig) *Service {
	if cfg.StartupWait == 0 {
		cfg.StartupWait = 250 * time.Millisecond
	}
	if cfg.Command.GracePeriod == 0 {
		cfg.Command.GracePeriod = defaultGracePeriod
	}
	return &Service{
		cfg: cfg,
		log: logger.Get("process"),
	}
}

// Start spawns the process and verifies it survives StartupWait.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cmd != nil {
		s.mu.Unlock()
		return fmt.Errorf("process %s: already running", s.cfg.ID)
	}
	if s.cfg.Command.Binary == "" {
		s.mu.Unlock()
		return fmt.Errorf("process %s: binary is required", s.cfg.ID)
	}

	c := exec.Command(s.cfg.Command.Binary, s.cfg.Command.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = s.cfg.Command.Dir
	c.Env = mergeEnv(s.cfg.Command.Env)

	// Own process group so Stop can signal the whole tree.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := c.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("process %s: start: %w", s.cfg.ID, err)
	}

	done := make(chan struct{})
	s.cmd = c
	s.done = done
	s.exitErr = nil
	s.mu.Unlock()

	go func() {
		err := c.Wait()
		s.mu.Lock()
		s.exitErr = err
		s.mu.Unlock()
		close(done)
	}()

	s.log.Info("process started", logger.Fields(
		logger.FieldServiceID, s.cfg.ID,
		"pid", c.Process.Pid,
	))

	select {
	case <-done:
		s.mu.Lock()
		exitErr := s.exitErr
		s.cmd = nil
		s.done = nil
		s.mu.Unlock()
		return fmt.Errorf("process %s: exited during startup: %w", s.cfg.ID, exitErr)
	case <-ctx.Done():
		s.terminate(s.cfg.Command.GracePeriod)
		return ctx.Err()
	case <-time.After(s.cfg.StartupWait):
		return nil
	}
}

// Stop terminates the process, SIGTERM first and SIGKILL once the
// grace period or ctx expires. Stopping a process that is not running
// is a no-op.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	cmd := s.cmd
	done := s.done
	s.mu.Unlock()
	if cmd == nil {
		return nil
	}

	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)

	grace := s.cfg.Command.GracePeriod
	select {
	case <-done:
	case <-time.After(grace):
		s.log.Warn("process ignored SIGTERM, killing", logger.Fields(
			logger.FieldServiceID, s.cfg.ID,
			"pid", cmd.Process.Pid,
		))
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-done
	case <-ctx.Done():
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-done
	}

	s.mu.Lock()
	s.cmd = nil
	s.done = nil
	s.mu.Unlock()

	s.log.Info("process stopped", logger.Fields(logger.FieldServiceID, s.cfg.ID))
	return nil
}

// Restart stops the process if running and spawns a fresh one.
func (s *Service) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	return s.Start(ctx)
}

// CheckHealth reports whether the process is still running, and when
// a health check command is configured, whether that command passes.
func (s *Service) CheckHealth(ctx context.Context) service.HealthRecord {
	s.mu.Lock()
	cmd := s.cmd
	done := s.done
	exitErr := s.exitErr
	s.mu.Unlock()

	if cmd == nil {
		return service.HealthRecord{
			Healthy: false,
			Status:  service.StatusUnhealthy,
			Message: "process not running",
		}
	}

	select {
	case <-done:
		msg := "process exited"
		if exitErr != nil {
			msg = fmt.Sprintf("process exited: %v", exitErr)
		}
		return service.HealthRecord{
			Healthy: false,
			Status:  service.StatusUnhealthy,
			Message: msg,
		}
	default:
	}

	pid := cmd.Process.Pid
	if s.cfg.HealthCheck.Binary != "" {
		res, err := Run(ctx, s.cfg.HealthCheck)
		if err != nil {
			msg := fmt.Sprintf("health check failed: %v", err)
			details := map[string]any{"pid": pid}
			if res != nil {
				details["exit_code"] = res.ExitCode
				if stderr := res.ErrorText(); stderr != "" {
					msg = fmt.Sprintf("health check failed: %s", stderr)
				}
			}
			return service.HealthRecord{
				Healthy: false,
				Status:  service.StatusUnhealthy,
				Message: msg,
				Details: details,
			}
		}
	}

	return service.HealthRecord{
		Healthy: true,
		Status:  service.StatusHealthy,
		Details: map[string]any{"pid": pid},
	}
}

// Execute runs command as a one-shot invocation of the service
// binary, the way daemons expose admin subcommands alongside their
// serve mode. params["args"] may carry extra string arguments. The
// trimmed stdout is returned as the result.
func (s *Service) Execute(ctx context.Context, command string, params map[string]any) (any, error) {
	args := []string{command}
	switch extra := params["args"].(type) {
	case []string:
		args = append(args, extra...)
	case []any:
		// JSON-decoded params arrive as []any.
		for _, a := range extra {
			if str, ok := a.(string); ok {
				args = append(args, str)
			}
		}
	}

	res, err := Run(ctx, Command{
		Binary:      s.cfg.Command.Binary,
		Args:        args,
		Dir:         s.cfg.Command.Dir,
		Env:         s.cfg.Command.Env,
		GracePeriod: s.cfg.Command.GracePeriod,
	})
	if err != nil {
		return nil, err
	}
	return res.Text(), nil
}

// Pid returns the running process ID, or 0 when not running.
func (s *Service) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

func (s *Service) terminate(grace time.Duration) {
	s.mu.Lock()
	cmd := s.cmd
	done := s.done
	s.cmd = nil
	s.done = nil
	s.mu.Unlock()
	if cmd == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	select {
	case <-done:
	case <-time.After(grace):
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-done
	}
}
