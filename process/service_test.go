package process_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/skillsenselab/svckit/process"
	"github.com/skillsenselab/svckit/service"
)

func sleepService(id string, seconds string) *process.Service {
	return process.NewService(process.ServiceConfig{
		ID: id,
		Command: process.Command{
			Binary:      "sleep",
			Args:        []string{seconds},
			GracePeriod: time.Second,
		},
		StartupWait: 50 * time.Millisecond,
	})
}

func TestServiceStartStop(t *testing.T) {
	svc := sleepService("sleeper", "30")

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if svc.Pid() == 0 {
		t.Fatal("no pid after start")
	}

	rec := svc.CheckHealth(context.Background())
	if !rec.Healthy {
		t.Fatalf("expected healthy, got %+v", rec)
	}

	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if svc.Pid() != 0 {
		t.Error("pid still set after stop")
	}

	rec = svc.CheckHealth(context.Background())
	if rec.Healthy {
		t.Errorf("expected unhealthy after stop, got %+v", rec)
	}
}

func TestServiceDetectsCrash(t *testing.T) {
	svc := process.NewService(process.ServiceConfig{
		ID: "crasher",
		Command: process.Command{
			Binary: "sh",
			Args:   []string{"-c", "sleep 0.2; exit 1"},
		},
		StartupWait: 50 * time.Millisecond,
	})

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer svc.Stop(context.Background())

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		rec := svc.CheckHealth(context.Background())
		if !rec.Healthy {
			if rec.Status != service.StatusUnhealthy {
				t.Errorf("status = %s, want %s", rec.Status, service.StatusUnhealthy)
			}
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("crash never reflected in health")
}

func TestServiceExitDuringStartup(t *testing.T) {
	svc := process.NewService(process.ServiceConfig{
		ID:          "flash",
		Command:     process.Command{Binary: "true"},
		StartupWait: time.Second,
	})

	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("expected error for process exiting during startup")
	}
	if svc.Pid() != 0 {
		t.Error("pid still set after failed start")
	}
}

func TestServiceRestart(t *testing.T) {
	svc := sleepService("sleeper", "30")

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer svc.Stop(context.Background())
	first := svc.Pid()

	if err := svc.Restart(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	second := svc.Pid()
	if second == 0 || second == first {
		t.Errorf("restart pids: first=%d second=%d, want a fresh process", first, second)
	}
}

func TestServiceDoubleStart(t *testing.T) {
	svc := sleepService("sleeper", "30")

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer svc.Stop(context.Background())

	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("expected error for second start")
	}
}

func TestServiceStopWhenNotRunning(t *testing.T) {
	svc := sleepService("sleeper", "30")
	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop of idle service failed: %v", err)
	}
}

func TestServiceHealthCheckCommandPasses(t *testing.T) {
	svc := process.NewService(process.ServiceConfig{
		ID:      "daemon",
		Command: process.Command{Binary: "sleep", Args: []string{"30"}},
		HealthCheck: process.Command{
			Binary: "sh",
			Args:   []string{"-c", "exit 0"},
		},
		StartupWait: 50 * time.Millisecond,
	})

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer svc.Stop(context.Background())

	rec := svc.CheckHealth(context.Background())
	if !rec.Healthy {
		t.Errorf("expected healthy with passing check, got %+v", rec)
	}
}

func TestServiceHealthCheckCommandFails(t *testing.T) {
	svc := process.NewService(process.ServiceConfig{
		ID:      "daemon",
		Command: process.Command{Binary: "sleep", Args: []string{"30"}},
		HealthCheck: process.Command{
			Binary: "sh",
			Args:   []string{"-c", "echo wedged >&2; exit 1"},
		},
		StartupWait: 50 * time.Millisecond,
	})

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer svc.Stop(context.Background())

	rec := svc.CheckHealth(context.Background())
	if rec.Healthy {
		t.Fatal("expected unhealthy with failing check while process is alive")
	}
	if rec.Status != service.StatusUnhealthy {
		t.Errorf("status = %s, want %s", rec.Status, service.StatusUnhealthy)
	}
	if !strings.Contains(rec.Message, "wedged") {
		t.Errorf("message = %q, want the check's stderr in it", rec.Message)
	}
}

func TestServiceExecuteRunsSubcommand(t *testing.T) {
	svc := process.NewService(process.ServiceConfig{
		ID:      "daemon",
		Command: process.Command{Binary: "echo"},
	})

	result, err := svc.Execute(context.Background(), "status", map[string]any{
		"args": []string{"--verbose"},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if result != "status --verbose" {
		t.Errorf("result = %v, want %q", result, "status --verbose")
	}
}

func TestServiceExecutePropagatesFailure(t *testing.T) {
	svc := process.NewService(process.ServiceConfig{
		ID:      "daemon",
		Command: process.Command{Binary: "false"},
	})

	if _, err := svc.Execute(context.Background(), "anything", nil); err == nil {
		t.Fatal("expected error from failing subcommand")
	}
}

func TestServiceImplementsExecutor(t *testing.T) {
	var handle service.Handle = process.NewService(process.ServiceConfig{ID: "daemon"})
	if _, ok := handle.(service.Executor); !ok {
		t.Fatal("Service does not satisfy service.Executor")
	}
}

func TestServiceRequiresBinary(t *testing.T) {
	svc := process.NewService(process.ServiceConfig{ID: "empty"})
	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
