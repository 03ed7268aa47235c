package bootstrap

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/skillsenselab/svckit/config"
	"github.com/skillsenselab/svckit/registry"
	"github.com/skillsenselab/svckit/service"
	"github.com/skillsenselab/svckit/testutil"
)

type appConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
}

func validConfig() *appConfig {
	return &appConfig{ServiceConfig: config.ServiceConfig{Name: "test-app"}}
}

func quietRegistry() Option {
	return WithRegistryConfig(registry.Config{
		AutoRecover:         false,
		HealthCheckInterval: time.Hour,
		MaxRecoveryAttempts: 3,
		ServiceTimeout:      time.Second,
	})
}

func TestNewAppValidatesConfig(t *testing.T) {
	_, err := NewApp(&appConfig{})
	if err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Fatalf("NewApp returned %v, want config validation error", err)
	}
}

func TestNewAppBuildsRegistry(t *testing.T) {
	app, err := NewApp(validConfig(), quietRegistry())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "test-app" {
		t.Errorf("Name = %q, want test-app", app.Name)
	}
	if app.Registry == nil {
		t.Fatal("Registry not constructed")
	}
	if app.Server != nil {
		t.Error("Server constructed without WithAdminServer")
	}
}

func TestRunTaskLifecycle(t *testing.T) {
	app, err := NewApp(validConfig(), quietRegistry())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	stub := testutil.NewStubService()
	if err := app.Registry.Register(service.Description{ID: "db", Instance: stub}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	var order []string
	app.OnStart(func(ctx context.Context) error { order = append(order, "start"); return nil })
	app.OnReady(func(ctx context.Context) error { order = append(order, "ready"); return nil })
	app.OnStop(func(ctx context.Context) error { order = append(order, "stop"); return nil })

	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	want := []string{"start", "ready", "task", "stop"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}

	if stub.CallCount("start") != 1 || stub.CallCount("stop") != 1 {
		t.Errorf("service lifecycle calls = %v", stub.Calls())
	}
}

func TestRunTaskFailsReadyCheck(t *testing.T) {
	app, err := NewApp(validConfig(), quietRegistry())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	stub := testutil.NewStubService()
	stub.SetHealthy(false)
	app.Registry.Register(service.Description{ID: "db", Instance: stub})

	err = app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "ready check failed") {
		t.Fatalf("RunTask returned %v, want ready check failure", err)
	}
}

func TestOnStartHookErrorAbortsStartup(t *testing.T) {
	app, err := NewApp(validConfig(), quietRegistry())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	app.OnStart(func(ctx context.Context) error { return context.DeadlineExceeded })

	ran := false
	err = app.RunTask(context.Background(), func(ctx context.Context) error { ran = true; return nil })
	if err == nil || !strings.Contains(err.Error(), "onStart hook failed") {
		t.Fatalf("RunTask returned %v, want onStart failure", err)
	}
	if ran {
		t.Error("task ran despite failed startup")
	}
}

func TestReadyCheck(t *testing.T) {
	app, err := NewApp(validConfig(), quietRegistry())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	healthy := testutil.NewStubService()
	app.Registry.Register(service.Description{ID: "ok", Instance: healthy})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("ReadyCheck failed with healthy services: %v", err)
	}

	failing := testutil.NewStubService()
	failing.SetHealthy(false)
	app.Registry.Register(service.Description{ID: "bad", Instance: failing})
	if err := app.ReadyCheck(context.Background()); err == nil {
		t.Error("ReadyCheck passed with an unhealthy service")
	}
}
