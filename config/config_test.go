package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "supervisor"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "supervisor", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})

	t.Run("logging defaults applied", func(t *testing.T) {
		cfg := ServiceConfig{Name: "supervisor"}
		cfg.ApplyDefaults()
		if cfg.Logging.Level == "" {
			t.Error("expected logging level to be defaulted")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", validServiceConfig("development"), false, ""},
		{"valid staging", validServiceConfig("staging"), false, ""},
		{"valid production", validServiceConfig("production"), false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", validServiceConfig("qa"), true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func validServiceConfig(env string) ServiceConfig {
	cfg := ServiceConfig{Name: "supervisor", Environment: env}
	cfg.Logging.ApplyDefaults()
	return cfg
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: supervisor
environment: staging
version: "1.0.0"
registry:
  auto_recover: true
  max_recovery_attempts: 5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	type registrySection struct {
		AutoRecover         bool `mapstructure:"auto_recover"`
		MaxRecoveryAttempts int  `mapstructure:"max_recovery_attempts"`
	}
	type appConfig struct {
		ServiceConfig `yaml:",inline" mapstructure:",squash"`
		Registry      registrySection `yaml:"registry" mapstructure:"registry"`
	}

	var cfg appConfig
	if err := LoadConfig("supervisor", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "supervisor" {
		t.Errorf("name = %q, want supervisor", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("environment = %q, want staging", cfg.Environment)
	}
	if cfg.Registry.MaxRecoveryAttempts != 5 {
		t.Errorf("max_recovery_attempts = %d, want 5", cfg.Registry.MaxRecoveryAttempts)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg ServiceConfig
	if err := LoadConfig("ghost", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected LoadConfig to tolerate a missing file, got %v", err)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	var cfg ServiceConfig
	if err := LoadConfig("supervisor", &cfg, WithFileSystem(&mockFS{})); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("environment = %q, want production from env", cfg.Environment)
	}
}

func TestResolverFindsConfig(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/supervisor/config.yml": true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("supervisor", LoaderConfig{})
	if files.ConfigFile != "./cmd/supervisor/config.yml" {
		t.Errorf("config file = %q, want ./cmd/supervisor/config.yml", files.ConfigFile)
	}
}

func TestResolverHonorsExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{}}
	files := resolver.ResolveFiles("supervisor", LoaderConfig{
		ConfigFile: "/etc/supervisor/config.yml",
		EnvFile:    "/etc/supervisor/.env",
	})
	if files.ConfigFile != "/etc/supervisor/config.yml" || files.EnvFile != "/etc/supervisor/.env" {
		t.Errorf("resolved = %+v, want explicit paths untouched", files)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("REGISTRY_SERVICE_TIMEOUT")

	want := map[string]bool{
		"registry_service_timeout": false,
		"registry.service.timeout": false,
		"registry.service_timeout": false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for key, found := range want {
		if !found {
			t.Errorf("variant %q missing from %v", key, variants)
		}
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	WithConfigFile("/path/config.yml")(&lc)
	WithEnvFile("/path/.env")(&lc)

	if lc.FileSystem == nil || lc.ConfigFile != "/path/config.yml" || lc.EnvFile != "/path/.env" {
		t.Errorf("options not applied: %+v", lc)
	}
}
