package version

import (
	"strings"
	"testing"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime, origGoVersion :=
		Version, GitCommit, BuildTime, GoVersion
	return func() {
		Version = origVersion
		GitCommit = origCommit
		BuildTime = origBuildTime
		GoVersion = origGoVersion
	}
}

func TestGetVersionInfoDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version = "dev"
	GitCommit = ""
	BuildTime = ""
	GoVersion = ""

	info := GetVersionInfo()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev should not be a release")
	}
	if info.BuildDate.IsZero() {
		t.Error("BuildDate should not be zero")
	}
}

func TestGetVersionInfoWithLdflags(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.0.0"
	BuildTime = "2024-01-15T10:30:00Z"
	GitCommit = "abc1234"
	GoVersion = "go1.22.0"

	info := GetVersionInfo()
	if info.Version != "1.0.0" {
		t.Errorf("expected '1.0.0', got %q", info.Version)
	}
	if !info.IsRelease {
		t.Error("1.0.0 should be a release")
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("expected 'abc1234', got %q", info.GitCommit)
	}
	if info.BuildDate.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("build date = %s", info.BuildDate)
	}
}

func TestGetShortVersion(t *testing.T) {
	defer saveAndRestore()()
	Version = "2.1.0"
	GitCommit = "abc1234"

	short := GetShortVersion()
	if short != "2.1.0-abc1234" {
		t.Errorf("short version = %q", short)
	}
}

func TestGetFullVersion(t *testing.T) {
	defer saveAndRestore()()
	Version = "2.1.0"
	GitCommit = "abc1234"
	BuildTime = "2024-01-15T10:30:00Z"

	full := GetFullVersion()
	if !strings.HasPrefix(full, "2.1.0-abc1234") {
		t.Errorf("full version = %q", full)
	}
	if !strings.Contains(full, "built") {
		t.Errorf("full version missing build date: %q", full)
	}
}
