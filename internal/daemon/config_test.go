package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8719 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8719)
	}
	if cfg.API.Addr() != "127.0.0.1:8719" {
		t.Errorf("Addr() = %q", cfg.API.Addr())
	}
	if !cfg.API.Metrics {
		t.Error("API.Metrics should default to true")
	}
	if cfg.Scoring.InitialTotal != 788 {
		t.Errorf("Scoring.InitialTotal = %d, want 788", cfg.Scoring.InitialTotal)
	}
	if cfg.Timers.TickInterval != "30s" {
		t.Errorf("Timers.TickInterval = %q, want 30s", cfg.Timers.TickInterval)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 8719 {
		t.Errorf("port = %d, want default", cfg.API.Port)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[api]
port = 9000

[scoring]
initial_total = 1200

[timers]
tick_interval = "5s"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.API.Port)
	}
	// Untouched sections keep defaults.
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("host = %q, want default", cfg.API.Host)
	}
	if cfg.Scoring.InitialTotal != 1200 {
		t.Errorf("initial_total = %d, want 1200", cfg.Scoring.InitialTotal)
	}
	if cfg.TickInterval() != 5*time.Second {
		t.Errorf("TickInterval() = %v, want 5s", cfg.TickInterval())
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("[api\nport="), 0o600)

	if _, err := LoadConfig(path); err == nil {
		t.Error("malformed config should error")
	}
}

func TestTickIntervalFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timers.TickInterval = "not-a-duration"
	if cfg.TickInterval() != 30*time.Second {
		t.Errorf("TickInterval() = %v, want 30s fallback", cfg.TickInterval())
	}
}

func TestHomeDirHonorsEnv(t *testing.T) {
	t.Setenv("SIPHOR_HOME", "/tmp/siphor-test")
	if HomeDir() != "/tmp/siphor-test" {
		t.Errorf("HomeDir() = %q", HomeDir())
	}
	if ConfigPath() != "/tmp/siphor-test/config.toml" {
		t.Errorf("ConfigPath() = %q", ConfigPath())
	}
}

func TestDataDirPrefersConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Dir = "/data/siphor"
	if cfg.DataDir() != "/data/siphor" {
		t.Errorf("DataDir() = %q", cfg.DataDir())
	}
}
