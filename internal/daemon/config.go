// Package daemon is the composition root: configuration, service wiring, and
// the long-running process that serves the API and keeps timers persisted.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full daemon configuration, loaded from TOML.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Scoring ScoringConfig `toml:"scoring"`
	Timers  TimerConfig   `toml:"timers"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// Addr returns the listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig controls where state lives on disk.
type StorageConfig struct {
	// Dir is the data directory. Empty means the default home (see HomeDir).
	Dir string `toml:"dir"`
}

// ScoringConfig controls the scoring catalog and history seed.
type ScoringConfig struct {
	// CatalogPath overrides the embedded scoring catalog. Empty uses the
	// built-in one.
	CatalogPath string `toml:"catalog_path"`
	// InitialTotal is the cumulative total before any recorded day.
	InitialTotal int `toml:"initial_total"`
}

// TimerConfig controls the background timer flush.
type TimerConfig struct {
	// TickInterval is how often running timers are persisted, e.g. "30s".
	TickInterval string `toml:"tick_interval"`
}

// DefaultConfig returns the defaults used when no config file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8719,
			Metrics: true,
		},
		Storage: StorageConfig{
			Dir: "",
		},
		Scoring: ScoringConfig{
			CatalogPath:  "",
			InitialTotal: 788,
		},
		Timers: TimerConfig{
			TickInterval: "30s",
		},
	}
}

// HomeDir returns the data directory: $SIPHOR_HOME if set, else ~/.siphor.
func HomeDir() string {
	if dir := os.Getenv("SIPHOR_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".siphor"
	}
	return filepath.Join(home, ".siphor")
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	return filepath.Join(HomeDir(), "config.toml")
}

// LoadConfig reads a TOML config file over the defaults. A missing file is
// not an error; the defaults apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DataDir resolves the configured storage directory, falling back to the
// default home.
func (c Config) DataDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return HomeDir()
}

// TickInterval parses the configured flush interval, falling back to 30s on
// a bad or empty value.
func (c Config) TickInterval() time.Duration {
	d, err := time.ParseDuration(c.Timers.TickInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
