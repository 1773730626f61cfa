package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full solver configuration.
type Config struct {
	Solver  SolverConfig  `yaml:"solver"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// SolverConfig controls the CLI's batch-polling behavior; it has no effect
// on internal/matchengine itself, which is pure and config-free.
type SolverConfig struct {
	WatchIntervalSeconds int `yaml:"watch_interval_seconds"`
	DisplayPrecision     int `yaml:"display_precision"` // loaded and defaulted only; the notifier prints exact RatString values and does not read it
}

// StorageConfig controls where solved-batch history is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // path to the SQLite file, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads configuration from a YAML file, overlaying a .env file if one
// is present. Environment values win over YAML for the keys they cover.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// WatchInterval returns the -watch poll interval as a time.Duration.
func (c *Config) WatchInterval() time.Duration {
	return time.Duration(c.Solver.WatchIntervalSeconds) * time.Second
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Solver.WatchIntervalSeconds <= 0 {
		cfg.Solver.WatchIntervalSeconds = 5
	}
	if cfg.Solver.DisplayPrecision <= 0 {
		cfg.Solver.DisplayPrecision = 8
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "solver.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
