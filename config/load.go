// Package config loads the tool's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quote-replay-go/infrastructure/logger"
)

// AppConfig holds the runtime configuration for the replay tool.
type AppConfig struct {
	Env     string        `yaml:"env"`
	Replay  ReplayConfig  `yaml:"replay"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging logger.Config `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ReplayConfig tunes the reorder window.
type ReplayConfig struct {
	MaxDelayMs     int `yaml:"maxDelayMs"`     // max accept-time skew absorbed by the window
	WindowCapacity int `yaml:"windowCapacity"` // pre-sizing hint, not a bound
}

// WatchConfig configures directory-watch mode.
type WatchConfig struct {
	Dir      string `yaml:"dir"`      // empty disables watch mode
	Pattern  string `yaml:"pattern"`  // glob matched against capture file names
	SettleMs int    `yaml:"settleMs"` // quiet period before a new file is opened
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the /metrics server
}

// Default returns the configuration used when no file is given.
func Default() AppConfig {
	return AppConfig{
		Env: "prod",
		Replay: ReplayConfig{
			MaxDelayMs:     3000,
			WindowCapacity: 2048,
		},
		Watch: WatchConfig{
			Pattern:  "*.pcap",
			SettleMs: 500,
		},
		Logging: logger.DefaultConfig(),
	}
}

// Load reads YAML config from path, on top of defaults, and validates it.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate ensures required fields are sane.
func Validate(cfg AppConfig) error {
	if cfg.Replay.MaxDelayMs <= 0 {
		return errors.New("replay.maxDelayMs must be > 0")
	}
	if cfg.Replay.WindowCapacity < 0 {
		return errors.New("replay.windowCapacity must be >= 0")
	}
	if cfg.Watch.SettleMs < 0 {
		return errors.New("watch.settleMs must be >= 0")
	}
	if cfg.Watch.Dir != "" && cfg.Watch.Pattern == "" {
		return errors.New("watch.pattern is required when watch.dir is set")
	}
	return nil
}
