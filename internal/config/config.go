// Package config manages serptrack configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/serptrack/serptrack/internal/engine"
)

// Config holds all tracker configuration.
type Config struct {
	DB       DBConfig       `toml:"db"`
	Server   ServerConfig   `toml:"server"`
	GSC      GSCConfig      `toml:"gsc"`
	Tracking TrackingConfig `toml:"tracking"`
}

// DBConfig controls the embedded database.
type DBConfig struct {
	Path string `toml:"path"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// GSCConfig points at the Search Console proxy.
type GSCConfig struct {
	Endpoint     string `toml:"endpoint"`
	Token        string `toml:"token"`
	SiteURL      string `toml:"site_url"`
	LookbackDays int    `toml:"lookback_days"`
}

// TrackingConfig overrides cycle lengths. Zero means "use the default".
type TrackingConfig struct {
	EvalWindowDays int `toml:"eval_window_days"`
	ExtendDays     int `toml:"extend_days"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		DB: DBConfig{
			Path: filepath.Join(serptrackHome(), "serptrack.db"),
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8747,
		},
		GSC: GSCConfig{
			LookbackDays: 28,
		},
	}
}

// Load reads config from $SERPTRACK_HOME/config.toml, falling back to
// defaults when the file is absent.
func Load() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(serptrackHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to $SERPTRACK_HOME/config.toml.
func Save(cfg Config) error {
	path := filepath.Join(serptrackHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Thresholds builds the engine threshold table with tracking overrides
// applied.
func (c Config) Thresholds() engine.Thresholds {
	t := engine.DefaultThresholds()
	if c.Tracking.EvalWindowDays > 0 {
		t.EvalWindowDays = c.Tracking.EvalWindowDays
	}
	if c.Tracking.ExtendDays > 0 {
		t.ExtendDays = c.Tracking.ExtendDays
	}
	return t
}

func serptrackHome() string {
	if env := os.Getenv("SERPTRACK_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".serptrack")
}

// Home is exported for use by other packages.
func Home() string {
	return serptrackHome()
}
