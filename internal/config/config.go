// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	// Concurrency is the probe worker pool size.
	Concurrency int `toml:"concurrency"`
	// OverallTimeoutSec bounds one whole resolution.
	OverallTimeoutSec int `toml:"overall_timeout_sec"`
	// ProbeTimeoutSec bounds one provider probe.
	ProbeTimeoutSec int `toml:"probe_timeout_sec"`
	// CacheTTLMin is how long a prefetched bucket stays fresh, in minutes.
	CacheTTLMin int `toml:"cache_ttl_min"`
	// JitterMinMs and JitterMaxMs bound the per-host request pacing window.
	// Both zero disables pacing.
	JitterMinMs int `toml:"jitter_min_ms"`
	JitterMaxMs int `toml:"jitter_max_ms"`
	// Quality is the preferred rendition label, or "auto".
	Quality string `toml:"quality"`
	// SubsLanguage orders subtitle tracks in responses; empty disables it.
	SubsLanguage string `toml:"subs_language"`
	// ListenAddr is the HTTP API bind address for serve mode.
	ListenAddr string `toml:"listen_addr"`
	// PersistPath is the sqlite file for the durable resolution cache.
	// Empty disables persistence.
	PersistPath string `toml:"persist_path"`
	// Buckets are the catalogue genres the background filler keeps warm.
	Buckets []string `toml:"buckets"`
	// FillEveryMin is the background fill period in minutes.
	FillEveryMin int `toml:"fill_every_min"`
	// LogLevel is a logrus level name.
	LogLevel string `toml:"log_level"`
	// HostOverrides repoints provider IDs at alternate mirror hosts.
	HostOverrides map[string]string `toml:"host_overrides"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Concurrency:       3,
		OverallTimeoutSec: 45,
		ProbeTimeoutSec:   12,
		CacheTTLMin:       30,
		JitterMinMs:       150,
		JitterMaxMs:       600,
		Quality:           "1080",
		SubsLanguage:      "english",
		ListenAddr:        "127.0.0.1:8478",
		PersistPath:       "",
		Buckets:           []string{"trending", "latest"},
		FillEveryMin:      10,
		LogLevel:          "warn",
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sluice"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "sluice"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the XDG-compliant data directory, for the sqlite cache.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "sluice"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "sluice"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Concurrency < 1 || c.Concurrency > 16 {
		return fmt.Errorf("concurrency %d out of range (1..16)", c.Concurrency)
	}
	if c.OverallTimeoutSec < 1 {
		return fmt.Errorf("overall_timeout_sec must be positive")
	}
	if c.ProbeTimeoutSec < 1 {
		return fmt.Errorf("probe_timeout_sec must be positive")
	}
	if c.ProbeTimeoutSec > c.OverallTimeoutSec {
		return fmt.Errorf("probe_timeout_sec %d exceeds overall_timeout_sec %d",
			c.ProbeTimeoutSec, c.OverallTimeoutSec)
	}
	if c.CacheTTLMin < 1 {
		return fmt.Errorf("cache_ttl_min must be positive")
	}
	if c.JitterMinMs < 0 || c.JitterMaxMs < 0 {
		return fmt.Errorf("jitter bounds cannot be negative")
	}
	if c.JitterMaxMs < c.JitterMinMs {
		return fmt.Errorf("jitter_max_ms %d below jitter_min_ms %d", c.JitterMaxMs, c.JitterMinMs)
	}

	validQualities := map[string]bool{
		"360": true, "480": true, "720": true, "1080": true,
		"1440": true, "2160": true, "auto": true,
	}
	if !validQualities[strings.ToLower(c.Quality)] {
		return fmt.Errorf("unsupported quality %q (valid: 360, 480, 720, 1080, 1440, 2160, auto)", c.Quality)
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}
	if c.FillEveryMin < 1 {
		return fmt.Errorf("fill_every_min must be positive")
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "warning": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("unsupported log_level %q", c.LogLevel)
	}

	return nil
}

// OverallTimeout returns the overall resolution budget as a duration.
func (c *Config) OverallTimeout() time.Duration {
	return time.Duration(c.OverallTimeoutSec) * time.Second
}

// ProbeTimeout returns the per-probe budget as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSec) * time.Second
}

// CacheTTL returns the bucket freshness window as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMin) * time.Minute
}

// JitterWindow returns the pacing bounds as durations.
func (c *Config) JitterWindow() (min, max time.Duration) {
	return time.Duration(c.JitterMinMs) * time.Millisecond,
		time.Duration(c.JitterMaxMs) * time.Millisecond
}

// FillEvery returns the background fill period as a duration.
func (c *Config) FillEvery() time.Duration {
	return time.Duration(c.FillEveryMin) * time.Minute
}

// ExpandPersistPath resolves ~ in the persist path and defaults an empty
// path to the XDG data directory.
func (c *Config) ExpandPersistPath() (string, error) {
	p := c.PersistPath
	if p == "" {
		dir, err := DataDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "streams.db"), nil
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		p = filepath.Join(home, p[2:])
	}
	return filepath.Abs(p)
}
