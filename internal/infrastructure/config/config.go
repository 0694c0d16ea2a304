package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the lock bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
//
// Config covers infrastructure concerns only: logging, storage paths, the
// telemetry sink and the driver loop. Device behaviour settings (broker
// address, credentials, timeouts, topic prefixes, feature flags) live in the
// preferences store so they survive reconfiguration without a redeploy.
type Config struct {
	Prefs    PrefsConfig    `yaml:"prefs"`
	History  HistoryConfig  `yaml:"history"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Network  NetworkConfig  `yaml:"network"`
}

// PrefsConfig contains preferences store settings.
type PrefsConfig struct {
	// Path is the filesystem path to the bbolt preferences database.
	Path string `yaml:"path"`
}

// HistoryConfig contains message journal settings.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	WALMode bool   `yaml:"wal_mode"`
	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int `yaml:"busy_timeout"`
	// MaxRows caps the journal size; older rows are pruned past this count.
	MaxRows int `yaml:"max_rows"`
}

// InfluxDBConfig contains the optional telemetry sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// NetworkConfig contains driver loop settings.
type NetworkConfig struct {
	// TickInterval is how often the session manager update runs (milliseconds).
	TickInterval int `yaml:"tick_interval"`

	// FallbackMarkerPath is where the Wi-Fi fallback marker is kept between
	// process restarts.
	FallbackMarkerPath string `yaml:"fallback_marker_path"`

	// Interface optionally pins the transport to a named host interface.
	Interface string `yaml:"interface"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LOCKBRIDGE_SECTION_KEY
// For example: LOCKBRIDGE_PREFS_PATH, LOCKBRIDGE_INFLUXDB_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Prefs: PrefsConfig{
			Path: "./data/prefs.db",
		},
		History: HistoryConfig{
			Enabled:     true,
			Path:        "./data/history.db",
			WALMode:     true,
			BusyTimeout: 5,
			MaxRows:     10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Network: NetworkConfig{
			TickInterval:       250,
			FallbackMarkerPath: "./data/wifi_fallback",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LOCKBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOCKBRIDGE_PREFS_PATH"); v != "" {
		cfg.Prefs.Path = v
	}
	if v := os.Getenv("LOCKBRIDGE_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("LOCKBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("LOCKBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Prefs.Path == "" {
		errs = append(errs, "prefs.path is required")
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}
	if c.History.MaxRows < 0 {
		errs = append(errs, "history.max_rows must not be negative")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required (set LOCKBRIDGE_INFLUXDB_TOKEN environment variable)")
		}
	}

	if c.Network.TickInterval < 1 {
		errs = append(errs, "network.tick_interval must be at least 1 millisecond")
	}
	if c.Network.FallbackMarkerPath == "" {
		errs = append(errs, "network.fallback_marker_path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetTickInterval returns the driver loop interval as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.Network.TickInterval) * time.Millisecond
}
