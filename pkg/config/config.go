// Package config loads the zam configuration from a YAML file, with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "zam.yaml"

// Config holds all zam configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Senat    SenatConfig    `yaml:"senat"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig selects the persistence backend.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Debug logs every SQL statement.
	Debug bool `yaml:"debug"`
}

// SenatConfig configures the senat.fr connector.
type SenatConfig struct {
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
	RateLimit string `yaml:"rate_limit"`
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	Workers      int  `yaml:"workers"`
	MaxTreeDepth int  `yaml:"max_tree_depth"`
	StrictJoin   bool `yaml:"strict_join"`
	// OperatorFields lists amendment fields owned by operators in
	// addition to avis, observations and reponse.
	OperatorFields []string `yaml:"operator_fields"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "zam.db",
		},
		Senat: SenatConfig{
			BaseURL:   "http://www.senat.fr",
			DataURL:   "http://data.senat.fr",
			RateLimit: "500ms",
			Timeout:   "30s",
			UserAgent: "zam-senat-connector/1.0",
		},
		Ingest: IngestConfig{
			Workers:      4,
			MaxTreeDepth: 32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if driver := os.Getenv("ZAM_DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("ZAM_DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if url := os.Getenv("ZAM_SENAT_BASE_URL"); url != "" {
		c.Senat.BaseURL = url
	}
	if workers := os.Getenv("ZAM_WORKERS"); workers != "" {
		if parsed, err := strconv.Atoi(workers); err == nil {
			c.Ingest.Workers = parsed
		}
	}
	if level := os.Getenv("ZAM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// ValidDrivers lists the supported database drivers.
var ValidDrivers = []string{"sqlite", "postgres"}

// ValidLogFormats lists the supported log encodings.
var ValidLogFormats = []string{"console", "json"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !slices.Contains(ValidDrivers, c.Database.Driver) {
		return fmt.Errorf("invalid database driver: %s (valid: %v)", c.Database.Driver, ValidDrivers)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn not configured (set database.dsn or ZAM_DB_DSN)")
	}
	if c.Ingest.Workers < 0 {
		return fmt.Errorf("ingest.workers must not be negative, got %d", c.Ingest.Workers)
	}
	if c.Ingest.MaxTreeDepth < 0 {
		return fmt.Errorf("ingest.max_tree_depth must not be negative, got %d", c.Ingest.MaxTreeDepth)
	}
	if _, err := c.GetRateLimit(); err != nil {
		return err
	}
	if _, err := c.GetTimeout(); err != nil {
		return err
	}
	if c.Logging.Format != "" && !slices.Contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}
	return nil
}

// GetRateLimit returns the minimum interval between senat.fr requests.
func (c *Config) GetRateLimit() (time.Duration, error) {
	return parseDuration("senat.rate_limit", c.Senat.RateLimit)
}

// GetTimeout returns the HTTP timeout for senat.fr requests.
func (c *Config) GetTimeout() (time.Duration, error) {
	return parseDuration("senat.timeout", c.Senat.Timeout)
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return duration, nil
}
