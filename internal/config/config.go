// Package config provides configuration management for the GPortal scene
// resolver.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/rsl-kuas/gportal-resolver/internal/gportal"
)

// Config holds the complete application configuration loaded from
// environment variables.
type Config struct {
	GPortal GPortalConfig `envPrefix:"GPORTAL_"`
	Bulk    BulkConfig    `envPrefix:"BULK_"`
	Logging LoggingConfig `envPrefix:"LOG_"`
}

// GPortalConfig contains GPortal API client configuration.
type GPortalConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://gportal.jaxa.jp"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// Product is the processing level searched by default: L1B, L2R or
	// L2P.
	Product string `env:"PRODUCT" envDefault:"L2R"`

	// Count caps candidates returned per search call.
	Count int `env:"COUNT" envDefault:"50"`
}

// BulkConfig contains bulk pipeline policy knobs.
type BulkConfig struct {
	// SkipIfDone bypasses rows that already carry an identifier.
	SkipIfDone bool `env:"SKIP_IF_DONE" envDefault:"true"`

	// DefaultResolution applies to rows whose resolution cell is blank.
	DefaultResolution string `env:"DEFAULT_RESOLUTION" envDefault:"250m"`

	// CheckpointInterval is the number of rows between table flushes.
	CheckpointInterval int `env:"CHECKPOINT_INTERVAL" envDefault:"100"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.GPortal.BaseURL == "" {
		return fmt.Errorf("GPortal base URL is required")
	}

	if c.GPortal.Timeout <= 0 {
		return fmt.Errorf("GPortal timeout must be positive, got %s", c.GPortal.Timeout)
	}

	if _, err := gportal.ParseProduct(c.GPortal.Product); err != nil {
		return fmt.Errorf("invalid product level: %w", err)
	}

	if c.GPortal.Count < 1 {
		return fmt.Errorf("search count must be at least 1, got %d", c.GPortal.Count)
	}

	if _, err := gportal.ParseResolution(c.Bulk.DefaultResolution); err != nil {
		return fmt.Errorf("invalid default resolution: %w", err)
	}

	if c.Bulk.CheckpointInterval < 1 {
		return fmt.Errorf("checkpoint interval must be at least 1 row, got %d", c.Bulk.CheckpointInterval)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Product returns the parsed default product level. Call after Validate.
func (c *Config) Product() gportal.Product {
	p, _ := gportal.ParseProduct(c.GPortal.Product)
	return p
}

// DefaultResolution returns the parsed default resolution class. Call
// after Validate.
func (c *Config) DefaultResolution() gportal.Resolution {
	r, _ := gportal.ParseResolution(c.Bulk.DefaultResolution)
	return r
}
