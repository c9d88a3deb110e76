// Package config provides configuration management for the regulatory scanner.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoSources                = errors.New("at least one source is required")
	ErrNoEnabledSources         = errors.New("at least one source must be enabled")
	ErrSourceMissingID          = errors.New("source is required")
	ErrSourceMissingURL         = errors.New("url is required")
	ErrDuplicateSource          = errors.New("source must be unique")
	ErrUnknownParserType        = errors.New("unknown parser type")
	ErrMissingRowSelector       = errors.New("parser.row_selector is required for HTML sources")
	ErrMissingColumns           = errors.New("parser.columns is required for HTML sources")
	ErrUnknownColumnField       = errors.New("parser.columns name is not a document field")
	ErrUnknownDefaultField      = errors.New("defaults key is not a document field")
	ErrInvalidPagination        = errors.New("parser.pagination.agencies_per_request must be non-negative")
	ErrInvalidBatchSize         = errors.New("scanner.batch_size must be at least 1")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("fetch.timeout_sec must be at least 1")
	ErrInvalidRateLimit         = errors.New("fetch.requests_per_second must be non-negative")
	ErrInvalidOutputFormat      = errors.New("output.format must be 'json' or 'jsonl'")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
)

// Config represents the complete scanner configuration.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
}

// ScannerConfig contains scanner-specific settings.
type ScannerConfig struct {
	Output    OutputConfig   `yaml:"output"`
	Sources   []SourceConfig `yaml:"sources"`
	Logging   LoggingConfig  `yaml:"logging"`
	Fetch     FetchConfig    `yaml:"fetch"`
	Retry     RetryPolicy    `yaml:"retry"`
	BatchSize int            `yaml:"batch_size"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// FetchConfig defines HTTP fetch behavior.
type FetchConfig struct {
	UserAgent         string  `yaml:"user_agent"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	BufferSizeKb      int     `yaml:"buffer_size_kb"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// OutputConfig defines output behavior.
type OutputConfig struct {
	Path        string `yaml:"path"`
	Format      string `yaml:"format"`
	PrettyPrint bool   `yaml:"pretty_print"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default values applied by ApplyDefaults.
const (
	DefaultBatchSize          = 2
	DefaultMaxAttempts        = 3
	DefaultInitialDelayMs     = 500
	DefaultMaxDelayMs         = 10000
	DefaultBackoffMultiplier  = 2.0
	DefaultTimeoutSec         = 30
	DefaultBufferSizeKb       = 4096
	DefaultAgenciesPerRequest = 20
	DefaultOutputPath         = "output/documents.json"
)

// LoadConfig loads configuration from YAML file.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyDefaults fills unset settings with their defaults.
func (c *Config) ApplyDefaults() {
	s := &c.Scanner

	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}

	if s.Retry.MaxAttempts == 0 {
		s.Retry.MaxAttempts = DefaultMaxAttempts
	}

	if s.Retry.InitialDelayMs == 0 {
		s.Retry.InitialDelayMs = DefaultInitialDelayMs
	}

	if s.Retry.MaxDelayMs == 0 {
		s.Retry.MaxDelayMs = DefaultMaxDelayMs
	}

	if s.Retry.BackoffMultiplier == 0 {
		s.Retry.BackoffMultiplier = DefaultBackoffMultiplier
	}

	if s.Fetch.TimeoutSec == 0 {
		s.Fetch.TimeoutSec = DefaultTimeoutSec
	}

	if s.Fetch.BufferSizeKb == 0 {
		s.Fetch.BufferSizeKb = DefaultBufferSizeKb
	}

	if s.Output.Path == "" {
		s.Output.Path = DefaultOutputPath
	}

	if s.Output.Format == "" {
		s.Output.Format = "json"
	}

	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}

	if s.Logging.Format == "" {
		s.Logging.Format = "text"
	}

	for i := range s.Sources {
		s.Sources[i].Parser.Type = NormalizeParserType(s.Sources[i].Parser.Type)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	s := c.Scanner

	if len(s.Sources) == 0 {
		return ErrNoSources
	}

	seen := make(map[string]bool, len(s.Sources))
	enabledCount := 0

	for i, src := range s.Sources {
		if err := src.Validate(); err != nil {
			return fmt.Errorf("%w: source[%d]", err, i)
		}

		if seen[src.Source] {
			return fmt.Errorf("%w: source[%d] %s", ErrDuplicateSource, i, src.Source)
		}

		seen[src.Source] = true

		if src.Enabled {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledSources
	}

	if s.BatchSize < 1 {
		return ErrInvalidBatchSize
	}

	if s.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if s.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if s.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if s.Fetch.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if s.Fetch.RequestsPerSecond < 0 {
		return ErrInvalidRateLimit
	}

	if s.Output.Format != "json" && s.Output.Format != "jsonl" {
		return ErrInvalidOutputFormat
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[s.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if s.Logging.Format != "text" && s.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// GetEnabledSources returns only enabled sources, in configuration order.
func (c *Config) GetEnabledSources() []SourceConfig {
	var enabled []SourceConfig

	for _, src := range c.Scanner.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	return enabled
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (fc *FetchConfig) GetTimeout() time.Duration {
	return time.Duration(fc.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Sources: %d, BatchSize: %d, MaxAttempts: %d, Output: %s}",
		len(c.Scanner.Sources),
		c.Scanner.BatchSize,
		c.Scanner.Retry.MaxAttempts,
		c.Scanner.Output.Path,
	)
}
