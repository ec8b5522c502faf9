package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Source names a journal source implementation.
type Source string

// Journal sources
const (
	SourceSystemd Source = "systemd"
	SourceSpool   Source = "spool"
)

// Config is the top-level agent configuration loaded from file/env.
type Config struct {
	LogGroupName   string `json:"logGroupName" yaml:"logGroupName"`
	LogStreamName  string `json:"logStreamName" yaml:"logStreamName"`
	BatchSize      int    `json:"batchSize" yaml:"batchSize"`
	CursorFile     string `json:"cursorFile" yaml:"cursorFile"`
	PollIntervalMs int    `json:"pollIntervalMs" yaml:"pollIntervalMs"`

	Source Source      `json:"source" yaml:"source"`
	Spool  SpoolConfig `json:"spool" yaml:"spool"`

	LogLevel  string `json:"logLevel" yaml:"logLevel"`
	LogFormat string `json:"logFormat" yaml:"logFormat"`
}

// SpoolConfig configures the local pebble-backed spool source.
type SpoolConfig struct {
	Dir string `json:"dir" yaml:"dir"`
	// TrimAcknowledged deletes spool entries at or below the persisted cursor
	// after each cursor write, bounding local disk use.
	TrimAcknowledged bool `json:"trimAcknowledged" yaml:"trimAcknowledged"`
}

// Default returns built-in defaults. Destination names have no default; they
// are required and validated before the agent starts.
func Default() Config {
	return Config{
		BatchSize:      500,
		CursorFile:     "/var/lib/journalcloud/current-cursor",
		PollIntervalMs: 500,
		Source:         SourceSystemd,
		Spool: SpoolConfig{
			Dir: "/var/lib/journalcloud/spool",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is
// empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Validate checks required options and numeric sanity. Violations are fatal
// at startup.
func (c Config) Validate() error {
	if c.LogGroupName == "" {
		return errors.New("config: LOG_GROUP_NAME is required")
	}
	if c.LogStreamName == "" {
		return errors.New("config: LOG_STREAM_NAME is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch size must be positive, got %d", c.BatchSize)
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("config: poll interval must be positive, got %dms", c.PollIntervalMs)
	}
	if c.CursorFile == "" {
		return errors.New("config: cursor file path must not be empty")
	}
	switch c.Source {
	case SourceSystemd:
	case SourceSpool:
		if c.Spool.Dir == "" {
			return errors.New("config: spool dir must not be empty")
		}
	default:
		return fmt.Errorf("config: unknown source %q", c.Source)
	}
	return nil
}

// PollInterval returns the idle backoff as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}
