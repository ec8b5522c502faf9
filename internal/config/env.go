package config

import (
	"fmt"
	"os"
	"strconv"
)

// FromEnv overlays environment variables onto cfg. The destination and batch
// options keep the names the original deployment used (no prefix); agent-only
// additions carry the JOURNALCLOUD_ prefix.
func FromEnv(cfg *Config) error {
	if v := os.Getenv("LOG_GROUP_NAME"); v != "" {
		cfg.LogGroupName = v
	}
	if v := os.Getenv("LOG_STREAM_NAME"); v != "" {
		cfg.LogStreamName = v
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid BATCH_SIZE %q: %w", v, err)
		}
		cfg.BatchSize = n
	}
	if v := os.Getenv("JOURNAL_CURSOR_FILE"); v != "" {
		cfg.CursorFile = v
	}
	if v := os.Getenv("JOURNALCLOUD_POLL_INTERVAL_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid JOURNALCLOUD_POLL_INTERVAL_MS %q: %w", v, err)
		}
		cfg.PollIntervalMs = n
	}
	if v := os.Getenv("JOURNALCLOUD_SOURCE"); v != "" {
		cfg.Source = Source(v)
	}
	if v := os.Getenv("JOURNALCLOUD_SPOOL_DIR"); v != "" {
		cfg.Spool.Dir = v
	}
	if v := os.Getenv("JOURNALCLOUD_SPOOL_TRIM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid JOURNALCLOUD_SPOOL_TRIM %q: %w", v, err)
		}
		cfg.Spool.TrimAcknowledged = b
	}
	if v := os.Getenv("JOURNALCLOUD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JOURNALCLOUD_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	return nil
}
