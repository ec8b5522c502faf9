package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	shiprun "github.com/megakorre/journalcloud/internal/cmd/ship"
	cfgpkg "github.com/megakorre/journalcloud/internal/config"
	"github.com/megakorre/journalcloud/internal/cursor"
	"github.com/megakorre/journalcloud/internal/journal"
	"github.com/megakorre/journalcloud/internal/journal/spool"
	pebblestore "github.com/megakorre/journalcloud/internal/storage/pebble"
	logpkg "github.com/megakorre/journalcloud/pkg/log"
)

func main() {
	// initialize logger for CLI; JOURNALCLOUD_LOG_LEVEL applies before config
	// is even loaded so startup problems are visible at the right level
	level := os.Getenv("JOURNALCLOUD_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(logpkg.WithLevel(parsed))

	// Redirect standard library logs (used by Pebble and the AWS SDK) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "journalcloud",
		Short: "journalcloud agent CLI",
		Long:  "journalcloud ships a local journal to CloudWatch Logs. This CLI runs the agent and manages its local state.",
	}

	rootCmd.AddCommand(newShipCommand(logger))
	rootCmd.AddCommand(newSpoolCommand())
	rootCmd.AddCommand(newCursorCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newShipCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ship",
		Short: "Run the shipping agent",
		Long:  "Drains the configured journal source and forwards entries to CloudWatch Logs, resuming from the persisted cursor.",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}

			if lvl, err := logpkg.ParseLevel(cfg.LogLevel); err == nil {
				logger.SetLevel(lvl)
			}
			if format, err := logpkg.ParseFormat(cfg.LogFormat); err == nil && format == logpkg.JSONFormat {
				logger = logpkg.NewLogger(logpkg.WithLevel(logger.GetLevel()), logpkg.WithFormat(format))
				logpkg.RedirectStdLog(logger)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := shiprun.Run(ctx, shiprun.Options{Config: cfg, Logger: logger}); err != nil {
				return fmt.Errorf("ship: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("config", os.Getenv("JOURNALCLOUD_CONFIG"), "Config file path (JSON or YAML)")
	cmd.Flags().String("log-group", "", "Destination log group name")
	cmd.Flags().String("log-stream", "", "Destination log stream name")
	cmd.Flags().Int("batch-size", 0, "Max records per read/upload cycle")
	cmd.Flags().String("cursor-file", "", "Cursor persistence path")
	cmd.Flags().Int("poll-interval-ms", 0, "Idle backoff between empty reads in ms")
	cmd.Flags().String("source", "", "Journal source: systemd|spool")
	cmd.Flags().String("spool-dir", "", "Spool data directory (source=spool)")
	return cmd
}

// loadConfig resolves precedence: defaults < file < env < flags.
func loadConfig(cmd *cobra.Command, path string) (cfgpkg.Config, error) {
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfgpkg.FromEnv(&cfg); err != nil {
		return cfgpkg.Config{}, err
	}
	if cmd.Flags().Changed("log-group") {
		cfg.LogGroupName, _ = cmd.Flags().GetString("log-group")
	}
	if cmd.Flags().Changed("log-stream") {
		cfg.LogStreamName, _ = cmd.Flags().GetString("log-stream")
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	}
	if cmd.Flags().Changed("cursor-file") {
		cfg.CursorFile, _ = cmd.Flags().GetString("cursor-file")
	}
	if cmd.Flags().Changed("poll-interval-ms") {
		cfg.PollIntervalMs, _ = cmd.Flags().GetInt("poll-interval-ms")
	}
	if cmd.Flags().Changed("source") {
		v, _ := cmd.Flags().GetString("source")
		cfg.Source = cfgpkg.Source(v)
	}
	if cmd.Flags().Changed("spool-dir") {
		cfg.Spool.Dir, _ = cmd.Flags().GetString("spool-dir")
	}
	return cfg, nil
}

func newSpoolCommand() *cobra.Command {
	spoolCmd := &cobra.Command{Use: "spool", Short: "Local spool operations"}

	writeCmd := &cobra.Command{
		Use:   "write",
		Short: "Append JSON-object lines from stdin to the spool",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			s, err := spool.Open(spool.Options{Dir: dir, Fsync: pebblestore.FsyncModeAlways})
			if err != nil {
				return err
			}
			defer s.Close()

			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
			var pending []journal.Record
			total := 0
			flush := func() error {
				if len(pending) == 0 {
					return nil
				}
				if _, err := s.Append(cmd.Context(), pending); err != nil {
					return err
				}
				total += len(pending)
				pending = pending[:0]
				return nil
			}
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				var rec journal.Record
				if err := json.Unmarshal(line, &rec); err != nil {
					return fmt.Errorf("parse line: %w", err)
				}
				pending = append(pending, rec)
				if len(pending) >= 100 {
					if err := flush(); err != nil {
						return err
					}
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			if err := flush(); err != nil {
				return err
			}
			fmt.Printf("appended %d records (last seq %d)\n", total, s.LastSeq())
			return nil
		},
	}
	writeCmd.Flags().String("dir", cfgpkg.Default().Spool.Dir, "Spool data directory")
	spoolCmd.AddCommand(writeCmd)

	trimCmd := &cobra.Command{
		Use:   "trim",
		Short: "Delete spool entries up to and including a sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			throughStr, _ := cmd.Flags().GetString("through")
			through, err := strconv.ParseUint(throughStr, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid --through: %w", err)
			}
			s, err := spool.Open(spool.Options{Dir: dir, Fsync: pebblestore.FsyncModeAlways})
			if err != nil {
				return err
			}
			defer s.Close()
			n, err := s.TrimThrough(cmd.Context(), through, 1024, 0)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d entries\n", n)
			return nil
		},
	}
	trimCmd.Flags().String("dir", cfgpkg.Default().Spool.Dir, "Spool data directory")
	trimCmd.Flags().String("through", "", "Sequence to trim through (inclusive)")
	spoolCmd.AddCommand(trimCmd)

	return spoolCmd
}

func newCursorCommand() *cobra.Command {
	cursorCmd := &cobra.Command{Use: "cursor", Short: "Cursor file operations"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted cursor token",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			tok, ok, err := cursor.NewStore(path).Read()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("no cursor (next run starts from earliest)")
				return nil
			}
			fmt.Println(tok)
			return nil
		},
	}
	showCmd.Flags().String("file", cfgpkg.Default().CursorFile, "Cursor file path")
	cursorCmd.AddCommand(showCmd)

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove the cursor file so the next run starts from earliest",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			if err := cursor.NewStore(path).Reset(); err != nil {
				return err
			}
			fmt.Println("cursor reset")
			return nil
		},
	}
	resetCmd.Flags().String("file", cfgpkg.Default().CursorFile, "Cursor file path")
	cursorCmd.AddCommand(resetCmd)

	return cursorCmd
}
