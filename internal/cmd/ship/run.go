package ship

import (
	"context"
	"fmt"

	"github.com/megakorre/journalcloud/internal/config"
	"github.com/megakorre/journalcloud/internal/cursor"
	"github.com/megakorre/journalcloud/internal/journal"
	"github.com/megakorre/journalcloud/internal/journal/spool"
	"github.com/megakorre/journalcloud/internal/shipper"
	"github.com/megakorre/journalcloud/internal/sink"
	pebblestore "github.com/megakorre/journalcloud/internal/storage/pebble"
	"github.com/megakorre/journalcloud/pkg/id"
	"github.com/megakorre/journalcloud/pkg/log"
)

// Options configures Run. Source and Client default from the config; tests
// inject doubles through them.
type Options struct {
	Config config.Config
	Logger log.Logger

	Source journal.Source
	Client sink.CloudWatchLogsAPI
}

// Run wires the agent together and drives the shipping loop until ctx is
// cancelled or a fatal error occurs: cursor store → journal source → remote
// sink, resume from the persisted cursor, resolve the destination stream,
// then loop.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger()
	}
	logger = logger.With(log.Str("run_id", id.New().String()))

	store := cursor.NewStore(cfg.CursorFile)

	src, spl, err := openSource(cfg, opts.Source)
	if err != nil {
		return err
	}
	reader := journal.NewReader(src)
	defer reader.Close()

	resume, haveCursor, err := store.Read()
	if err != nil {
		return fmt.Errorf("ship: read cursor: %w", err)
	}
	if err := reader.Init(resume, haveCursor); err != nil {
		return fmt.Errorf("ship: seek journal: %w", err)
	}
	if haveCursor {
		logger.Info("resuming from persisted cursor", log.Str("cursor_file", cfg.CursorFile))
	} else {
		logger.Info("no cursor found, starting from earliest retained record")
	}

	client := opts.Client
	if client == nil {
		client, err = sink.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("ship: %w", err)
		}
	}
	snk := sink.New(sink.Options{
		Client: client,
		Group:  cfg.LogGroupName,
		Stream: cfg.LogStreamName,
		Logger: logger,
	})
	if err := snk.ResolveStream(ctx); err != nil {
		return fmt.Errorf("ship: resolve stream: %w", err)
	}

	var onAck func(context.Context, string) error
	if spl != nil && cfg.Spool.TrimAcknowledged {
		onAck = func(ctx context.Context, cur string) error {
			seq, err := spool.ParseCursor(cur)
			if err != nil {
				return err
			}
			n, err := spl.TrimThrough(ctx, seq, 1024, 0)
			if n > 0 {
				logger.Debug("trimmed acknowledged spool entries", log.Int("deleted", n))
			}
			return err
		}
	}

	logger.Info("shipping journal",
		log.Str("destination", snk.Describe()),
		log.Int("batch_size", cfg.BatchSize),
		log.Dur("poll_interval", cfg.PollInterval()))

	return shipper.New(shipper.Options{
		Reader:        reader,
		Sink:          snk,
		Cursors:       store,
		BatchSize:     cfg.BatchSize,
		PollInterval:  cfg.PollInterval(),
		Logger:        logger,
		OnAcknowledge: onAck,
	}).Run(ctx)
}

// openSource builds the configured journal source. The returned *spool.Spool
// is non-nil only for the spool source, where trim hooks need it.
func openSource(cfg config.Config, override journal.Source) (journal.Source, *spool.Spool, error) {
	if override != nil {
		if spl, ok := override.(*spool.Spool); ok {
			return override, spl, nil
		}
		return override, nil, nil
	}
	switch cfg.Source {
	case config.SourceSpool:
		spl, err := spool.Open(spool.Options{Dir: cfg.Spool.Dir, Fsync: pebblestore.FsyncModeAlways})
		if err != nil {
			return nil, nil, fmt.Errorf("ship: open spool: %w", err)
		}
		return spl, spl, nil
	case config.SourceSystemd:
		src, err := journal.NewSystemdSource()
		if err != nil {
			return nil, nil, fmt.Errorf("ship: %w", err)
		}
		return src, nil, nil
	default:
		return nil, nil, fmt.Errorf("ship: unknown source %q", cfg.Source)
	}
}
