package shipper

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/megakorre/journalcloud/internal/journal"
	"github.com/megakorre/journalcloud/internal/sink"
	"github.com/megakorre/journalcloud/pkg/log"
)

// Backoff bounds for retryable upload failures.
const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
)

// JournalReader produces bounded batches; nil batch means caught up.
type JournalReader interface {
	ReadBatch(maxSize int) (*journal.Batch, error)
}

// RemoteSink uploads one batch, tracking remote ordering state internally.
type RemoteSink interface {
	Upload(ctx context.Context, batch *journal.Batch) error
}

// CursorStore durably persists the resume cursor.
type CursorStore interface {
	Write(token string) error
}

// Options configures a Shipper.
type Options struct {
	Reader       JournalReader
	Sink         RemoteSink
	Cursors      CursorStore
	BatchSize    int
	PollInterval time.Duration
	Logger       log.Logger

	// OnAcknowledge, when set, runs after each successful cursor write with
	// the persisted token. The spool source uses it to trim acknowledged
	// entries. Failures are logged, never fatal: the data is already
	// delivered and recorded.
	OnAcknowledge func(ctx context.Context, cursor string) error

	// sleep is the suspension seam; tests replace it to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) bool
}

// Shipper is the agent's steady-state loop: read a batch, upload it, persist
// its cursor. Single-threaded by design: correctness rests on the strict
// happens-before between upload acknowledgment and cursor persistence, and on
// a single outstanding sequence token per stream.
type Shipper struct {
	opts   Options
	logger log.Logger
}

// New creates a Shipper.
func New(opts Options) *Shipper {
	if opts.Logger == nil {
		opts.Logger = log.NewLogger()
	}
	if opts.sleep == nil {
		opts.sleep = sleepCtx
	}
	return &Shipper{opts: opts, logger: opts.Logger.WithComponent("shipper")}
}

// Run drives the loop until the context is cancelled (returns nil) or a fatal
// error occurs (returns it). Cancellation is observed at the top of each
// iteration and during waits, never mid-upload, so a cursor write is never
// cut short.
func (s *Shipper) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			s.logger.Info("shutdown requested, stopping")
			return nil
		}

		batch, err := s.opts.Reader.ReadBatch(s.opts.BatchSize)
		if err != nil {
			return fmt.Errorf("shipper: read batch: %w", err)
		}
		if batch == nil {
			// caught up; idle until the next poll
			if !s.opts.sleep(ctx, s.opts.PollInterval) {
				s.logger.Info("shutdown requested, stopping")
				return nil
			}
			continue
		}

		if err := s.uploadWithRetry(ctx, batch); err != nil {
			if ctx.Err() != nil {
				// cancelled during backoff; batch neither delivered nor recorded
				s.logger.Info("shutdown requested during retry, stopping")
				return nil
			}
			return err
		}

		// Upload acknowledged; only now may the cursor advance.
		if err := s.opts.Cursors.Write(batch.Cursor); err != nil {
			return fmt.Errorf("shipper: persist cursor: %w", err)
		}
		s.logger.Debug("batch shipped",
			log.Int("records", len(batch.Records)),
			log.Str("cursor", batch.Cursor))

		if s.opts.OnAcknowledge != nil {
			// detached from ctx: the batch is delivered and recorded, so ack
			// bookkeeping should finish even when shutdown is in progress
			if err := s.opts.OnAcknowledge(context.WithoutCancel(ctx), batch.Cursor); err != nil {
				s.logger.Warn("acknowledge hook failed", log.Err(err))
			}
		}
	}
}

// uploadWithRetry retries retryable sink failures with capped exponential
// backoff and jitter. Fatal failures return immediately.
func (s *Shipper) uploadWithRetry(ctx context.Context, batch *journal.Batch) error {
	delay := backoffInitial
	for attempt := 1; ; attempt++ {
		err := s.opts.Sink.Upload(ctx, batch)
		if err == nil {
			return nil
		}
		if !sink.IsRetryable(err) {
			return fmt.Errorf("shipper: upload: %w", err)
		}

		wait := jitter(delay)
		if sink.IsThrottled(err) {
			// rate-limited: skip straight to a longer wait
			wait = jitter(minDuration(delay*2, backoffMax))
		}
		s.logger.Warn("upload failed, backing off",
			log.Int("attempt", attempt),
			log.Dur("wait", wait),
			log.Err(err))
		if !s.opts.sleep(ctx, wait) {
			return ctx.Err()
		}
		delay = minDuration(time.Duration(float64(delay)*backoffMultiplier), backoffMax)
	}
}

// jitter spreads a delay uniformly over [d/2, d) to avoid thundering herds of
// restarting agents.
func jitter(d time.Duration) time.Duration {
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// sleepCtx blocks for d or until ctx is done; returns false when cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
