package spool

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// TrimThrough deletes entries with seq <= through. Deletes are committed in
// batches of up to batchLimit keys with an optional throttle between commits,
// so a large trim does not stall appends. Returns the number of deleted
// entries.
func (s *Spool) TrimThrough(ctx context.Context, through uint64, batchLimit int, throttle time.Duration) (int, error) {
	if batchLimit <= 0 {
		batchLimit = 1024
	}

	low, _ := entryBounds()
	hi := append(KeyEntry(through), 0x00)
	deleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
		if err != nil {
			return deleted, fmt.Errorf("spool: trim iterator: %w", err)
		}

		b := s.db.NewBatch()
		n := 0
		for ok := iter.First(); ok && n < batchLimit; ok = iter.Next() {
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				iter.Close()
				return deleted, err
			}
			n++
		}
		iter.Close()

		if n == 0 {
			b.Close()
			return deleted, nil
		}
		if err := s.db.CommitBatch(ctx, b); err != nil {
			b.Close()
			return deleted, err
		}
		b.Close()
		deleted += n
		if n < batchLimit {
			return deleted, nil
		}
		if throttle > 0 {
			time.Sleep(throttle)
		}
	}
}
