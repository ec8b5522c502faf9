package spool

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/megakorre/journalcloud/internal/journal"
	pebblestore "github.com/megakorre/journalcloud/internal/storage/pebble"
)

// Spool is a pebble-backed local append-only journal. It implements
// journal.Source: reads advance a position over contiguous big-endian
// sequence keys, and the cursor token is the 16-hex sequence of the last
// consumed entry.
type Spool struct {
	db     *pebblestore.DB
	ownsDB bool

	mu      sync.Mutex
	lastSeq uint64
	pos     uint64 // seq of the last consumed entry; 0 = before the first
	closed  bool
}

// Options configures Open.
type Options struct {
	Dir   string
	Fsync pebblestore.FsyncMode
}

// Open opens (or creates) a spool in the given directory. The Spool owns the
// database and closes it on Close.
func Open(opts Options) (*Spool, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.Dir, Fsync: opts.Fsync})
	if err != nil {
		return nil, fmt.Errorf("spool: open %s: %w", opts.Dir, err)
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// New initializes a Spool over an existing database and loads the last
// assigned sequence from metadata (if any). The caller retains ownership of db.
func New(db *pebblestore.DB) (*Spool, error) {
	s := &Spool{db: db}
	meta, err := db.Get(metaKey)
	if err == nil && len(meta) >= 8 {
		s.lastSeq = binary.BigEndian.Uint64(meta[:8])
	} else if err != nil && !pebblestore.IsNotFound(err) {
		return nil, fmt.Errorf("spool: read meta: %w", err)
	}
	return s, nil
}

// Append appends the provided records as a single atomic batch. Returns the
// assigned sequence numbers.
func (s *Spool) Append(ctx context.Context, recs []journal.Record) ([]uint64, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, journal.ErrClosed
	}

	b := s.db.NewBatch()
	defer b.Close()

	seqs := make([]uint64, len(recs))
	for i, r := range recs {
		s.lastSeq++
		if err := b.Set(KeyEntry(s.lastSeq), EncodeFields(r), nil); err != nil {
			return nil, err
		}
		seqs[i] = s.lastSeq
	}

	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], s.lastSeq)
	if err := b.Set(metaKey, meta[:], nil); err != nil {
		return nil, err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return nil, err
	}
	return seqs, nil
}

// LastSeq returns the last assigned sequence number.
func (s *Spool) LastSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeq
}

// SeekHead positions before the earliest retained entry.
func (s *Spool) SeekHead() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return journal.ErrClosed
	}
	s.pos = 0
	return nil
}

// SeekCursor resumes after the entry the cursor names. The token is the
// 16-hex sequence produced by Cursor.
func (s *Spool) SeekCursor(cursor string) error {
	seq, err := strconv.ParseUint(cursor, 16, 64)
	if err != nil {
		return fmt.Errorf("spool: malformed cursor %q: %w", cursor, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return journal.ErrClosed
	}
	s.pos = seq
	return nil
}

// Next consumes the entry after the current position. Trimmed gaps are
// skipped; ok is false when caught up.
func (s *Spool) Next() (journal.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, journal.ErrClosed
	}
	if s.pos == ^uint64(0) {
		return nil, false, nil
	}

	_, hi := entryBounds()
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: KeyEntry(s.pos + 1), UpperBound: hi})
	if err != nil {
		return nil, false, fmt.Errorf("spool: iterator: %w", err)
	}
	defer iter.Close()

	if !iter.First() {
		return nil, false, nil
	}
	seq := SeqFromKey(iter.Key())
	rec, ok := DecodeFields(iter.Value())
	if !ok {
		return nil, false, fmt.Errorf("spool: corrupt entry at seq %d", seq)
	}
	s.pos = seq
	return rec, true, nil
}

// Cursor reports the position after the last consumed entry.
func (s *Spool) Cursor() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", journal.ErrClosed
	}
	return fmt.Sprintf("%016x", s.pos), nil
}

// Close closes the spool and, when it owns the database, the database too.
func (s *Spool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// ParseCursor decodes a spool cursor token into a sequence number.
func ParseCursor(cursor string) (uint64, error) {
	seq, err := strconv.ParseUint(cursor, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("spool: malformed cursor %q: %w", cursor, err)
	}
	return seq, nil
}
