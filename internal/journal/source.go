package journal

import "errors"

// Record is one structured journal entry: field names to values. Immutable
// once read; it is serialized into the upload payload and discarded.
type Record map[string]string

// ErrClosed is returned by operations on a closed source.
var ErrClosed = errors.New("journal: source closed")

// Source is a sequential, cursor-addressable record store. Reading is a
// destructive position advance: once a record is consumed the source never
// re-reads that position; resuming after restart is driven only by the
// externally persisted cursor.
type Source interface {
	// SeekHead positions before the earliest retained record.
	SeekHead() error
	// SeekCursor resumes immediately after the record the cursor identifies.
	SeekCursor(cursor string) error
	// Next consumes the next record. ok is false when the source is caught up;
	// that is the idle signal, not an error.
	Next() (rec Record, ok bool, err error)
	// Cursor reports the current position as an opaque token.
	Cursor() (string, error)
	Close() error
}
