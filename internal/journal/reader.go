package journal

import "fmt"

// Batch is an ordered, non-empty group of records plus the source cursor
// positioned immediately after the last record. Consumed once by the sink and
// once by the cursor store.
type Batch struct {
	Records []Record
	Cursor  string
}

// Reader wraps a Source and produces bounded batches.
type Reader struct {
	src Source
}

// NewReader creates a Reader over the given source.
func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

// Init seeks the source to the resume position: the given cursor when
// present, otherwise the earliest retained record. Absence of a cursor means
// "start from the beginning of retained history", not "start from now".
func (r *Reader) Init(resumeCursor string, haveCursor bool) error {
	if haveCursor {
		if err := r.src.SeekCursor(resumeCursor); err != nil {
			return fmt.Errorf("journal: seek cursor: %w", err)
		}
		return nil
	}
	if err := r.src.SeekHead(); err != nil {
		return fmt.Errorf("journal: seek head: %w", err)
	}
	return nil
}

// ReadBatch consumes up to maxSize records from the current position. It
// returns (nil, nil) when zero records were available: the caught-up signal
// driving the loop's idle sleep. A returned batch carries the cursor after
// its last record.
func (r *Reader) ReadBatch(maxSize int) (*Batch, error) {
	records := make([]Record, 0, maxSize)
	for i := 0; i < maxSize; i++ {
		rec, ok, err := r.src.Next()
		if err != nil {
			return nil, fmt.Errorf("journal: next record: %w", err)
		}
		if !ok {
			break
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, nil
	}
	cur, err := r.src.Cursor()
	if err != nil {
		return nil, fmt.Errorf("journal: cursor: %w", err)
	}
	return &Batch{Records: records, Cursor: cur}, nil
}

// Close releases the underlying source.
func (r *Reader) Close() error {
	return r.src.Close()
}
