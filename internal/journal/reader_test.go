package journal

import (
	"errors"
	"fmt"
	"testing"
)

// fakeSource serves records from a slice; cursors are "pos:<n>" where n is
// the index after the last consumed record.
type fakeSource struct {
	records   []Record
	pos       int
	seekErr   error
	nextErr   error
	cursorErr error
	closed    bool
}

func (f *fakeSource) SeekHead() error {
	if f.seekErr != nil {
		return f.seekErr
	}
	f.pos = 0
	return nil
}

func (f *fakeSource) SeekCursor(cursor string) error {
	if f.seekErr != nil {
		return f.seekErr
	}
	var n int
	if _, err := fmt.Sscanf(cursor, "pos:%d", &n); err != nil {
		return err
	}
	f.pos = n
	return nil
}

func (f *fakeSource) Next() (Record, bool, error) {
	if f.nextErr != nil {
		return nil, false, f.nextErr
	}
	if f.pos >= len(f.records) {
		return nil, false, nil
	}
	rec := f.records[f.pos]
	f.pos++
	return rec, true, nil
}

func (f *fakeSource) Cursor() (string, error) {
	if f.cursorErr != nil {
		return "", f.cursorErr
	}
	return fmt.Sprintf("pos:%d", f.pos), nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func recs(msgs ...string) []Record {
	out := make([]Record, len(msgs))
	for i, m := range msgs {
		out[i] = Record{"MESSAGE": m}
	}
	return out
}

func TestReadBatchBound(t *testing.T) {
	// batch bound: min(N, M) records for batch size N, backlog M
	cases := []struct {
		batchSize, backlog, want int
	}{
		{batchSize: 2, backlog: 5, want: 2},
		{batchSize: 10, backlog: 3, want: 3},
		{batchSize: 4, backlog: 4, want: 4},
	}
	for _, c := range cases {
		src := &fakeSource{records: make([]Record, c.backlog)}
		for i := range src.records {
			src.records[i] = Record{"MESSAGE": fmt.Sprintf("m%d", i)}
		}
		r := NewReader(src)
		b, err := r.ReadBatch(c.batchSize)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(b.Records) != c.want {
			t.Fatalf("size %d backlog %d: got %d records, want %d",
				c.batchSize, c.backlog, len(b.Records), c.want)
		}
	}
}

func TestReadBatchCaughtUp(t *testing.T) {
	r := NewReader(&fakeSource{})
	b, err := r.ReadBatch(10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if b != nil {
		t.Fatalf("caught-up read must return nil batch, got %+v", b)
	}
}

func TestReadBatchCursorAfterLastRecord(t *testing.T) {
	src := &fakeSource{records: recs("a", "b", "c")}
	r := NewReader(src)
	b, err := r.ReadBatch(2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if b.Cursor != "pos:2" {
		t.Fatalf("cursor should point after last consumed record, got %q", b.Cursor)
	}
}

func TestInitSeeksHeadWithoutCursor(t *testing.T) {
	src := &fakeSource{records: recs("a", "b"), pos: 1}
	r := NewReader(src)
	if err := r.Init("", false); err != nil {
		t.Fatalf("init: %v", err)
	}
	b, _ := r.ReadBatch(10)
	if len(b.Records) != 2 || b.Records[0]["MESSAGE"] != "a" {
		t.Fatalf("fresh start must begin at earliest record")
	}
}

func TestInitSeeksCursor(t *testing.T) {
	src := &fakeSource{records: recs("a", "b", "c")}
	r := NewReader(src)
	if err := r.Init("pos:2", true); err != nil {
		t.Fatalf("init: %v", err)
	}
	b, _ := r.ReadBatch(10)
	if len(b.Records) != 1 || b.Records[0]["MESSAGE"] != "c" {
		t.Fatalf("resume must continue after the cursor, got %+v", b)
	}
}

func TestReadBatchPropagatesErrors(t *testing.T) {
	srcErr := errors.New("io fault")
	r := NewReader(&fakeSource{nextErr: srcErr})
	if _, err := r.ReadBatch(5); !errors.Is(err, srcErr) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestConsumptionIsDestructive(t *testing.T) {
	src := &fakeSource{records: recs("a", "b", "c", "d")}
	r := NewReader(src)
	b1, _ := r.ReadBatch(2)
	b2, _ := r.ReadBatch(2)
	if b1.Records[1]["MESSAGE"] != "b" || b2.Records[0]["MESSAGE"] != "c" {
		t.Fatalf("second batch must continue where the first stopped")
	}
}
