//go:build linux && cgo

package journal

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/sdjournal"
)

// systemdSource reads the local systemd journal through sdjournal.
type systemdSource struct {
	j *sdjournal.Journal
}

// NewSystemdSource opens the local systemd journal.
func NewSystemdSource() (Source, error) {
	j, err := sdjournal.NewJournal()
	if err != nil {
		return nil, fmt.Errorf("journal: open systemd journal: %w", err)
	}
	return &systemdSource{j: j}, nil
}

func (s *systemdSource) SeekHead() error {
	if err := s.j.SeekHead(); err != nil {
		return fmt.Errorf("journal: seek head: %w", err)
	}
	return nil
}

func (s *systemdSource) SeekCursor(cursor string) error {
	if err := s.j.SeekCursor(cursor); err != nil {
		return fmt.Errorf("journal: seek cursor: %w", err)
	}
	// The cursor names the last shipped record; skip it so the next read
	// starts at the record after it.
	if _, err := s.j.NextSkip(1); err != nil {
		return fmt.Errorf("journal: skip cursor record: %w", err)
	}
	return nil
}

func (s *systemdSource) Next() (Record, bool, error) {
	n, err := s.j.Next()
	if err != nil {
		return nil, false, fmt.Errorf("journal: advance: %w", err)
	}
	if n == 0 {
		return nil, false, nil
	}
	entry, err := s.j.GetEntry()
	if err != nil {
		return nil, false, fmt.Errorf("journal: read entry: %w", err)
	}
	rec := make(Record, len(entry.Fields))
	for k, v := range entry.Fields {
		rec[k] = v
	}
	return rec, true, nil
}

func (s *systemdSource) Cursor() (string, error) {
	cur, err := s.j.GetCursor()
	if err != nil {
		return "", fmt.Errorf("journal: get cursor: %w", err)
	}
	return cur, nil
}

func (s *systemdSource) Close() error {
	return s.j.Close()
}
