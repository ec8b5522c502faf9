package cursor

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the journal resume cursor as a single opaque token file.
// The token is written only after the corresponding batch has been
// acknowledged by the remote sink, so the persisted cursor never points past
// unconfirmed data.
type Store struct {
	path string
}

// NewStore creates a Store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the cursor file location.
func (s *Store) Path() string { return s.path }

// Read returns the persisted cursor token. A missing or empty file reads as
// ("", false, nil): the fresh-start signal, meaning resume from the earliest
// retained record. Non-empty content is returned verbatim as an opaque token,
// never parsed or validated.
func (s *Store) Read() (string, bool, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cursor: read %s: %w", s.path, err)
	}
	if len(b) == 0 {
		return "", false, nil
	}
	return string(b), true, nil
}

// Write atomically replaces the cursor file with the given token. The token
// is written to a temp file in the same directory, fsynced, then renamed over
// the target, so a crash mid-write leaves either the old or the new cursor,
// never a truncated one.
func (s *Store) Write(token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cursor: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".cursor-*")
	if err != nil {
		return fmt.Errorf("cursor: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		return fmt.Errorf("cursor: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("cursor: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cursor: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("cursor: rename over %s: %w", s.path, err)
	}
	return nil
}

// Reset removes the cursor file, so the next run starts from the earliest
// retained record. Missing file is not an error.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cursor: remove %s: %w", s.path, err)
	}
	return nil
}
