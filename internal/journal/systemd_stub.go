//go:build !linux || !cgo

package journal

import "errors"

// NewSystemdSource is unavailable without linux and cgo; use the spool source
// on such builds.
func NewSystemdSource() (Source, error) {
	return nil, errors.New("journal: systemd source requires linux and cgo")
}
