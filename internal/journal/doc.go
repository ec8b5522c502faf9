// Package journal defines the sequential record source the agent drains and
// the batch Reader on top of it.
//
// A Source yields structured records in order and reports its position as an
// opaque cursor token. Two implementations exist: the systemd journal
// (sdjournal, linux+cgo builds) and the pebble-backed local spool in the
// spool subpackage. The Reader turns pull-style Next calls into bounded
// batches, each tagged with the cursor after its last record.
package journal
