// Package cursor persists the journal resume token to a local file.
//
// The file holds exactly one opaque UTF-8 token with no framing, checksum, or
// versioning. Missing or empty means "start from the earliest retained
// record". Writes replace the whole file atomically (temp + rename); a failed
// write is fatal to the shipping loop because a silently stale cursor risks
// duplicate delivery on restart.
package cursor
