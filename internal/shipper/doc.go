// Package shipper runs the agent's steady-state loop.
//
// Each iteration pulls a bounded batch from the journal reader, uploads it
// through the remote sink (retrying transient failures with capped
// exponential backoff), and persists the batch's journal cursor. The cursor
// write happens strictly after upload acknowledgment, which bounds the
// failure window to "uploaded but crash before cursor write" — re-delivered
// on restart, at-least-once — and excludes silent loss. An empty read is the
// idle signal: the loop sleeps for the poll interval and tries again.
package shipper
