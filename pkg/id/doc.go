// Package id provides small, sortable process-local identifiers.
//
// IDs encode a millisecond timestamp plus a per-millisecond sequence, so they
// sort lexicographically by creation time. journalcloud uses one as a run id
// tagging every log line of an agent invocation.
package id
