// Package sink uploads record batches to CloudWatch Logs.
//
// # Overview
//
// A Sink targets one log group/stream pair. On startup ResolveStream finds or
// creates the stream and seeds the upload sequence token; each Upload submits
// one PutLogEvents call with the current token and replaces it from the
// response. Records go on the wire as their JSON field serialization with a
// submission-time millisecond timestamp.
//
// Failures carry a Kind (retryable, throttled, fatal) so the shipping loop
// can apply backoff to transient errors and halt on permanent ones.
// Sequence-token desync (invalid token, data already accepted) self-heals by
// adopting the expected token from the error.
package sink
