package sink

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"
)

// Kind classifies sink failures so the shipping loop can decide
// fatal-vs-retry per error rather than aborting unconditionally.
type Kind int

const (
	// KindRetryable covers transient failures: transport errors, service
	// unavailability, sequence-token desync.
	KindRetryable Kind = iota
	// KindThrottled is retryable but signals the caller to back off harder.
	KindThrottled
	// KindFatal covers auth failures, missing log groups, and malformed
	// requests; retrying cannot help.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindThrottled:
		return "throttled"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps a remote failure with its classification.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sink: %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether err should be retried (with backoff).
func IsRetryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == KindRetryable || se.Kind == KindThrottled
	}
	return false
}

// IsThrottled reports whether err is a rate-limit rejection.
func IsThrottled(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindThrottled
}

// classify maps an API error to a Kind. Unknown API errors are fatal (the
// loop must not mask an undetected gap between delivered and recorded);
// non-API errors are transport-level and retryable.
func classify(err error) Kind {
	var svcUnavailable *types.ServiceUnavailableException
	if errors.As(err, &svcUnavailable) {
		return KindRetryable
	}
	var invalidToken *types.InvalidSequenceTokenException
	if errors.As(err, &invalidToken) {
		return KindRetryable
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "Throttling", "RequestLimitExceeded":
			return KindThrottled
		case "InternalFailure", "ServiceUnavailable":
			return KindRetryable
		default:
			return KindFatal
		}
	}
	return KindRetryable
}

func wrap(op string, err error) error {
	return &Error{Kind: classify(err), Op: op, Err: err}
}
