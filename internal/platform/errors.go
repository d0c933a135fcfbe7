package platform

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a fetch failure for attempt records and retry policy.
type ErrorKind string

const (
	ErrorKindNone        ErrorKind = ""
	ErrorKindCircuitOpen ErrorKind = "circuit_open"
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindAuthError   ErrorKind = "auth_error"
	ErrorKindTimeout     ErrorKind = "fetch_timeout"
	ErrorKindFetchError  ErrorKind = "fetch_error"
)

// CallError wraps an adapter failure with its kind so the fetcher can decide
// between retrying, giving up, and marking rate limiting.
type CallError struct {
	Kind ErrorKind
	err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.err)
}

func (e *CallError) Unwrap() error { return e.err }

// NewCallError wraps err with the given kind.
func NewCallError(kind ErrorKind, err error) *CallError {
	return &CallError{Kind: kind, err: err}
}

// KindOf extracts the ErrorKind from err, mapping context deadline errors to
// fetch_timeout and anything unclassified to fetch_error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	return ErrorKindFetchError
}

// Retryable reports whether a failure of this kind should be retried within
// a single fetch call. Auth failures are terminal.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorKindRateLimited, ErrorKindTimeout, ErrorKindFetchError:
		return true
	}
	return false
}
