package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no usable credential exists; the owner must
	// reconnect the integration rather than retry.
	ErrUnauthenticated = errors.New("not authenticated: reconnect required")

	// ErrMissingCode means an OAuth callback arrived without an authorization
	// code. No network call is attempted.
	ErrMissingCode = errors.New("authorization code not provided")

	// ErrRetriesExhausted means every retry attempt failed with a transient
	// error.
	ErrRetriesExhausted = errors.New("max retries exceeded")
)

// PlatformError is a non-zero response code from a TikTok API envelope. The
// remote message is preserved verbatim for the caller.
type PlatformError struct {
	Code    int
	Message string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform error %d: %s", e.Code, e.Message)
}

// ValidationError is a fail-fast input error; no network call was attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
