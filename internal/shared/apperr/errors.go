// Package apperr defines the error categories surfaced to API callers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when an identity (email or name) is already taken.
	ErrConflict = errors.New("conflict")

	// ErrUnauthenticated covers bad credentials and missing, invalid or expired tokens.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound is returned when a token subject or record has no stored match.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed or incomplete requests.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal wraps unexpected failures such as network errors.
	ErrInternal = errors.New("internal error")
)

// UpstreamError carries a non-2xx aggregator response verbatim.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed with status %d: %s", e.StatusCode, e.Body)
}

// AsUpstream reports whether err wraps an *UpstreamError and returns it.
func AsUpstream(err error) (*UpstreamError, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream, true
	}
	return nil, false
}
