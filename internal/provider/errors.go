package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches an UpstreamError with status 404 via errors.Is.
var ErrNotFound = errors.New("not found upstream")

// RateLimitedError is returned for HTTP 429. RetryAfter holds the
// server-suggested wait in seconds when the response carried one.
type RateLimitedError struct {
	Path       string
	RetryAfter *int
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("rate limited on %s (retry after %ds)", e.Path, *e.RetryAfter)
	}
	return fmt.Sprintf("rate limited on %s", e.Path)
}

// UpstreamError is any other non-2xx upstream response.
type UpstreamError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s returned %d: %s", e.Path, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// TransportError wraps network-level failures: dial, timeout, body read.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means the upstream answered 2xx but the payload did not match
// the expected shape.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err is, or wraps, a RateLimitedError.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
