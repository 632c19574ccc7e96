package pms

import (
	"errors"
	"fmt"
	"time"
)

// AuthError means the provider rejected our credentials (401/403). It is
// fatal for that provider's pass and is never retried automatically.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: authentication failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: authentication failed", e.Provider)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitedError means the provider (or our own limiter under the
// fail-fast policy) refused the request. Retryable after backoff.
type RateLimitedError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// UnavailableError is a transient transport failure, including per-call
// deadline expiry. Retryable with exponential backoff.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: provider unavailable: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RemoteError is any HTTP status outside [200,300) that is not an auth or
// rate-limit condition.
type RemoteError struct {
	Provider string
	Status   int
	Body     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote error %d: %s", e.Provider, e.Status, truncate(e.Body, 200))
}

// MalformedResponseError means the provider returned a body we could not
// decode in the expected format. Non-retryable for that record.
type MalformedResponseError struct {
	Provider string
	Body     string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Provider, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Retryable reports whether the error is worth another attempt.
func Retryable(err error) bool {
	var unavailable *UnavailableError
	var limited *RateLimitedError
	return errors.As(err, &unavailable) || errors.As(err, &limited)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
