package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Stack Exchange error_id values the client cares about
const (
	errorIDThrottleViolation = 502
)

// ErrRetriesExhausted is returned when every attempt was throttled
var ErrRetriesExhausted = errors.New("retries exhausted")

// RateLimitError reports upstream throttling
type RateLimitError struct {
	StatusCode int
	ErrorID    int
	Message    string
	// Backoff is the wait the upstream asked for, zero if none was given
	Backoff time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rate limited (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("rate limited (status %d)", e.StatusCode)
}

// APIError reports a non-throttling upstream failure
type APIError struct {
	StatusCode int
	ErrorID    int
	ErrorName  string
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorName != "" {
		return fmt.Sprintf("stack exchange error %d %s (status %d): %s", e.ErrorID, e.ErrorName, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// PayloadError reports a response body that could not be decoded
type PayloadError struct {
	Path string
	Err  error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Path, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// IsThrottled reports whether err is, or wraps, a RateLimitError
func IsThrottled(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsPayload reports whether err is, or wraps, a PayloadError
func IsPayload(err error) bool {
	var pe *PayloadError
	return errors.As(err, &pe)
}

func isThrottleStatus(status, errorID int) bool {
	return status == http.StatusTooManyRequests || errorID == errorIDThrottleViolation
}
