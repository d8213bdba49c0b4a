package generation

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyOutput signals a call that succeeded but produced zero steps where
// steps were expected.
var ErrEmptyOutput = errors.New("generation returned no steps")

// RateLimitError reports upstream throttling with an optional retry hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("generation rate limited, retry after %s", e.RetryAfter)
	}
	return "generation rate limited"
}

// AuthError reports invalid or expired generation-service credentials.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("generation auth failed (status %d)", e.Status)
}

// IsRateLimit reports whether err is an upstream throttling signal.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsAuth reports whether err is a credentials failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
