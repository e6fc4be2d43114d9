package execute

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks a write target that does not exist on the destination.
// Not retried.
var ErrNotFound = errors.New("target not found")

// ErrAuth marks an authentication or authorization failure. The only error
// class that aborts a whole run.
var ErrAuth = errors.New("authentication failed")

// TransientError wraps a failure worth retrying: timeouts, connection
// resets, 5xx responses, stale automation targets.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// RateLimitedError reports a destination rate limit. Retried after the
// advertised delay plus the executor cooldown.
type RateLimitedError struct {
	// RetryAfter is the delay the destination asked for; zero when it did
	// not advertise one.
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// Transient reports whether err is worth retrying.
func Transient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// retryAfterOf extracts the advertised rate-limit delay, if any.
func retryAfterOf(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}
