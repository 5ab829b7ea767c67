package resilience

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrInvalidConfig is returned by constructors for unusable settings.
	ErrInvalidConfig = errors.New("resilience: invalid configuration")

	// ErrCancelled is returned when a rate limit wait or retry backoff is
	// interrupted by context cancellation. The context error is wrapped
	// alongside it.
	ErrCancelled = errors.New("resilience: wait cancelled")

	// ErrRetryExhausted matches every *RetryExhaustedError.
	ErrRetryExhausted = errors.New("resilience: retries exhausted")

	// ErrNonRetryable matches every *NonRetryableError.
	ErrNonRetryable = errors.New("resilience: non-retryable failure")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// RetryExhaustedError reports that every attempt failed. Err is the last
// failure observed.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("resilience: retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

func (e *RetryExhaustedError) Is(target error) bool { return target == ErrRetryExhausted }

// NonRetryableError reports a failure that stopped retrying immediately.
// Err is the failure exactly as the operation returned it, without any
// Permanent marker.
type NonRetryableError struct {
	Attempt int
	Err     error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("resilience: non-retryable failure on attempt %d: %v", e.Attempt, e.Err)
}

func (e *NonRetryableError) Unwrap() error { return e.Err }

func (e *NonRetryableError) Is(target error) bool { return target == ErrNonRetryable }

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying, whatever RetryIf says.
// Permanent(nil) returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
}
