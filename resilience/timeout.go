package resilience

import (
	"context"
	"fmt"
	"time"
)

// TimeoutConfig configures a Timeout.
type TimeoutConfig struct {
	// Timeout bounds one run of the operation.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout bounds how long a caller waits for an operation.
//
// The operation runs on its own goroutine under a context that expires
// after the configured duration. The caller gets ErrTimeout as soon as it
// expires; an operation that ignores its context keeps running in the
// background and its result is discarded.
type Timeout struct {
	d time.Duration
}

// NewTimeout returns a Timeout. A non-positive duration means 30 seconds.
func NewTimeout(config TimeoutConfig) *Timeout {
	d := config.Timeout
	if d <= 0 {
		d = 30 * time.Second
	}
	return &Timeout{d: d}
}

// Config returns the effective configuration.
func (t *Timeout) Config() TimeoutConfig {
	return TimeoutConfig{Timeout: t.d}
}

// Execute runs op under t.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := TimeoutValue(ctx, t, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

type outcome[T any] struct {
	value T
	err   error
}

// TimeoutValue runs op under t and returns its result. Expiry yields
// ErrTimeout; cancellation of ctx itself yields ErrCancelled.
func TimeoutValue[T any](ctx context.Context, t *Timeout, op func(context.Context) (T, error)) (T, error) {
	opCtx, cancel := context.WithTimeoutCause(ctx, t.d, fmt.Errorf("%w after %v", ErrTimeout, t.d))
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		v, err := op(opCtx)
		done <- outcome[T]{value: v, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-opCtx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, cancelled(ctx)
		}
		return zero, context.Cause(opCtx)
	}
}
