package resilience

import (
	"context"
	"time"
)

// Executor runs operations through a fixed stack of policies:
// rate limiter, then retry, then per-attempt timeout. Any of them may be
// absent. One admission covers the whole retry sequence.
//
// Use wrap.Chain when a different order is needed.
type Executor struct {
	limiter *RateLimiter
	retry   *Retry
	timeout *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor returns an Executor with the given policies.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRateLimiter admits each Execute through rl.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.limiter = rl }
}

// WithRetry retries failed attempts with r.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout bounds each attempt by d.
func WithTimeout(d time.Duration) ExecutorOption {
	return WithTimeoutConfig(NewTimeout(TimeoutConfig{Timeout: d}))
}

// WithTimeoutConfig bounds each attempt with t.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) { e.timeout = t }
}

// Execute runs op through e.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := Do(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do runs op through e and returns its result.
func Do[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	if e.limiter != nil {
		if err := e.limiter.Admit(ctx); err != nil {
			var zero T
			return zero, err
		}
	}

	attempt := op
	if e.timeout != nil {
		attempt = func(ctx context.Context) (T, error) {
			return TimeoutValue(ctx, e.timeout, op)
		}
	}

	if e.retry == nil {
		return attempt(ctx)
	}
	return RetryValue(ctx, e.retry, attempt)
}
