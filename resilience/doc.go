// Package resilience provides rate limiting, retry and timeout wrappers for
// operation calls.
//
// # Patterns
//
//   - Rate Limiter: admits at most Limit calls in any sliding Window. Excess
//     callers block in arrival order until a slot frees up.
//
//   - Retry: re-invokes a failing operation with exponential (or linear,
//     or constant) backoff until it succeeds, the attempt budget runs out,
//     or a failure is classified as non-retryable.
//
//   - Timeout: ensures operations complete within a time limit.
//
// # Usage
//
// Each pattern can be used independently or composed together:
//
//	retry, err := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: 100 * time.Millisecond,
//	    MaxDelay:     5 * time.Second,
//	})
//
//	rl, err := resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	    Limit:  10,
//	    Window: time.Second,
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRateLimiter(rl),
//	    resilience.WithRetry(retry),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	user, err := resilience.Do(ctx, executor, func(ctx context.Context) (*User, error) {
//	    return client.GetUser(ctx, id)
//	})
//
// # Errors
//
// Retry reports its outcome as *RetryExhaustedError (wrapping the last
// failure) or *NonRetryableError (wrapping the failure unchanged). Waits
// interrupted by the context return ErrCancelled. Use Permanent to stop
// retrying from inside an operation.
package resilience
