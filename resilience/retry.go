package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy selects how the wait grows between attempts.
type BackoffStrategy int

const (
	// BackoffExponential waits InitialDelay * Multiplier^n before retry n.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear waits InitialDelay * (n+1).
	BackoffLinear
	// BackoffConstant always waits InitialDelay.
	BackoffConstant
)

var strategyNames = [...]string{
	BackoffExponential: "exponential",
	BackoffLinear:      "linear",
	BackoffConstant:    "constant",
}

func (s BackoffStrategy) String() string {
	if s < BackoffExponential || s > BackoffConstant {
		return "unknown"
	}
	return strategyNames[s]
}

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// One means no retries.
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry. Zero selects the
	// default; set NoDelay to retry without waiting.
	// Default: 100ms
	InitialDelay time.Duration

	// NoDelay retries immediately. InitialDelay must be left zero.
	// Default: false
	NoDelay bool

	// MaxDelay caps the delay between retries. Zero leaves it uncapped.
	// Default: 0
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Must be at least 1.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds up to 25% to each delay to spread out retrying callers.
	// Default: false
	Jitter bool

	// RetryIf determines if an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before each backoff wait with the attempt that
	// just failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry implements retry with backoff.
//
// Contract:
// - Concurrency: safe for concurrent use; each Execute runs its own sequence.
// - Context: backoff waits end immediately on cancellation with ErrCancelled.
// - Errors: intermediate failures are reported through OnRetry only. The
//   caller sees *NonRetryableError or *RetryExhaustedError.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) (*Retry, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	// Apply defaults
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay == 0 && !config.NoDelay {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.Multiplier == 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config}, nil
}

func (c RetryConfig) validate() error {
	switch {
	case c.MaxAttempts < 0:
		return fmt.Errorf("%w: max attempts %d is negative", ErrInvalidConfig, c.MaxAttempts)
	case c.InitialDelay < 0:
		return fmt.Errorf("%w: initial delay %v is negative", ErrInvalidConfig, c.InitialDelay)
	case c.NoDelay && c.InitialDelay > 0:
		return fmt.Errorf("%w: initial delay %v set with NoDelay", ErrInvalidConfig, c.InitialDelay)
	case c.MaxDelay < 0:
		return fmt.Errorf("%w: max delay %v is negative", ErrInvalidConfig, c.MaxDelay)
	case c.Multiplier < 0 || (c.Multiplier > 0 && c.Multiplier < 1):
		return fmt.Errorf("%w: multiplier %g is below 1", ErrInvalidConfig, c.Multiplier)
	case c.Strategy < BackoffExponential || c.Strategy > BackoffConstant:
		return fmt.Errorf("%w: unknown backoff strategy %d", ErrInvalidConfig, c.Strategy)
	}
	return nil
}

// Execute runs the operation with retry logic.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := RetryValue(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// RetryValue runs op with r's retry logic and returns its first successful
// result.
func RetryValue[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, cancelled(ctx)
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, &NonRetryableError{Attempt: attempt, Err: perm.err}
		}
		if !r.config.RetryIf(err) {
			return zero, &NonRetryableError{Attempt: attempt, Err: err}
		}

		lastErr = err

		// Don't retry if this was the last attempt
		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.calculateDelay(attempt - 1)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, &RetryExhaustedError{Attempts: r.config.MaxAttempts, Err: lastErr}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return cancelled(ctx)
	case <-timer.C:
		return nil
	}
}

// calculateDelay returns the wait before retry i, counted from zero. The
// result saturates at math.MaxInt64 instead of overflowing.
func (r *Retry) calculateDelay(i int) time.Duration {
	base := float64(r.config.InitialDelay)
	var raw float64
	switch r.config.Strategy {
	case BackoffConstant:
		raw = base
	case BackoffLinear:
		raw = base * float64(i+1)
	default:
		raw = base * math.Pow(r.config.Multiplier, float64(i))
	}

	d := time.Duration(math.MaxInt64)
	if raw < math.MaxInt64 {
		d = time.Duration(raw)
	}
	if limit := r.config.MaxDelay; limit > 0 {
		d = min(d, limit)
	}
	if r.config.Jitter {
		d = addJitter(d)
	}
	return d
}

// addJitter adds up to a quarter of d, saturating at math.MaxInt64.
func addJitter(d time.Duration) time.Duration {
	quarter := int64(d / 4)
	if quarter <= 0 {
		return d
	}
	// #nosec G404 -- jitter is non-cryptographic timing variance.
	j := time.Duration(rand.Int64N(quarter))
	if d > math.MaxInt64-j {
		return math.MaxInt64
	}
	return d + j
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
