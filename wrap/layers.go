package wrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/callops/cache"
	"github.com/jonwraymond/callops/observe"
	"github.com/jonwraymond/callops/resilience"
	"github.com/jonwraymond/callops/singleton"
)

// Memoize serves repeated calls with equal arguments from memo. The
// fingerprint covers the operation name, so one Memo may back several
// operations.
func Memoize[T any](memo *cache.Memo[T]) Layer[T] {
	return func(name string, next Func[T]) Func[T] {
		return func(ctx context.Context, args cache.Args) (T, error) {
			fp, err := cache.Fingerprint(name, args)
			if err != nil {
				var zero T
				return zero, err
			}
			return memo.GetOrCompute(ctx, fp, func(ctx context.Context) (T, error) {
				return next(ctx, args)
			})
		}
	}
}

// Persist serves repeated calls from a store-backed memoizer. A nil keyer
// uses cache.DefaultKeyer.
func Persist[T any](p *cache.Persistent[T], keyer cache.Keyer) Layer[T] {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return func(name string, next Func[T]) Func[T] {
		return func(ctx context.Context, args cache.Args) (T, error) {
			key, err := keyer.Key(name, args)
			if err != nil {
				var zero T
				return zero, err
			}
			return p.GetOrCompute(ctx, key, func(ctx context.Context) (T, error) {
				return next(ctx, args)
			})
		}
	}
}

// RateLimit admits each call through rl before it proceeds.
func RateLimit[T any](rl *resilience.RateLimiter) Layer[T] {
	return func(_ string, next Func[T]) Func[T] {
		return func(ctx context.Context, args cache.Args) (T, error) {
			if err := rl.Admit(ctx); err != nil {
				var zero T
				return zero, err
			}
			return next(ctx, args)
		}
	}
}

// Retry re-invokes next with backoff according to r.
func Retry[T any](r *resilience.Retry) Layer[T] {
	return func(_ string, next Func[T]) Func[T] {
		return func(ctx context.Context, args cache.Args) (T, error) {
			return resilience.RetryValue(ctx, r, func(ctx context.Context) (T, error) {
				return next(ctx, args)
			})
		}
	}
}

// Timeout bounds each call of next to d.
func Timeout[T any](d time.Duration) Layer[T] {
	t := resilience.NewTimeout(resilience.TimeoutConfig{Timeout: d})
	return func(_ string, next Func[T]) Func[T] {
		return func(ctx context.Context, args cache.Args) (T, error) {
			return resilience.TimeoutValue(ctx, t, func(ctx context.Context) (T, error) {
				return next(ctx, args)
			})
		}
	}
}

// Validate rejects calls whose arguments fail v before next runs.
func Validate[T any](v *Validator) Layer[T] {
	return func(name string, next Func[T]) Func[T] {
		return func(ctx context.Context, args cache.Args) (T, error) {
			if err := v.Validate(args); err != nil {
				var zero T
				return zero, fmt.Errorf("%s: %w", name, err)
			}
			return next(ctx, args)
		}
	}
}

// Observe traces, meters, and logs each call of next through mw.
func Observe[T any](mw *observe.Middleware) Layer[T] {
	return ObserveMeta[T](mw, observe.OpMeta{})
}

// ObserveMeta is Observe with extra metadata. An empty meta.Name is filled
// with the operation name.
func ObserveMeta[T any](mw *observe.Middleware, meta observe.OpMeta) Layer[T] {
	return func(name string, next Func[T]) Func[T] {
		m := meta
		if m.Name == "" {
			m.Name = name
		}
		return func(ctx context.Context, args cache.Args) (T, error) {
			return observe.Run(ctx, mw, m, func(ctx context.Context) (T, error) {
				return next(ctx, args)
			})
		}
	}
}

// Once builds the result a single time per operation name in reg and
// returns it to every later call, whatever its arguments.
func Once[T any](reg *singleton.Registry) Layer[T] {
	return func(name string, next Func[T]) Func[T] {
		return func(ctx context.Context, args cache.Args) (T, error) {
			return singleton.GetOrCreate(ctx, reg, name, func(ctx context.Context) (T, error) {
				return next(ctx, args)
			})
		}
	}
}

// Deprecated logs a warning through logger on every call. alternative may
// be empty.
func Deprecated[T any](logger observe.Logger, alternative string) Layer[T] {
	return func(name string, next Func[T]) Func[T] {
		opLogger := logger.WithOp(observe.OpMeta{Name: name})
		fields := []observe.Field{}
		if alternative != "" {
			fields = append(fields, observe.Field{Key: "alternative", Value: alternative})
		}
		return func(ctx context.Context, args cache.Args) (T, error) {
			opLogger.Warn(ctx, "deprecated operation called", fields...)
			return next(ctx, args)
		}
	}
}
