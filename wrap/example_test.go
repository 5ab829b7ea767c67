package wrap_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/callops/cache"
	"github.com/jonwraymond/callops/resilience"
	"github.com/jonwraymond/callops/singleton"
	"github.com/jonwraymond/callops/wrap"
)

func ExampleChain() {
	computed := 0
	square := func(ctx context.Context, args cache.Args) (int, error) {
		computed++
		n := args.Positional[0].(int)
		return n * n, nil
	}

	memo := cache.NewMemo[int](cache.MemoConfig{})
	limiter, _ := resilience.NewRateLimiter(resilience.RateLimiterConfig{Limit: 10, Window: time.Second})

	f := wrap.Chain("square", square,
		wrap.Validate[int](wrap.NewValidator().Positional(0, wrap.OfType[int]())),
		wrap.Memoize(memo),
		wrap.RateLimit[int](limiter),
	)

	ctx := context.Background()
	a, _ := f.Call(ctx, 12)
	b, _ := f.Call(ctx, 12)
	_, err := f.Call(ctx, "12")

	fmt.Println(a, b)
	fmt.Println("computed:", computed)
	fmt.Println("invalid:", errors.Is(err, wrap.ErrValidation))
	// Output:
	// 144 144
	// computed: 1
	// invalid: true
}

func ExampleValidator() {
	v := wrap.NewValidator().
		Positional(0, wrap.NotNil(), wrap.OfType[string]()).
		Named("age", wrap.Check(func(v any) bool {
			n, ok := v.(int)
			return ok && n >= 0 && n <= 150
		}, "must be between 0 and 150"))

	fmt.Println(v.Validate(cache.NewArgs("ada").WithNamed("age", 36)))
	fmt.Println(v.Validate(cache.NewArgs("ada").WithNamed("age", 200)))
	// Output:
	// <nil>
	// wrap: invalid argument age: must be between 0 and 150
}

func ExampleOnce() {
	reg := singleton.NewRegistry()
	builds := 0
	connect := func(ctx context.Context, args cache.Args) (string, error) {
		builds++
		return fmt.Sprintf("conn-%v", args.Positional[0]), nil
	}

	pool := wrap.Chain("pool", connect, wrap.Once[string](reg))
	first, _ := pool.Call(context.Background(), "primary")
	second, _ := pool.Call(context.Background(), "replica")

	fmt.Println(first, second, builds)
	// Output:
	// conn-primary conn-primary 1
}

func ExampleRetry() {
	retry, _ := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  4,
		InitialDelay: time.Millisecond,
	})

	attempts := 0
	flaky := func(ctx context.Context, args cache.Args) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("connection reset")
		}
		return "done", nil
	}

	result, err := wrap.Chain("fetch", flaky, wrap.Retry[string](retry)).Call(context.Background())
	fmt.Println(result, err, attempts)
	// Output:
	// done <nil> 3
}
