package wrap

import (
	"context"
	"testing"

	"github.com/jonwraymond/callops/cache"
)

func identity(ctx context.Context, args cache.Args) (int, error) {
	return len(args.Positional), nil
}

func BenchmarkChain_NoLayers(b *testing.B) {
	f := Chain[int]("identity", identity)
	ctx := context.Background()
	args := cache.NewArgs(1, 2, 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f(ctx, args)
	}
}

func BenchmarkChain_MemoizeHit(b *testing.B) {
	f := Chain("identity", identity, Memoize(cache.NewMemo[int](cache.MemoConfig{})))
	ctx := context.Background()
	args := cache.NewArgs(1, 2, 3)
	_, _ = f(ctx, args)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f(ctx, args)
	}
}

func BenchmarkValidator_Validate(b *testing.B) {
	v := NewValidator().
		Positional(0, NotNil(), OfType[int]()).
		Positional(1, OfType[string]()).
		Named("limit", OfType[int]())
	args := cache.NewArgs(1, "x").WithNamed("limit", 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.Validate(args)
	}
}
