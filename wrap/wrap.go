package wrap

import (
	"context"

	"github.com/jonwraymond/callops/cache"
)

// Func is an operation over an argument set.
type Func[T any] func(ctx context.Context, args cache.Args) (T, error)

// Layer decorates next. name is the operation name given to Chain; layers
// use it for fingerprints, store keys, singleton keys, and telemetry.
type Layer[T any] func(name string, next Func[T]) Func[T]

// Chain wraps op in layers. layers[0] is the outermost and sees the call
// first; the last layer calls op directly. Nil layers are skipped.
func Chain[T any](name string, op Func[T], layers ...Layer[T]) Func[T] {
	f := op
	for i := len(layers) - 1; i >= 0; i-- {
		if layers[i] == nil {
			continue
		}
		f = layers[i](name, f)
	}
	return f
}

// Call runs f with positional arguments.
func (f Func[T]) Call(ctx context.Context, positional ...any) (T, error) {
	return f(ctx, cache.NewArgs(positional...))
}
