package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Persistent memoizes results in a Store, so they can outlive the process
// when the store is durable.
//
// Contract:
// - Concurrency: safe for concurrent use; one computation per key in flight.
//   Callers waiting on a computation that fails start over.
// - Context: the computation and its store write ignore the starting
//   caller's cancellation.
// - Errors: computation failures are returned wrapped in ErrComputation and
//   never written. Undecodable stored values are treated as misses.
type Persistent[T any] struct {
	store  Store
	codec  Codec
	policy Policy
	group  singleflight.Group
}

type persisted[T any] struct {
	value    T
	writeErr error
}

// NewPersistent creates a store-backed memoizer. If codec is nil, JSONCodec
// is used.
func NewPersistent[T any](store Store, codec Codec, policy Policy) (*Persistent[T], error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if policy.DefaultTTL < 0 || policy.MaxTTL < 0 {
		return nil, fmt.Errorf("%w: negative ttl", ErrInvalidConfig)
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Persistent[T]{store: store, codec: codec, policy: policy}, nil
}

// GetOrCompute returns the stored result for key or computes and stores it.
func (p *Persistent[T]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if compute == nil {
		return zero, fmt.Errorf("%w: compute is nil", ErrInvalidConfig)
	}

	if !p.policy.ShouldCache() {
		v, err := compute(ctx)
		if err != nil {
			return zero, fmt.Errorf("%w: %w", ErrComputation, err)
		}
		return v, nil
	}

	if err := ValidateKey(key); err != nil {
		return zero, err
	}

	for {
		if v, ok := p.load(ctx, key); ok {
			return v, nil
		}

		led := false
		ch := p.group.DoChan(key, func() (any, error) {
			led = true
			flightCtx := context.WithoutCancel(ctx)
			if v, ok := p.load(flightCtx, key); ok {
				return persisted[T]{value: v}, nil
			}

			v, err := safeCompute(flightCtx, compute)
			if err != nil {
				return nil, err
			}
			return persisted[T]{value: v, writeErr: p.write(flightCtx, key, v)}, nil
		})

		select {
		case res := <-ch:
			if res.Err == nil {
				out := res.Val.(persisted[T])
				if out.writeErr != nil && p.policy.StrictWrites {
					return out.value, fmt.Errorf("%w: %w", ErrStoreWrite, out.writeErr)
				}
				return out.value, nil
			}
			if led {
				return zero, fmt.Errorf("%w: %w", ErrComputation, res.Err)
			}
			if ctx.Err() != nil {
				return zero, cancelled(ctx)
			}
		case <-ctx.Done():
			return zero, cancelled(ctx)
		}
	}
}

// Invalidate removes the stored result for key.
func (p *Persistent[T]) Invalidate(ctx context.Context, key string) error {
	return p.store.Delete(ctx, key)
}

func (p *Persistent[T]) load(ctx context.Context, key string) (T, bool) {
	var v T
	data, ok := p.store.Get(ctx, key)
	if !ok {
		return v, false
	}
	if err := p.codec.Unmarshal(data, &v); err != nil {
		return v, false
	}
	return v, true
}

func (p *Persistent[T]) write(ctx context.Context, key string, v T) error {
	data, err := p.codec.Marshal(v)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, key, data, p.policy.EffectiveTTL(0))
}
