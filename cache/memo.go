package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// MemoConfig configures a Memo.
type MemoConfig struct {
	// Shards is the number of independently locked partitions of the
	// result map.
	// Default: 16
	Shards int
}

// MemoStats contains memo counters.
type MemoStats struct {
	Hits         int64
	Misses       int64
	Computations int64
	Failures     int64
}

// Memo maps call fingerprints to computed results.
//
// Contract:
// - Concurrency: safe for concurrent use. At most one computation per
//   fingerprint is in flight; concurrent callers wait for it.
// - Context: waiting honours cancellation. The computation runs with the
//   values of the caller that started it but not its cancellation, so a
//   leader that gives up does not fail the callers waiting on it.
// - Errors: a failure is returned to the caller whose computation failed and
//   never stored. Callers that were waiting on it start over.
//
// Memo has no eviction; use Forget or a bounded Store for that.
type Memo[T any] struct {
	shards []*memoShard[T]
	group  singleflight.Group

	hits         atomic.Int64
	misses       atomic.Int64
	computations atomic.Int64
	failures     atomic.Int64
}

type memoShard[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

func (s *memoShard[T]) load(key string) (T, bool) {
	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()
	return v, ok
}

func (s *memoShard[T]) store(key string, v T) {
	s.mu.Lock()
	s.entries[key] = v
	s.mu.Unlock()
}

// NewMemo creates an empty memo.
func NewMemo[T any](config MemoConfig) *Memo[T] {
	if config.Shards <= 0 {
		config.Shards = 16
	}

	shards := make([]*memoShard[T], config.Shards)
	for i := range shards {
		shards[i] = &memoShard[T]{entries: make(map[string]T)}
	}
	return &Memo[T]{shards: shards}
}

func (m *Memo[T]) shard(key string) *memoShard[T] {
	return m.shards[xxhash.Sum64String(key)%uint64(len(m.shards))]
}

// GetOrCompute returns the result stored for fp, running compute if there is
// none. Concurrent callers with the same fingerprint share one computation.
func (m *Memo[T]) GetOrCompute(ctx context.Context, fp []byte, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if len(fp) == 0 {
		return zero, ErrInvalidKey
	}
	if compute == nil {
		return zero, fmt.Errorf("%w: compute is nil", ErrInvalidConfig)
	}

	key := string(fp)
	s := m.shard(key)

	for {
		if v, ok := s.load(key); ok {
			m.hits.Add(1)
			return v, nil
		}
		m.misses.Add(1)

		// led is only written by the flight this call started; the channel
		// receive below orders it before the read.
		led := false
		ch := m.group.DoChan(key, func() (any, error) {
			led = true
			// A flight that completed between the lookup above and DoChan has
			// already stored its result.
			if v, ok := s.load(key); ok {
				return v, nil
			}

			m.computations.Add(1)
			v, err := safeCompute(context.WithoutCancel(ctx), compute)
			if err != nil {
				m.failures.Add(1)
				return nil, err
			}
			s.store(key, v)
			return v, nil
		})

		select {
		case res := <-ch:
			if res.Err == nil {
				v, _ := res.Val.(T)
				return v, nil
			}
			if led {
				return zero, fmt.Errorf("%w: %w", ErrComputation, res.Err)
			}
			if ctx.Err() != nil {
				return zero, cancelled(ctx)
			}
			// Another caller's computation failed; try again as a new flight.
		case <-ctx.Done():
			return zero, cancelled(ctx)
		}
	}
}

// Forget removes the result stored for fp. A computation already in flight
// is not affected.
func (m *Memo[T]) Forget(fp []byte) {
	key := string(fp)
	s := m.shard(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len returns the number of stored results.
func (m *Memo[T]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Stats returns a snapshot of the memo counters.
func (m *Memo[T]) Stats() MemoStats {
	return MemoStats{
		Hits:         m.hits.Load(),
		Misses:       m.misses.Load(),
		Computations: m.computations.Load(),
		Failures:     m.failures.Load(),
	}
}

// safeCompute turns a panic into an error; singleflight would otherwise
// re-panic on a goroutine nobody can recover.
func safeCompute[T any](ctx context.Context, compute func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("compute panicked: %v", p)
		}
	}()
	return compute(ctx)
}
