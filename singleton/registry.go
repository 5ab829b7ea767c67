package singleton

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// State is the construction state of a slot.
type State int

const (
	// StateUnbuilt means no instance exists and nothing is being built.
	StateUnbuilt State = iota
	// StateBuilding means a factory is running for the key.
	StateBuilding
	// StateBuilt means the instance exists. It is permanent.
	StateBuilt
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilding:
		return "building"
	case StateBuilt:
		return "built"
	default:
		return "unknown"
	}
}

// Factory constructs the instance for a key.
type Factory func(ctx context.Context) (any, error)

// flight is the completion handle of one construction attempt.
type flight struct {
	done     chan struct{}
	instance any
	err      error
}

type slot struct {
	state    State
	instance any
	flight   *flight
}

// Registry holds one slot per key.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: only waiting honours cancellation. The factory gets the values
//   of the caller that triggered it but not its cancellation, so no caller
//   leaving, the trigger included, interrupts a running construction.
// - Errors: factory failures are returned to every caller of that attempt.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]*slot)}
}

// GetOrCreate returns the instance for key, running factory if the key has
// not been built yet.
func (r *Registry) GetOrCreate(ctx context.Context, key string, factory Factory) (any, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if factory == nil {
		return nil, ErrNilFactory
	}

	// Fast path: built slots never change.
	r.mu.RLock()
	s, ok := r.slots[key]
	if ok && s.state == StateBuilt {
		instance := s.instance
		r.mu.RUnlock()
		return instance, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	s, ok = r.slots[key]
	if !ok {
		s = &slot{}
		r.slots[key] = s
	}

	switch s.state {
	case StateBuilt:
		instance := s.instance
		r.mu.Unlock()
		return instance, nil

	case StateBuilding:
		f := s.flight
		r.mu.Unlock()
		return wait(ctx, f)
	}

	f := &flight{done: make(chan struct{})}
	s.state = StateBuilding
	s.flight = f
	r.mu.Unlock()

	go r.build(context.WithoutCancel(ctx), key, s, f, factory)
	return wait(ctx, f)
}

// build runs factory for s and publishes the outcome to f.
func (r *Registry) build(ctx context.Context, key string, s *slot, f *flight, factory Factory) {
	instance, err := construct(ctx, factory)

	r.mu.Lock()
	if err != nil {
		s.state = StateUnbuilt
		f.err = fmt.Errorf("%w: %s: %w", ErrConstruction, key, err)
	} else {
		s.state = StateBuilt
		s.instance = instance
		f.instance = instance
	}
	s.flight = nil
	r.mu.Unlock()
	close(f.done)
}

// construct runs the factory, turning a panic into an error so the slot can
// leave the building state.
func construct(ctx context.Context, factory Factory) (instance any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("factory panicked: %v", p)
		}
	}()
	return factory(ctx)
}

func wait(ctx context.Context, f *flight) (any, error) {
	select {
	case <-f.done:
		return f.instance, f.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}
}

// State reports the construction state of key.
func (r *Registry) State(key string) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.slots[key]; ok {
		return s.state
	}
	return StateUnbuilt
}

// Built reports whether key has a constructed instance.
func (r *Registry) Built(key string) bool {
	return r.State(key) == StateBuilt
}

// Keys returns the built keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.slots))
	for k, s := range r.slots {
		if s.state == StateBuilt {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of built instances.
func (r *Registry) Len() int {
	return len(r.Keys())
}

// GetOrCreate is the typed form of Registry.GetOrCreate.
func GetOrCreate[T any](ctx context.Context, r *Registry, key string, factory func(context.Context) (T, error)) (T, error) {
	var zero T
	if factory == nil {
		return zero, ErrNilFactory
	}

	v, err := r.GetOrCreate(ctx, key, func(ctx context.Context) (any, error) {
		return factory(ctx)
	})
	if err != nil {
		return zero, err
	}

	instance, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrTypeMismatch, key, v)
	}
	return instance, nil
}
