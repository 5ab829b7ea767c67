package cache

import (
	"context"
	"fmt"
	"time"

	ristretto "github.com/dgraph-io/ristretto/v2"
)

// RistrettoConfig configures a RistrettoStore.
type RistrettoConfig struct {
	// NumCounters is the number of keys to track access frequency for.
	// Default: 1e4
	NumCounters int64

	// MaxCost is the total size in bytes of stored values.
	// Default: 1 MiB
	MaxCost int64

	// BufferItems is the number of keys per Get buffer.
	// Default: 64
	BufferItems int64
}

// RistrettoStore is a bounded in-process Store. Values may be evicted or
// rejected by the admission policy at any time, so it suits results that are
// cheap to recompute.
type RistrettoStore struct {
	c *ristretto.Cache[string, []byte]
}

// NewRistrettoStore creates a ristretto-backed store.
func NewRistrettoStore(config RistrettoConfig) (*RistrettoStore, error) {
	if config.NumCounters <= 0 {
		config.NumCounters = 1e4
	}
	if config.MaxCost <= 0 {
		config.MaxCost = 1 << 20
	}
	if config.BufferItems <= 0 {
		config.BufferItems = 64
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxCost,
		BufferItems: config.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &RistrettoStore{c: c}, nil
}

// Get retrieves the value for key.
func (s *RistrettoStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	return s.c.Get(key)
}

// Set stores value for key, costed by its length. A value the admission
// policy rejects is dropped without error.
func (s *RistrettoStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	s.c.SetWithTTL(key, value, int64(len(value)), ttl)
	// Make the write visible to the next Get.
	s.c.Wait()
	return nil
}

// Delete removes the value for key.
func (s *RistrettoStore) Delete(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

// Close stops the store's background goroutines.
func (s *RistrettoStore) Close() {
	s.c.Close()
}

// Ensure RistrettoStore implements Store
var _ Store = (*RistrettoStore)(nil)
