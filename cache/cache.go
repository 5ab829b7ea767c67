package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a store key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStore      = errors.New("cache: store is nil")
	ErrInvalidKey    = errors.New("cache: key is invalid")
	ErrKeyTooLong    = errors.New("cache: key exceeds max length")
	ErrInvalidConfig = errors.New("cache: invalid configuration")

	// ErrComputation wraps a failure returned by a memoized computation.
	ErrComputation = errors.New("cache: computation failed")

	// ErrCancelled is returned when a caller stops waiting for a result.
	ErrCancelled = errors.New("cache: wait cancelled")

	// ErrStoreWrite is returned for failed store writes when the policy
	// asks for strict writes.
	ErrStoreWrite = errors.New("cache: store write failed")

	// ErrUnhashableArg is returned by Fingerprint for arguments that have no
	// stable representation, such as funcs and channels.
	ErrUnhashableArg = errors.New("cache: argument cannot be fingerprinted")
)

// Store is the key-value interface behind persistent memoization.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get should never error; it returns (nil, false) on miss.
type Store interface {
	// Get retrieves a stored value. Returns (nil, false) on miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given TTL. TTL=0 means the value does
	// not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a stored value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ValidateKey checks if a key is valid for storing.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
}
