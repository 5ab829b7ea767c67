package singleton

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrConstruction wraps a failure returned (or panicked) by a factory.
	ErrConstruction = errors.New("singleton: construction failed")

	// ErrCancelled is returned when a caller stops waiting for a construction.
	ErrCancelled = errors.New("singleton: wait cancelled")

	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("singleton: key is invalid")

	// ErrNilFactory is returned when no factory is provided.
	ErrNilFactory = errors.New("singleton: factory is nil")

	// ErrTypeMismatch is returned by GetOrCreate when the stored instance is
	// not of the requested type.
	ErrTypeMismatch = errors.New("singleton: instance type mismatch")
)
