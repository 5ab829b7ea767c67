// Package cache provides memoization for arbitrary operations.
//
// It provides argument fingerprinting (Args, Fingerprint, Keyer), an
// in-process single-flight memo (Memo) that computes each fingerprint at most
// once, and a store-backed memoizer (Persistent) over the Store interface
// with memory, disk, Redis and ristretto implementations.
//
// Failures are never cached: a failed computation leaves no entry behind and
// the next call with the same fingerprint computes again.
package cache
