package cache

import "time"

// Policy configures how Persistent writes results to its store.
type Policy struct {
	// DefaultTTL is the TTL used when none is specified.
	// If zero, results are stored without expiry.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// Disabled turns persistence off; every call computes.
	Disabled bool

	// StrictWrites returns store write failures to the caller instead of
	// dropping them.
	StrictWrites bool
}

// DefaultPolicy returns the default persistence policy.
// DefaultTTL: 5 minutes, MaxTTL: 1 hour
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     1 * time.Hour,
	}
}

// DurablePolicy returns a policy that stores results without expiry.
func DurablePolicy() Policy {
	return Policy{}
}

// NoCachePolicy returns a policy that disables persistence entirely.
func NoCachePolicy() Policy {
	return Policy{Disabled: true}
}

// ShouldCache returns true if persistence is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return !p.Disabled
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
// Zero means no expiry.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	// Use default if no override (or negative override)
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && (ttl <= 0 || ttl > p.MaxTTL) {
		ttl = p.MaxTTL
	}

	return ttl
}
