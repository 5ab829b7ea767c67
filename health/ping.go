package health

import (
	"context"
	"fmt"
	"time"
)

// Pinger is a component reachable over the network, such as a Redis-backed
// cache.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker reports a Pinger unhealthy when Ping fails and degraded when it
// answers slower than SlowThreshold.
type PingChecker struct {
	name          string
	pinger        Pinger
	slowThreshold time.Duration
}

// NewPingChecker creates a checker for p. A zero slowThreshold disables the
// degraded state.
func NewPingChecker(name string, p Pinger, slowThreshold time.Duration) *PingChecker {
	return &PingChecker{name: name, pinger: p, slowThreshold: slowThreshold}
}

// Name returns the name of this checker.
func (c *PingChecker) Name() string {
	return c.name
}

// Check pings the component.
func (c *PingChecker) Check(ctx context.Context) Result {
	if r, done := ctxResult(ctx); done {
		return r
	}

	start := time.Now()
	err := c.pinger.Ping(ctx)
	latency := time.Since(start)
	details := map[string]any{"latency_ms": float64(latency.Microseconds()) / 1000}

	if err != nil {
		return Unhealthy(fmt.Sprintf("%s unreachable", c.name), fmt.Errorf("%w: %w", ErrCheckFailed, err)).
			WithDetails(details)
	}
	if c.slowThreshold > 0 && latency >= c.slowThreshold {
		return Degraded(fmt.Sprintf("%s slow: %v", c.name, latency.Round(time.Millisecond))).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%s reachable", c.name)).WithDetails(details)
}

var _ Checker = (*PingChecker)(nil)
