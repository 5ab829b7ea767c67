package health

import (
	"context"
	"fmt"
)

// Saturation is the view of a rate limiter a SaturationChecker needs.
// *resilience.RateLimiter satisfies it.
type Saturation interface {
	// Occupancy is the number of admissions inside the current window.
	Occupancy() int
	// Waiting is the number of callers queued for admission.
	Waiting() int
	// Limit is the window capacity.
	Limit() int
}

// SaturationCheckerConfig configures a SaturationChecker.
type SaturationCheckerConfig struct {
	// DegradedThreshold is the occupancy ratio at which the limiter is
	// reported degraded. Must be in (0, 1]. Default: 0.8
	DegradedThreshold float64

	// MaxWaiting is the queue length tolerated before the limiter is
	// reported unhealthy. Default: 0 (any queued caller is unhealthy)
	MaxWaiting int
}

// SaturationChecker reports how close a rate limiter is to blocking callers.
type SaturationChecker struct {
	name    string
	limiter Saturation
	config  SaturationCheckerConfig
}

// NewSaturationChecker creates a checker for limiter.
func NewSaturationChecker(name string, limiter Saturation, config SaturationCheckerConfig) *SaturationChecker {
	if config.DegradedThreshold <= 0 || config.DegradedThreshold > 1 {
		config.DegradedThreshold = 0.8
	}
	if config.MaxWaiting < 0 {
		config.MaxWaiting = 0
	}
	return &SaturationChecker{name: name, limiter: limiter, config: config}
}

// Name returns the name of this checker.
func (c *SaturationChecker) Name() string {
	return c.name
}

// Check samples the limiter.
func (c *SaturationChecker) Check(ctx context.Context) Result {
	if r, done := ctxResult(ctx); done {
		return r
	}

	occupancy := c.limiter.Occupancy()
	waiting := c.limiter.Waiting()
	limit := c.limiter.Limit()

	ratio := 0.0
	if limit > 0 {
		ratio = float64(occupancy) / float64(limit)
	}

	details := map[string]any{
		"occupancy":     occupancy,
		"waiting":       waiting,
		"limit":         limit,
		"usage_percent": ratio * 100,
	}

	if waiting > c.config.MaxWaiting {
		return Unhealthy(
			fmt.Sprintf("%d callers waiting for admission", waiting),
			ErrCheckFailed,
		).WithDetails(details)
	}
	if ratio >= c.config.DegradedThreshold {
		return Degraded(fmt.Sprintf("window usage high: %.1f%%", ratio*100)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("window usage normal: %.1f%%", ratio*100)).WithDetails(details)
}

var _ Checker = (*SaturationChecker)(nil)
