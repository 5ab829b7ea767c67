package health

import (
	"context"
	"fmt"
)

// CapacityCheckerConfig configures the capacity health checker.
type CapacityCheckerConfig struct {
	// Capacity is the expected maximum size of the component. Required.
	Capacity int

	// WarningThreshold is the fill ratio that triggers degraded status.
	// Value should be between 0 and 1. Default: 0.8 (80%)
	WarningThreshold float64

	// CriticalThreshold is the fill ratio that triggers unhealthy status.
	// Value should be between 0 and 1. Default: 0.95 (95%)
	CriticalThreshold float64
}

// CapacityChecker checks the size of an unbounded in-process component, such
// as a memo table or singleton registry, against an expected capacity.
type CapacityChecker struct {
	name   string
	size   func() int
	config CapacityCheckerConfig
}

// NewCapacityChecker creates a checker that samples size on every check.
// Pass a method value such as memo.Len or registry.Len.
func NewCapacityChecker(name string, size func() int, config CapacityCheckerConfig) *CapacityChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold + 0.1
		if config.CriticalThreshold > 1 {
			config.CriticalThreshold = 0.99
		}
	}

	return &CapacityChecker{name: name, size: size, config: config}
}

// Name returns the name of this checker.
func (c *CapacityChecker) Name() string {
	return c.name
}

// Check performs the capacity health check.
func (c *CapacityChecker) Check(ctx context.Context) Result {
	if r, done := ctxResult(ctx); done {
		return r
	}

	size := c.size()
	if c.config.Capacity <= 0 {
		return Healthy("capacity not configured").WithDetails(map[string]any{"size": size})
	}

	ratio := float64(size) / float64(c.config.Capacity)
	details := map[string]any{
		"size":          size,
		"capacity":      c.config.Capacity,
		"usage_percent": ratio * 100,
	}

	if ratio >= c.config.CriticalThreshold {
		return Unhealthy(
			fmt.Sprintf("%s size critical: %.1f%%", c.name, ratio*100),
			ErrCheckFailed,
		).WithDetails(details)
	}
	if ratio >= c.config.WarningThreshold {
		return Degraded(fmt.Sprintf("%s size high: %.1f%%", c.name, ratio*100)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%s size normal: %.1f%%", c.name, ratio*100)).WithDetails(details)
}

var _ Checker = (*CapacityChecker)(nil)
