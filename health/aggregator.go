package health

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/callops/resilience"
)

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// Timeout bounds each individual check.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxConcurrency caps how many checks run at once. 1 runs them
	// sequentially in registration order.
	// Default: 0 (unbounded)
	MaxConcurrency int
}

type entry struct {
	name    string
	checker Checker
}

// Aggregator combines the checkers of several wrapped components, such as a
// rate limiter and a Redis store, into a single composite check.
type Aggregator struct {
	timeout *resilience.Timeout
	limit   int

	mu      sync.RWMutex
	entries []entry
}

// NewAggregator returns an empty Aggregator. Only the first config is used.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Aggregator{
		timeout: resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.Timeout}),
		limit:   cfg.MaxConcurrency,
	}
}

func (a *Aggregator) index(name string) int {
	return slices.IndexFunc(a.entries, func(e entry) bool { return e.name == name })
}

// Register adds checker under name. Re-registering a name replaces the
// checker but keeps its original position.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i := a.index(name); i >= 0 {
		a.entries[i].checker = checker
		return
	}
	a.entries = append(a.entries, entry{name: name, checker: checker})
}

// Unregister removes the checker registered under name, if any.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i := a.index(name); i >= 0 {
		a.entries = slices.Delete(a.entries, i, i+1)
	}
}

// CheckerNames returns registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.name
	}
	return names
}

func (a *Aggregator) snapshot() []entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.entries)
}

// Check runs the checker registered under name.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	i := a.index(name)
	var c Checker
	if i >= 0 {
		c = a.entries[i].checker
	}
	a.mu.RUnlock()

	if c == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrCheckerNotFound, name)
	}
	return a.run(ctx, c), nil
}

// CheckAll runs every registered checker and returns results keyed by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	entries := a.snapshot()
	results := make([]Result, len(entries))

	var g errgroup.Group
	if a.limit > 0 {
		g.SetLimit(a.limit)
	}
	for i, e := range entries {
		g.Go(func() error {
			results[i] = a.run(ctx, e.checker)
			return nil
		})
	}
	_ = g.Wait() // failures are reported through results

	out := make(map[string]Result, len(entries))
	for i, e := range entries {
		out[e.name] = results[i]
	}
	return out
}

// OverallStatus returns the worst status in results. No results is healthy.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	worst := StatusHealthy
	for _, r := range results {
		worst = Worst(worst, r.Status)
	}
	return worst
}

// run executes c under the per-check timeout and stamps duration and time.
func (a *Aggregator) run(ctx context.Context, c Checker) Result {
	start := time.Now()
	result, err := resilience.TimeoutValue(ctx, a.timeout, func(ctx context.Context) (Result, error) {
		return c.Check(ctx), nil
	})
	switch {
	case errors.Is(err, resilience.ErrTimeout):
		result = Unhealthy("check timed out", fmt.Errorf("%w: %w", ErrCheckTimeout, err))
	case err != nil:
		result = Unhealthy("check abandoned", err)
	}

	result.Duration = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}
	return result
}

// Checker exposes the aggregator as a single Checker named "aggregate".
// Its details map each component name to a summary of its result.
func (a *Aggregator) Checker() Checker {
	return NewCheckerFunc("aggregate", a.checkAggregate)
}

func (a *Aggregator) checkAggregate(ctx context.Context) Result {
	results := a.CheckAll(ctx)
	if len(results) == 0 {
		return Healthy("no checks registered")
	}

	details := make(map[string]any, len(results))
	for name, r := range results {
		details[name] = map[string]any{
			"status":   r.Status.String(),
			"message":  r.Message,
			"duration": r.Duration.String(),
		}
	}

	var res Result
	switch status := a.OverallStatus(results); status {
	case StatusUnhealthy:
		res = Unhealthy("some checks failed", ErrCheckFailed)
	case StatusDegraded:
		res = Degraded("some checks degraded")
	default:
		res = Healthy("all checks passed")
	}
	return res.WithDetails(details)
}
