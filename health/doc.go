// Package health reports the health of callops components.
//
// A Checker samples one component and returns a Result with a Status of
// Healthy, Degraded, or Unhealthy. The package ships checkers for the
// stateful pieces of a wrapped call path:
//
//   - SaturationChecker compares a rate limiter's window occupancy to its
//     limit and turns unhealthy once callers queue for admission.
//   - PingChecker probes a networked store such as cache.RedisStore.
//   - CapacityChecker compares the size of a memo table or singleton
//     registry to an expected capacity.
//
// # Aggregating Health Checks
//
//	agg := health.NewAggregator()
//	agg.Register("limiter", health.NewSaturationChecker("limiter", rl, health.SaturationCheckerConfig{}))
//	agg.Register("redis", health.NewPingChecker("redis", store, 50*time.Millisecond))
//	agg.Register("memo", health.NewCapacityChecker("memo", memo.Len, health.CapacityCheckerConfig{Capacity: 10000}))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// Each check runs under the aggregator's per-check timeout. A hung check
// turns unhealthy with ErrCheckTimeout instead of stalling its siblings.
//
// Handler exposes the aggregate as a JSON report over HTTP.
package health
