// Package observe provides observability primitives for wrapped operation
// calls.
//
// It is a pure instrumentation library: no execution and no I/O beyond
// exporter setup. Run wraps one call in a span, records op.exec.* metrics
// and logs the outcome; RetryLogger and Middleware.RetryHook plug into
// resilience.RetryConfig.OnRetry.
package observe
