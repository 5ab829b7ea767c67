package observe

import (
	"context"
	"time"
)

// Middleware wraps operation calls with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
//   - Ownership: Results are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Run calls fn inside a span for meta and records its metrics and outcome.
func Run[T any](ctx context.Context, m *Middleware, meta OpMeta, fn func(context.Context) (T, error)) (T, error) {
	// Start span
	ctx, span := m.tracer.StartSpan(ctx, meta)

	start := time.Now()
	result, err := fn(ctx)
	duration := time.Since(start)

	// End span (records error status if err != nil)
	m.tracer.EndSpan(span, err)

	m.metrics.RecordExecution(ctx, meta, duration, err)

	opLogger := m.logger.WithOp(meta)
	fields := []Field{
		{Key: "duration_ms", Value: float64(duration.Milliseconds())},
	}

	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		opLogger.Error(ctx, "operation failed", fields...)
	} else {
		opLogger.Debug(ctx, "operation completed", fields...)
	}

	return result, err
}

// RetryHook returns a callback for resilience.RetryConfig.OnRetry that logs
// each retry of meta and counts it in op.exec.retries.
func (m *Middleware) RetryHook(meta OpMeta) func(attempt int, err error, delay time.Duration) {
	logHook := RetryLogger(m.logger, meta)
	return func(attempt int, err error, delay time.Duration) {
		m.metrics.RecordRetry(context.Background(), meta, attempt)
		logHook(attempt, err, delay)
	}
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	tracer := newTracer(obs.Tracer())

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(tracer, metrics, obs.Logger()), nil
}
