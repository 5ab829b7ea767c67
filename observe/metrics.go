package observe

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records execution metrics for operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordExecution records an operation call with duration and error status.
	RecordExecution(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordRetry records one retry of an operation.
	RecordRetry(ctx context.Context, meta OpMeta, attempt int)
}

// Instrument names.
const (
	metricTotal    = "op.exec.total"
	metricErrors   = "op.exec.errors"
	metricRetries  = "op.exec.retries"
	metricDuration = "op.exec.duration_ms"
)

type metricsImpl struct {
	calls    metric.Int64Counter
	failures metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	var (
		m    metricsImpl
		errs [4]error
	)
	m.calls, errs[0] = meter.Int64Counter(metricTotal,
		metric.WithDescription("Total number of operation calls"),
		metric.WithUnit("{call}"))
	m.failures, errs[1] = meter.Int64Counter(metricErrors,
		metric.WithDescription("Total number of failed operation calls"),
		metric.WithUnit("{error}"))
	m.retries, errs[2] = meter.Int64Counter(metricRetries,
		metric.WithDescription("Total number of operation retries"),
		metric.WithUnit("{retry}"))
	m.duration, errs[3] = meter.Float64Histogram(metricDuration,
		metric.WithDescription("Operation call duration in milliseconds"),
		metric.WithUnit("ms"))

	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return &m, nil
}

func opAttributes(meta OpMeta) metric.MeasurementOption {
	attrs := []attribute.KeyValue{
		attribute.String("op.id", meta.OpID()),
		attribute.String("op.name", meta.Name),
	}
	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("op.namespace", meta.Namespace))
	}
	return metric.WithAttributes(attrs...)
}

func (m *metricsImpl) RecordExecution(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	opt := opAttributes(meta)
	m.calls.Add(ctx, 1, opt)
	if err != nil {
		m.failures.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

func (m *metricsImpl) RecordRetry(ctx context.Context, meta OpMeta, _ int) {
	m.retries.Add(ctx, 1, opAttributes(meta))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (*noopMetrics) RecordExecution(context.Context, OpMeta, time.Duration, error) {}
func (*noopMetrics) RecordRetry(context.Context, OpMeta, int)                      {}
