package observe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonwraymond/callops/observe/exporters"
)

// Observer owns the telemetry providers for one process.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Shutdown must honor cancellation/deadlines.
// - Errors: Shutdown is idempotent; later calls return nil.
type Observer interface {
	Tracer() trace.Tracer
	Meter() metric.Meter
	Logger() Logger

	// Shutdown flushes and stops every provider that was started.
	Shutdown(ctx context.Context) error
}

// Logger is a minimal structured logging interface.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging is best-effort and must not panic.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	WithOp(meta OpMeta) Logger
}

// Field is a structured log field.
type Field struct {
	Key   string
	Value any
}

type stopFunc func(context.Context) error

type observer struct {
	tracer trace.Tracer
	meter  metric.Meter
	logger Logger

	stopOnce sync.Once
	stops    []stopFunc
}

// NewObserver validates cfg and starts the enabled subsystems. Disabled
// subsystems get noop implementations.
func NewObserver(ctx context.Context, cfg Config) (Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("observe: build resource: %w", err)
	}

	o := &observer{
		tracer: tracenoop.NewTracerProvider().Tracer("noop"),
		meter:  noop.NewMeterProvider().Meter("noop"),
		logger: &noopLogger{},
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(ctx, cfg.Tracing, res)
		if err != nil {
			return nil, fmt.Errorf("observe: tracing: %w", err)
		}
		if cfg.RegisterGlobal {
			otel.SetTracerProvider(tp)
		}
		o.tracer = tp.Tracer(cfg.ServiceName)
		o.stops = append(o.stops, labelStop("tracer", tp.Shutdown))
	}

	if cfg.Metrics.Enabled {
		mp, err := newMeterProvider(ctx, cfg.Metrics, res)
		if err != nil {
			o.stopAll(ctx)
			return nil, fmt.Errorf("observe: metrics: %w", err)
		}
		if cfg.RegisterGlobal {
			otel.SetMeterProvider(mp)
		}
		o.meter = mp.Meter(cfg.ServiceName)
		o.stops = append(o.stops, labelStop("meter", mp.Shutdown))
	}

	if cfg.Logging.Enabled {
		logger, flush, err := newBackendLogger(cfg)
		if err != nil {
			o.stopAll(ctx)
			return nil, fmt.Errorf("observe: logging: %w", err)
		}
		o.logger = logger
		if flush != nil {
			o.stops = append(o.stops, flush)
		}
	}

	return o, nil
}

func labelStop(label string, stop stopFunc) stopFunc {
	return func(ctx context.Context) error {
		if err := stop(ctx); err != nil {
			return fmt.Errorf("%s shutdown: %w", label, err)
		}
		return nil
	}
}

// newBackendLogger returns the logger for cfg.Logging.Backend and, for zap,
// a flush hook run at shutdown.
func newBackendLogger(cfg Config) (Logger, stopFunc, error) {
	if cfg.Logging.Backend != "zap" {
		return NewLogger(cfg.Logging.Level), nil, nil
	}

	level, err := zapcore.ParseLevel(ParseLogLevel(cfg.Logging.Level).String())
	if err != nil {
		return nil, nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)

	zl, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	flush := func(context.Context) error {
		// Sync on a terminal stderr reports EINVAL on some platforms.
		_ = zl.Sync()
		return nil
	}
	return NewZapLogger(zl.Named(cfg.ServiceName)), flush, nil
}

func sampler(pct float64) sdktrace.Sampler {
	switch {
	case pct >= 1.0:
		return sdktrace.AlwaysSample()
	case pct <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(pct)
	}
}

func newTracerProvider(ctx context.Context, cfg TracingConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := exporters.NewTracingExporter(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplePct)),
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

func newMeterProvider(ctx context.Context, cfg MetricsConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	reader, err := exporters.NewMetricsReader(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if reader != nil {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	return sdkmetric.NewMeterProvider(opts...), nil
}

func (o *observer) Tracer() trace.Tracer { return o.tracer }
func (o *observer) Meter() metric.Meter  { return o.meter }
func (o *observer) Logger() Logger       { return o.logger }

func (o *observer) Shutdown(ctx context.Context) error {
	var err error
	o.stopOnce.Do(func() { err = o.stopAll(ctx) })
	return err
}

// stopAll runs the stop hooks in reverse start order.
func (o *observer) stopAll(ctx context.Context) error {
	var errs []error
	for i := len(o.stops) - 1; i >= 0; i-- {
		if err := o.stops[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopLogger struct{}

func (*noopLogger) Info(context.Context, string, ...Field)  {}
func (*noopLogger) Warn(context.Context, string, ...Field)  {}
func (*noopLogger) Error(context.Context, string, ...Field) {}
func (*noopLogger) Debug(context.Context, string, ...Field) {}
func (l *noopLogger) WithOp(OpMeta) Logger                  { return l }
