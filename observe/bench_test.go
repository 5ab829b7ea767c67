package observe

import (
	"context"
	"errors"
	"io"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var benchMeta = OpMeta{Namespace: "math", Name: "fib", Version: "1.0.0"}

func benchMiddleware(b *testing.B, logger Logger) *Middleware {
	b.Helper()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(tracetest.NewSpanRecorder()))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	m, err := newMetrics(mp.Meter("bench"))
	if err != nil {
		b.Fatalf("newMetrics() error = %v", err)
	}
	return NewMiddleware(newTracer(tp.Tracer("bench")), m, logger)
}

func BenchmarkLogger(b *testing.B) {
	ctx := context.Background()
	fields := []Field{
		{Key: "attempt", Value: 2},
		{Key: "delay_ms", Value: 150.0},
		{Key: "password", Value: "hunter2"},
	}

	b.Run("Info", func(b *testing.B) {
		logger := NewLoggerWithWriter("info", io.Discard)
		for b.Loop() {
			logger.Info(ctx, "bench")
		}
	})
	b.Run("InfoFields", func(b *testing.B) {
		logger := NewLoggerWithWriter("info", io.Discard)
		for b.Loop() {
			logger.Info(ctx, "bench", fields...)
		}
	})
	b.Run("Filtered", func(b *testing.B) {
		logger := NewLoggerWithWriter("error", io.Discard)
		for b.Loop() {
			logger.Debug(ctx, "bench", fields...)
		}
	})
	b.Run("WithOp", func(b *testing.B) {
		logger := NewLoggerWithWriter("info", io.Discard)
		for b.Loop() {
			logger.WithOp(benchMeta).Info(ctx, "bench")
		}
	})
	b.Run("Parallel", func(b *testing.B) {
		logger := NewLoggerWithWriter("info", io.Discard).WithOp(benchMeta)
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				logger.Info(ctx, "bench", fields...)
			}
		})
	})
}

func BenchmarkOpMeta(b *testing.B) {
	bare := OpMeta{Name: "fib"}
	b.Run("SpanName", func(b *testing.B) {
		for b.Loop() {
			_ = benchMeta.SpanName()
		}
	})
	b.Run("SpanNameBare", func(b *testing.B) {
		for b.Loop() {
			_ = bare.SpanName()
		}
	})
	b.Run("OpID", func(b *testing.B) {
		for b.Loop() {
			_ = benchMeta.OpID()
		}
	})
}

func BenchmarkMetrics_RecordExecution(b *testing.B) {
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	m, err := newMetrics(mp.Meter("bench"))
	if err != nil {
		b.Fatalf("newMetrics() error = %v", err)
	}
	ctx := context.Background()
	fail := errors.New("boom")

	for b.Loop() {
		m.RecordExecution(ctx, benchMeta, 0, fail)
	}
}

func BenchmarkRun(b *testing.B) {
	ctx := context.Background()
	fn := func(context.Context) (int, error) { return 55, nil }

	b.Run("Quiet", func(b *testing.B) {
		mw := benchMiddleware(b, &noopLogger{})
		for b.Loop() {
			_, _ = Run(ctx, mw, benchMeta, fn)
		}
	})
	b.Run("Logged", func(b *testing.B) {
		mw := benchMiddleware(b, NewLoggerWithWriter("debug", io.Discard))
		for b.Loop() {
			_, _ = Run(ctx, mw, benchMeta, fn)
		}
	})
	b.Run("Parallel", func(b *testing.B) {
		mw := benchMiddleware(b, &noopLogger{})
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				_, _ = Run(ctx, mw, benchMeta, fn)
			}
		})
	})
}

func BenchmarkConfig_Validate(b *testing.B) {
	cfg := Config{
		ServiceName: "bench",
		Tracing:     TracingConfig{Enabled: true, Exporter: "otlp", SamplePct: 0.5},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "prometheus"},
		Logging:     LoggingConfig{Enabled: true, Level: "info", Backend: "zap"},
	}
	for b.Loop() {
		_ = cfg.Validate()
	}
}
