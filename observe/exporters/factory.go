// Package exporters builds OpenTelemetry span exporters and metric readers
// by name.
//
// Collector endpoints come from the standard OTEL_EXPORTER_* environment
// variables; the otlp and jaeger exporters refuse to start without one so a
// misconfigured process fails at startup instead of dropping telemetry.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	// ErrEndpointNotConfigured indicates that none of the endpoint
	// environment variables an exporter needs is set.
	ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")

	// ErrUnknownExporter indicates an exporter name with no factory.
	ErrUnknownExporter = errors.New("exporters: unknown exporter")
)

// requireEndpoint fails unless one of keys is set.
func requireEndpoint(keys ...string) error {
	if slices.ContainsFunc(keys, func(k string) bool { return os.Getenv(k) != "" }) {
		return nil
	}
	return fmt.Errorf("%w: set %s", ErrEndpointNotConfigured, strings.Join(keys, " or "))
}

type (
	spanFactory   func(context.Context) (sdktrace.SpanExporter, error)
	readerFactory func(context.Context) (sdkmetric.Reader, error)
)

func otlpSpans(envKeys ...string) spanFactory {
	return func(ctx context.Context) (sdktrace.SpanExporter, error) {
		if err := requireEndpoint(envKeys...); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	}
}

var spanFactories = map[string]spanFactory{
	"stdout": func(context.Context) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	},
	"otlp": otlpSpans("OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
	// Jaeger ingests OTLP natively.
	"jaeger": otlpSpans("OTEL_EXPORTER_JAEGER_ENDPOINT"),
}

var readerFactories = map[string]readerFactory{
	"stdout": func(context.Context) (sdkmetric.Reader, error) {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	},
	"otlp": func(ctx context.Context) (sdkmetric.Reader, error) {
		if err := requireEndpoint("OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); err != nil {
			return nil, err
		}
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	},
	"prometheus": func(context.Context) (sdkmetric.Reader, error) {
		return prometheus.New()
	},
}

func isNone(name string) bool { return name == "" || name == "none" }

// NewTracingExporter returns the span exporter called name: stdout, otlp or
// jaeger. For "none" or "" it returns a nil exporter and no error; spans are
// then sampled but never exported.
func NewTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	if isNone(name) {
		return nil, nil
	}
	f, ok := spanFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: tracing %q", ErrUnknownExporter, name)
	}
	exp, err := f(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracing exporter %s: %w", name, err)
	}
	return exp, nil
}

// NewMetricsReader returns the metric reader called name: stdout, otlp or
// prometheus. For "none" or "" it returns a nil reader and no error.
func NewMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	if isNone(name) {
		return nil, nil
	}
	f, ok := readerFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, name)
	}
	r, err := f(ctx)
	if err != nil {
		return nil, fmt.Errorf("metrics reader %s: %w", name, err)
	}
	return r, nil
}
