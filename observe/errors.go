package observe

import (
	"errors"

	"github.com/jonwraymond/callops/observe/exporters"
)

// Config validation failures. Validate wraps them with the offending value.
var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample percentage must be between 0.0 and 1.0")
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: invalid log level")
	ErrInvalidLogBackend      = errors.New("observe: invalid log backend")
)

var (
	// ErrNilObserver is returned by MiddlewareFromObserver for a nil Observer.
	ErrNilObserver = errors.New("observe: observer is nil")

	// ErrMissingOpName is returned by OpMeta.Validate.
	ErrMissingOpName = errors.New("observe: operation name is required")

	// ErrEndpointNotConfigured is returned by NewObserver when an otlp or
	// jaeger exporter has no collector endpoint in the environment.
	ErrEndpointNotConfigured = exporters.ErrEndpointNotConfigured
)

// Sampling bounds for TracingConfig.SamplePct.
const (
	MinSamplePct = 0.0
	MaxSamplePct = 1.0
)

// Accepted names for the Config string settings. Empty selects the default.
var (
	ValidTracingExporters = []string{"otlp", "jaeger", "stdout", "none"}
	ValidMetricsExporters = []string{"otlp", "prometheus", "stdout", "none"}
	ValidLogBackends      = []string{"json", "zap"}
	ValidLogLevels        = []string{"debug", "info", "warn", "error"}
)

// RedactedFields lists log field keys whose values are replaced with
// "[REDACTED]". Wrapped operations often log their arguments, which may
// carry credentials.
var RedactedFields = []string{
	"input",
	"inputs",
	"password",
	"secret",
	"token",
	"api_key",
	"apiKey",
	"credential",
}
