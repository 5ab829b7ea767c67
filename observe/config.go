package observe

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the Observer.
type Config struct {
	// ServiceName names the process in every exported span and metric.
	// Required.
	ServiceName string

	// Version is reported as service.version.
	Version string

	Tracing TracingConfig
	Metrics MetricsConfig
	Logging LoggingConfig

	// RegisterGlobal installs the tracer and meter providers as the otel
	// globals so third-party instrumentation shares them.
	// Default: false
	RegisterGlobal bool
}

// TracingConfig configures the tracing subsystem.
type TracingConfig struct {
	Enabled   bool
	Exporter  string  // otlp|jaeger|stdout|none
	SamplePct float64 // 0.0-1.0
}

// MetricsConfig configures the metrics subsystem.
type MetricsConfig struct {
	Enabled  bool
	Exporter string // otlp|prometheus|stdout|none
}

// LoggingConfig configures the logging subsystem.
type LoggingConfig struct {
	Enabled bool
	Level   string // debug|info|warn|error
	Backend string // json|zap (empty means json)
}

type nameSet map[string]struct{}

func newNameSet(names ...string) nameSet {
	s := make(nameSet, len(names)+1)
	s[""] = struct{}{} // unset falls back to the default
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s nameSet) check(value string, sentinel error) error {
	if _, ok := s[value]; !ok {
		return fmt.Errorf("%w: %q", sentinel, value)
	}
	return nil
}

var (
	tracingExporters = newNameSet(ValidTracingExporters...)
	metricsExporters = newNameSet(ValidMetricsExporters...)
	logLevels        = newNameSet(ValidLogLevels...)
	logBackends      = newNameSet(ValidLogBackends...)
)

// Validate reports the first invalid setting. Disabled subsystems are not
// checked.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}

	if c.Tracing.Enabled {
		if err := tracingExporters.check(c.Tracing.Exporter, ErrInvalidTracingExporter); err != nil {
			return err
		}
		if c.Tracing.SamplePct < MinSamplePct || c.Tracing.SamplePct > MaxSamplePct {
			return fmt.Errorf("%w, got: %f", ErrInvalidSamplePct, c.Tracing.SamplePct)
		}
	}

	if c.Metrics.Enabled {
		if err := metricsExporters.check(c.Metrics.Exporter, ErrInvalidMetricsExporter); err != nil {
			return err
		}
	}

	if c.Logging.Enabled {
		if err := logLevels.check(c.Logging.Level, ErrInvalidLogLevel); err != nil {
			return err
		}
		if err := logBackends.check(c.Logging.Backend, ErrInvalidLogBackend); err != nil {
			return err
		}
	}

	return nil
}

// Environment variables read by ConfigFromEnv.
const (
	EnvServiceName     = "CALLOPS_SERVICE_NAME"
	EnvServiceVersion  = "CALLOPS_SERVICE_VERSION"
	EnvTracesExporter  = "CALLOPS_TRACES_EXPORTER"
	EnvTracesSampler   = "CALLOPS_TRACES_SAMPLE_PCT"
	EnvMetricsExporter = "CALLOPS_METRICS_EXPORTER"
	EnvLogLevel        = "CALLOPS_LOG_LEVEL"
	EnvLogBackend      = "CALLOPS_LOG_BACKEND"
)

// ConfigFromEnv builds a Config from CALLOPS_* variables. A subsystem is
// enabled when its exporter (or log level) variable is set. Unset sample
// percentage means always sample. The result is not validated.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		ServiceName: os.Getenv(EnvServiceName),
		Version:     os.Getenv(EnvServiceVersion),
	}

	if exp := os.Getenv(EnvTracesExporter); exp != "" {
		cfg.Tracing = TracingConfig{Enabled: true, Exporter: exp, SamplePct: 1.0}
		if raw := os.Getenv(EnvTracesSampler); raw != "" {
			pct, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidSamplePct, EnvTracesSampler, raw)
			}
			cfg.Tracing.SamplePct = pct
		}
	}

	if exp := os.Getenv(EnvMetricsExporter); exp != "" {
		cfg.Metrics = MetricsConfig{Enabled: true, Exporter: exp}
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging = LoggingConfig{Enabled: true, Level: level, Backend: os.Getenv(EnvLogBackend)}
	}

	return cfg, nil
}
