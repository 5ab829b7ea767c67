package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"maps"
	"os"
	"sync"
	"time"
)

// LogLevel orders log severities.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// ParseLogLevel maps a level name to a LogLevel. Unknown names are info.
func ParseLogLevel(s string) LogLevel {
	for l, name := range levelNames {
		if name == s {
			return LogLevel(l)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return levelNames[LevelInfo]
	}
	return levelNames[l]
}

// sink serializes writes from a logger and everything derived from it.
type sink struct {
	mu  sync.Mutex
	w   io.Writer
	buf bytes.Buffer
}

func (s *sink) write(entry map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Reset()
	// Encode appends the newline.
	if err := json.NewEncoder(&s.buf).Encode(entry); err != nil {
		return
	}
	_, _ = s.w.Write(s.buf.Bytes())
}

// structuredLogger writes one JSON object per line.
type structuredLogger struct {
	min   LogLevel
	out   *sink
	attrs map[string]any
}

// NewLogger returns a JSON logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter returns a JSON logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &structuredLogger{
		min:   ParseLogLevel(level),
		out:   &sink{w: w},
		attrs: map[string]any{},
	}
}

// opAttrs lists the attributes every logger backend attaches for meta.
func opAttrs(meta OpMeta) []Field {
	fields := []Field{
		{Key: "op.id", Value: meta.OpID()},
		{Key: "op.name", Value: meta.Name},
	}
	if meta.Namespace != "" {
		fields = append(fields, Field{Key: "op.namespace", Value: meta.Namespace})
	}
	if meta.Version != "" {
		fields = append(fields, Field{Key: "op.version", Value: meta.Version})
	}
	return fields
}

func (l *structuredLogger) WithOp(meta OpMeta) Logger {
	attrs := maps.Clone(l.attrs)
	for _, f := range opAttrs(meta) {
		attrs[f.Key] = f.Value
	}
	return &structuredLogger{min: l.min, out: l.out, attrs: attrs}
}

func (l *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelDebug, msg, fields)
}

func (l *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelInfo, msg, fields)
}

func (l *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelWarn, msg, fields)
}

func (l *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelError, msg, fields)
}

func (l *structuredLogger) emit(level LogLevel, msg string, fields []Field) {
	if level < l.min {
		return
	}

	entry := make(map[string]any, len(l.attrs)+len(fields)+3)
	maps.Copy(entry, l.attrs)
	for _, f := range fields {
		entry[f.Key] = redact(f)
	}
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg

	l.out.write(entry)
}

var redactedKeys = func() map[string]struct{} {
	set := make(map[string]struct{}, len(RedactedFields))
	for _, k := range RedactedFields {
		set[k] = struct{}{}
	}
	return set
}()

// redact returns f's value, or a placeholder when its key is sensitive.
func redact(f Field) any {
	if _, ok := redactedKeys[f.Key]; ok {
		return "[REDACTED]"
	}
	return f.Value
}

// RetryLogger returns a callback for resilience.RetryConfig.OnRetry that
// logs each retry of meta at warn level.
func RetryLogger(logger Logger, meta OpMeta) func(attempt int, err error, delay time.Duration) {
	opLogger := logger.WithOp(meta)
	return func(attempt int, err error, delay time.Duration) {
		fields := []Field{
			{Key: "attempt", Value: attempt},
			{Key: "delay_ms", Value: float64(delay.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
		}
		opLogger.Warn(context.Background(), "operation failed, retrying", fields...)
	}
}

var _ Logger = (*structuredLogger)(nil)
