// Package logger builds the process-wide zap logger and the optional
// OpenTelemetry tracer. Log lines written through Ctx carry the trace_id
// and span_id of the active span.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "orb"

var (
	global         = zap.NewNop()
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	tracingEnabled bool
)

// Config holds logging configuration.
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json or console
	Tracing bool   // export OpenTelemetry spans
}

// LoadConfigFromEnv overlays LOG_LEVEL, LOG_FORMAT and LOG_TRACING_ENABLED
// on def.
func LoadConfigFromEnv(def Config) Config {
	cfg := def
	cfg.Level = getEnvOrDefault("LOG_LEVEL", def.Level)
	cfg.Format = getEnvOrDefault("LOG_FORMAT", def.Format)
	if v := os.Getenv("LOG_TRACING_ENABLED"); v != "" {
		cfg.Tracing = v == "true"
	}
	return cfg
}

// New builds a logger writing to w.
func New(cfg Config, w io.Writer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, err
		}
		level = l
	}

	var enc zapcore.Encoder
	if cfg.Format == "json" {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		enc = zapcore.NewConsoleEncoder(ec)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core), nil
}

// Init installs the global logger on stderr and, when cfg.Tracing is set,
// a tracer exporting to traceOut. A tracer that fails to start is logged
// and tracing stays off.
func Init(cfg Config, traceOut io.Writer) (*zap.Logger, error) {
	l, err := New(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	SetLogger(l)

	if cfg.Tracing {
		if err := initTracer(traceOut); err != nil {
			l.Warn("failed to initialize OpenTelemetry tracer, tracing disabled", zap.Error(err))
		}
	}
	return l, nil
}

// SetLogger replaces the global logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global = l
	zap.ReplaceGlobals(l)
}

// L returns the global logger.
func L() *zap.Logger {
	return global
}

func initTracer(w io.Writer) error {
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return err
	}
	SetTracerProvider(sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource()),
	))
	return nil
}

func newResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)
}

// SetTracerProvider enables tracing through tp.
func SetTracerProvider(tp *sdktrace.TracerProvider) {
	tracerProvider = tp
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(serviceName)
	tracingEnabled = true
}

// Shutdown flushes and stops the tracer provider.
func Shutdown(ctx context.Context) error {
	_ = global.Sync()
	if tracerProvider == nil {
		return nil
	}
	err := tracerProvider.Shutdown(ctx)
	tracerProvider, tracer, tracingEnabled = nil, nil, false
	return err
}

// StartSpan starts a span when tracing is enabled; otherwise it returns
// the span already in ctx.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !tracingEnabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// Ctx returns the global logger annotated with the trace of ctx.
func Ctx(ctx context.Context) *zap.Logger {
	return With(ctx, global)
}

// With annotates l with the trace_id and span_id of ctx, if any.
func With(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// RecordError marks the span in ctx as failed.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// TracingEnabled reports whether spans are being exported.
func TracingEnabled() bool {
	return tracingEnabled
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
