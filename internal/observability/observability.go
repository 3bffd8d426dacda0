// Package observability wires structured logging for the process.
//
// Logs always go to stderr in text or JSON form. When an OTLP exporter is
// configured through the standard OTEL environment variables, log records are
// additionally bridged into an OpenTelemetry log pipeline with a minimum
// severity matching the configured level.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName identifies this process in exported log records.
const instrumentationName = "nestquest-cli"

// loggerProvider is set when an exporter is active so Shutdown can flush it.
var loggerProvider *sdklog.LoggerProvider

// Instrument installs the process-wide slog default for the given level and
// format ("text" or "json").
func Instrument(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	switch format {
	case "json":
		console = slog.NewJSONHandler(os.Stderr, opts)
	default:
		console = slog.NewTextHandler(os.Stderr, opts)
	}

	handler := console

	exporter, err := newExporter(context.Background())
	if err != nil {
		return fmt.Errorf("creating log exporter: %w", err)
	}
	if exporter != nil {
		processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), minSeverity(level))
		loggerProvider = sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))
		otelHandler := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(loggerProvider))
		handler = fanout{console, otelHandler}
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// Shutdown flushes and stops the export pipeline, if one is active.
func Shutdown(ctx context.Context) error {
	if loggerProvider == nil {
		return nil
	}
	return loggerProvider.Shutdown(ctx)
}

// newExporter builds the exporter selected by OTEL_LOGS_EXPORTER.
// Returns nil when exporting is disabled (the default).
func newExporter(ctx context.Context) (sdklog.Exporter, error) {
	switch exporter := os.Getenv("OTEL_LOGS_EXPORTER"); exporter {
	case "", "none":
		return nil, nil
	case "console":
		return stdoutlog.New()
	case "otlp":
		// Transport per the standard protocol variable; endpoint and
		// headers come from the usual OTEL_EXPORTER_OTLP_* variables.
		if os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "grpc" {
			return otlploggrpc.New(ctx)
		}
		return otlploghttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTEL_LOGS_EXPORTER value: %s", exporter)
	}
}

// minSeverity maps an slog level to the minimum OTel severity to export.
func minSeverity(level slog.Level) minsev.Severity {
	switch {
	case level >= slog.LevelError:
		return minsev.SeverityError
	case level >= slog.LevelWarn:
		return minsev.SeverityWarn
	case level >= slog.LevelInfo:
		return minsev.SeverityInfo
	default:
		return minsev.SeverityDebug
	}
}

// fanout duplicates records to every handler. Enabled when any handler is
// enabled; the otel handler filters by severity in its processor instead.
type fanout []slog.Handler

// Compile-time check that fanout implements slog.Handler.
var _ slog.Handler = (fanout)(nil)

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
