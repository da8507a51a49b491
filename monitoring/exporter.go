package monitoring

import (
	"context"

	"github.com/go-logr/logr"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogSpanExporter writes finished spans to a logger, one line per span
type LogSpanExporter struct {
	log logr.Logger
}

// NewLogSpanExporter creates an exporter that logs spans to log
func NewLogSpanExporter(log logr.Logger) *LogSpanExporter {
	return &LogSpanExporter{log: log}
}

// ExportSpans implements sdktrace.SpanExporter
func (e *LogSpanExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		kv := []any{
			"traceID", span.SpanContext().TraceID().String(),
			"spanID", span.SpanContext().SpanID().String(),
			"duration", span.EndTime().Sub(span.StartTime()).String(),
			"status", span.Status().Code.String(),
		}
		if parent := span.Parent(); parent.IsValid() {
			kv = append(kv, "parentSpanID", parent.SpanID().String())
		}
		for _, attr := range span.Attributes() {
			kv = append(kv, string(attr.Key), attr.Value.Emit())
		}
		e.log.Info(span.Name(), kv...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter
func (e *LogSpanExporter) Shutdown(context.Context) error {
	return nil
}

// NewTracerProvider returns a provider that batches every span to log.
// Register it with otel.SetTracerProvider and shut it down on exit to flush.
func NewTracerProvider(log logr.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(NewLogSpanExporter(log)),
	)
}
