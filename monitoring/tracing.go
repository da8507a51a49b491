package monitoring

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name registered with OTel.
const tracerName = "repair-shop-api"

// Tracer is the package-level OTel tracer. It is a noop tracer until a
// TracerProvider is registered.
var Tracer = otel.Tracer(tracerName)

// StartServiceSpan starts a span for a service operation on a repair request.
// Callers must call span.End() when the operation completes.
func StartServiceSpan(ctx context.Context, spanName, requestID string) (context.Context, trace.Span) {
	var opts []trace.SpanStartOption
	if requestID != "" {
		opts = append(opts, trace.WithAttributes(attribute.String("repair_request.id", requestID)))
	}
	return Tracer.Start(ctx, spanName, opts...)
}

// RecordSpanError records an error on a span and sets the span status to Error.
// If err is nil, this is a no-op.
func RecordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
