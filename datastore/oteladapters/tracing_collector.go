package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sharedstate/datastore-go/datastore"
)

// TracingCollector implements datastore.TracingCollector using the
// OpenTelemetry tracing API, creating spans for store operations and
// propagating trace context.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a new OpenTelemetry tracing collector.
// The tracer should come from your OpenTelemetry TracerProvider.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan creates a new span with the given name and attributes and returns
// the span-carrying context along with a SpanContext wrapper.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, datastore.SpanContext) {
	spanOptions := make([]trace.SpanStartOption, 0, len(attrs))
	for key, value := range attrs {
		spanOptions = append(spanOptions, trace.WithAttributes(attribute.String(key, value)))
	}

	spanCtx, span := t.tracer.Start(ctx, name, spanOptions...)

	return spanCtx, &otelSpanContext{span: span}
}

// FinishSpan completes a span with the given status and final attributes.
func (t *TracingCollector) FinishSpan(spanCtx datastore.SpanContext, status string, attrs map[string]string) {
	wrapped, ok := spanCtx.(*otelSpanContext)
	if !ok {
		return
	}

	for key, value := range attrs {
		wrapped.span.SetAttributes(attribute.String(key, value))
	}

	wrapped.SetStatus(status)
	wrapped.span.End()
}

var _ datastore.TracingCollector = (*TracingCollector)(nil)

// otelSpanContext implements datastore.SpanContext by wrapping an OpenTelemetry span.
type otelSpanContext struct {
	span trace.Span
}

// SetStatus maps generic status strings onto OpenTelemetry status codes.
func (s *otelSpanContext) SetStatus(status string) {
	switch status {
	case "ok", "success", "completed":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failed", "failure":
		s.span.SetStatus(codes.Error, "operation failed")
	case "cancelled", "canceled":
		s.span.SetStatus(codes.Error, "operation cancelled")
	default:
		s.span.SetStatus(codes.Unset, "")
	}
}

// AddAttribute adds a string attribute to the span.
func (s *otelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}
