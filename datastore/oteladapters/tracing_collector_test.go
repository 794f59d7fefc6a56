package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sharedstate/datastore-go/datastore/oteladapters"
)

func newRecordingTracer() (*tracetest.InMemoryExporter, *oteladapters.TracingCollector) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return exporter, oteladapters.NewTracingCollector(provider.Tracer("test"))
}

func Test_NewTracingCollector_Construction(t *testing.T) {
	_, collector := newRecordingTracer()

	assert.NotNil(t, collector, "NewTracingCollector should return non-nil collector")
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	exporter, collector := newRecordingTracer()

	startAttrs := map[string]string{
		"operation": "save",
		"engine":    "jsonfile",
	}

	ctx, spanCtx := collector.StartSpan(context.Background(), "datastore.save", startAttrs)
	require.NotNil(t, ctx, "Context should not be nil")
	require.NotNil(t, spanCtx, "SpanContext should not be nil")

	collector.FinishSpan(spanCtx, "ok", map[string]string{"item_count": "3"})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1, "Expected exactly one span")

	span := spans[0]
	assert.Equal(t, "datastore.save", span.Name, "Span name should match")

	assertSpanHasAttribute(t, span, "operation", "save")
	assertSpanHasAttribute(t, span, "engine", "jsonfile")
	assertSpanHasAttribute(t, span, "item_count", "3")

	assert.Equal(t, codes.Ok, span.Status.Code, "Span should have OK status")
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	tests := []struct {
		name         string
		status       string
		expectedCode codes.Code
	}{
		{name: "ok", status: "ok", expectedCode: codes.Ok},
		{name: "success", status: "success", expectedCode: codes.Ok},
		{name: "completed", status: "completed", expectedCode: codes.Ok},
		{name: "error", status: "error", expectedCode: codes.Error},
		{name: "failed", status: "failed", expectedCode: codes.Error},
		{name: "cancelled", status: "cancelled", expectedCode: codes.Error},
		{name: "unknown_status", status: "something else", expectedCode: codes.Unset},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exporter, collector := newRecordingTracer()

			_, spanCtx := collector.StartSpan(context.Background(), "test-operation", nil)
			collector.FinishSpan(spanCtx, tc.status, nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
		})
	}
}

func Test_TracingCollector_SpanContextAddAttribute(t *testing.T) {
	exporter, collector := newRecordingTracer()

	_, spanCtx := collector.StartSpan(context.Background(), "test-operation", nil)
	spanCtx.AddAttribute("added_later", "value")
	collector.FinishSpan(spanCtx, "ok", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assertSpanHasAttribute(t, spans[0], "added_later", "value")
}

func Test_TracingCollector_FinishSpan_ForeignSpanContextIsIgnored(t *testing.T) {
	exporter, collector := newRecordingTracer()

	assert.NotPanics(t, func() {
		collector.FinishSpan(nil, "ok", nil)
	})
	assert.Empty(t, exporter.GetSpans())
}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, value string) {
	t.Helper()

	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) {
			assert.Equal(t, value, attr.Value.AsString(), "Attribute %s should have expected value", key)
			return
		}
	}

	t.Errorf("Attribute %s not found on span %s", key, span.Name)
}
