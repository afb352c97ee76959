package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/storesync/backend/internal/infrastructure/telemetry"
)

// recordSpans installs an in-memory span recorder as the global provider.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[string]string {
	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}

func TestStartServiceSpan(t *testing.T) {
	sr := recordSpans(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "catalog", "reconcile",
		telemetry.WithAttribute(telemetry.SpanAttrRunID, "r1"),
		telemetry.WithAttribute("variants", 3),
	)
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	telemetry.SetOK(span)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "catalog.reconcile", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "r1", attrs[telemetry.SpanAttrRunID])
	assert.Equal(t, "3", attrs["variants"])
}

func TestStartServiceSpan_ChildOfRequestSpan(t *testing.T) {
	sr := recordSpans(t)

	ctx, parent := otel.Tracer("test").Start(context.Background(), "POST /api/v1/webhooks/orders/create")
	_, child := telemetry.StartServiceSpan(ctx, "invoice_workflow", "run")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestSetAttributes_RecordError(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "invoice_workflow", "run")
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, "1001", "items", 2, 42, "ignored", "dangling")
	telemetry.RecordError(span, errors.New("boom"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	assert.Equal(t, map[string]string{"order_id": "1001", "items": "2"}, spanAttrs(spans[0]))
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestSpanHelpers_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
	})

	_, span := telemetry.StartServiceSpan(context.Background(), "c", "op")
	assert.NotPanics(t, func() { telemetry.RecordError(span, nil) })
	span.End()
}
