package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of application spans.
const TracerName = "github.com/storesync/backend"

// Span attribute keys
const (
	SpanAttrRunID      = "run_id"
	SpanAttrOrderID    = "order_id"
	SpanAttrDocumentID = "document_id"
	SpanAttrAction     = "action"
	SpanAttrStep       = "step"
)

// SpanOption adds start options to a service span.
type SpanOption func(*[]trace.SpanStartOption)

// WithAttribute sets an attribute when the span starts.
func WithAttribute(key string, value any) SpanOption {
	return func(opts *[]trace.SpanStartOption) {
		*opts = append(*opts, trace.WithAttributes(toAttribute(key, value)))
	}
}

// StartServiceSpan starts an internal span named "{component}.{operation}"
// on the global tracer provider. The caller must End it.
func StartServiceSpan(ctx context.Context, component, operation string, opts ...SpanOption) (context.Context, trace.Span) {
	startOpts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	for _, opt := range opts {
		opt(&startOpts)
	}
	return otel.Tracer(TracerName).Start(ctx, component+"."+operation, startOpts...)
}

// SetAttributes sets alternating key/value pairs on span. Pairs with a
// non-string key are dropped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		if key, ok := keyValues[i].(string); ok {
			attrs = append(attrs, toAttribute(key, keyValues[i+1]))
		}
	}
	span.SetAttributes(attrs...)
}

// RecordError records err on span and sets the error status.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK sets the ok status on span.
func SetOK(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
