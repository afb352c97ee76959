package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("returns attached logger", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		ctx := WithContext(context.Background(), zap.New(core))

		FromContext(ctx).Info("hello")
		require.Equal(t, 1, logs.Len())
		assert.NotContains(t, logs.All()[0].ContextMap(), "trace_id")
	})

	t.Run("returns nop logger when missing", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})

	t.Run("adds trace correlation inside a span", func(t *testing.T) {
		tp := trace.NewTracerProvider(trace.WithSyncer(tracetest.NewInMemoryExporter()))
		defer func() { _ = tp.Shutdown(context.Background()) }()

		core, logs := observer.New(zapcore.InfoLevel)
		ctx := WithContext(context.Background(), zap.New(core))
		ctx, span := tp.Tracer("test").Start(ctx, "invoice_workflow.run")
		FromContext(ctx).Info("invoice created")
		span.End()

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	})
}

func TestWithWebhookID(t *testing.T) {
	const id = "b54557e4-bdd9-4b37-8a5f-bf7d70bcd043"

	t.Run("tags the attached logger", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		ctx := WithWebhookID(WithContext(context.Background(), zap.New(core)), id)
		FromContext(ctx).Info("webhook received")

		assert.Equal(t, id, WebhookID(ctx))
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, id, logs.All()[0].ContextMap()["webhook_id"])
	})

	t.Run("without a logger only stores the id", func(t *testing.T) {
		ctx := WithWebhookID(context.Background(), id)
		assert.Equal(t, id, WebhookID(ctx))
	})

	t.Run("missing", func(t *testing.T) {
		assert.Empty(t, WebhookID(context.Background()))
	})
}
