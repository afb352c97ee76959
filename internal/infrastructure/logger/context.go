package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	webhookIDKey
)

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx with trace_id and span_id
// added when ctx carries a valid span. Without a logger it returns a no-op.
func FromContext(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// WithWebhookID records the storefront delivery ID in ctx and tags the
// attached logger with it.
func WithWebhookID(ctx context.Context, webhookID string) context.Context {
	ctx = context.WithValue(ctx, webhookIDKey, webhookID)
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		ctx = WithContext(ctx, logger.With(zap.String("webhook_id", webhookID)))
	}
	return ctx
}

// WebhookID returns the delivery ID stored by WithWebhookID, or ""
func WebhookID(ctx context.Context) string {
	id, _ := ctx.Value(webhookIDKey).(string)
	return id
}
