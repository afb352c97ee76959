// Package middleware provides HTTP middleware for the sync service.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength is the maximum length for request IDs to prevent DoS via large headers.
const MaxRequestIDLength = 128

// maxHeaderAttrLength bounds header values copied into span and metric attributes
const maxHeaderAttrLength = 256

// spanHeaders maps webhook headers onto server span attributes
var spanHeaders = []struct {
	header string
	attr   string
}{
	{HeaderTopic, "webhook.topic"},
	{HeaderWebhookID, "webhook.id"},
	{HeaderShopDomain, "shop.domain"},
}

// Tracing returns the request tracing chain: otelgin opens the server span
// named "METHOD /route", then annotateSpan tags it. Nothing is returned
// when tracing is disabled, so the result can be spread into engine.Use.
func Tracing(serviceName string, enabled bool) []gin.HandlerFunc {
	if !enabled {
		return nil
	}
	return []gin.HandlerFunc{otelgin.Middleware(serviceName), annotateSpan}
}

// annotateSpan adds the request ID and webhook headers to the server span and
// sets the error status for every 4xx and 5xx reply. Must run inside otelgin.
func annotateSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}

	if requestID := getRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	for _, h := range spanHeaders {
		if v := truncate(c.GetHeader(h.header)); v != "" {
			span.SetAttributes(attribute.String(h.attr, v))
		}
	}

	c.Next()

	if status := c.Writer.Status(); status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

func truncate(v string) string {
	if len(v) > maxHeaderAttrLength {
		return v[:maxHeaderAttrLength]
	}
	return v
}
