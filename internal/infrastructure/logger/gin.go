package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ginLoggerKey holds the request logger in the gin context
const ginLoggerKey = "logger"

// RequestLogger attaches a request-scoped logger to the gin and request
// contexts and logs one line per request, at warn for 4xx and error for 5xx.
// Paths in skipPaths get the scoped logger but no access line.
func RequestLogger(base *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		fields := []zap.Field{
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		}
		if topic := c.GetHeader("X-Shopify-Topic"); topic != "" {
			fields = append(fields, zap.String("topic", topic))
		}
		reqLogger := base.With(fields...)

		c.Set(ginLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), reqLogger))

		c.Next()

		if skip[c.Request.URL.Path] {
			return
		}
		status := c.Writer.Status()
		access := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			access = append(access, zap.Strings("errors", c.Errors.Errors()))
		}
		log := FromContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP request", access...)
		case status >= http.StatusBadRequest:
			log.Warn("HTTP request", access...)
		default:
			log.Info("HTTP request", access...)
		}
	}
}

// Recovery turns a handler panic into a logged 500 with the standard error envelope
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				base.Error("Panic recovered",
					zap.String("request_id", c.GetString("request_id")),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "ERR_INTERNAL",
						"message": "An internal error occurred",
					},
				})
			}
		}()
		c.Next()
	}
}

// FromGin returns the request logger, including the trace and webhook fields
// added to the request context after RequestLogger ran. Without one it
// returns a no-op.
func FromGin(c *gin.Context) *zap.Logger {
	if c.Request != nil {
		if _, ok := c.Request.Context().Value(loggerKey).(*zap.Logger); ok {
			return FromContext(c.Request.Context())
		}
	}
	if l, ok := c.Get(ginLoggerKey); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.NewNop()
}
