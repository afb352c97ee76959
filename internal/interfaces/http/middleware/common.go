package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storesync/backend/internal/interfaces/http/dto"
)

const (
	HeaderRequestID     = "X-Request-ID"
	ContextKeyRequestID = "request_id"
)

// RequestID keeps a caller's X-Request-ID of at most MaxRequestIDLength
// bytes and otherwise assigns a UUID. The ID is echoed in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > MaxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// The API only serves JSON, so nothing may be framed, sniffed or loaded.
var securityHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
}

// SecureHeaders sets the static security headers. Strict-Transport-Security
// is added only for a positive hstsMaxAge; TLS usually ends at a proxy.
func SecureHeaders(hstsMaxAge time.Duration) gin.HandlerFunc {
	var hsts string
	if secs := int64(hstsMaxAge / time.Second); secs > 0 {
		hsts = "max-age=" + strconv.FormatInt(secs, 10) + "; includeSubDomains"
	}
	return func(c *gin.Context) {
		for _, kv := range securityHeaders {
			c.Header(kv[0], kv[1])
		}
		if hsts != "" {
			c.Header("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

// Timeout puts a deadline on the request context so remote calls made with
// it are cancelled. A handler that overran without writing gets a 504.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		return passThrough
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			abortWithError(c, http.StatusGatewayTimeout, dto.ErrCodeTimeout, "Request timed out")
		}
	}
}

// getRequestID prefers the ID set by RequestID and falls back to the raw
// header, cut to MaxRequestIDLength.
func getRequestID(c *gin.Context) string {
	if id := c.GetString(ContextKeyRequestID); id != "" {
		return id
	}
	id := c.GetHeader(HeaderRequestID)
	if len(id) > MaxRequestIDLength {
		id = id[:MaxRequestIDLength]
	}
	return id
}
