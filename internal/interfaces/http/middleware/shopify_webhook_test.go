package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/storesync/backend/internal/infrastructure/logger"
)

const testWebhookSecret = "hush"

func TestComputeShopifyHMAC(t *testing.T) {
	sig := ComputeShopifyHMAC(testWebhookSecret, []byte(`{"id":1}`))
	assert.True(t, ValidShopifyHMAC(testWebhookSecret, []byte(`{"id":1}`), sig))
	assert.False(t, ValidShopifyHMAC(testWebhookSecret, []byte(`{"id":2}`), sig))
	assert.False(t, ValidShopifyHMAC("other", []byte(`{"id":1}`), sig))
	assert.False(t, ValidShopifyHMAC(testWebhookSecret, []byte(`{"id":1}`), ""))
	assert.False(t, ValidShopifyHMAC(testWebhookSecret, []byte(`{"id":1}`), "not base64!"))
}

func newWebhookRouter(secret string, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), VerifyShopifyWebhook(secret))
	router.POST("/hook", handler)
	return router
}

func TestVerifyShopifyWebhook(t *testing.T) {
	body := `{"id":788032119674292922,"title":"Mug"}`

	t.Run("valid signature passes and body is readable", func(t *testing.T) {
		var gotBody, gotTopic, gotID string
		router := newWebhookRouter(testWebhookSecret, func(c *gin.Context) {
			raw, _ := io.ReadAll(c.Request.Body)
			gotBody = string(raw)
			gotTopic = c.GetString(ContextKeyWebhookTopic)
			gotID = logger.WebhookID(c.Request.Context())
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest("POST", "/hook", strings.NewReader(body))
		req.Header.Set(HeaderShopifyHmac, ComputeShopifyHMAC(testWebhookSecret, []byte(body)))
		req.Header.Set(HeaderTopic, "products/update")
		req.Header.Set(HeaderWebhookID, "b54557e4-bdd9-4b37-8a5f-bf7d70bcd043")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, body, gotBody)
		assert.Equal(t, "products/update", gotTopic)
		assert.Equal(t, "b54557e4-bdd9-4b37-8a5f-bf7d70bcd043", gotID)
	})

	t.Run("invalid signature is rejected", func(t *testing.T) {
		called := false
		router := newWebhookRouter(testWebhookSecret, func(c *gin.Context) {
			called = true
		})

		req := httptest.NewRequest("POST", "/hook", strings.NewReader(body))
		req.Header.Set(HeaderShopifyHmac, ComputeShopifyHMAC("wrong", []byte(body)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_WEBHOOK_SIGNATURE")
		assert.False(t, called)
	})

	t.Run("missing signature is rejected", func(t *testing.T) {
		router := newWebhookRouter(testWebhookSecret, func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/hook", strings.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("empty secret disables verification", func(t *testing.T) {
		router := newWebhookRouter("", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/hook", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejection is logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), zap.New(core)))
			c.Next()
		}, VerifyShopifyWebhook(testWebhookSecret))
		router.POST("/hook", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest("POST", "/hook", strings.NewReader(body))
		req.Header.Set(HeaderShopDomain, "shop.myshopify.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "Rejected webhook with invalid signature", entry.Message)
		assert.Equal(t, "shop.myshopify.com", entry.ContextMap()["shop_domain"])
	})
}
