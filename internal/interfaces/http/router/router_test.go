package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRouteGroup_Attach(t *testing.T) {
	engine := gin.New()
	NewRouteGroup("sync", "/sync-products").
		GET("", func(c *gin.Context) { c.String(http.StatusOK, "synced") }).
		Attach(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/sync-products")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "synced", w.Body.String())
}

func TestRouteGroup_MethodsAreDistinct(t *testing.T) {
	engine := gin.New()
	g := NewRouteGroup("webhooks", "/webhooks")
	g.POST("/orders/create", func(c *gin.Context) {
		c.String(http.StatusAccepted, "queued")
	})
	g.Attach(engine.Group("/api/v1"))

	assert.Equal(t, "webhooks", g.Name())
	assert.Equal(t, http.StatusAccepted, serve(engine, http.MethodPost, "/api/v1/webhooks/orders/create").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/webhooks/orders/create").Code)
}

func TestRouteGroup_MiddlewareReachesChildren(t *testing.T) {
	engine := gin.New()
	g := NewRouteGroup("webhooks", "/webhooks").Use(func(c *gin.Context) {
		c.Header("X-Guarded", "yes")
		c.Next()
	})
	g.Group("products", "/products").POST("/create", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	g.Attach(engine.Group("/api/v1"))

	// sibling group without the middleware
	NewRouteGroup("system", "/system").
		GET("/info", func(c *gin.Context) { c.String(http.StatusOK, "info") }).
		Attach(engine.Group("/api/v1"))

	w := serve(engine, http.MethodPost, "/api/v1/webhooks/products/create")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "yes", w.Header().Get("X-Guarded"))

	w = serve(engine, http.MethodGet, "/api/v1/system/info")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Guarded"))
}

func TestRouteGroup_Routes(t *testing.T) {
	noop := func(c *gin.Context) {}
	g := NewRouteGroup("webhooks", "/webhooks")
	g.Group("products", "/products").POST("/create", noop).POST("/update", noop)
	g.Group("orders", "/orders").POST("/create", noop)
	g.GET("/ping", noop)

	assert.Equal(t, []string{
		"GET /webhooks/ping",
		"POST /webhooks/products/create",
		"POST /webhooks/products/update",
		"POST /webhooks/orders/create",
	}, g.Routes())
}
