package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/interfaces/http/handler"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
)

// Handlers are the endpoints served under the API prefix
type Handlers struct {
	System  *handler.SystemHandler
	Sync    *handler.SyncHandler
	Webhook *handler.WebhookHandler
}

// WebhookGuard configures the middleware in front of webhook routes
type WebhookGuard struct {
	// Secret verifies X-Shopify-Hmac-Sha256; empty disables verification
	Secret string
	// Store de-duplicates deliveries; nil disables de-duplication
	Store cache.IdempotencyStore
	TTL   time.Duration
	// Limiter throttles deliveries per shop; nil disables throttling
	Limiter *middleware.RateLimiter
	// Timeout bounds each delivery; zero disables it
	Timeout time.Duration
}

// SystemRoutes returns the runtime information routes
func SystemRoutes(h *handler.SystemHandler) *RouteGroup {
	return NewRouteGroup("system", "/system").
		GET("/info", h.GetSystemInfo).
		GET("/schedule", h.GetScheduleHistory)
}

// SyncRoutes returns the manual reconciliation routes
func SyncRoutes(h *handler.SyncHandler) *RouteGroup {
	return NewRouteGroup("sync", "/sync-products").
		GET("", h.SyncProducts).
		GET("/preview", h.PreviewSync)
}

// WebhookRoutes returns the storefront webhook routes. Signature verification
// runs before de-duplication so forged deliveries never reach the store.
func WebhookRoutes(h *handler.WebhookHandler, guard WebhookGuard) *RouteGroup {
	group := NewRouteGroup("webhooks", "/webhooks")
	if guard.Limiter != nil {
		group.Use(middleware.RateLimitByKey(guard.Limiter, middleware.ShopDomainKey))
	}
	group.Use(middleware.VerifyShopifyWebhook(guard.Secret))
	if guard.Store != nil {
		group.Use(middleware.Idempotency(guard.Store, guard.TTL, h.OnDuplicate))
	}
	group.Use(middleware.Timeout(guard.Timeout))

	group.Group("products", "/products").
		POST("/create", h.ProductsCreate).
		POST("/update", h.ProductsUpdate)
	group.Group("orders", "/orders").
		POST("/create", h.OrdersCreate)
	return group
}

// Mount registers /health on the engine and every API group under
// /api/{apiVersion}. It returns the groups for startup logging.
func Mount(engine *gin.Engine, apiVersion string, h Handlers, guard WebhookGuard) []*RouteGroup {
	engine.GET("/health", h.System.Health)

	groups := []*RouteGroup{
		SystemRoutes(h.System),
		SyncRoutes(h.Sync),
		WebhookRoutes(h.Webhook, guard),
	}
	api := engine.Group("/api/" + apiVersion)
	for _, g := range groups {
		g.Attach(api)
	}
	return groups
}
