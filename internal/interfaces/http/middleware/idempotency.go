package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/interfaces/http/dto"
)

const contextKeyKeepDelivery = "webhook_keep_delivery"

// KeepDelivery marks the current delivery as processed even if the response is 5xx
func KeepDelivery(c *gin.Context) {
	c.Set(contextKeyKeepDelivery, true)
}

// Idempotency drops repeated webhook deliveries. The first delivery of an
// X-Shopify-Webhook-Id is processed; repeats within ttl are acknowledged with
// 200 and not processed again. A delivery whose handler answered 5xx is
// released so the storefront's retry is processed.
//
// Store errors fail open: the delivery is processed.
// A handler that already caused a remote side effect calls KeepDelivery so
// its 5xx does not release the mark.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration, onDuplicate func(c *gin.Context)) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = cache.DefaultDeliveryTTL
	}
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderWebhookID)
		if store == nil || id == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)

		first, err := store.MarkProcessed(ctx, id, ttl)
		if err != nil {
			log.Warn("Idempotency store unavailable, processing delivery", zap.Error(err))
			c.Next()
			return
		}
		if !first {
			log.Info("Duplicate webhook delivery ignored")
			if onDuplicate != nil {
				onDuplicate(c)
			}
			c.AbortWithStatusJSON(http.StatusOK, dto.WebhookAck{Success: true, Duplicate: true})
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError && !c.GetBool(contextKeyKeepDelivery) {
			if err := store.Release(context.WithoutCancel(ctx), id); err != nil {
				log.Warn("Failed to release webhook delivery", zap.Error(err))
			}
		}
	}
}
