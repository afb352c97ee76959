// Package cache holds the webhook delivery de-duplication stores.
package cache

import (
	"context"
	"time"
)

// DefaultDeliveryTTL is how long a webhook delivery ID is remembered.
const DefaultDeliveryTTL = 24 * time.Hour

// IdempotencyStore remembers which webhook deliveries were already handled.
type IdempotencyStore interface {
	// MarkProcessed records deliveryID for ttl. It returns false when the ID
	// was already recorded and has not expired.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)
	// Release forgets deliveryID so a retried delivery is handled again
	Release(ctx context.Context, deliveryID string) error
	Close() error
}
