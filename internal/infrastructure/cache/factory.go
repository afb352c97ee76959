package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Backends accepted by NewIdempotencyStore
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// FactoryOptions configures NewIdempotencyStore
type FactoryOptions struct {
	Backend string
	Redis   RedisConfig
	Logger  *zap.Logger
	// AllowInMemoryFallback downgrades to the in-memory store when Redis is unreachable
	AllowInMemoryFallback bool
}

// NewIdempotencyStore creates the store selected by opts.Backend
func NewIdempotencyStore(ctx context.Context, opts FactoryOptions) (IdempotencyStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Backend {
	case "", BackendMemory:
		logger.Info("Using in-memory webhook idempotency store")
		return NewInMemoryIdempotencyStore(0), nil

	case BackendRedis:
		store, err := NewRedisIdempotencyStore(ctx, opts.Redis)
		if err == nil {
			logger.Info("Using Redis webhook idempotency store", zap.String("addr", opts.Redis.Addr))
			return store, nil
		}
		if !opts.AllowInMemoryFallback {
			return nil, fmt.Errorf("redis idempotency store unavailable: %w", err)
		}
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
			"Duplicate webhook deliveries may be processed by other instances.",
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore(0), nil

	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", opts.Backend)
	}
}
