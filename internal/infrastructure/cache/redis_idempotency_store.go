package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server backing RedisIdempotencyStore
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces delivery keys; "storesync:webhook:" when empty
	KeyPrefix string
}

const (
	defaultRedisKeyPrefix = "storesync:webhook:"
	redisPingTimeout      = 5 * time.Second
)

// RedisIdempotencyStore shares delivery IDs between service instances.
// Expiry is delegated to Redis key TTLs.
type RedisIdempotencyStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisIdempotencyStore dials Redis and fails unless it answers PING
func NewRedisIdempotencyStore(ctx context.Context, cfg RedisConfig) (*RedisIdempotencyStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedisIdempotencyStoreWithClient(rdb, cfg.KeyPrefix), nil
}

// NewRedisIdempotencyStoreWithClient uses rdb as is; the store takes ownership
func NewRedisIdempotencyStoreWithClient(rdb *redis.Client, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}
	return &RedisIdempotencyStore{rdb: rdb, prefix: prefix}
}

func (s *RedisIdempotencyStore) key(deliveryID string) string {
	return s.prefix + deliveryID
}

// MarkProcessed uses SET NX, so exactly one instance wins a given delivery
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	stamp := time.Now().UTC().Format(time.RFC3339)
	won, err := s.rdb.SetNX(ctx, s.key(deliveryID), stamp, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark delivery %s: %w", deliveryID, err)
	}
	return won, nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, deliveryID string) error {
	if err := s.rdb.Del(ctx, s.key(deliveryID)).Err(); err != nil {
		return fmt.Errorf("release delivery %s: %w", deliveryID, err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Close() error {
	return s.rdb.Close()
}

var _ IdempotencyStore = (*RedisIdempotencyStore)(nil)
