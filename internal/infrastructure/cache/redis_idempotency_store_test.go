package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// redisAddr returns STORESYNC_TEST_REDIS_ADDR when set, otherwise starts a
// throwaway Redis container for the test.
func redisAddr(t *testing.T) string {
	t.Helper()
	if addr := os.Getenv("STORESYNC_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisIdempotencyStore(t *testing.T) {
	addr := redisAddr(t)

	ctx := context.Background()
	store, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	id := uuid.NewString()
	defer func() { _ = store.Release(ctx, id) }()

	isNew, err := store.MarkProcessed(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	require.NoError(t, store.Release(ctx, id))
	isNew, err = store.MarkProcessed(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestRedisIdempotencyStore_Expiry(t *testing.T) {
	addr := redisAddr(t)

	ctx := context.Background()
	store, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	id := uuid.NewString()
	isNew, err := store.MarkProcessed(ctx, id, time.Second)
	require.NoError(t, err)
	require.True(t, isNew)

	assert.Eventually(t, func() bool {
		isNew, err := store.MarkProcessed(ctx, id, time.Minute)
		return err == nil && isNew
	}, 5*time.Second, 200*time.Millisecond)
	_ = store.Release(ctx, id)
}
