package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	defer store.Close()

	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	isNew, err := store.MarkProcessed(ctx, "delivery-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "delivery-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, isNew, "duplicate delivery must be rejected")

	now = now.Add(time.Hour)
	isNew, err = store.MarkProcessed(ctx, "delivery-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "expired delivery is accepted again")
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	defer store.Close()
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "delivery-2", time.Hour)
	require.NoError(t, store.Release(ctx, "delivery-2"))

	isNew, err := store.MarkProcessed(ctx, "delivery-2", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	defer store.Close()

	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Size())

	now = now.Add(2 * time.Minute)
	store.purgeExpired()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_ConcurrentMarks(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	defer store.Close()

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.MarkProcessed(context.Background(), "same", time.Hour); ok {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNewIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := NewIdempotencyStore(ctx, FactoryOptions{Backend: BackendMemory, Logger: zaptest.NewLogger(t)})
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewIdempotencyStore(ctx, FactoryOptions{Backend: "etcd"})
		assert.Error(t, err)
	})

	t.Run("redis unreachable without fallback", func(t *testing.T) {
		_, err := NewIdempotencyStore(ctx, FactoryOptions{
			Backend: BackendRedis,
			Redis:   RedisConfig{Addr: "127.0.0.1:1"},
		})
		assert.Error(t, err)
	})

	t.Run("redis unreachable with fallback", func(t *testing.T) {
		store, err := NewIdempotencyStore(ctx, FactoryOptions{
			Backend:               BackendRedis,
			Redis:                 RedisConfig{Addr: "127.0.0.1:1"},
			AllowInMemoryFallback: true,
			Logger:                zaptest.NewLogger(t),
		})
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})
}
