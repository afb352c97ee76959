package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesync/backend/internal/infrastructure/cache"
)

type failingStore struct{}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
func (failingStore) Release(context.Context, string) error { return nil }
func (failingStore) Close() error                          { return nil }

func newIdempotentRouter(store cache.IdempotencyStore, status *int, calls *int, duplicates *int) *gin.Engine {
	router := gin.New()
	router.Use(Idempotency(store, time.Hour, func(c *gin.Context) { *duplicates++ }))
	router.POST("/hook", func(c *gin.Context) {
		*calls++
		c.JSON(*status, gin.H{"success": *status < 400})
	})
	return router
}

func deliver(router *gin.Engine, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/hook", nil)
	if id != "" {
		req.Header.Set(HeaderWebhookID, id)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("repeated delivery is processed once", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore(0)
		defer store.Close()
		status, calls, dups := http.StatusOK, 0, 0
		router := newIdempotentRouter(store, &status, &calls, &dups)

		first := deliver(router, "d-1")
		second := deliver(router, "d-1")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.JSONEq(t, `{"success":true,"duplicate":true,"processed":0,"created":0,"updated":0,"failed":0,"skipped":0}`, second.Body.String())
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, dups)
	})

	t.Run("different deliveries are both processed", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore(0)
		defer store.Close()
		status, calls, dups := http.StatusOK, 0, 0
		router := newIdempotentRouter(store, &status, &calls, &dups)

		deliver(router, "d-1")
		deliver(router, "d-2")

		assert.Equal(t, 2, calls)
		assert.Equal(t, 0, dups)
	})

	t.Run("server error releases the delivery", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore(0)
		defer store.Close()
		status, calls, dups := http.StatusInternalServerError, 0, 0
		router := newIdempotentRouter(store, &status, &calls, &dups)

		require.Equal(t, http.StatusInternalServerError, deliver(router, "d-9").Code)
		status = http.StatusOK
		require.Equal(t, http.StatusOK, deliver(router, "d-9").Code)

		assert.Equal(t, 2, calls)
		assert.Equal(t, 0, dups)
	})

	t.Run("kept delivery is not released on server error", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore(0)
		defer store.Close()
		calls := 0
		router := gin.New()
		router.Use(Idempotency(store, time.Hour, nil))
		router.POST("/hook", func(c *gin.Context) {
			calls++
			KeepDelivery(c)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		})

		deliver(router, "d-7")
		second := deliver(router, "d-7")

		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusOK, second.Code)
	})

	t.Run("client error keeps the delivery marked", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore(0)
		defer store.Close()
		status, calls, dups := http.StatusBadRequest, 0, 0
		router := newIdempotentRouter(store, &status, &calls, &dups)

		deliver(router, "d-4")
		deliver(router, "d-4")

		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, dups)
	})

	t.Run("missing delivery id bypasses the store", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore(0)
		defer store.Close()
		status, calls, dups := http.StatusOK, 0, 0
		router := newIdempotentRouter(store, &status, &calls, &dups)

		deliver(router, "")
		deliver(router, "")

		assert.Equal(t, 2, calls)
		assert.Equal(t, 0, store.Size())
	})

	t.Run("store failure fails open", func(t *testing.T) {
		status, calls, dups := http.StatusOK, 0, 0
		router := newIdempotentRouter(failingStore{}, &status, &calls, &dups)

		deliver(router, "d-1")
		deliver(router, "d-1")

		assert.Equal(t, 2, calls)
	})
}
