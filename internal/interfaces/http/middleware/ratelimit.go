package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/storesync/backend/internal/interfaces/http/dto"
)

const defaultLimiterIdleTTL = 10 * time.Minute

// RateLimiter holds a token bucket per client key. Buckets unused for the
// idle TTL are dropped by a background sweep. Safe for concurrent use.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	done     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	*rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per key with the given
// burst (at least 1). idleTTL of zero selects ten minutes.
func NewRateLimiter(rps float64, burst int, idleTTL time.Duration) *RateLimiter {
	if idleTTL <= 0 {
		idleTTL = defaultLimiterIdleTTL
	}
	rl := &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   max(burst, 1),
		idleTTL: idleTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the sweep. Further calls do nothing.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.idleTTL)
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) bucketFor(key string, now time.Time) *bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// Allow takes a token for key when one is available
func (rl *RateLimiter) Allow(key string) bool {
	ok, _ := rl.take(key)
	return ok
}

// take reserves a token. A refusal reports how long until one frees up and
// leaves the bucket untouched.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	now := rl.now()
	r := rl.bucketFor(key, now).ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// Remaining reports whole tokens left for key; an unseen key has a full burst
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	rl.mu.Unlock()
	if !ok {
		return rl.burst
	}
	return max(int(b.TokensAt(rl.now())), 0)
}

// Clients is the number of live buckets
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// RateLimitByKey answers 429 with Retry-After once keyFunc's bucket is empty
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		ok, wait := limiter.take(key)
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			abortWithError(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.")
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}

// ClientIPKey keys limits by the client address gin resolves
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// ShopDomainKey keys webhook limits by the sending shop, falling back to client IP
func ShopDomainKey(c *gin.Context) string {
	if shop := c.GetHeader(HeaderShopDomain); shop != "" {
		return "shop:" + shop
	}
	return ClientIPKey(c)
}
