// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements WindowLimiter, the per-route fixed-window limiter.
// Requests are counted per (client address, request path), so each giveaway
// under /enter/:id has its own budget. A window opens with the first hit and
// lasts Window. Counters live in a WindowStore: the in-memory
// store is the default and resets on restart, the Redis store shares
// counters between processes. Either way the limiter is perimeter defense
// only, so store failures let the request through.
package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-giveaway-backend/internal/identity"
)

// WindowStore counts hits per key within fixed windows.
type WindowStore interface {
	// Hit records one request for key at now and returns the number of hits
	// in the current window and the time that window ends.
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (count int64, resetAt time.Time, err error)
}

// WindowLimiter enforces per-route request budgets over fixed windows.
type WindowLimiter struct {
	Store  WindowStore
	Window time.Duration
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// NewWindowLimiter returns a limiter over store with the given window.
func NewWindowLimiter(store WindowStore, window time.Duration) *WindowLimiter {
	return &WindowLimiter{Store: store, Window: window, Now: time.Now}
}

// Handler returns middleware allowing limit requests per client address and
// request path within each window. name labels the limiter in metrics.
//
// Every counted response carries X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset (unix seconds). Over-budget requests get 429 with
// Retry-After and retryAfter in the body.
func (wl *WindowLimiter) Handler(name string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := wl.now()
		// Concrete path without the query string, so ?x=1 cannot reset a budget.
		key := identity.ClientAddress(c.Request) + "|" + c.Request.URL.Path

		count, resetAt, err := wl.Store.Hit(c.Request.Context(), key, wl.Window, now)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Str("limiter", name).Msg("rate limit store unavailable")
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(int64(math.Ceil(float64(resetAt.UnixMilli())/1000)), 10))

		if count > int64(limit) {
			retry := int64(math.Ceil(resetAt.Sub(now).Seconds()))
			if retry < 1 {
				retry = 1
			}
			rateLimited.WithLabelValues(name).Inc()
			h.Set("Retry-After", strconv.FormatInt(retry, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"error":      "Too many requests",
				"code":       "rate_limited",
				"request_id": GetRequestID(c),
				"retryAfter": retry,
			})
			return
		}
		c.Next()
	}
}

func (wl *WindowLimiter) now() time.Time {
	if wl.Now != nil {
		return wl.Now()
	}
	return time.Now()
}

// windowCounter is one key's state in MemoryWindowStore.
type windowCounter struct {
	count   int64
	resetAt time.Time
}

// MemoryWindowStore keeps window counters in process memory. Expired
// counters are replaced on their next hit and swept every 5000 hits.
type MemoryWindowStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	hits     uint64
}

// NewMemoryWindowStore returns an empty in-memory store.
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{counters: make(map[string]*windowCounter)}
}

// Hit implements WindowStore.
func (s *MemoryWindowStore) Hit(_ context.Context, key string, window time.Duration, now time.Time) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits++
	if s.hits >= 5000 {
		for k, wc := range s.counters {
			if now.After(wc.resetAt) {
				delete(s.counters, k)
			}
		}
		s.hits = 0
	}

	wc, ok := s.counters[key]
	if !ok || now.After(wc.resetAt) {
		wc = &windowCounter{resetAt: now.Add(window)}
		s.counters[key] = wc
	}
	wc.count++
	return wc.count, wc.resetAt, nil
}

// RedisWindowStore keeps window counters in Redis with INCR and a TTL set on
// the first hit of each window.
type RedisWindowStore struct {
	Client redis.Cmdable
	// Prefix namespaces keys; defaults to "ratelimit".
	Prefix string
}

// NewRedisWindowStore returns a store backed by client.
func NewRedisWindowStore(client redis.Cmdable) *RedisWindowStore {
	return &RedisWindowStore{Client: client, Prefix: "ratelimit"}
}

// Hit implements WindowStore.
func (s *RedisWindowStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (int64, time.Time, error) {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "ratelimit"
	}
	k := prefix + ":" + key

	n, err := s.Client.Incr(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis incr: %w", err)
	}
	if n == 1 {
		if err := s.Client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("redis pexpire: %w", err)
		}
		return n, now.Add(window), nil
	}

	ttl, err := s.Client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis pttl: %w", err)
	}
	if ttl < 0 {
		// A previous PEXPIRE was lost; restart the window.
		if err := s.Client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("redis pexpire: %w", err)
		}
		ttl = window
	}
	return n, now.Add(ttl), nil
}
