package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type windowRig struct {
	r     *gin.Engine
	clock time.Time
}

func newWindowRig(t *testing.T, store WindowStore, limit int) *windowRig {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rig := &windowRig{clock: time.Unix(1_700_000_000, 0)}
	wl := NewWindowLimiter(store, 15*time.Minute)
	wl.Now = func() time.Time { return rig.clock }

	rig.r = gin.New()
	rig.r.Use(RequestID())
	rig.r.Use(wl.Handler("test", limit))
	rig.r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	rig.r.POST("/auth/logout", func(c *gin.Context) { c.Status(http.StatusOK) })
	rig.r.POST("/enter/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	return rig
}

func (rig *windowRig) do(path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	rig.r.ServeHTTP(w, req)
	return w
}

func TestWindowLimiter_BudgetHeadersAnd429(t *testing.T) {
	rig := newWindowRig(t, NewMemoryWindowStore(), 5)

	for i := 1; i <= 5; i++ {
		w := rig.do("/auth/login", "1.2.3.4")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "5" {
			t.Fatalf("limit header = %q", got)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(5-i) {
			t.Fatalf("request %d: remaining = %q", i, got)
		}
		want := strconv.FormatInt(rig.clock.Add(15*time.Minute).Unix(), 10)
		if got := w.Header().Get("X-RateLimit-Reset"); got != want {
			t.Fatalf("reset = %q; want %q", got, want)
		}
	}

	rig.clock = rig.clock.Add(5 * time.Minute)
	w := rig.do("/auth/login", "1.2.3.4")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth request: status %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "600" {
		t.Fatalf("Retry-After = %q; want 600", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["success"] != false || body["error"] != "Too many requests" || body["retryAfter"] != float64(600) {
		t.Fatalf("unexpected body: %v", body)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("remaining on 429 = %q", got)
	}
}

func TestWindowLimiter_KeyedByAddressAndRoute(t *testing.T) {
	rig := newWindowRig(t, NewMemoryWindowStore(), 1)

	if w := rig.do("/auth/login", "1.2.3.4"); w.Code != http.StatusOK {
		t.Fatalf("first: %d", w.Code)
	}
	if w := rig.do("/auth/login", "1.2.3.4"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("same address and route should be limited: %d", w.Code)
	}
	if w := rig.do("/auth/logout", "1.2.3.4"); w.Code != http.StatusOK {
		t.Fatalf("other route has its own budget: %d", w.Code)
	}
	if w := rig.do("/auth/login", "5.6.7.8"); w.Code != http.StatusOK {
		t.Fatalf("other address has its own budget: %d", w.Code)
	}
}

func TestWindowLimiter_KeyedByConcretePath(t *testing.T) {
	rig := newWindowRig(t, NewMemoryWindowStore(), 1)

	if w := rig.do("/enter/giveaway-a", "1.2.3.4"); w.Code != http.StatusOK {
		t.Fatalf("first giveaway: %d", w.Code)
	}
	if w := rig.do("/enter/giveaway-b", "1.2.3.4"); w.Code != http.StatusOK {
		t.Fatalf("another giveaway on the same route has its own budget: %d", w.Code)
	}
	if w := rig.do("/enter/giveaway-a", "1.2.3.4"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("same giveaway should be limited: %d", w.Code)
	}
	if w := rig.do("/enter/giveaway-a?retry=1", "1.2.3.4"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("query string must not open a new budget: %d", w.Code)
	}
}

func TestWindowLimiter_WindowResets(t *testing.T) {
	rig := newWindowRig(t, NewMemoryWindowStore(), 1)

	rig.do("/auth/login", "1.2.3.4")
	rig.clock = rig.clock.Add(15 * time.Minute) // exactly at reset: still the same window
	if w := rig.do("/auth/login", "1.2.3.4"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("at reset boundary: %d", w.Code)
	}
	rig.clock = rig.clock.Add(time.Millisecond)
	if w := rig.do("/auth/login", "1.2.3.4"); w.Code != http.StatusOK {
		t.Fatalf("after window: %d", w.Code)
	}
}

func TestMemoryWindowStore_Sweep(t *testing.T) {
	s := NewMemoryWindowStore()
	now := time.Unix(100, 0)
	_, _, _ = s.Hit(context.Background(), "old", time.Second, now)
	s.hits = 4999

	_, _, _ = s.Hit(context.Background(), "new", time.Second, now.Add(time.Hour))
	if _, ok := s.counters["old"]; ok {
		t.Fatalf("expired counter should be swept")
	}
	if _, ok := s.counters["new"]; !ok {
		t.Fatalf("new counter missing")
	}
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration, time.Time) (int64, time.Time, error) {
	return 0, time.Time{}, context.DeadlineExceeded
}

func TestWindowLimiter_FailsOpen(t *testing.T) {
	rig := newWindowRig(t, failingStore{}, 1)
	for i := 0; i < 3; i++ {
		w := rig.do("/auth/login", "1.2.3.4")
		if w.Code != http.StatusOK {
			t.Fatalf("store failure must not block: %d", w.Code)
		}
		if w.Header().Get("X-RateLimit-Limit") != "" {
			t.Fatalf("no budget headers without a count")
		}
	}
}

func TestRedisWindowStore_UnreachableFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisWindowStore(client)
	if _, _, err := store.Hit(context.Background(), "k", time.Minute, time.Now()); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}

	rig := newWindowRig(t, store, 1)
	if w := rig.do("/auth/login", "1.2.3.4"); w.Code != http.StatusOK {
		t.Fatalf("unreachable redis must fail open: %d", w.Code)
	}
}

// Runs against a real server when TEST_REDIS_ADDR is set.
func TestRedisWindowStore_Live(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	store := &RedisWindowStore{Client: client, Prefix: "test-" + strconv.FormatInt(time.Now().UnixNano(), 10)}
	ctx := context.Background()
	now := time.Now()
	for i := int64(1); i <= 3; i++ {
		n, reset, err := store.Hit(ctx, "k", time.Minute, now)
		if err != nil {
			t.Fatalf("Hit: %v", err)
		}
		if n != i {
			t.Fatalf("count = %d; want %d", n, i)
		}
		if reset.Before(now) || reset.After(now.Add(time.Minute)) {
			t.Fatalf("reset %v outside window", reset)
		}
	}
}
