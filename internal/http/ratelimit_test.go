package http

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	t.Run("allows the burst then throttles", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)}
		limiter := newRateLimiter(1, 2, clock.Now)

		for i := 0; i < 2; i++ {
			if ok, _ := limiter.Allow("10.0.0.1"); !ok {
				t.Fatalf("request %d should be allowed", i+1)
			}
		}
		ok, wait := limiter.Allow("10.0.0.1")
		if ok {
			t.Fatalf("third request should be throttled")
		}
		if wait <= 0 || wait > time.Second {
			t.Fatalf("unexpected wait %s", wait)
		}

		if ok, _ := limiter.Allow("10.0.0.2"); !ok {
			t.Fatalf("other clients keep their own budget")
		}

		clock.Advance(time.Second)
		if ok, _ := limiter.Allow("10.0.0.1"); !ok {
			t.Fatalf("token should refill after a second")
		}
	})

	t.Run("forgets idle clients", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)}
		limiter := newRateLimiter(1, 1, clock.Now)

		limiter.Allow("10.0.0.1")
		limiter.Allow("10.0.0.2")
		if got := limiter.size(); got != 2 {
			t.Fatalf("expected 2 tracked clients, got %d", got)
		}

		clock.Advance(limiterIdleTTL + time.Minute)
		limiter.Allow("10.0.0.3")
		if got := limiter.size(); got != 1 {
			t.Fatalf("expected idle clients to be swept, got %d", got)
		}
	})

	t.Run("middleware answers 429 with Retry-After", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)}
		limiter := newRateLimiter(1, 1, clock.Now)

		calls := 0
		handler := limiter.Middleware(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		}))

		codes := make([]int, 0, 2)
		var retryAfter string
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/access", nil)
			req.RemoteAddr = "198.51.100.7:40000"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
			retryAfter = rec.Header().Get("Retry-After")
		}

		if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
			t.Fatalf("unexpected status codes %v", codes)
		}
		if retryAfter != "1" {
			t.Fatalf("expected Retry-After 1, got %q", retryAfter)
		}
		if calls != 1 {
			t.Fatalf("throttled request must not reach the handler")
		}
	})

	t.Run("client key ignores the port", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		if got := clientKey(req); got != "203.0.113.9" {
			t.Fatalf("unexpected key %q", got)
		}
		req.RemoteAddr = "pipe"
		if got := clientKey(req); got != "pipe" {
			t.Fatalf("unexpected key %q", got)
		}
	})
}
