package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	bucket := newTokenBucket(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		if !bucket.allow() {
			t.Errorf("Request %d should be allowed (within burst)", i)
		}
	}
	if bucket.allow() {
		t.Error("Request 6 should be denied (burst exhausted)")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	bucket := newTokenBucket(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 1})

	if !bucket.allow() {
		t.Error("First request should be allowed")
	}
	if bucket.allow() {
		t.Error("Second request should be denied")
	}

	time.Sleep(15 * time.Millisecond)

	if !bucket.allow() {
		t.Error("Request after refill should be allowed")
	}
}

func TestRateLimiterNoLimits(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < 100; i++ {
		if !rl.Allow(RouteNames) {
			t.Fatalf("request %d should be allowed without limits", i)
		}
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(
		WithDefaultLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}),
		WithEnabled(false),
	)
	for i := 0; i < 100; i++ {
		if !rl.Allow(RouteGet) {
			t.Fatalf("request %d should be allowed when disabled", i)
		}
	}
}

func TestRateLimiterNil(t *testing.T) {
	var rl *RateLimiter
	if !rl.Allow(RouteGet) {
		t.Fatal("nil limiter should allow")
	}
}

func TestRateLimiterRouteOverridesDefault(t *testing.T) {
	rl := NewRateLimiter(
		WithDefaultLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}),
		WithRouteLimit(RouteNames, RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3}),
	)

	for i := 0; i < 3; i++ {
		if !rl.Allow(RouteNames) {
			t.Fatalf("names request %d should be allowed", i)
		}
	}
	if rl.Allow(RouteNames) {
		t.Fatal("names request 4 should be denied")
	}

	if !rl.Allow(RouteGet) {
		t.Fatal("first get request should be allowed")
	}
	if rl.Allow(RouteGet) {
		t.Fatal("second get request should be denied")
	}
}

func TestRateLimiterConcurrent(t *testing.T) {
	rl := NewRateLimiter(WithDefaultLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 50}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(RouteNames) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Fatalf("allowed = %d, want 50", allowed)
	}
}

func TestLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(WithRouteLimit("r", RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1}))
	h := rl.Limit("r", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}
