package server

import (
	"net/http"
	"sync"
	"time"
)

// RateLimitConfig defines the limit for a single route or for all routes.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustainable rate (tokens added per second).
	RequestsPerSecond float64

	// BurstSize is the maximum number of requests allowed in a burst.
	BurstSize int
}

// tokenBucket implements the token bucket algorithm for rate limiting.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
	ratePerSec float64
	maxTokens  float64
}

func newTokenBucket(cfg RateLimitConfig) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(cfg.BurstSize),
		lastUpdate: time.Now(),
		ratePerSec: cfg.RequestsPerSecond,
		maxTokens:  float64(cfg.BurstSize),
	}
}

// allow consumes a token if one is available.
func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.tokens += now.Sub(tb.lastUpdate).Seconds() * tb.ratePerSec
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
	tb.lastUpdate = now

	if tb.tokens >= 1.0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimiter applies token bucket limits per route.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*tokenBucket
	defaults *RateLimitConfig
	routes   map[string]RateLimitConfig
	enabled  bool
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithDefaultLimit sets the limit for routes without their own limit.
func WithDefaultLimit(cfg RateLimitConfig) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.defaults = &cfg
	}
}

// WithRouteLimit sets the limit for a single route.
func WithRouteLimit(route string, cfg RateLimitConfig) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.routes[route] = cfg
	}
}

// WithEnabled enables or disables rate limiting.
func WithEnabled(enabled bool) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.enabled = enabled
	}
}

// NewRateLimiter creates a rate limiter. Without limits every request is
// allowed.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		routes:  make(map[string]RateLimitConfig),
		enabled: true,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Allow reports whether a request to route may proceed.
func (rl *RateLimiter) Allow(route string) bool {
	if rl == nil || !rl.enabled {
		return true
	}

	bucket := rl.bucket(route)
	if bucket == nil {
		return true
	}
	return bucket.allow()
}

func (rl *RateLimiter) bucket(route string) *tokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if bucket, ok := rl.buckets[route]; ok {
		return bucket
	}

	cfg, ok := rl.routes[route]
	if !ok {
		if rl.defaults == nil {
			return nil
		}
		cfg = *rl.defaults
	}

	bucket := newTokenBucket(cfg)
	rl.buckets[route] = bucket
	return bucket
}

// Limit wraps next so requests beyond the route limit get 429.
func (rl *RateLimiter) Limit(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(route) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
