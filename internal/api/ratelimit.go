package api

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	RPS   int // requests per second
	Burst int // burst size
}

type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket
	rps     int
	burst   int
	now     func() time.Time
}

type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(rps, burst int, now time.Time) *tokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: float64(rps),
		lastRefill: now,
	}
}

func (b *tokenBucket) allow(now time.Time) bool {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*tokenBucket),
		rps:     cfg.RPS,
		burst:   cfg.Burst,
		now:     time.Now,
	}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, ok := rl.clients[key]
	if !ok {
		bucket = newTokenBucket(rl.rps, rl.burst, now)
		rl.clients[key] = bucket
	}
	return bucket.allow(now)
}

// sweep drops buckets idle for longer than maxIdle.
func (rl *rateLimiter) sweep(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for k, v := range rl.clients {
		if now.Sub(v.lastRefill) > maxIdle {
			delete(rl.clients, k)
		}
	}
}

// run sweeps stale buckets until done is closed.
func (rl *rateLimiter) run(done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			rl.sweep(10 * time.Minute)
		}
	}
}

func (rl *rateLimiter) middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isProbe(c.Path()) || isLoopbackCategorize(c) {
			return c.Next()
		}
		if !rl.allow(c.IP()) {
			return problemResponse(c, fiber.StatusTooManyRequests,
				"rate_limit_exceeded", "Too Many Requests",
				"Rate limit exceeded. Please try again later.")
		}
		return c.Next()
	}
}

// categorizePath is the route the production suggestion client posts to.
const categorizePath = "/api/tasks/categorize"

// isLoopbackCategorize matches the server's own suggestion calls, which already
// passed the limiter as /api/tasks/suggest.
func isLoopbackCategorize(c *fiber.Ctx) bool {
	return c.Path() == categorizePath && c.Context().RemoteIP().IsLoopback()
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}
