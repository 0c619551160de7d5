package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// RateLimitConfig defines the limit for a route or group.
type RateLimitConfig struct {
	Max    int                      // requests allowed per window
	Window time.Duration            // window length
	KeyFn  func(c fiber.Ctx) string // what the limit is counted against
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter is an in-memory fixed-window rate limiter. Expired windows are
// swept every sweepInterval until Close is called.
type RateLimiter struct {
	config RateLimitConfig
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	windows map[string]*window
}

const sweepInterval = 5 * time.Minute

// NewRateLimiter creates a limiter and starts its sweeper.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  cfg,
		now:     time.Now,
		stop:    make(chan struct{}),
		windows: make(map[string]*window),
	}
	go rl.sweep()
	return rl
}

// take counts one request against key and reports what is left of its window.
func (rl *RateLimiter) take(key string) (remaining int, resetAt time.Time, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, exists := rl.windows[key]
	if !exists || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(rl.config.Window)}
		rl.windows[key] = w
	}
	w.count++
	return rl.config.Max - w.count, w.resetAt, w.count <= rl.config.Max
}

// Handler returns a Fiber middleware that enforces the limit and reports it in
// X-RateLimit-* headers.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		remaining, resetAt, ok := rl.take(rl.config.KeyFn(c))

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		if ok {
			return c.Next()
		}

		retryAfter := int(resetAt.Sub(rl.now()).Seconds()) + 1
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fiber.Map{
				"code":       "RATE_LIMITED",
				"message":    "Too many requests. Try again in " + strconv.Itoa(retryAfter) + " seconds.",
				"retryAfter": retryAfter,
			},
		})
	}
}

// Allow counts one request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	_, _, ok := rl.take(key)
	return ok
}

// Close stops the sweeper. The limiter keeps working without it.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, w := range rl.windows {
				if now.After(w.resetAt) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// KeyByIP limits per client IP.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// KeyByUserID limits per viewer, using the same normalization as the
// handlers. Signed-out viewers and malformed ids fall back to the IP.
func KeyByUserID(c fiber.Ctx) string {
	if uid, errMsg := ValidateUserID(c.Get("X-User-ID")); uid != "" && errMsg == "" {
		return "user:" + uid
	}
	return KeyByIP(c)
}

func perMinute(n int, key func(fiber.Ctx) string) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: n, Window: time.Minute, KeyFn: key})
}

// NewSessionRateLimiter allows 30 session opens per minute per IP.
func NewSessionRateLimiter() *RateLimiter { return perMinute(30, KeyByIP) }

// NewReactionRateLimiter allows 60 reaction toggles per minute per viewer.
func NewReactionRateLimiter() *RateLimiter { return perMinute(60, KeyByUserID) }

// NewCommentRateLimiter allows 10 comment or playlist writes per minute per viewer.
func NewCommentRateLimiter() *RateLimiter { return perMinute(10, KeyByUserID) }

// NewViewRateLimiter allows 30 view increments per minute per IP.
func NewViewRateLimiter() *RateLimiter { return perMinute(30, KeyByIP) }

// NewFeedRateLimiter allows 100 feed reads per minute per IP.
func NewFeedRateLimiter() *RateLimiter { return perMinute(100, KeyByIP) }
