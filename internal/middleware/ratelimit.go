package middleware

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 10 * time.Minute
	limiterIdleAfter  = 30 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per IP with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		limit:     rate.Limit(float64(perMinute) / 60),
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > limiterSweepEvery {
		removed := 0
		for id, client := range rl.clients {
			if now.Sub(client.lastSeen) > limiterIdleAfter {
				delete(rl.clients, id)
				removed++
			}
		}
		rl.lastSweep = now
		if removed > 0 {
			log.Printf("🧹 Rate limiter dropped %d idle clients", removed)
		}
	}

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

// Limit returns the Fiber handler. A nil limiter lets every request through.
func (rl *RateLimiter) Limit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl == nil || rl.allow(c.IP()) {
			return c.Next()
		}
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"message": "Too many attempts. Please try again later.",
		})
	}
}
