package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	app := fiber.New()
	app.Get("/login", rl.Limit(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, http.StatusOK, get(t, app, "/login", ""))
	assert.Equal(t, http.StatusOK, get(t, app, "/login", ""))
	assert.Equal(t, http.StatusTooManyRequests, get(t, app, "/login", ""))
}

func TestRateLimiterRefillsAndSweeps(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	clock := time.Now()
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"))

	clock = clock.Add(2 * time.Second)
	assert.True(t, rl.allow("1.2.3.4"))

	clock = clock.Add(time.Hour)
	rl.allow("9.9.9.9")
	assert.Len(t, rl.clients, 1)
}

func TestNilRateLimiterAllows(t *testing.T) {
	var rl *RateLimiter
	app := fiber.New()
	app.Get("/login", rl.Limit(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(t, app, "/login", ""))
	}
}
