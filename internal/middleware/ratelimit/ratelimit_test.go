package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(rl *RateLimiter) *fiber.App {
	app := fiber.New()
	app.Use(rl.Middleware("X-Session-ID"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func status(t *testing.T, app *fiber.App, session string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestLimitsPerSession(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 2})
	defer rl.Stop()
	app := newApp(rl)

	assert.Equal(t, fiber.StatusOK, status(t, app, "a"))
	assert.Equal(t, fiber.StatusOK, status(t, app, "a"))
	assert.Equal(t, fiber.StatusTooManyRequests, status(t, app, "a"))

	assert.Equal(t, fiber.StatusOK, status(t, app, "b"), "sessions have separate buckets")
	assert.Equal(t, fiber.StatusOK, status(t, app, "b"))
	assert.Equal(t, fiber.StatusTooManyRequests, status(t, app, "a"))

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Len(t, rl.buckets, 2)
	assert.Contains(t, rl.buckets, "a")
	assert.Contains(t, rl.buckets, "b")
}

func TestRefill(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1})
	defer rl.Stop()

	now := time.Unix(1700000000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("k"))
	assert.False(t, rl.allow("k"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("k"))
}
