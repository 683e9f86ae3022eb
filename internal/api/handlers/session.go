package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/paces/backend/internal/dashboard"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "paces_session"
)

// sessionID reads the session id from the header, falling back to the cookie.
func sessionID(c *fiber.Ctx) string {
	if id := c.Get(SessionHeader); id != "" {
		return id
	}
	return c.Cookies(SessionCookie)
}

// resolveSession returns the caller's session, creating one when the id is unknown
// or expired, and echoes its id back in the header and the cookie.
func resolveSession(c *fiber.Ctx, store *dashboard.SessionStore) *dashboard.Session {
	s := store.GetOrCreate(sessionID(c))

	c.Set(SessionHeader, s.ID)
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    s.ID,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	return s
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
