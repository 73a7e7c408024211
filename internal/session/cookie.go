package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Name   string
	Secure bool
}

// SetCookie issues the session cookie.
func SetCookie(c *fiber.Ctx, opts CookieOptions, sessionID string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     opts.Name,
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   opts.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(c *fiber.Ctx, opts CookieOptions) {
	c.Cookie(&fiber.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   opts.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ID reads the session id from the request cookie.
func ID(c *fiber.Ctx, opts CookieOptions) string {
	return c.Cookies(opts.Name)
}
