package auth

import (
	"time"

	"github.com/Abraxas-365/academy/pkg/config"
	"github.com/gofiber/fiber/v2"
)

// SetTokenCookie writes the bearer token as an HTTP-only cookie.
func SetTokenCookie(c *fiber.Ctx, cookies config.CookieConfig, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     cookies.TokenName,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   cookies.Secure,
		Domain:   cookies.Domain,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

// SetSessionCookie binds the server-side session to the client.
func SetSessionCookie(c *fiber.Ctx, cookies config.CookieConfig, sess *Session) {
	c.Cookie(&fiber.Cookie{
		Name:     cookies.SessionName,
		Value:    sess.ID.String(),
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   cookies.Secure,
		Domain:   cookies.Domain,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

// ClearAuthCookies expires both transport credentials. Logout must clear
// every cookie the login path may have set.
func ClearAuthCookies(c *fiber.Ctx, cookies config.CookieConfig) {
	for _, name := range []string{cookies.TokenName, cookies.SessionName} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   cookies.Secure,
			Domain:   cookies.Domain,
			SameSite: fiber.CookieSameSiteLaxMode,
			Path:     "/",
		})
	}
}
