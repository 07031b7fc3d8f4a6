package middleware

import (
	"github.com/gofiber/fiber/v2"

	"folio/internal/auth"
)

// RequireAuth rejects API calls without a valid analytics_auth cookie.
// secret is read per request so a rotated password applies immediately.
func RequireAuth(secret func() string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !auth.Authorized(c.Cookies(auth.CookieName), secret()) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}

// RequireAuthPage redirects unauthenticated page requests to loginPath.
func RequireAuthPage(secret func() string, loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !auth.Authorized(c.Cookies(auth.CookieName), secret()) {
			return c.Redirect(loginPath, fiber.StatusFound)
		}
		return c.Next()
	}
}
