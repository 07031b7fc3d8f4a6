package middleware

import (
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"folio/internal/visitors"
)

// FingerprintCookieMaxAge is how long the _afp cookie lives.
const FingerprintCookieMaxAge = 365 * 24 * time.Hour

// Sections that never get the cookie: the path itself and everything below
// it. "/analytics" does not cover "/analytics-case-study".
var fingerprintSkipSections = []string{
	"/api",
	"/analytics",
	"/assets",
	"/_health",
	"/metrics",
}

// Fingerprint sets the _afp cookie on page GETs. Assets, API calls, the
// dashboard and infrastructure endpoints are left alone.
func Fingerprint(secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet || skipFingerprint(c.Path()) {
			return c.Next()
		}

		fp := visitors.Fingerprint(visitors.FingerprintInput{
			UserAgent:      c.Get(fiber.HeaderUserAgent),
			Accept:         c.Get(fiber.HeaderAccept),
			AcceptLanguage: c.Get(fiber.HeaderAcceptLanguage),
			ForwardedFor:   c.Get(fiber.HeaderXForwardedFor),
			RealIP:         c.Get("X-Real-IP"),
		})

		c.Cookie(&fiber.Cookie{
			Name:     visitors.FingerprintCookie,
			Value:    fp,
			Path:     "/",
			MaxAge:   int(FingerprintCookieMaxAge.Seconds()),
			HTTPOnly: true,
			Secure:   secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.Next()
	}
}

func skipFingerprint(p string) bool {
	for _, section := range fingerprintSkipSections {
		if p == section || strings.HasPrefix(p, section+"/") {
			return true
		}
	}
	return strings.HasPrefix(p, "/favicon") || path.Ext(p) != ""
}
