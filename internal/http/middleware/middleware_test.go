package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/auth"
	"folio/internal/visitors"
)

func fingerprintApp(secure bool) *fiber.App {
	app := fiber.New()
	app.Use(Fingerprint(secure))
	app.Get("/*", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func afpCookie(t *testing.T, app *fiber.App, target string) string {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, target, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		if c.Name == visitors.FingerprintCookie {
			return c.Raw
		}
	}
	return ""
}

func TestFingerprintSetsCookieOnPages(t *testing.T) {
	raw := afpCookie(t, fingerprintApp(false), "/projects")
	require.NotEmpty(t, raw)

	assert.Contains(t, raw, "_afp=gtw6x4")
	assert.Contains(t, raw, "max-age=31536000")
	assert.Contains(t, raw, "HttpOnly")
	assert.Contains(t, raw, "SameSite=Lax")
	assert.NotContains(t, raw, "secure")
}

func TestFingerprintSecureInProduction(t *testing.T) {
	raw := afpCookie(t, fingerprintApp(true), "/")
	assert.Contains(t, raw, "secure")
}

func TestFingerprintSkipsNonPages(t *testing.T) {
	app := fingerprintApp(false)
	for _, target := range []string{
		"/api/analytics/track",
		"/analytics",
		"/analytics/",
		"/analytics/login",
		"/analytics.js",
		"/api",
		"/assets/app.css",
		"/favicon.ico",
		"/resume.pdf",
		"/_health",
		"/metrics",
	} {
		assert.Empty(t, afpCookie(t, app, target), target)
	}
}

func TestFingerprintOnPagesSharingAPrefix(t *testing.T) {
	app := fingerprintApp(false)
	for _, target := range []string{
		"/analytics-case-study",
		"/analyticsplatform",
		"/metrics-dashboard-project",
		"/apiary",
		"/assets-and-liabilities",
	} {
		assert.NotEmpty(t, afpCookie(t, app, target), target)
	}
}

func TestRequireAuth(t *testing.T) {
	secret := func() string { return "hunter2" }
	app := fiber.New()
	app.Get("/data", RequireAuth(secret), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/page", RequireAuthPage(secret, "/login"), func(c *fiber.Ctx) error { return c.SendString("ok") })

	tests := []struct {
		name     string
		target   string
		cookie   string
		status   int
		location string
	}{
		{"api without cookie", "/data", "", fiber.StatusUnauthorized, ""},
		{"api wrong cookie", "/data", "nope", fiber.StatusUnauthorized, ""},
		{"api valid cookie", "/data", "hunter2", fiber.StatusOK, ""},
		{"page without cookie", "/page", "", fiber.StatusFound, "/login"},
		{"page valid cookie", "/page", "hunter2", fiber.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				req.Header.Set("Cookie", auth.CookieName+"="+tt.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}
}

func TestRequireAuthWithoutSecret(t *testing.T) {
	app := fiber.New()
	app.Get("/data", RequireAuth(func() string { return "" }), func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(fiber.MethodGet, "/data", nil)
	req.Header.Set("Cookie", auth.CookieName+"=")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
