package internal

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"folio/internal/config"
	"folio/internal/http"
	"folio/internal/http/middleware"
	"folio/internal/metrics"
	"folio/internal/notify"
	"folio/internal/pkg/respcache"
)

const (
	trackRateLimit = 120
	authRateLimit  = 10
)

// trackCORSConfig lets the collector post from the site origins. Cookies
// are only allowed with an explicit origin list.
func trackCORSConfig(cfg *config.Config) *cors.Config {
	origins := strings.TrimSpace(cfg.AllowedOrigins)
	if origins == "" {
		origins = "*"
	}
	return &cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: origins != "*",
	}
}

// DefaultDependencies builds the notifier and response cache from cfg.
func DefaultDependencies(cfg *config.Config, logger *slog.Logger) *http.Dependencies {
	return &http.Dependencies{
		Notifier: notify.New(cfg, logger),
		Cache:    respcache.New(cfg, logger),
	}
}

// MountAppRoutes mounts every route with dependencies built from the
// global configuration.
func MountAppRoutes(srv *cartridge.Server) {
	MountRoutes(srv, DefaultDependencies(config.GetConfig(), srv.GetLogger()))
}

// RouteMounter returns a mount function bound to deps.
func RouteMounter(deps *http.Dependencies) func(*cartridge.Server) {
	return func(srv *cartridge.Server) {
		MountRoutes(srv, deps)
	}
}

func MountRoutes(srv *cartridge.Server, deps *http.Dependencies) {
	cfg := config.GetConfig()
	secret := func() string { return cfg.AnalyticsPassword }

	// Rate limits only apply in production; tests and local runs hit the
	// endpoints far faster than any visitor would.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	trackRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(trackRateLimit),
		cartridgemiddleware.WithDuration(time.Minute),
	))
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(authRateLimit),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	trackConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         trackCORSConfig(cfg),
		CustomMiddleware:   []fiber.Handler{trackRateLimiter},
		EnableSecFetchSite: cartridge.Bool(false),
	}

	collectorConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         &cors.Config{AllowOrigins: "*", AllowMethods: "GET"},
		EnableSecFetchSite: cartridge.Bool(false),
	}

	authConfig := &cartridge.RouteConfig{
		CustomMiddleware:   []fiber.Handler{authRateLimiter},
		EnableSecFetchSite: cartridge.Bool(false),
	}

	dataConfig := &cartridge.RouteConfig{
		CustomMiddleware:   []fiber.Handler{middleware.RequireAuth(secret)},
		EnableSecFetchSite: cartridge.Bool(false),
	}

	dashboardConfig := &cartridge.RouteConfig{
		CustomMiddleware:   []fiber.Handler{middleware.RequireAuthPage(secret, http.LoginPath)},
		EnableSecFetchSite: cartridge.Bool(false),
	}

	pageConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
	}

	// The fingerprint cookie must be set before any page handler runs.
	srv.App().Use(middleware.Fingerprint(cfg.IsProduction()))

	// === INFRASTRUCTURE ===
	srv.Get("/_health", http.HealthIndexAction, pageConfig)
	srv.Head("/_health", http.HealthIndexAction, pageConfig)
	if !cfg.MetricsEndpointDisabled {
		srv.App().Get("/metrics", metrics.Handler())
	}

	// === TRACKING ===
	srv.Post("/api/analytics/track", http.TrackAction(deps), trackConfig)
	srv.Options("/api/analytics/track", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, trackConfig)
	srv.Get("/analytics.js", http.CollectorAction, collectorConfig)

	// === DASHBOARD ===
	srv.Post("/api/analytics/auth", http.LoginAction, authConfig)
	srv.Delete("/api/analytics/auth", http.LogoutAction, authConfig)
	srv.Get("/api/analytics/data", http.DataAction(deps), dataConfig)
	srv.Get(http.DashboardPath, http.DashboardPageAction, dashboardConfig)
	srv.Get(http.LoginPath, http.LoginPageAction, pageConfig)

	// === SITE ===
	if cfg.SiteDirectory != "" {
		if _, err := os.Stat(cfg.SiteDirectory); err != nil {
			srv.GetLogger().Warn("Site directory unavailable, not serving pages",
				slog.String("dir", cfg.SiteDirectory),
				slog.Any("error", err))
			return
		}
		srv.App().Static("/", cfg.SiteDirectory, fiber.Static{Index: "index.html"})
	}
}
