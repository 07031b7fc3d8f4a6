package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	json "github.com/goccy/go-json"
	"github.com/karloscodes/cartridge"

	"folio/internal/auth"
	"folio/internal/config"
)

type loginRequest struct {
	Password string `json:"password"`
}

// LoginAction exchanges the shared password for the auth cookie.
func LoginAction(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)

	var req loginRequest
	if err := json.Unmarshal(ctx.Body(), &req); err != nil {
		ctx.Logger.Debug("Unreadable login body", slog.Any("error", err))
	}

	switch err := auth.CheckPassword(req.Password, cfg.AnalyticsPassword); {
	case errors.Is(err, auth.ErrNotConfigured):
		ctx.Logger.Error("ANALYTICS_PASSWORD is not set")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server misconfigured"})
	case err != nil:
		ctx.Logger.Warn("Rejected dashboard login", slog.String("ip", ctx.IP()))
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid password"})
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    req.Password,
		Path:     "/",
		MaxAge:   int(auth.CookieMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.JSON(fiber.Map{"success": true})
}

// LogoutAction expires the auth cookie.
func LogoutAction(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)
	ctx.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.JSON(fiber.Map{"success": true})
}
