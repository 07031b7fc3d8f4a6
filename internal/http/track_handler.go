package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"folio/internal/config"
	"folio/internal/events"
	"folio/internal/visitors"
)

// TrackAction records a pageview or custom event. The fingerprint comes
// from the body, or from the _afp cookie when the body has none.
func TrackAction(deps *Dependencies) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		req, err := events.DecodeTrackRequest(ctx.Body())
		if err != nil {
			ctx.Logger.Debug("Rejected tracking body", slog.Any("error", err))
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
		}
		if req.Fingerprint == "" {
			req.Fingerprint = ctx.Cookies(visitors.FingerprintCookie)
		}

		cfg := ctx.Config.(*config.Config)
		tracker := deps.tracker(ctx.DB(), ctx.Logger, cfg.SessionWindow())

		_, err = tracker.Track(req, events.ClientInfo{
			UserAgent: ctx.Get(fiber.HeaderUserAgent),
			IP:        clientIP(ctx.Ctx),
		})
		switch {
		case errors.Is(err, events.ErrMissingFingerprint):
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Fingerprint required"})
		case errors.Is(err, events.ErrInvalidPayload):
			ctx.Logger.Debug("Rejected tracking payload", slog.Any("error", err))
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
		case err != nil:
			ctx.Logger.Error("Failed to record tracking call",
				slog.String("type", req.Type),
				slog.Any("error", err))
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		return ctx.JSON(fiber.Map{"success": true})
	}
}
