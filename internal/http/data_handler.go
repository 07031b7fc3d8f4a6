package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	json "github.com/goccy/go-json"
	"github.com/karloscodes/cartridge"

	"folio/internal/analytics"
	"folio/internal/metrics"
	"folio/internal/pkg/respcache"
	"folio/internal/timeframe"
)

// DataAction serves one dashboard metric over one range. Authorization is
// enforced by the route middleware.
func DataAction(deps *Dependencies) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		started := time.Now()

		metric, err := analytics.ParseMetric(ctx.Query("metric"))
		if errors.Is(err, analytics.ErrUnknownMetric) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid metric"})
		}
		rangeLabel := timeframe.ParseRange(ctx.Query("range"))

		cache := deps.cache()
		key := respcache.DataKey(string(metric), string(rangeLabel))
		reqCtx := ctx.UserContext()

		cached, hit, err := cache.Get(reqCtx, key)
		if err != nil {
			ctx.Logger.Warn("Response cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		if hit {
			metrics.ObserveDataQuery(string(metric), true, started)
			ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return ctx.Send(cached)
		}

		tf := rangeLabel.Window(deps.clock().Now())
		data, err := analytics.Compute(reqCtx, ctx.DB(), metric, tf)
		if err != nil {
			ctx.Logger.Error("Failed to compute metric",
				slog.String("metric", string(metric)),
				slog.String("range", string(rangeLabel)),
				slog.Any("error", err))
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		body, err := json.Marshal(data)
		if err != nil {
			ctx.Logger.Error("Failed to encode metric", slog.String("metric", string(metric)), slog.Any("error", err))
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}
		if err := cache.Set(reqCtx, key, body); err != nil {
			ctx.Logger.Warn("Response cache write failed", slog.String("key", key), slog.Any("error", err))
		}

		metrics.ObserveDataQuery(string(metric), false, started)
		ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return ctx.Send(body)
	}
}
