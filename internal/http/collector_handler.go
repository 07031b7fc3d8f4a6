package http

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"folio/web"
)

// CollectorAction serves the tracking script with the track endpoint baked
// in. Responses carry a strong ETag and a one hour cache lifetime.
func CollectorAction(ctx *cartridge.Context) error {
	tmpl, err := web.Collector()
	if err != nil {
		ctx.Logger.Error("Failed to parse collector template", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"Endpoint": ctx.BaseURL() + "/api/analytics/track",
	}); err != nil {
		ctx.Logger.Error("Failed to render collector", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	content := buf.Bytes()
	etag := strongETag(content)
	if ctx.Get(fiber.HeaderIfNoneMatch) == etag {
		return ctx.Status(fiber.StatusNotModified).Send(nil)
	}

	ctx.Set(fiber.HeaderContentType, "application/javascript")
	ctx.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	ctx.Set(fiber.HeaderETag, etag)
	return ctx.Send(content)
}

func strongETag(content []byte) string {
	sum := sha256.Sum256(content)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
