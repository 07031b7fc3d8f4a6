package http

import (
	"bytes"
	"html/template"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"folio/internal/analytics"
	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/timeframe"
	"folio/web"
)

const (
	DashboardPath = "/analytics"
	LoginPath     = "/analytics/login"
)

var (
	pages     *template.Template
	pagesErr  error
	pagesOnce sync.Once
)

func loadPages() (*template.Template, error) {
	pagesOnce.Do(func() {
		pages, pagesErr = web.Pages()
	})
	return pages, pagesErr
}

type pageData struct {
	AppName      string
	Ranges       []timeframe.Range
	DefaultRange timeframe.Range
	Metrics      []analytics.Metric
}

func renderPage(ctx *cartridge.Context, name string) error {
	tmpl, err := loadPages()
	if err != nil {
		ctx.Logger.Error("Failed to parse page templates", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	cfg := ctx.Config.(*config.Config)
	data := pageData{
		AppName:      cfg.AppName,
		Ranges:       timeframe.Ranges(),
		DefaultRange: timeframe.DefaultRange,
		Metrics:      analytics.Metrics(),
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		ctx.Logger.Error("Failed to render page", slog.String("page", name), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	ctx.Set("Cache-Control", "no-store")
	return ctx.Send(buf.Bytes())
}

// DashboardPageAction serves the dashboard shell; it loads its data from
// the data endpoint.
func DashboardPageAction(ctx *cartridge.Context) error {
	return renderPage(ctx, "dashboard")
}

// LoginPageAction serves the login form, or sends an already signed in
// visitor straight to the dashboard.
func LoginPageAction(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)
	if auth.Authorized(ctx.Cookies(auth.CookieName), cfg.AnalyticsPassword) {
		return ctx.Redirect(DashboardPath, fiber.StatusFound)
	}
	return renderPage(ctx, "login")
}
