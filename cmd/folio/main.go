// main.go - analytics server
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio/internal"
	"folio/internal/config"
	"folio/internal/pkg/geoip"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

func main() {
	cfg := config.GetConfig()
	for _, warning := range configWarnings(cfg) {
		log.Printf("Warning: %s", warning)
	}

	app, err := internal.NewAppWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Open the GeoLite2 reader now so the first tracking call does not pay for it.
	if geoip.GetGeoDB() == nil {
		log.Printf("GeoLite2 database not loaded from %q, visitor locations come from the collector only", cfg.GeoDBPath)
	}

	if err := app.StartAsync(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
	log.Printf("%s listening on :%s (%s)", cfg.AppName, cfg.AppPort, cfg.Environment)

	os.Exit(waitForShutdownSignal(app))
}

// configWarnings lists settings that leave part of the service inert.
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.AnalyticsPassword == "" {
		warnings = append(warnings, "ANALYTICS_PASSWORD is not set, the dashboard is locked")
	}
	if cfg.NotifyTo == "" || (cfg.SMTPHost == "" && cfg.ResendAPIKey == "") {
		warnings = append(warnings, "no notification transport configured, LinkedIn visit alerts are only logged")
	}
	if cfg.IsProduction() && cfg.AllowedOrigins == "*" {
		warnings = append(warnings, "FOLIO_ALLOWED_ORIGINS is *, the track endpoint accepts any origin")
	}
	return warnings
}

// waitForShutdownSignal blocks until a termination signal, then drains the
// server and background jobs and releases the GeoLite2 reader. It returns
// the process exit code.
func waitForShutdownSignal(app *internal.Application) int {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	code := 0
	if err := app.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
		code = 1
	}
	geoip.Close()
	log.Println("Server shutdown complete")
	return code
}
