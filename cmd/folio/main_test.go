package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"folio/internal/config"
)

func TestConfigWarnings(t *testing.T) {
	complete := &config.Config{
		Environment:       config.Production,
		AnalyticsPassword: "secret",
		AllowedOrigins:    "https://example.com",
		NotifyTo:          "me@example.com",
		ResendAPIKey:      "re_123",
	}
	assert.Empty(t, configWarnings(complete))

	bare := &config.Config{Environment: config.Production, AllowedOrigins: "*"}
	warnings := configWarnings(bare)
	assert.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "ANALYTICS_PASSWORD")

	dev := &config.Config{Environment: config.Development, AllowedOrigins: "*", AnalyticsPassword: "x", NotifyTo: "me@example.com", SMTPHost: "smtp.example.com"}
	assert.Empty(t, configWarnings(dev))
}
