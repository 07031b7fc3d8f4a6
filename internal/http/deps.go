// Package http holds the request handlers.
package http

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"folio/internal/events"
	"folio/internal/notify"
	"folio/internal/pkg/geoip"
	"folio/internal/pkg/respcache"
	"folio/internal/timeframe"
)

// Dependencies are the collaborators handlers need beyond what
// cartridge.Context carries.
type Dependencies struct {
	Notifier notify.Notifier
	Cache    respcache.Cache
	Clock    timeframe.TimeProvider
	// Locate overrides the GeoLite2 lookup when set.
	Locate func(ip string) (geoip.Location, bool)
}

func (d *Dependencies) clock() timeframe.TimeProvider {
	if d.Clock == nil {
		return &timeframe.DefaultTimeProvider{}
	}
	return d.Clock
}

func (d *Dependencies) cache() respcache.Cache {
	if d.Cache == nil {
		return respcache.Noop{}
	}
	return d.Cache
}

func (d *Dependencies) tracker(db *gorm.DB, logger *slog.Logger, window time.Duration) *events.Tracker {
	t := events.NewTracker(db, logger, d.Notifier, window)
	t.Clock = d.clock()
	if d.Locate != nil {
		t.Locate = d.Locate
	}
	return t
}
