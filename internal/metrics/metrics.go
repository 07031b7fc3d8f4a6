// Package metrics exposes Prometheus collectors for ingestion, sessions,
// notifications and dashboard queries.
package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TrackedTotal counts accepted tracking calls.
	// Labels:
	//   - type: "pageview", "event"
	TrackedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_tracked_total",
			Help: "Total number of tracking calls accepted",
		},
		[]string{"type"},
	)

	// TrackRejectedTotal counts tracking calls rejected before any write.
	TrackRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_track_rejected_total",
			Help: "Total number of tracking calls rejected",
		},
		[]string{"reason"},
	)

	SessionsOpenedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_sessions_opened_total",
			Help: "Total number of sessions opened",
		},
	)

	SessionsClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_sessions_closed_total",
			Help: "Total number of sessions closed by the sweeper",
		},
	)

	// NotificationsTotal counts notification attempts.
	// Labels:
	//   - outcome: "sent", "failed", "skipped"
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_notifications_total",
			Help: "Total number of visitor notifications attempted",
		},
		[]string{"outcome"},
	)

	// DataQueryDuration measures dashboard metric computation.
	DataQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_data_query_duration_seconds",
			Help:    "Duration of dashboard metric queries",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"metric", "cache"},
	)
)

// ObserveDataQuery records how long computing metric took.
func ObserveDataQuery(metric string, cached bool, started time.Time) {
	cache := "miss"
	if cached {
		cache = "hit"
	}
	DataQueryDuration.WithLabelValues(metric, cache).Observe(time.Since(started).Seconds())
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
