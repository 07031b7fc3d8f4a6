// Package seeder fills a database with plausible portfolio traffic by
// replaying generated visits through the tracking pipeline.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"gorm.io/gorm"

	"folio/internal/events"
	"folio/internal/notify"
	"folio/internal/pkg/geoip"
	"folio/internal/sessions"
	"folio/internal/timeframe"
)

// Seeder generates visits for Visitors fingerprints spread over the last
// Days days.
type Seeder struct {
	DB       *gorm.DB
	Logger   *slog.Logger
	Visitors int
	Days     int
	// Now anchors the generated history; zero means the current time.
	Now  time.Time
	Seed uint64
}

// Summary counts the tracking calls a run made.
type Summary struct {
	PageViews int
	Events    int
	Failed    int
}

func NewSeeder(db *gorm.DB, logger *slog.Logger, visitors int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{DB: db, Logger: logger, Visitors: visitors, Days: 30}
}

var journeys = [][]string{
	{"/"},
	{"/", "/projects"},
	{"/", "/projects", "/projects/folio"},
	{"/", "/about", "/contact"},
	{"/blog", "/blog/sqlite-in-production"},
	{"/", "/resume"},
	{"/projects/folio", "/projects", "/about"},
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
}

type arrival struct {
	referrer string
	source   string
	medium   string
	campaign string
}

var arrivals = []arrival{
	{},
	{},
	{referrer: "https://www.google.com/"},
	{referrer: "https://github.com/"},
	{referrer: "https://news.ycombinator.com/"},
	{referrer: "https://www.linkedin.com/", source: "ln", medium: "social", campaign: "profile"},
	{source: "ln"},
	{source: "gh", medium: "profile"},
	{referrer: "https://twitter.com/", source: "tw", medium: "social", campaign: "launch"},
}

var locations = []geoip.Location{
	{Country: "US", City: "San Francisco", Region: "California"},
	{Country: "DE", City: "Berlin", Region: "Berlin"},
	{Country: "GB", City: "London", Region: "England"},
	{Country: "ES", City: "Madrid", Region: "Madrid"},
	{Country: "IN", City: "Bengaluru", Region: "Karnataka"},
	{},
}

var goalEvents = []struct {
	name       string
	category   string
	properties map[string]any
}{
	{"resume_download", "engagement", map[string]any{"format": "pdf"}},
	{"contact_click", "conversion", map[string]any{"channel": "email"}},
	{"project_link", "outbound", map[string]any{"target": "github"}},
}

// Run replays every generated visit in chronological order per visitor.
// Alerts are never sent.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	now := s.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	days := max(s.Days, 1)
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))

	clock := &timeframe.FixedTimeProvider{}
	tracker := events.NewTracker(s.DB, s.Logger, notify.Noop{Logger: s.Logger}, sessions.DefaultWindow)
	tracker.Clock = clock
	tracker.Locate = func(string) (geoip.Location, bool) { return geoip.Location{}, false }

	var summary Summary
	start := time.Now()
	s.Logger.Info("Seeding visits", slog.Int("visitors", s.Visitors), slog.Int("days", days))

	for v := 0; v < s.Visitors; v++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		fingerprint := fmt.Sprintf("seed-%04d", v)
		ua := userAgents[rng.IntN(len(userAgents))]
		loc := locations[rng.IntN(len(locations))]

		// Visits start at least an hour apart so each opens a new session.
		visits := make([]time.Time, 1+rng.IntN(3))
		for i := range visits {
			offset := time.Duration(rng.Int64N(int64(days) * int64(24*time.Hour)))
			visits[i] = now.Add(-time.Hour - offset).Truncate(time.Hour)
		}
		slices.SortFunc(visits, func(a, b time.Time) int { return a.Compare(b) })
		visits = slices.Compact(visits)

		for _, at := range visits {
			from := arrivals[rng.IntN(len(arrivals))]
			journey := journeys[rng.IntN(len(journeys))]

			for step, path := range journey {
				clock.At = at.Add(time.Duration(step) * time.Duration(30+rng.IntN(150)) * time.Second)
				duration := 5 + rng.IntN(180)
				depth := 10 * (1 + rng.IntN(10))
				req := &events.TrackRequest{
					Type:        events.TypePageView,
					Fingerprint: fingerprint,
					Path:        path,
					Title:       "Portfolio",
					Duration:    &duration,
					ScrollDepth: &depth,
					Country:     loc.Country,
					City:        loc.City,
					Region:      loc.Region,
				}
				if step == 0 {
					req.Referrer, req.UTMSource, req.UTMMedium, req.UTMCampaign = from.referrer, from.source, from.medium, from.campaign
				}
				if _, err := tracker.Track(req, events.ClientInfo{UserAgent: ua}); err != nil {
					s.Logger.Error("Failed to record seeded pageview", slog.Any("error", err))
					summary.Failed++
					continue
				}
				summary.PageViews++
			}

			if rng.Float64() < 0.25 {
				goal := goalEvents[rng.IntN(len(goalEvents))]
				clock.At = clock.At.Add(10 * time.Second)
				req := &events.TrackRequest{
					Type:            events.TypeEvent,
					Fingerprint:     fingerprint,
					EventName:       goal.name,
					EventCategory:   goal.category,
					EventProperties: goal.properties,
				}
				if _, err := tracker.Track(req, events.ClientInfo{UserAgent: ua}); err != nil {
					s.Logger.Error("Failed to record seeded event", slog.Any("error", err))
					summary.Failed++
					continue
				}
				summary.Events++
			}
		}
	}

	s.Logger.Info("Seeding completed",
		slog.Int("pageviews", summary.PageViews),
		slog.Int("events", summary.Events),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", time.Since(start)))
	return summary, nil
}
