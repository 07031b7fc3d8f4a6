// Package events ingests pageviews and custom events and attributes them to
// visitors and sessions.
package events

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"folio/internal/metrics"
	"folio/internal/models"
	"folio/internal/notify"
	"folio/internal/pkg/geoip"
	"folio/internal/pkg/useragent"
	"folio/internal/sessions"
	"folio/internal/timeframe"
	"folio/internal/visitors"
)

// NotifySource is the utm_source whose landing pageviews trigger an alert.
const NotifySource = "ln"

// ClientInfo carries request attributes used to fill in fields the
// collector did not report.
type ClientInfo struct {
	UserAgent string
	IP        string
}

// Result describes what a tracking call recorded.
type Result struct {
	VisitorID  string
	SessionID  string
	NewSession bool
	// Notification is closed when the detached alert finishes. It is nil
	// when no alert was sent.
	Notification <-chan struct{}
}

// Tracker records tracking calls.
type Tracker struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	Notifier      notify.Notifier
	Clock         timeframe.TimeProvider
	SessionWindow time.Duration
	Locate        func(ip string) (geoip.Location, bool)
}

// NewTracker returns a Tracker with the system clock and the configured
// GeoLite2 database.
func NewTracker(db *gorm.DB, logger *slog.Logger, notifier notify.Notifier, window time.Duration) *Tracker {
	return &Tracker{
		DB:            db,
		Logger:        logger,
		Notifier:      notifier,
		Clock:         &timeframe.DefaultTimeProvider{},
		SessionWindow: window,
		Locate:        geoip.Lookup,
	}
}

// Track records one pageview or custom event:
//  1. upsert the visitor by fingerprint
//  2. resume or open a session
//  3. insert the page view (moving the session exit page) or the event
//  4. for a LinkedIn landing pageview, send a detached alert
//
// Each write is its own statement; a failure part way leaves earlier
// writes in place.
func (t *Tracker) Track(req *TrackRequest, client ClientInfo) (*Result, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		metrics.TrackRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	now := t.now()
	attrs := t.enrich(req, client)

	visitor, err := visitors.Upsert(t.DB, t.Logger, req.Fingerprint, attrs, now)
	if err != nil {
		return nil, err
	}

	session, created, err := sessions.Resolve(t.DB, t.Logger, visitor.ID, sessions.StartContext{
		Referrer:    req.Referrer,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		Path:        req.Path,
	}, now, t.SessionWindow)
	if err != nil {
		return nil, err
	}
	if created {
		metrics.SessionsOpenedTotal.Inc()
	}

	result := &Result{
		VisitorID:  visitor.ID,
		SessionID:  session.ID,
		NewSession: created,
	}

	switch req.Type {
	case TypePageView:
		if err := t.recordPageView(req, visitor.ID, session.ID, now); err != nil {
			return nil, err
		}
		if shouldNotify(req, session) {
			result.Notification = notify.Dispatch(t.notifier(), t.Logger, notify.Alert{
				Source:  models.Deref(session.UTMSource),
				Path:    req.Path,
				Device:  models.Deref(visitor.Device),
				Browser: models.Deref(visitor.Browser),
				OS:      models.Deref(visitor.OS),
				Country: models.Deref(visitor.Country),
				City:    models.Deref(visitor.City),
				At:      now,
			})
		}
	case TypeEvent:
		if err := t.recordEvent(req, visitor.ID, session.ID, now); err != nil {
			return nil, err
		}
	}

	metrics.TrackedTotal.WithLabelValues(req.Type).Inc()
	return result, nil
}

func (t *Tracker) recordPageView(req *TrackRequest, visitorID, sessionID string, now time.Time) error {
	pv := models.PageView{
		VisitorID:   visitorID,
		SessionID:   sessionID,
		Path:        req.Path,
		Title:       models.StringPtr(req.Title),
		ViewedAt:    now,
		Duration:    req.Duration,
		ScrollDepth: req.ScrollDepth,
	}
	err := models.PerformWrite(t.Logger, t.DB, func(tx *gorm.DB) error {
		return tx.Create(&pv).Error
	})
	if err != nil {
		return fmt.Errorf("insert page view: %w", err)
	}
	return sessions.SetExitPage(t.DB, t.Logger, sessionID, req.Path)
}

func (t *Tracker) recordEvent(req *TrackRequest, visitorID, sessionID string, now time.Time) error {
	ev := models.Event{
		VisitorID: visitorID,
		SessionID: sessionID,
		Name:      req.EventName,
		Category:  models.StringPtr(req.EventCategory),
		CreatedAt: now,
	}
	if len(req.EventProperties) > 0 {
		raw, err := json.Marshal(req.EventProperties)
		if err != nil {
			return fmt.Errorf("%w: event properties: %v", ErrInvalidPayload, err)
		}
		ev.Properties = datatypes.JSON(raw)
	}
	err := models.PerformWrite(t.Logger, t.DB, func(tx *gorm.DB) error {
		return tx.Create(&ev).Error
	})
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// enrich fills attributes the collector left empty from the User-Agent and
// the client address. Reported values always win.
func (t *Tracker) enrich(req *TrackRequest, client ClientInfo) visitors.Attributes {
	attrs := visitors.Attributes{
		Country: req.Country,
		City:    req.City,
		Region:  req.Region,
		Device:  req.Device,
		Browser: req.Browser,
		OS:      req.OS,
	}

	if attrs.Device == "" || attrs.Browser == "" || attrs.OS == "" {
		ua := useragent.Parse(client.UserAgent)
		attrs.Device = firstNonEmpty(attrs.Device, ua.Device)
		attrs.Browser = firstNonEmpty(attrs.Browser, ua.Browser)
		attrs.OS = firstNonEmpty(attrs.OS, ua.OS)
	}

	if attrs.Country == "" && client.IP != "" && t.Locate != nil {
		if loc, ok := t.Locate(client.IP); ok {
			attrs.Country = loc.Country
			attrs.City = firstNonEmpty(attrs.City, loc.City)
			attrs.Region = firstNonEmpty(attrs.Region, loc.Region)
		}
	}

	return attrs
}

func (t *Tracker) now() time.Time {
	if t.Clock == nil {
		return time.Now().UTC()
	}
	return t.Clock.Now().UTC()
}

func (t *Tracker) notifier() notify.Notifier {
	if t.Notifier == nil {
		return notify.Noop{Logger: t.Logger}
	}
	return t.Notifier
}

// shouldNotify is true for a pageview on the entry page of a session that
// arrived from a LinkedIn-tagged link.
func shouldNotify(req *TrackRequest, session *models.Session) bool {
	return req.Type == TypePageView &&
		models.Deref(session.UTMSource) == NotifySource &&
		req.Path == models.Deref(session.EntryPage)
}

func rejectReason(err error) string {
	if errors.Is(err, ErrMissingFingerprint) {
		return "missing_fingerprint"
	}
	return "invalid_payload"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
