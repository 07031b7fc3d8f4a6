// Package sessions groups a visitor's activity into sessions bounded by an
// inactivity window.
package sessions

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"folio/internal/models"
)

// DefaultWindow is how far back an open session may have started and still
// be resumed.
const DefaultWindow = 30 * time.Minute

// StartContext is the attribution recorded when a new session opens. It is
// ignored when an existing session is resumed.
type StartContext struct {
	Referrer    string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	Path        string
}

// Resolve returns the visitor's most recent session that started within
// window of now and has not ended, or opens a new one seeded from start.
//
// The lookup and the insert are separate statements, so two concurrent
// first requests from the same visitor can open two sessions.
func Resolve(db *gorm.DB, logger *slog.Logger, visitorID string, start StartContext, now time.Time, window time.Duration) (*models.Session, bool, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	now = now.UTC()

	active, err := FindActive(db, visitorID, now, window)
	if err != nil {
		return nil, false, err
	}
	if active != nil {
		return active, false, nil
	}

	session := models.Session{
		VisitorID:   visitorID,
		StartedAt:   now,
		Referrer:    models.StringPtr(start.Referrer),
		UTMSource:   models.StringPtr(start.UTMSource),
		UTMMedium:   models.StringPtr(start.UTMMedium),
		UTMCampaign: models.StringPtr(start.UTMCampaign),
		EntryPage:   models.StringPtr(start.Path),
	}
	err = models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(&session).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}

	logger.Debug("Opened session",
		slog.String("session_id", session.ID),
		slog.String("visitor_id", visitorID))
	return &session, true, nil
}

// FindActive returns the newest resumable session for the visitor or nil.
func FindActive(db *gorm.DB, visitorID string, now time.Time, window time.Duration) (*models.Session, error) {
	var session models.Session
	err := db.
		Where("visitor_id = ? AND started_at >= ? AND ended_at IS NULL", visitorID, now.UTC().Add(-window)).
		Order("started_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return &session, nil
}

// SetExitPage moves the session's exit page to path.
func SetExitPage(db *gorm.DB, logger *slog.Logger, sessionID, path string) error {
	err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(&models.Session{}).
			Where("id = ?", sessionID).
			Update("exit_page", path).Error
	})
	if err != nil {
		return fmt.Errorf("update exit page: %w", err)
	}
	return nil
}

// CloseExpired stamps ended_at on open sessions that can no longer be
// resumed. ended_at is set to started_at + window, the moment the session
// stopped being resumable. Returns the number of sessions closed.
func CloseExpired(db *gorm.DB, logger *slog.Logger, now time.Time, window time.Duration) (int64, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	cutoff := now.UTC().Add(-window)

	var expired []models.Session
	if err := db.Select("id", "started_at").
		Where("ended_at IS NULL AND started_at < ?", cutoff).
		Find(&expired).Error; err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}

	var closed int64
	for _, s := range expired {
		endedAt := s.StartedAt.UTC().Add(window)
		var rows int64
		err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
			res := tx.Model(&models.Session{}).
				Where("id = ? AND ended_at IS NULL", s.ID).
				Update("ended_at", endedAt)
			rows = res.RowsAffected
			return res.Error
		})
		if err != nil {
			return closed, fmt.Errorf("close session %s: %w", s.ID, err)
		}
		closed += rows
	}

	if closed > 0 {
		logger.Info("Closed expired sessions", slog.Int64("count", closed))
	}
	return closed, nil
}
