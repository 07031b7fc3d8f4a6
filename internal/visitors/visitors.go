// Package visitors identifies browsers by fingerprint and keeps one Visitor
// row per fingerprint.
package visitors

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"folio/internal/models"
)

// Attributes are the optional descriptive fields reported with an event.
type Attributes struct {
	Country string
	City    string
	Region  string
	Device  string
	Browser string
	OS      string
}

func (a Attributes) columns() map[string]string {
	return map[string]string{
		"country": a.Country,
		"city":    a.City,
		"region":  a.Region,
		"device":  a.Device,
		"browser": a.Browser,
		"os":      a.OS,
	}
}

// Upsert records activity for fingerprint. A new visitor starts with
// first_seen_at == last_seen_at == now. An existing visitor gets
// last_seen_at = now and only the attributes that carry a non-empty value
// overwrite what is stored.
func Upsert(db *gorm.DB, logger *slog.Logger, fingerprint string, attrs Attributes, now time.Time) (*models.Visitor, error) {
	now = now.UTC()

	visitor := models.Visitor{
		Fingerprint: fingerprint,
		FirstSeenAt: now,
		LastSeenAt:  now,
		Country:     models.StringPtr(attrs.Country),
		City:        models.StringPtr(attrs.City),
		Region:      models.StringPtr(attrs.Region),
		Device:      models.StringPtr(attrs.Device),
		Browser:     models.StringPtr(attrs.Browser),
		OS:          models.StringPtr(attrs.OS),
	}

	updates := map[string]any{"last_seen_at": now}
	for column, value := range attrs.columns() {
		if value != "" {
			updates[column] = value
		}
	}

	err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}},
			DoUpdates: clause.Assignments(updates),
		}).Create(&visitor).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert visitor: %w", err)
	}

	return FindByFingerprint(db, fingerprint)
}

// FindByFingerprint loads the visitor for fingerprint.
func FindByFingerprint(db *gorm.DB, fingerprint string) (*models.Visitor, error) {
	var visitor models.Visitor
	if err := db.Where("fingerprint = ?", fingerprint).First(&visitor).Error; err != nil {
		return nil, fmt.Errorf("find visitor %q: %w", fingerprint, err)
	}
	return &visitor, nil
}
