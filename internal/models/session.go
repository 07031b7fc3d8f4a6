package models

import (
	"time"

	"gorm.io/gorm"
)

// Session is a contiguous visit. Referrer and UTM attribution are captured
// when the session opens and never change; ExitPage follows the latest
// pageview.
type Session struct {
	ID          string     `gorm:"primaryKey;size:26"`
	VisitorID   string     `gorm:"not null;index:idx_sessions_visitor_started"`
	StartedAt   time.Time  `gorm:"not null;index:idx_sessions_visitor_started;index"`
	EndedAt     *time.Time `gorm:"index"`
	Referrer    *string
	UTMSource   *string `gorm:"column:utm_source"`
	UTMMedium   *string `gorm:"column:utm_medium"`
	UTMCampaign *string `gorm:"column:utm_campaign"`
	EntryPage   *string
	ExitPage    *string

	PageViews []PageView `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Events    []Event    `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	return nil
}
