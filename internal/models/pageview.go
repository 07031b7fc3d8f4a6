package models

import (
	"time"

	"gorm.io/gorm"
)

// PageView is an immutable record of a single page view.
type PageView struct {
	ID          string    `gorm:"primaryKey;size:26"`
	VisitorID   string    `gorm:"not null;index"`
	SessionID   string    `gorm:"not null;index"`
	Path        string    `gorm:"not null;index"`
	Title       *string
	ViewedAt    time.Time `gorm:"not null;index"`
	Duration    *int
	ScrollDepth *int
}

func (p *PageView) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}
