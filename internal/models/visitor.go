package models

import (
	"time"

	"gorm.io/gorm"
)

// Visitor is one fingerprinted browser. Geographic and device attributes
// reflect the latest non-empty values reported.
type Visitor struct {
	ID          string    `gorm:"primaryKey;size:26"`
	Fingerprint string    `gorm:"uniqueIndex;not null"`
	FirstSeenAt time.Time `gorm:"index;not null"`
	LastSeenAt  time.Time `gorm:"not null"`
	Country     *string   `gorm:"index"`
	City        *string
	Region      *string
	Device      *string
	Browser     *string
	OS          *string `gorm:"column:os"`

	Sessions  []Session  `gorm:"foreignKey:VisitorID;constraint:OnDelete:CASCADE"`
	PageViews []PageView `gorm:"foreignKey:VisitorID;constraint:OnDelete:CASCADE"`
	Events    []Event    `gorm:"foreignKey:VisitorID;constraint:OnDelete:CASCADE"`
}

func (v *Visitor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = NewID()
	}
	return nil
}
