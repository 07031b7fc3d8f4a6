package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultEventName is stored when a custom event arrives without a name.
const DefaultEventName = "unknown"

// Event is an immutable custom interaction.
type Event struct {
	ID         string `gorm:"primaryKey;size:26"`
	VisitorID  string `gorm:"not null;index"`
	SessionID  string `gorm:"not null;index"`
	Name       string `gorm:"not null;default:unknown;index"`
	Category   *string
	Properties datatypes.JSON
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.Name == "" {
		e.Name = DefaultEventName
	}
	return nil
}
