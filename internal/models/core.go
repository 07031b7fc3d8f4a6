// Package models holds the persisted analytics entities shared by the
// ingestion, session and reporting packages.
package models

import (
	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// NewID returns a new sortable textual identifier.
func NewID() string {
	return ulid.Make().String()
}

// All returns every model in migration order.
func All() []any {
	return []any{
		&Visitor{},
		&Session{},
		&PageView{},
		&Event{},
	}
}

// PerformWrite executes a write transaction with retry logic for SQLite busy errors.
// This is a wrapper that delegates to cartridge's sqlite.PerformWrite implementation.
func PerformWrite(logger *slog.Logger, dbConn *gorm.DB, f func(tx *gorm.DB) error) error {
	return sqlite.PerformWrite(logger, dbConn, f)
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
