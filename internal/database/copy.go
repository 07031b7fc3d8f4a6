package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"folio/internal/models"
)

// DefaultBatchSize is the number of rows read and written per round trip.
const DefaultBatchSize = 500

// tableOrder lists tables parents first.
var tableOrder = []string{"visitors", "sessions", "page_views", "events"}

// Tables returns the analytics table names, parents first.
func Tables() []string {
	return append([]string(nil), tableOrder...)
}

// CopyResult holds the rows inserted per table. Rows already present in
// the target are not counted.
type CopyResult struct {
	Tables map[string]int64
}

func (r CopyResult) Total() int64 {
	var total int64
	for _, n := range r.Tables {
		total += n
	}
	return total
}

// IsPostgresDSN reports whether dsn addresses a Postgres server rather than
// a sqlite file.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// OpenStore opens a Postgres DSN or a sqlite file path.
func OpenStore(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if IsPostgresDSN(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", RedactDSN(dsn), err)
	}
	return db, nil
}

// Copy migrates the target schema and copies every table from src to dst
// in primary-key order. Existing rows in dst are left untouched, so a
// partial run can be repeated.
func Copy(ctx context.Context, src, dst *gorm.DB, batchSize int, logger *slog.Logger) (CopyResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if err := Migrate(dst); err != nil {
		return CopyResult{}, fmt.Errorf("migrate target: %w", err)
	}

	steps := []struct {
		table string
		run   func() (int64, error)
	}{
		{"visitors", func() (int64, error) { return copyTable[models.Visitor](ctx, src, dst, batchSize) }},
		{"sessions", func() (int64, error) { return copyTable[models.Session](ctx, src, dst, batchSize) }},
		{"page_views", func() (int64, error) { return copyTable[models.PageView](ctx, src, dst, batchSize) }},
		{"events", func() (int64, error) { return copyTable[models.Event](ctx, src, dst, batchSize) }},
	}

	result := CopyResult{Tables: make(map[string]int64, len(steps))}
	for _, step := range steps {
		n, err := step.run()
		if err != nil {
			return result, fmt.Errorf("copy %s: %w", step.table, err)
		}
		result.Tables[step.table] = n
		logger.Info("Copied table", slog.String("table", step.table), slog.Int64("rows", n))
	}
	return result, nil
}

func copyTable[T any](ctx context.Context, src, dst *gorm.DB, batchSize int) (int64, error) {
	var rows []T
	var copied int64

	res := src.WithContext(ctx).FindInBatches(&rows, batchSize, func(_ *gorm.DB, _ int) error {
		insert := dst.WithContext(ctx).
			Session(&gorm.Session{SkipHooks: true}).
			Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&rows)
		if insert.Error != nil {
			return insert.Error
		}
		copied += insert.RowsAffected
		return nil
	})
	return copied, res.Error
}

// RedactDSN hides the password of a URL-style DSN.
func RedactDSN(dsn string) string {
	if !IsPostgresDSN(dsn) {
		return dsn
	}
	scheme, rest, _ := strings.Cut(dsn, "://")
	creds, host, found := strings.Cut(rest, "@")
	if !found {
		return dsn
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":***@" + host
}
