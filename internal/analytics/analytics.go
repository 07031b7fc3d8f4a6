// Package analytics computes the dashboard metrics from the raw visitor,
// session, page view and event tables.
package analytics

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"folio/internal/timeframe"
)

// Metric names a dashboard view.
type Metric string

const (
	MetricOverview  Metric = "overview"
	MetricPages     Metric = "pages"
	MetricReferrers Metric = "referrers"
	MetricGeography Metric = "geography"
	MetricDevices   Metric = "devices"
	MetricEvents    Metric = "events"
	MetricUTM       Metric = "utm"
)

// Result limits.
const (
	TopPagesLimit     = 10
	PagesLimit        = 50
	ReferrersLimit    = 20
	CountriesLimit    = 20
	BrowsersLimit     = 10
	OSLimit           = 10
	EventsLimit       = 20
	UTMLimit          = 20
	UnknownGroupLabel = "Unknown"
	DirectReferrer    = "Direct"
	DirectSource      = "direct"
)

var ErrUnknownMetric = errors.New("invalid metric")

var computers = map[Metric]func(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (any, error){
	MetricOverview:  func(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (any, error) { return GetOverview(ctx, db, tf) },
	MetricPages:     func(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (any, error) { return GetPages(ctx, db, tf) },
	MetricReferrers: func(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (any, error) { return GetReferrers(ctx, db, tf) },
	MetricGeography: func(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (any, error) { return GetGeography(ctx, db, tf) },
	MetricDevices:   func(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (any, error) { return GetDevices(ctx, db, tf) },
	MetricEvents:    func(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (any, error) { return GetEvents(ctx, db, tf) },
	MetricUTM:       func(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (any, error) { return GetUTM(ctx, db, tf) },
}

// Metrics lists every metric in dashboard order.
func Metrics() []Metric {
	return []Metric{MetricOverview, MetricPages, MetricReferrers, MetricGeography, MetricDevices, MetricEvents, MetricUTM}
}

// ParseMetric maps a query value to a Metric. An empty value selects the
// overview.
func ParseMetric(value string) (Metric, error) {
	if value == "" {
		return MetricOverview, nil
	}
	m := Metric(value)
	if _, ok := computers[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, value)
	}
	return m, nil
}

// Compute runs metric over tf.
func Compute(ctx context.Context, db *gorm.DB, metric Metric, tf timeframe.TimeFrame) (any, error) {
	fn, ok := computers[metric]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	return fn(ctx, db, tf)
}

// groupCount is one row of a GROUP BY ... COUNT(*) query.
type groupCount struct {
	Value string
	Count int64
}

// groupSpec describes a top-N grouping over one table.
type groupSpec struct {
	table      string
	column     string // grouped expression
	timeColumn string
	skipNull   bool
	limit      int // 0 means unbounded
}

// topGroups counts rows per value inside tf, ordered by count descending
// then value ascending.
func topGroups(ctx context.Context, db *gorm.DB, spec groupSpec, tf timeframe.TimeFrame) ([]groupCount, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s AS value, COUNT(*) AS count
		FROM %[2]s
		WHERE %[3]s BETWEEN ? AND ?`, spec.column, spec.table, spec.timeColumn)
	if spec.skipNull {
		query += fmt.Sprintf(" AND %s IS NOT NULL", spec.column)
	}
	query += `
		GROUP BY value
		ORDER BY count DESC, value ASC`

	args := []any{tf.From.UTC(), tf.To.UTC()}
	if spec.limit > 0 {
		query += " LIMIT ?"
		args = append(args, spec.limit)
	}

	results := []groupCount{}
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("group %s.%s: %w", spec.table, spec.column, err)
	}
	return results, nil
}

// countInRange counts rows of table whose timeColumn falls in tf, with an
// optional extra condition.
func countInRange(ctx context.Context, db *gorm.DB, table, timeColumn string, tf timeframe.TimeFrame, extra string) (int64, error) {
	var count int64
	q := db.WithContext(ctx).Table(table).Where(timeColumn+" BETWEEN ? AND ?", tf.From.UTC(), tf.To.UTC())
	if extra != "" {
		q = q.Where(extra)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}
