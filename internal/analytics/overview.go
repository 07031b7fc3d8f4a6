package analytics

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"folio/internal/pkg/async"
	"folio/internal/timeframe"
)

type PathViews struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

type DailyViews struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// Overview is the dashboard landing summary. UniqueVisitors counts visitors
// first seen inside the range.
type Overview struct {
	TotalPageViews     int64        `json:"totalPageViews"`
	UniqueVisitors     int64        `json:"uniqueVisitors"`
	TotalSessions      int64        `json:"totalSessions"`
	AvgPagesPerSession string       `json:"avgPagesPerSession"`
	TopPages           []PathViews  `json:"topPages"`
	DailyViews         []DailyViews `json:"dailyViews"`
}

// overviewPool bounds the concurrent sub-queries of one overview request.
var overviewPool = async.NewPool(4)

// GetOverview computes the overview sub-queries concurrently.
func GetOverview(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (*Overview, error) {
	tasks := []async.Task{
		{Name: "pageviews", Execute: func() (any, error) {
			return countInRange(ctx, db, "page_views", "viewed_at", tf, "")
		}},
		{Name: "visitors", Execute: func() (any, error) {
			return countInRange(ctx, db, "visitors", "first_seen_at", tf, "")
		}},
		{Name: "sessions", Execute: func() (any, error) {
			return countInRange(ctx, db, "sessions", "started_at", tf, "")
		}},
		{Name: "top_pages", Execute: func() (any, error) {
			return topGroups(ctx, db, groupSpec{table: "page_views", column: "path", timeColumn: "viewed_at", limit: TopPagesLimit}, tf)
		}},
		{Name: "daily", Execute: func() (any, error) {
			return dailyPageViews(ctx, db, tf)
		}},
	}

	results := overviewPool.Execute(ctx, tasks)
	for _, task := range tasks {
		r, ok := results[task.Name]
		if !ok {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("overview: %s did not complete", task.Name)
		}
		if r.Err != nil {
			return nil, fmt.Errorf("overview %s: %w", task.Name, r.Err)
		}
	}

	out := &Overview{
		TotalPageViews: results["pageviews"].Data.(int64),
		UniqueVisitors: results["visitors"].Data.(int64),
		TotalSessions:  results["sessions"].Data.(int64),
		DailyViews:     results["daily"].Data.([]DailyViews),
	}
	out.AvgPagesPerSession = pagesPerSession(out.TotalPageViews, out.TotalSessions)

	top := results["top_pages"].Data.([]groupCount)
	out.TopPages = make([]PathViews, 0, len(top))
	for _, g := range top {
		out.TopPages = append(out.TopPages, PathViews{Path: g.Value, Views: g.Count})
	}
	return out, nil
}

// pagesPerSession formats views/sessions with one decimal, or "0" when
// there are no sessions.
func pagesPerSession(views, sessions int64) string {
	if sessions == 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(views)/float64(sessions), 'f', 1, 64)
}

// dailyPageViews groups page views by UTC calendar date, oldest first.
func dailyPageViews(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) ([]DailyViews, error) {
	query := `
		SELECT DATE(viewed_at) AS date, COUNT(*) AS views
		FROM page_views
		WHERE viewed_at BETWEEN ? AND ?
		GROUP BY DATE(viewed_at)
		ORDER BY date ASC`

	results := []DailyViews{}
	if err := db.WithContext(ctx).Raw(query, tf.From.UTC(), tf.To.UTC()).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("daily page views: %w", err)
	}
	return results, nil
}
