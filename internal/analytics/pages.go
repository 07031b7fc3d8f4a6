package analytics

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"folio/internal/timeframe"
)

type PageStats struct {
	Path           string `json:"path"`
	Views          int64  `json:"views"`
	AvgDuration    int64  `json:"avgDuration"`
	AvgScrollDepth int64  `json:"avgScrollDepth"`
}

type PagesReport struct {
	Pages []PageStats `json:"pages"`
}

type pageRow struct {
	Path           string
	Views          int64
	AvgDuration    *float64
	AvgScrollDepth *float64
}

// GetPages returns the most viewed paths with their average duration and
// scroll depth. Averages over no reported values are 0.
func GetPages(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (*PagesReport, error) {
	query := `
		SELECT
			path,
			COUNT(*) AS views,
			AVG(duration) AS avg_duration,
			AVG(scroll_depth) AS avg_scroll_depth
		FROM page_views
		WHERE viewed_at BETWEEN ? AND ?
		GROUP BY path
		ORDER BY views DESC, path ASC
		LIMIT ?`

	var rows []pageRow
	if err := db.WithContext(ctx).Raw(query, tf.From.UTC(), tf.To.UTC(), PagesLimit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("pages: %w", err)
	}

	report := &PagesReport{Pages: make([]PageStats, 0, len(rows))}
	for _, r := range rows {
		report.Pages = append(report.Pages, PageStats{
			Path:           r.Path,
			Views:          r.Views,
			AvgDuration:    roundAvg(r.AvgDuration),
			AvgScrollDepth: roundAvg(r.AvgScrollDepth),
		})
	}
	return report, nil
}

func roundAvg(v *float64) int64 {
	if v == nil {
		return 0
	}
	return int64(math.Round(*v))
}
