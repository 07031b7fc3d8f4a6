package analytics

import (
	"context"

	"gorm.io/gorm"

	"folio/internal/timeframe"
)

type EventCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type EventsReport struct {
	Events []EventCount `json:"events"`
}

// GetEvents ranks custom event names recorded inside the range.
func GetEvents(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (*EventsReport, error) {
	groups, err := topGroups(ctx, db, groupSpec{
		table:      "events",
		column:     "name",
		timeColumn: "created_at",
		limit:      EventsLimit,
	}, tf)
	if err != nil {
		return nil, err
	}

	report := &EventsReport{Events: make([]EventCount, 0, len(groups))}
	for _, g := range groups {
		report.Events = append(report.Events, EventCount{Name: g.Value, Count: g.Count})
	}
	return report, nil
}
