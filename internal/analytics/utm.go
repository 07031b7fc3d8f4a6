package analytics

import (
	"context"

	"gorm.io/gorm"

	"folio/internal/timeframe"
)

type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

type MediumCount struct {
	Medium string `json:"medium"`
	Count  int64  `json:"count"`
}

type CampaignCount struct {
	Campaign string `json:"campaign"`
	Count    int64  `json:"count"`
}

type UTMReport struct {
	Sources       []SourceCount   `json:"sources"`
	Mediums       []MediumCount   `json:"mediums"`
	Campaigns     []CampaignCount `json:"campaigns"`
	TotalSessions int64           `json:"totalSessions"`
}

func sessionGroup(column string) groupSpec {
	return groupSpec{
		table:      "sessions",
		column:     column,
		timeColumn: "started_at",
		skipNull:   true,
		limit:      UTMLimit,
	}
}

// GetUTM ranks campaign attribution of sessions started inside the range.
// Sessions not covered by the listed sources are reported first as
// "direct" when there are any.
func GetUTM(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (*UTMReport, error) {
	sources, err := topGroups(ctx, db, sessionGroup("utm_source"), tf)
	if err != nil {
		return nil, err
	}
	mediums, err := topGroups(ctx, db, sessionGroup("utm_medium"), tf)
	if err != nil {
		return nil, err
	}
	campaigns, err := topGroups(ctx, db, sessionGroup("utm_campaign"), tf)
	if err != nil {
		return nil, err
	}
	total, err := countInRange(ctx, db, "sessions", "started_at", tf, "")
	if err != nil {
		return nil, err
	}

	report := &UTMReport{
		Sources:       make([]SourceCount, 0, len(sources)+1),
		Mediums:       make([]MediumCount, 0, len(mediums)),
		Campaigns:     make([]CampaignCount, 0, len(campaigns)),
		TotalSessions: total,
	}

	var attributed int64
	for _, g := range sources {
		attributed += g.Count
	}
	if direct := total - attributed; direct > 0 {
		report.Sources = append(report.Sources, SourceCount{Source: DirectSource, Count: direct})
	}
	for _, g := range sources {
		report.Sources = append(report.Sources, SourceCount{Source: g.Value, Count: g.Count})
	}
	for _, g := range mediums {
		report.Mediums = append(report.Mediums, MediumCount{Medium: g.Value, Count: g.Count})
	}
	for _, g := range campaigns {
		report.Campaigns = append(report.Campaigns, CampaignCount{Campaign: g.Value, Count: g.Count})
	}
	return report, nil
}
