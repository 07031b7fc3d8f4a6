package analytics

import (
	"context"

	"gorm.io/gorm"

	"folio/internal/pkg/referrers"
	"folio/internal/timeframe"
)

type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Name     string `json:"name"`
	Count    int64  `json:"count"`
}

type ReferrersReport struct {
	Referrers []ReferrerCount `json:"referrers"`
}

// GetReferrers ranks session referrers. Each raw referrer is reduced to its
// hostname after grouping, so distinct URLs on one host stay separate rows.
// Sessions without a referrer are reported first as "Direct".
func GetReferrers(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (*ReferrersReport, error) {
	groups, err := topGroups(ctx, db, groupSpec{
		table:      "sessions",
		column:     "referrer",
		timeColumn: "started_at",
		skipNull:   true,
		limit:      ReferrersLimit,
	}, tf)
	if err != nil {
		return nil, err
	}

	direct, err := countInRange(ctx, db, "sessions", "started_at", tf, "referrer IS NULL")
	if err != nil {
		return nil, err
	}

	report := &ReferrersReport{Referrers: make([]ReferrerCount, 0, len(groups)+1)}
	if direct > 0 {
		report.Referrers = append(report.Referrers, ReferrerCount{Referrer: DirectReferrer, Name: DirectReferrer, Count: direct})
	}
	for _, g := range groups {
		host := referrers.Hostname(g.Value)
		report.Referrers = append(report.Referrers, ReferrerCount{
			Referrer: host,
			Name:     referrers.FriendlyName(host),
			Count:    g.Count,
		})
	}
	return report, nil
}
