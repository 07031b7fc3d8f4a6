package analytics

import (
	"context"
	"sync"

	"github.com/pariz/gountries"
	"gorm.io/gorm"

	"folio/internal/timeframe"
)

type CountryCount struct {
	Country string `json:"country"`
	Name    string `json:"name"`
	Count   int64  `json:"count"`
}

type GeographyReport struct {
	Countries []CountryCount `json:"countries"`
}

var (
	countryQuery     *gountries.Query
	countryQueryOnce sync.Once
)

// CountryName resolves an ISO alpha-2 or alpha-3 code to its common name.
// Other values are returned unchanged.
func CountryName(code string) string {
	countryQueryOnce.Do(func() {
		countryQuery = gountries.New()
	})
	country, err := countryQuery.FindCountryByAlpha(code)
	if err != nil {
		return code
	}
	return country.Name.Common
}

// GetGeography ranks countries of visitors first seen inside the range.
func GetGeography(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (*GeographyReport, error) {
	groups, err := topGroups(ctx, db, groupSpec{
		table:      "visitors",
		column:     "country",
		timeColumn: "first_seen_at",
		skipNull:   true,
		limit:      CountriesLimit,
	}, tf)
	if err != nil {
		return nil, err
	}

	report := &GeographyReport{Countries: make([]CountryCount, 0, len(groups))}
	for _, g := range groups {
		report.Countries = append(report.Countries, CountryCount{
			Country: g.Value,
			Name:    CountryName(g.Value),
			Count:   g.Count,
		})
	}
	return report, nil
}
