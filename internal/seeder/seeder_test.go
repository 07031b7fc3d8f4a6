package seeder_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/analytics"
	"folio/internal/models"
	"folio/internal/seeder"
	"folio/internal/testsupport"
	"folio/internal/timeframe"
)

func TestSeederPopulatesDashboard(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Date(2024, 7, 31, 12, 0, 0, 0, time.UTC)
	s := seeder.NewSeeder(db, logger, 20)
	s.Now = now
	s.Days = 7
	s.Seed = 42

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Failed)
	assert.Positive(t, summary.PageViews)

	var visitors, pageViews int64
	require.NoError(t, db.Model(&models.Visitor{}).Count(&visitors).Error)
	require.NoError(t, db.Model(&models.PageView{}).Count(&pageViews).Error)
	assert.Equal(t, int64(20), visitors)
	assert.Equal(t, int64(summary.PageViews), pageViews)

	overview, err := analytics.GetOverview(context.Background(), db, timeframe.Range30Days.Window(now))
	require.NoError(t, err)
	assert.Equal(t, int64(summary.PageViews), overview.TotalPageViews)
	assert.NotEmpty(t, overview.DailyViews)
}

func TestSeederHonoursCancellation(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seeder.NewSeeder(dbManager.GetConnection(), logger, 5).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
