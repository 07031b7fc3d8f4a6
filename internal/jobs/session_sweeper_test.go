package jobs_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/config"
	"folio/internal/jobs"
	"folio/internal/models"
	"folio/internal/testsupport"
)

func TestSessionSweeperClosesExpiredSessions(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	visitor := testsupport.CreateTestVisitor(t, db, "fp-sweeper", now.Add(-2*time.Hour))
	stale := testsupport.CreateTestSession(t, db, visitor, now.Add(-time.Hour))
	active := testsupport.CreateTestSession(t, db, visitor, now.Add(-5*time.Minute))

	job := jobs.NewSessionSweeperJob(dbManager, logger, 30*time.Minute)
	assert.Equal(t, "session_sweeper", job.Name())
	require.NoError(t, job.Run(context.Background()))

	var got models.Session
	require.NoError(t, db.First(&got, "id = ?", stale.ID).Error)
	require.NotNil(t, got.EndedAt)
	assert.WithinDuration(t, stale.StartedAt.Add(30*time.Minute), *got.EndedAt, time.Second)

	var open models.Session
	require.NoError(t, db.First(&open, "id = ?", active.ID).Error)
	assert.Nil(t, open.EndedAt)
}

func TestSessionSweeperLogsOncePerSweep(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	now := time.Now().UTC()
	visitor := testsupport.CreateTestVisitor(t, db, "fp-sweeper-log", now.Add(-3*time.Hour))
	testsupport.CreateTestSession(t, db, visitor, now.Add(-2*time.Hour))

	job := jobs.NewSessionSweeperJob(dbManager, logger, 30*time.Minute)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1, strings.Count(buf.String(), "Closed expired sessions"))
}

func TestSessionSweeperStopsWhenCancelled(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	job := jobs.NewSessionSweeperJob(dbManager, logger, 30*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, job.Run(ctx), context.Canceled)
}

func TestNewJobsRegistersSchedules(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	cfg := &config.Config{SweepSchedule: "@every 5m", SessionTimeoutSeconds: 1800, GeoLiteSchedule: "@weekly"}
	s, err := jobs.NewJobs(cfg, dbManager, logger)
	require.NoError(t, err)
	assert.False(t, s.IsRunning())

	cfg.SweepSchedule = "sometimes"
	_, err = jobs.NewJobs(cfg, dbManager, logger)
	assert.Error(t, err)
}
