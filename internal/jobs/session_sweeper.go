package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"folio/internal/metrics"
	"folio/internal/sessions"
	"folio/internal/timeframe"
)

// SessionSweeperJob closes sessions that fell outside the resolver window.
type SessionSweeperJob struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
	window    time.Duration
	clock     timeframe.TimeProvider
}

func NewSessionSweeperJob(dbManager cartridge.DBManager, logger *slog.Logger, window time.Duration) *SessionSweeperJob {
	return &SessionSweeperJob{
		dbManager: dbManager,
		logger:    logger,
		window:    window,
		clock:     &timeframe.DefaultTimeProvider{},
	}
}

func (j *SessionSweeperJob) Name() string { return "session_sweeper" }

func (j *SessionSweeperJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	closed, err := sessions.CloseExpired(j.dbManager.GetConnection(), j.logger, j.clock.Now(), j.window)
	if err != nil {
		return err
	}
	if closed > 0 {
		metrics.SessionsClosedTotal.Add(float64(closed))
	}
	return nil
}
