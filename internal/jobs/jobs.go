// Package jobs runs the periodic maintenance tasks of the service.
package jobs

import (
	"log/slog"

	"github.com/karloscodes/cartridge"

	"folio/internal/config"
)

// NewJobs builds the scheduler with every maintenance job registered.
func NewJobs(cfg *config.Config, dbManager cartridge.DBManager, logger *slog.Logger) (*Scheduler, error) {
	s := NewScheduler(logger)

	if err := s.Register(cfg.SweepSchedule, NewSessionSweeperJob(dbManager, logger, cfg.SessionWindow())); err != nil {
		return nil, err
	}
	if cfg.MaxMindLicenseKey != "" {
		if err := s.Register(cfg.GeoLiteSchedule, NewGeoLiteUpdaterJob(logger, cfg.MaxMindLicenseKey, cfg.GeoDBPath)); err != nil {
			return nil, err
		}
	}
	return s, nil
}
