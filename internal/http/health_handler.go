package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"
)

// HealthStatus is the body of /_health.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"db_status"`
}

// HealthIndexAction reports "degraded" when the database cannot be pinged.
// It always answers 200 so load balancers keep routing tracking calls.
func HealthIndexAction(ctx *cartridge.Context) error {
	health := HealthStatus{Status: "ok", Timestamp: time.Now().UTC(), DBStatus: "ok"}

	if err := pingDatabase(ctx.DBManager.GetConnection()); err != nil {
		ctx.Logger.Error("Database health check failed", slog.Any("error", err))
		health.Status = "degraded"
		health.DBStatus = "error"
	}
	return ctx.JSON(health)
}

func pingDatabase(db *gorm.DB) error {
	if db == nil {
		return errors.New("database connection unavailable")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
