// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/config"
	"github.com/aristath/satellite/internal/database"
	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/events"
	"github.com/aristath/satellite/internal/modules/allocation"
	"github.com/aristath/satellite/internal/modules/dailycheck"
	"github.com/aristath/satellite/internal/modules/portfolio"
	"github.com/aristath/satellite/internal/modules/usage"
	"github.com/aristath/satellite/internal/reliability"
	"github.com/aristath/satellite/internal/scheduler"
)

// Container holds all dependencies for the application.
// DB and BackupService are nil with the memory backend.
type Container struct {
	Config *config.Config
	Clock  domain.Clock

	// Storage
	DB         *database.DB
	Repository domain.Repository

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Services
	Responder         *api.Responder
	UsageTracker      *usage.Tracker
	DailyCheckService *dailycheck.Service
	PortfolioService  *portfolio.Service
	AllocationService *allocation.Service
	BackupService     *reliability.BackupService

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered background jobs.
// Database jobs are nil with the memory backend.
type JobInstances struct {
	DailyCheck  scheduler.Job
	Backup      scheduler.Job
	Maintenance scheduler.Job
	WALCheck    scheduler.Job
}

// Close stops the scheduler and closes the database
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
