package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/config"
	"github.com/aristath/satellite/internal/reliability"
	"github.com/aristath/satellite/internal/scheduler"
)

// RegisterJobs creates the background jobs and schedules those with a
// non-empty schedule. The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	container.Scheduler = scheduler.New(log)

	dailyCheck := scheduler.NewDailyFormationCheckJob(container.DailyCheckService, log)
	dailyCheck.SetErrorReporter(container.EventManager)
	jobs := &JobInstances{DailyCheck: dailyCheck}

	if container.DB != nil {
		jobs.Backup = scheduler.NewBackupJob(container.BackupService)
		jobs.Maintenance = reliability.NewMaintenanceJob(container.DB, log)
		jobs.WALCheck = scheduler.NewCheckWALCheckpointJob(container.DB, log)
	}

	entries := []struct {
		job      scheduler.Job
		schedule string
	}{
		{jobs.DailyCheck, cfg.DailyCheckSchedule},
		{jobs.Backup, cfg.BackupSchedule},
		{jobs.Maintenance, cfg.MaintenanceSchedule},
		{jobs.WALCheck, cfg.WALCheckSchedule},
	}
	for _, e := range entries {
		if e.job == nil || e.schedule == "" {
			continue
		}
		if err := container.Scheduler.AddJob(e.schedule, e.job); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", e.job.Name(), err)
		}
	}

	return jobs, nil
}
