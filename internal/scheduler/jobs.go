package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/database"
	"github.com/aristath/satellite/internal/modules/dailycheck"
	"github.com/aristath/satellite/internal/reliability"
)

const defaultJobTimeout = 2 * time.Minute

// DailyCheckRunner runs the scheduled formation check
type DailyCheckRunner interface {
	RunScheduled(ctx context.Context) (*dailycheck.Result, error)
}

// ErrorReporter publishes job failures to listeners
type ErrorReporter interface {
	EmitError(module string, err error, context map[string]interface{})
}

// DailyFormationCheckJob records the day's formation usage
type DailyFormationCheckJob struct {
	runner   DailyCheckRunner
	reporter ErrorReporter
	timeout  time.Duration
	log      zerolog.Logger
}

// NewDailyFormationCheckJob creates a new daily formation check job
func NewDailyFormationCheckJob(runner DailyCheckRunner, log zerolog.Logger) *DailyFormationCheckJob {
	return &DailyFormationCheckJob{
		runner:  runner,
		timeout: defaultJobTimeout,
		log:     log.With().Str("job", "daily_formation_check").Logger(),
	}
}

// SetErrorReporter publishes failed runs through r
func (j *DailyFormationCheckJob) SetErrorReporter(r ErrorReporter) {
	j.reporter = r
}

// Name returns the job name
func (j *DailyFormationCheckJob) Name() string {
	return "daily_formation_check"
}

// Run executes the daily check
func (j *DailyFormationCheckJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.runner.RunScheduled(ctx)
	if err != nil {
		if j.reporter != nil {
			j.reporter.EmitError("scheduler", err, map[string]interface{}{"job": j.Name()})
		}
		return err
	}

	if result.Skipped {
		j.log.Info().Str("reason", result.SkipReason).Msg("Daily formation check skipped")
		return nil
	}
	j.log.Info().
		Str("formation_id", result.CurrentFormationID).
		Bool("has_changed", result.HasChanged).
		Msg("Daily formation check completed")
	return nil
}

// BackupRunner creates database backups
type BackupRunner interface {
	CreateBackup(ctx context.Context) (*reliability.BackupResult, error)
}

// BackupJob snapshots the database
type BackupJob struct {
	runner  BackupRunner
	timeout time.Duration
}

// NewBackupJob creates a new backup job
func NewBackupJob(runner BackupRunner) *BackupJob {
	return &BackupJob{runner: runner, timeout: 10 * time.Minute}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "database_backup"
}

// Run executes the backup
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.runner.CreateBackup(ctx)
	return err
}

// CheckWALCheckpointJob monitors and passively checkpoints the WAL
type CheckWALCheckpointJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCheckWALCheckpointJob creates a new WAL checkpoint job
func NewCheckWALCheckpointJob(db *database.DB, log zerolog.Logger) *CheckWALCheckpointJob {
	return &CheckWALCheckpointJob{
		db:  db,
		log: log.With().Str("job", "check_wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *CheckWALCheckpointJob) Name() string {
	return "check_wal_checkpoint"
}

// Run executes the checkpoint check. Failures are logged, not returned.
func (j *CheckWALCheckpointJob) Run() error {
	if j.db == nil {
		return nil
	}

	// busy, frames in WAL, frames checkpointed
	var busy, frames, checkpointed int
	err := j.db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("Failed to check WAL checkpoint")
		return nil
	}

	if frames > 1000 {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, checkpoint may be needed")
	} else {
		j.log.Debug().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Msg("WAL checkpoint status OK")
	}
	return nil
}
