package reliability

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/satellite/internal/database"
)

const (
	// criticalFreeBytes halts maintenance
	criticalFreeBytes = 500 * 1024 * 1024
	// warningFreeBytes is logged
	warningFreeBytes = 2 * 1024 * 1024 * 1024

	walWarningBytes = 64 * 1024 * 1024
)

// DiskUsageFunc reports free bytes for the filesystem holding path
type DiskUsageFunc func(path string) (uint64, error)

func freeBytes(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// MaintenanceJob checks database integrity, truncates the WAL and watches
// free disk space
type MaintenanceJob struct {
	db        *database.DB
	diskUsage DiskUsageFunc
	timeout   time.Duration
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new daily maintenance job
func NewMaintenanceJob(db *database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:        db,
		diskUsage: freeBytes,
		timeout:   2 * time.Minute,
		log:       log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// SetDiskUsage replaces the free-space probe
func (j *MaintenanceJob) SetDiskUsage(fn DiskUsageFunc) {
	j.diskUsage = fn
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "daily_maintenance"
}

// Run executes the maintenance steps. Integrity and disk space failures are
// returned, WAL and statistics problems are only logged.
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().Err(err).Msg("CRITICAL: Database integrity check failed")
		return fmt.Errorf("integrity check failed: %w", err)
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.logStats()

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed")
	return nil
}

func (j *MaintenanceJob) checkDiskSpace() error {
	free, err := j.diskUsage(filepath.Dir(j.db.Path()))
	if err != nil {
		return fmt.Errorf("failed to read disk usage: %w", err)
	}

	availableGB := float64(free) / 1e9
	switch {
	case free < criticalFreeBytes:
		j.log.Error().Float64("available_gb", availableGB).Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("only %.2f GB free", availableGB)
	case free < warningFreeBytes:
		j.log.Warn().Float64("available_gb", availableGB).Msg("Low disk space")
	default:
		j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")
	}
	return nil
}

func (j *MaintenanceJob) logStats() {
	stats, err := j.db.GetStats()
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to read database stats")
		return
	}

	event := j.log.Info()
	if stats.WALSizeBytes > walWarningBytes {
		event = j.log.Warn()
	}
	event.
		Int64("size_bytes", stats.SizeBytes).
		Int64("wal_size_bytes", stats.WALSizeBytes).
		Int64("freelist_count", stats.FreelistCount).
		Msg("Database stats")
}
