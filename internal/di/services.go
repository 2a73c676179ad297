package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/config"
	"github.com/aristath/satellite/internal/events"
	"github.com/aristath/satellite/internal/modules/allocation"
	"github.com/aristath/satellite/internal/modules/dailycheck"
	"github.com/aristath/satellite/internal/modules/portfolio"
	"github.com/aristath/satellite/internal/modules/usage"
	"github.com/aristath/satellite/internal/reliability"
)

// InitializeServices creates every service on top of the repository
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)
	container.Responder = api.NewResponder(cfg.DevMode, log)

	repo := container.Repository
	container.UsageTracker = usage.NewTracker(repo, log).WithEmitter(container.EventManager)
	container.DailyCheckService = dailycheck.NewService(repo, container.UsageTracker, container.EventManager, container.Clock, log)
	container.PortfolioService = portfolio.NewService(repo, container.EventManager, container.Clock, log)
	container.AllocationService = allocation.NewService(repo, log)

	if container.DB == nil {
		return nil
	}

	var remote reliability.RemoteStore
	if cfg.S3.Enabled() {
		client, err := reliability.NewS3Client(ctx, reliability.S3Config{
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create s3 client: %w", err)
		}
		remote = client
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Off-site backups enabled")
	}

	container.BackupService = reliability.NewBackupService(
		container.DB,
		cfg.BackupDir(),
		cfg.BackupRetentionDays,
		remote,
		container.EventManager,
		log,
	)
	return nil
}
