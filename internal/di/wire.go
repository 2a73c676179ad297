package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/config"
	"github.com/aristath/satellite/internal/domain"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Storage backend
// 2. Services
// 3. Default records when SEED_DEFAULTS is on
// 4. Jobs
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container := &Container{
		Config: cfg,
		Clock:  domain.SystemClock{},
	}

	if err := InitializeRepository(container, cfg, log); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	if err := InitializeServices(ctx, container, cfg, log); err != nil {
		_ = container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if cfg.SeedDefaults {
		result, err := container.PortfolioService.Initialize(ctx)
		if err != nil {
			_ = container.Close()
			return nil, nil, fmt.Errorf("failed to seed defaults: %w", err)
		}
		log.Info().
			Bool("settings_created", result.SettingsCreated).
			Bool("budget_created", result.BudgetCreated).
			Msg("Defaults checked")
	}

	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		_ = container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Str("backend", cfg.StorageBackend).Msg("Dependency injection wiring completed successfully")
	return container, jobs, nil
}
