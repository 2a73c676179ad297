package di

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/satellite/internal/config"
	"github.com/aristath/satellite/internal/domain"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:             t.TempDir(),
		Port:                8080,
		StorageBackend:      backend,
		SeedDefaults:        true,
		DailyCheckSchedule:  "0 0 5 * * *",
		BackupSchedule:      "0 30 3 * * *",
		MaintenanceSchedule: "0 0 2 * * *",
		WALCheckSchedule:    "",
		BackupRetentionDays: 30,
	}
}

func TestWire_SQLite(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	ctx := context.Background()

	container, jobs, err := Wire(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.DB)
	assert.NotNil(t, container.Repository)
	assert.NotNil(t, container.EventManager)
	assert.NotNil(t, container.DailyCheckService)
	assert.NotNil(t, container.PortfolioService)
	assert.NotNil(t, container.AllocationService)
	assert.NotNil(t, container.BackupService)
	assert.FileExists(t, cfg.DatabasePath())

	assert.NotNil(t, jobs.DailyCheck)
	assert.NotNil(t, jobs.Backup)
	assert.NotNil(t, jobs.Maintenance)
	assert.NotNil(t, jobs.WALCheck)

	// the WAL job exists but has no schedule
	assert.ElementsMatch(t,
		[]string{"daily_formation_check", "database_backup", "daily_maintenance"},
		container.Scheduler.Jobs())

	settings, err := container.Repository.GetSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, domain.DefaultFormationID, settings.CurrentFormationID)

	budget, err := container.Repository.GetBudget(ctx)
	require.NoError(t, err)
	require.NotNil(t, budget)
	assert.Equal(t, domain.DefaultFunds, budget.Funds)
}

func TestWire_SQLiteReopenKeepsData(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	ctx := context.Background()

	first, _, err := Wire(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	_, err = first.Repository.UpsertSettings(ctx, domain.SettingsUpdate{CurrentFormationID: stringPtr("formation-2-80-20")})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, _, err := Wire(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	settings, err := second.Repository.GetSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, "formation-2-80-20", settings.CurrentFormationID)
}

func TestWire_Memory(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.SeedDefaults = false

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.Nil(t, container.DB)
	assert.Nil(t, container.BackupService)
	assert.NotNil(t, jobs.DailyCheck)
	assert.Nil(t, jobs.Backup)
	assert.Nil(t, jobs.Maintenance)
	assert.Equal(t, []string{"daily_formation_check"}, container.Scheduler.Jobs())

	settings, err := container.Repository.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Nil(t, settings)
}

func TestWire_UnknownBackend(t *testing.T) {
	cfg := testConfig(t, "postgres")

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestWire_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.DailyCheckSchedule = "not a schedule"

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily_formation_check")
}

func stringPtr(s string) *string {
	return &s
}
