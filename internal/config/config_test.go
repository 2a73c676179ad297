package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"SATELLITE_DATA_DIR", "GO_PORT", "LOG_LEVEL", "LOG_PRETTY", "DEV_MODE",
	"STORAGE_BACKEND", "SEED_DEFAULTS", "DAILY_CHECK_SCHEDULE", "BACKUP_SCHEDULE",
	"MAINTENANCE_SCHEDULE", "WAL_CHECK_SCHEDULE", "BACKUP_RETENTION_DAYS",
	"CORS_ORIGINS", "S3_BUCKET", "S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY_ID",
	"S3_SECRET_ACCESS_KEY",
}

// clearEnv blanks every key so a developer's .env or shell cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("SATELLITE_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.True(t, cfg.SeedDefaults)
	assert.Equal(t, "0 0 5 * * *", cfg.DailyCheckSchedule)
	assert.Equal(t, "0 30 3 * * *", cfg.BackupSchedule)
	assert.Equal(t, 30, cfg.BackupRetentionDays)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "auto", cfg.S3.Region)
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, filepath.Join(dir, "satellite.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(dir, "backups"), cfg.BackupDir())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SATELLITE_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("STORAGE_BACKEND", "MEMORY")
	t.Setenv("SEED_DEFAULTS", "false")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://satellite.example ,")
	t.Setenv("S3_BUCKET", "backups")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.False(t, cfg.SeedDefaults)
	assert.Equal(t, []string{"http://localhost:3000", "https://satellite.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SATELLITE_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "eighty")
	t.Setenv("LOG_PRETTY", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.LogPretty)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:               8080,
			StorageBackend:     BackendSQLite,
			DailyCheckSchedule: "0 0 5 * * *",
			BackupSchedule:     "@daily",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "port too high", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "GO_PORT"},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "postgres" }, wantErr: "STORAGE_BACKEND"},
		{name: "negative retention", mutate: func(c *Config) { c.BackupRetentionDays = -1 }, wantErr: "BACKUP_RETENTION_DAYS"},
		{name: "five-field cron", mutate: func(c *Config) { c.DailyCheckSchedule = "0 5 * * *" }, wantErr: "DAILY_CHECK_SCHEDULE"},
		{name: "empty schedule disables job", mutate: func(c *Config) { c.BackupSchedule = "" }},
		{name: "half s3 credentials", mutate: func(c *Config) { c.S3.AccessKeyID = "key" }, wantErr: "S3_ACCESS_KEY_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
