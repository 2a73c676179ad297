// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aristath/satellite/internal/utils"
)

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds application configuration
type Config struct {
	DataDir             string // Base directory for the database and backups, always absolute
	LogLevel            string
	StorageBackend      string
	DailyCheckSchedule  string // six-field cron, seconds first
	BackupSchedule      string
	MaintenanceSchedule string
	WALCheckSchedule    string
	CORSOrigins         []string
	S3                  S3Config
	Port                int
	BackupRetentionDays int // 0 keeps every backup
	LogPretty           bool
	DevMode             bool
	SeedDefaults        bool
}

// S3Config holds the optional off-site backup bucket (AWS S3 or Cloudflare R2)
type S3Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether a bucket and credentials are configured
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("SATELLITE_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	cfg := &Config{
		DataDir:             dataDir,
		Port:                getEnvAsInt("GO_PORT", 8080),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogPretty:           getEnvAsBool("LOG_PRETTY", true),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		StorageBackend:      strings.ToLower(getEnv("STORAGE_BACKEND", BackendSQLite)),
		SeedDefaults:        getEnvAsBool("SEED_DEFAULTS", true),
		DailyCheckSchedule:  getEnv("DAILY_CHECK_SCHEDULE", "0 0 5 * * *"),
		BackupSchedule:      getEnv("BACKUP_SCHEDULE", "0 30 3 * * *"),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 2 * * *"),
		WALCheckSchedule:    getEnv("WAL_CHECK_SCHEDULE", "0 */15 * * * *"),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		CORSOrigins:         getEnvAsList("CORS_ORIGINS", []string{"*"}),
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.StorageBackend == BackendSQLite {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks the configuration for values the server cannot start with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}

	switch c.StorageBackend {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendMemory, c.StorageBackend)
	}

	if c.BackupRetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedules := map[string]string{
		"DAILY_CHECK_SCHEDULE": c.DailyCheckSchedule,
		"BACKUP_SCHEDULE":      c.BackupSchedule,
		"MAINTENANCE_SCHEDULE": c.MaintenanceSchedule,
		"WAL_CHECK_SCHEDULE":   c.WALCheckSchedule,
	}
	for key, schedule := range schedules {
		if schedule == "" {
			continue
		}
		if _, err := parser.Parse(schedule); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, schedule, err)
		}
	}

	// partial S3 credentials are almost always a typo
	if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}

	return nil
}

// DatabasePath returns the SQLite database file location
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "satellite.db")
}

// BackupDir returns the local backup directory
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if items := utils.ParseCSV(os.Getenv(key)); items != nil {
		return items
	}
	return defaultValue
}
