package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/config"
	"github.com/aristath/satellite/internal/database"
)

// InitializeDatabase opens the SQLite database and applies the schema
func InitializeDatabase(cfg *config.Config, log zerolog.Logger) (*database.DB, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    "satellite",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("path", db.Path()).Msg("Database initialized")
	return db, nil
}
