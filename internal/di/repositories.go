package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/config"
	"github.com/aristath/satellite/internal/repository/memory"
	"github.com/aristath/satellite/internal/repository/sqlite"
)

// InitializeRepository selects the storage backend
func InitializeRepository(container *Container, cfg *config.Config, log zerolog.Logger) error {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		container.Repository = memory.NewRepository(container.Clock, log)
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
	case config.BackendSQLite, "":
		db, err := InitializeDatabase(cfg, log)
		if err != nil {
			return err
		}
		container.DB = db
		container.Repository = sqlite.NewRepository(db.Conn(), container.Clock, log)
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	return nil
}
