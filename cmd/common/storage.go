package common

import (
	"context"
	"fmt"

	"github.com/oshoup521/NewsHub/internal/database"
	"github.com/oshoup521/NewsHub/internal/logger"
)

// OpenStore applies pending migrations when auto_migrate is on, then opens
// the article store. The returned func closes the connection.
func OpenStore(ctx context.Context, deps *CommandDeps) (*database.Store, func(), error) {
	dbCfg := deps.Config.Database

	if dbCfg.AutoMigrate {
		if err := database.RunMigrations(dbCfg, deps.Logger); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	db, err := database.Open(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	closeFn := func() {
		if closeErr := db.Close(); closeErr != nil {
			deps.Logger.Warn("Failed to close database", logger.Error(closeErr))
		}
	}

	return database.NewStore(db), closeFn, nil
}
