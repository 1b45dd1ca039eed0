package database

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres migration driver
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"  // sqlite3 migration driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/oshoup521/NewsHub/internal/logger"
)

//go:embed migrations
var migrationsFS embed.FS

// ErrMigrationURL is returned when a DSN cannot be turned into a migration URL.
var ErrMigrationURL = errors.New("postgres migrations require a postgres:// URL DSN")

// RunMigrations applies all pending migrations for the configured driver.
func RunMigrations(cfg Config, log logger.Logger) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer closeMigrator(m, log)

	if upErr := m.Up(); upErr != nil {
		if errors.Is(upErr, migrate.ErrNoChange) {
			log.Debug("No pending migrations", logger.String("driver", cfg.Driver))
			return nil
		}
		return fmt.Errorf("run migrations: %w", upErr)
	}

	log.Info("Migrations applied successfully", logger.String("driver", cfg.Driver))
	return nil
}

// MigrateDown rolls back the given number of migrations (at least one).
func MigrateDown(cfg Config, steps int, log logger.Logger) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer closeMigrator(m, log)

	if steps <= 0 {
		steps = 1
	}

	if downErr := m.Steps(-steps); downErr != nil {
		if errors.Is(downErr, migrate.ErrNoChange) {
			log.Info("No migrations to roll back", logger.String("driver", cfg.Driver))
			return nil
		}
		return fmt.Errorf("roll back migrations: %w", downErr)
	}

	log.Info("Migrations rolled back",
		logger.String("driver", cfg.Driver),
		logger.Int("steps", steps),
	)
	return nil
}

// MigrationVersion returns the current schema version and dirty flag.
// A database without any applied migration reports version 0.
func MigrationVersion(cfg Config, log logger.Logger) (uint, bool, error) {
	m, err := newMigrator(cfg)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(m, log)

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get migration version: %w", err)
	}

	return version, dirty, nil
}

func newMigrator(cfg Config) (*migrate.Migrate, error) {
	cfg = cfg.WithDefaults()

	databaseURL, err := migrationURL(cfg)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(migrationsFS, "migrations/"+cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return m, nil
}

func closeMigrator(m *migrate.Migrate, log logger.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		log.Warn("Failed to close migrator",
			logger.Any("source_error", srcErr),
			logger.Any("database_error", dbErr),
		)
	}
}

// migrationURL converts a driver DSN into the URL form golang-migrate expects.
func migrationURL(cfg Config) (string, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return "sqlite3://" + cfg.DSN, nil
	case DriverPostgres:
		if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
			return cfg.DSN, nil
		}
		return "", ErrMigrationURL
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}
