package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/database"
	catalogrepo "github.com/Ramsey-B/fern/internal/repositories/catalog"
	"github.com/Ramsey-B/fern/pkg/catalog"
)

var errNoCatalog = errors.New("no catalog configured: set DB_HOST or CATALOG_FIXTURE_PATH, or pass --fixture")

func databaseConfig(cfg config.Config) database.Config {
	return database.Config{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}
}

func migrationConfig(cfg config.Config) *database.MigrationConfig {
	return &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(max(cfg.DatabaseMigrationVersion, 0)),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	}
}

// openCatalog picks the catalog for a one-shot command: an explicit fixture,
// then Postgres, then the configured fixture
func openCatalog(ctx context.Context, cfg config.Config, fixture string, logger ectologger.Logger) (catalog.Catalog, func() error, error) {
	noop := func() error { return nil }

	if fixture == "" && cfg.DatabaseHost != "" {
		db, err := database.Connect(ctx, databaseConfig(cfg), logger)
		if err != nil {
			return nil, nil, err
		}
		return catalogrepo.NewRepository(db, logger), db.Close, nil
	}

	if fixture == "" {
		fixture = cfg.CatalogFixturePath
	}
	if fixture == "" {
		return nil, nil, errNoCatalog
	}

	mem, err := catalog.LoadFixture(fixture)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog fixture: %w", err)
	}
	return mem, noop, nil
}
