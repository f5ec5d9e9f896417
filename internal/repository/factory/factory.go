// Package factory creates account repositories based on configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/atlas-accounts/internal/config"
	"github.com/prn-tf/atlas-accounts/internal/repository"
	"github.com/prn-tf/atlas-accounts/internal/repository/mongo"
	"github.com/prn-tf/atlas-accounts/internal/repository/sqlite"
)

// Result contains the created repository and its backing connection.
type Result struct {
	Accounts repository.AccountRepository
	Health   repository.Health
}

// New creates the account repository for the configured driver.
func New(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Result, error) {
	switch cfg.Driver {
	case "mongo":
		return newMongo(ctx, cfg, logger)
	case "sqlite":
		return newSQLite(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func newMongo(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Result, error) {
	mongoCfg := mongo.DefaultConfig(cfg.URI)
	if cfg.Database != "" {
		mongoCfg.Database = cfg.Database
	}
	if cfg.Collection != "" {
		mongoCfg.Collection = cfg.Collection
	}
	if cfg.ConnectTimeout > 0 {
		mongoCfg.ConnectTimeout = cfg.ConnectTimeout
	}

	db, err := mongo.NewDB(ctx, mongoCfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = db.Close(ctx)
		return nil, err
	}

	return &Result{
		Accounts: mongo.NewAccountRepository(db),
		Health:   db,
	}, nil
}

func newSQLite(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Result, error) {
	sqliteCfg := sqlite.DefaultConfig(cfg.Path)
	if cfg.JournalMode != "" {
		sqliteCfg.JournalMode = cfg.JournalMode
	}
	if cfg.BusyTimeout > 0 {
		sqliteCfg.BusyTimeout = cfg.BusyTimeout
	}
	if cfg.SynchronousMode != "" {
		sqliteCfg.SynchronousMode = cfg.SynchronousMode
	}

	db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
	if err != nil {
		return nil, err
	}

	return &Result{
		Accounts: sqlite.NewAccountRepository(db),
		Health:   db,
	}, nil
}
