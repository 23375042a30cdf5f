package main

import (
	"context"
	"fmt"
	"log"

	"bunnyfocus/internal/config"
	"bunnyfocus/internal/db"
	"bunnyfocus/internal/repo"
)

// openStore builds the profile store for cfg.StoreDriver. The returned func
// releases its resources.
func openStore(ctx context.Context, cfg config.Config) (*repo.Repo, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return repo.NewMemory(), func() {}, nil
	case config.DriverFile:
		return repo.NewFile(cfg.DataDir), func() {}, nil
	case config.DriverSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		closeFn := func() {
			if err := conn.Close(); err != nil {
				log.Printf("failed to close sqlite: %v", err)
			}
		}
		return repo.NewSQLite(conn), closeFn, nil
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect db: %w", err)
		}
		if err := db.RunMigrations(ctx, pool, db.Migrations()); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		return repo.NewPostgres(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
