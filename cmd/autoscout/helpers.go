package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/quillback/autoscout/internal/common"
	"github.com/quillback/autoscout/internal/config"
	"github.com/quillback/autoscout/internal/service"
	"github.com/quillback/autoscout/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/autoscout/autoscout.db"
	}

	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("failed to open database at %s", dbPath), err)
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// sourcesDir resolves the telemetry sources directory from config.
func sourcesDir() string {
	dir := viper.GetString("sources.dir")
	if dir == "" {
		dir = "$HOME/.local/share/autoscout/telemetry"
	}
	return config.ExpandPath(dir)
}
