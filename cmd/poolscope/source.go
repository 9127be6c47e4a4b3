package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"poolScope/internal/model"
	"poolScope/internal/snapshot"
	"poolScope/internal/storage/postgres"
)

// loadSnapshot reads the snapshot from a file or from Postgres.
func loadSnapshot(ctx context.Context, logger *zap.Logger, path, dsn, snapshotID string) (*model.Snapshot, error) {
	if path != "" {
		logger.Info("load snapshot", zap.String("path", path))
		return snapshot.LoadFile(path)
	}

	logger.Info("load snapshot", zap.String("pg", dsnTarget(dsn)), zap.String("snapshot_id", snapshotID))
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	doc, err := store.LoadDocument(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snapshot.FromDocument(doc)
}

// dsnTarget renders host/database of a DSN without credentials.
func dsnTarget(dsn string) string {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return "invalid-dsn"
	}
	return fmt.Sprintf("%s:%d/%s", cfg.ConnConfig.Host, cfg.ConnConfig.Port, cfg.ConnConfig.Database)
}
