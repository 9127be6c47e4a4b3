package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolScope/internal/config"
	"poolScope/internal/snapshot"
)

func runValidate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadValidate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := loadSnapshot(ctx, logger, cfg.Snapshot, cfg.PGDSN, cfg.PGSnapshotID)
	if err != nil {
		var malformed *snapshot.MalformedError
		if errors.As(err, &malformed) {
			logger.Error("snapshot invalid", zap.String("path", malformed.Path), zap.String("reason", malformed.Reason))
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "snapshot ok: %d tokens, %d pools\n", snap.TokenCount(), snap.PoolCount())
	return nil
}
