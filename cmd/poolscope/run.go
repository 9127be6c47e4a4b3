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
	"poolScope/internal/engine"
	"poolScope/internal/features"
	"poolScope/internal/observability"
	"poolScope/internal/orchestrator"
	"poolScope/internal/scoring"
	"poolScope/internal/storage"
)

func runPoolScope(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRun(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sink, err := storage.New(cfg.Format, cfg.Out, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	snap, err := loadSnapshot(ctx, logger, cfg.Snapshot, cfg.PGDSN, cfg.PGSnapshotID)
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	if cfg.MetricsFile != "" {
		metrics = observability.NewMetrics("")
	}

	engines, err := buildEngines(cfg, logger, metrics)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Options{
		Parallelism: cfg.Parallelism,
		Logger:      logger,
		Metrics:     metrics,
	})
	for _, e := range engines {
		orch.AddEngine(e)
	}

	logger.Info("poolscope start",
		zap.Int("tokens", snap.TokenCount()),
		zap.Int("pools", snap.PoolCount()),
		zap.Strings("engines", orch.Engines()),
		zap.Int("parallelism", cfg.Parallelism),
		zap.String("format", cfg.Format),
		zap.String("out", cfg.Out),
	)

	result := orch.Run(ctx, snap)

	if err := sink.PutRun(storage.Records(result, cfg.Top)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	logger.Info("poolscope done",
		zap.String("run_id", result.RunID),
		zap.Int("failed", result.Failed()),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)
	return nil
}

// buildEngines registers the configured engines in order. A scoring backend
// that fails to load is replaced by an engine reporting the load error.
func buildEngines(cfg config.RunConfig, logger *zap.Logger, metrics *observability.Metrics) ([]engine.Engine, error) {
	engines := make([]engine.Engine, 0, len(cfg.Engines))
	for _, name := range cfg.Engines {
		switch name {
		case "summary":
			engines = append(engines, engine.NewSummary())
		case "top-pool":
			engines = append(engines, engine.NewTopPool())
		case "token-coverage":
			engines = append(engines, engine.NewTokenCoverage())
		case "scoring":
			e, err := buildScoring(cfg, logger, metrics)
			if err != nil {
				return nil, err
			}
			engines = append(engines, e)
		default:
			return nil, fmt.Errorf("unknown engine: %s", name)
		}
	}
	return engines, nil
}

func buildScoring(cfg config.RunConfig, logger *zap.Logger, metrics *observability.Metrics) (engine.Engine, error) {
	var backend scoring.Backend
	if cfg.ModelPath != "" {
		loaded, err := scoring.LoadModel(cfg.ModelPath)
		if err != nil {
			if !errors.Is(err, scoring.ErrBackendLoad) {
				return nil, err
			}
			logger.Warn("scoring backend unavailable", zap.String("model", cfg.ModelPath), zap.Error(err))
			return engine.NewUnavailable("scoring", err), nil
		}
		backend = loaded
	} else {
		backend = &scoring.Heuristic{
			FeeDenominator: cfg.FeeDenominator,
			ReserveScale:   cfg.ReserveScale,
		}
	}

	schema := cfg.FeatureSchema
	if schema == "" {
		schema = backend.Schema()
	}
	extractor, err := features.ForSchema(schema)
	if err != nil {
		return nil, err
	}

	logger.Debug("scoring engine",
		zap.String("backend", backend.Name()),
		zap.String("schema", extractor.Schema().Name),
	)

	return engine.NewScoring(engine.ScoringOptions{
		Extractor: extractor,
		Backend:   backend,
		Logger:    logger,
		Metrics:   metrics,
	}), nil
}
