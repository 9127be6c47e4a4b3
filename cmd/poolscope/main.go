package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "poolscope",
		Short:        "DEX snapshot analytics",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run analytics engines over a snapshot",
		RunE:  runPoolScope,
	}

	runCmd.Flags().String("snapshot", "", "snapshot JSON file")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN to read the snapshot from")
	runCmd.Flags().String("pg-snapshot-id", "latest", "snapshot id in Postgres, \"latest\" picks the newest")
	runCmd.Flags().StringSlice("engines", nil, "engines to run (summary, top-pool, token-coverage, scoring)")
	runCmd.Flags().String("model", "", "model artifact path; heuristic scoring when empty")
	runCmd.Flags().String("feature-schema", "", "feature schema (pool-v1, pool-v2); defaults to the backend's schema")
	runCmd.Flags().Float64("fee-denominator", 10000, "heuristic fee denominator (10000 = basis points)")
	runCmd.Flags().Float64("reserve-scale", 1000000, "heuristic reserve scale")
	runCmd.Flags().Int("top", 0, "limit ranked output to the top N pools, 0 means all")
	runCmd.Flags().Int("parallelism", 0, "max engines run concurrently, 0 or 1 means sequential")
	runCmd.Flags().String("out", "", "output path; stdout when empty")
	runCmd.Flags().String("format", "text", "output format (text, jsonl, yaml)")
	runCmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path")
	runCmd.Flags().Duration("run-timeout", 0, "abort the run after this duration, 0 means no limit")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse a snapshot and report its size",
		RunE:  runValidate,
	}

	validateCmd.Flags().String("snapshot", "", "snapshot JSON file")
	validateCmd.Flags().String("pg-dsn", "", "Postgres DSN to read the snapshot from")
	validateCmd.Flags().String("pg-snapshot-id", "latest", "snapshot id in Postgres, \"latest\" picks the newest")
	validateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(validateCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
