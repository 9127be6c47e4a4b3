package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ValidateConfig holds configuration for the validate command.
type ValidateConfig struct {
	Snapshot     string
	PGDSN        string
	PGSnapshotID string
	LogLevel     string
}

// LoadValidate merges config file, environment variables, and flags into ValidateConfig.
func LoadValidate(cfgFile string, flags *pflag.FlagSet) (ValidateConfig, error) {
	v := viper.New()
	v.SetDefault("pg-snapshot-id", "latest")
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return ValidateConfig{}, err
	}

	cfg := ValidateConfig{
		Snapshot:     v.GetString("snapshot"),
		PGDSN:        v.GetString("pg-dsn"),
		PGSnapshotID: v.GetString("pg-snapshot-id"),
		LogLevel:     v.GetString("log-level"),
	}
	if err := validateSource(cfg.Snapshot, cfg.PGDSN); err != nil {
		return ValidateConfig{}, err
	}
	return cfg, nil
}
