package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "POOLSCOPE"

// DefaultEngines is the engine set run when none is configured.
var DefaultEngines = []string{"summary", "top-pool", "token-coverage", "scoring"}

// RunConfig holds configuration for the run command.
type RunConfig struct {
	Snapshot       string
	PGDSN          string
	PGSnapshotID   string
	Engines        []string
	ModelPath      string
	FeatureSchema  string
	FeeDenominator float64
	ReserveScale   float64
	Top            int
	Parallelism    int
	Out            string
	Format         string
	MetricsFile    string
	RunTimeout     time.Duration
	LogLevel       string
}

// LoadRun merges config file, environment variables, and flags into RunConfig.
func LoadRun(cfgFile string, flags *pflag.FlagSet) (RunConfig, error) {
	v := viper.New()
	v.SetDefault("engines", DefaultEngines)
	v.SetDefault("pg-snapshot-id", "latest")
	v.SetDefault("fee-denominator", 10000.0)
	v.SetDefault("reserve-scale", 1000000.0)
	v.SetDefault("format", "text")
	v.SetDefault("run-timeout", time.Duration(0))
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return RunConfig{}, err
	}

	cfg := RunConfig{
		Snapshot:       v.GetString("snapshot"),
		PGDSN:          v.GetString("pg-dsn"),
		PGSnapshotID:   v.GetString("pg-snapshot-id"),
		Engines:        getStringSlice(v, "engines"),
		ModelPath:      v.GetString("model"),
		FeatureSchema:  v.GetString("feature-schema"),
		FeeDenominator: v.GetFloat64("fee-denominator"),
		ReserveScale:   v.GetFloat64("reserve-scale"),
		Top:            v.GetInt("top"),
		Parallelism:    v.GetInt("parallelism"),
		Out:            v.GetString("out"),
		Format:         strings.ToLower(v.GetString("format")),
		MetricsFile:    v.GetString("metrics-file"),
		RunTimeout:     v.GetDuration("run-timeout"),
		LogLevel:       v.GetString("log-level"),
	}
	if len(cfg.Engines) == 0 {
		cfg.Engines = append([]string(nil), DefaultEngines...)
	}

	if err := cfg.validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

func (c RunConfig) validate() error {
	if err := validateSource(c.Snapshot, c.PGDSN); err != nil {
		return err
	}
	if c.Top < 0 {
		return fmt.Errorf("top must be >= 0")
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must be >= 0")
	}
	if c.RunTimeout < 0 {
		return fmt.Errorf("run-timeout must be >= 0")
	}
	if !(c.FeeDenominator > 0) {
		return fmt.Errorf("fee-denominator must be > 0")
	}
	if !(c.ReserveScale > 0) {
		return fmt.Errorf("reserve-scale must be > 0")
	}
	switch c.Format {
	case "text", "jsonl", "yaml":
	default:
		return fmt.Errorf("unknown format: %s", c.Format)
	}
	if c.Format == "jsonl" && c.Out == "" {
		return fmt.Errorf("jsonl format requires --out")
	}
	return nil
}

func validateSource(snapshot, dsn string) error {
	switch {
	case snapshot == "" && dsn == "":
		return fmt.Errorf("one of --snapshot or --pg-dsn is required")
	case snapshot != "" && dsn != "":
		return fmt.Errorf("--snapshot and --pg-dsn are mutually exclusive")
	}
	return nil
}

func readConfig(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
