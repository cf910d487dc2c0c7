package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"infra-etl/internal/config"
	"infra-etl/internal/db"
	"infra-etl/internal/db/repository"
	"infra-etl/internal/domain"
)

// loadConfig builds the effective configuration: .env file, then environment,
// then root flag overrides.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies root-level flag values onto the config. Flags win
// over environment values.
func applyFlagOverrides(cfg *config.Config, flags *pflag.FlagSet) {
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
}

// newLogger builds the process logger from config and emits any warnings
// collected during loading.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	return logger
}

// openRunHistory opens the SQLite metastore, applies migrations, and returns
// the run repository with a close func. An empty MetastorePath disables run
// history and the returned repository is nil.
func openRunHistory(cfg *config.Config, logger *slog.Logger) (domain.RunRepository, func(), error) {
	if cfg.MetastorePath == "" {
		return nil, func() {}, nil
	}
	sqlDB, err := db.OpenMetastore(cfg.MetastorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open metastore: %w", err)
	}
	if err := db.RunMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("migrate metastore: %w", err)
	}
	closeDB := func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("close metastore", "error", err)
		}
	}
	return repository.NewRunHistoryRepo(sqlDB), closeDB, nil
}
