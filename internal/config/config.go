// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the ETL pipeline, collector, and the
// scheduled serve mode.
type Config struct {
	DataDir       string // base data directory; raw inputs live under <DataDir>/raw
	OutputDir     string // pipeline output directory
	DuckDBPath    string // analytic engine database file; "" or ":memory:" for in-memory
	MetastorePath string // SQLite run-history path; "" disables run history
	ListenAddr    string // ops HTTP listen address (serve mode, default ":8080")
	Schedule      string // cron spec for scheduled runs (serve mode)
	LogLevel      string // log level: debug, info, warn, error (default "info")
	LogFormat     string // log format: text or json (default "text")

	// Collector settings.
	WorldBankBaseURL string        // World Bank API base URL
	WorldBankTimeout time.Duration // per-request HTTP timeout (default 30s)
	WorldBankRate    float64       // sustained requests per second (default 1)
	IndicatorsFile   string        // YAML indicator manifest; "" uses the built-in set

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// RawDir returns the directory the extract stage and collector read/write
// raw CSV files in.
func (c *Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("ETL_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.WorldBankRate <= 0 {
		return fmt.Errorf("ETL_WORLDBANK_RATE must be positive, got %v", c.WorldBankRate)
	}
	if c.WorldBankTimeout <= 0 {
		return fmt.Errorf("ETL_WORLDBANK_TIMEOUT must be positive, got %v", c.WorldBankTimeout)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults for anything unset. Malformed numeric values are collected as
// warnings and the default is kept.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DataDir:          os.Getenv("ETL_DATA_DIR"),
		OutputDir:        os.Getenv("ETL_OUTPUT_DIR"),
		DuckDBPath:       os.Getenv("ETL_DUCKDB_PATH"),
		ListenAddr:       os.Getenv("ETL_HTTP_ADDR"),
		Schedule:         os.Getenv("ETL_SCHEDULE"),
		LogLevel:         os.Getenv("ETL_LOG_LEVEL"),
		LogFormat:        os.Getenv("ETL_LOG_FORMAT"),
		WorldBankBaseURL: os.Getenv("ETL_WORLDBANK_BASE_URL"),
		IndicatorsFile:   os.Getenv("ETL_INDICATORS_FILE"),
	}

	// Metastore: an explicitly empty value disables run history, unset
	// falls back to the default path.
	if v, ok := os.LookupEnv("ETL_METASTORE_PATH"); ok {
		cfg.MetastorePath = v
	} else {
		cfg.MetastorePath = "data/etl_meta.db"
	}

	if v := os.Getenv("ETL_WORLDBANK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WorldBankTimeout = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ETL_WORLDBANK_TIMEOUT %q is not a duration, using default", v))
		}
	}
	if v := os.Getenv("ETL_WORLDBANK_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.WorldBankRate = f
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ETL_WORLDBANK_RATE %q is not a number, using default", v))
		}
	}

	// Defaults
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(cfg.DataDir, "final")
	}
	if cfg.DuckDBPath == "" {
		cfg.DuckDBPath = filepath.Join(cfg.DataDir, "infrastructure.duckdb")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 6 * * *"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.WorldBankBaseURL == "" {
		cfg.WorldBankBaseURL = "https://api.worldbank.org/v2"
	}
	if cfg.WorldBankTimeout == 0 {
		cfg.WorldBankTimeout = 30 * time.Second
	}
	if cfg.WorldBankRate == 0 {
		cfg.WorldBankRate = 1
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
