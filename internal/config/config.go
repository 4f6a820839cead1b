// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Bucket name templates from the original stack layout. %s is the account ID.
const (
	rawBucketPattern     = "mobiltex-datalake-raw-%s"
	curatedBucketPattern = "mobiltex-datalake-curated-%s"
	resultsBucketPattern = "mobiltex-athena-results-%s"
)

// Config holds everything the entry points need. Account and region are
// explicit values resolved once at startup, never queried mid-procedure.
type Config struct {
	AccountID string // AWS account ID; resolved via STS when unset
	Region    string // AWS region (default "us-east-1")

	DatabaseName  string // catalog database (default "mobiltex_datalake")
	RawBucket     string // raw zone bucket (derived from AccountID when unset)
	CuratedBucket string // curated zone bucket (derived from AccountID when unset)
	ResultsBucket string // query-results bucket (derived from AccountID when unset)
	BackupPrefix  string // key prefix for pre-rewrite snapshots (default "backups/")

	MetaDBPath string // SQLite metastore path for local mode
	DataDir    string // directory holding sample CSV files
	LogLevel   string // debug, info, warn, error (default "info")
	Local      bool   // use the local SQLite metastore + filesystem store

	// Warnings collects non-fatal warnings generated during loading.
	// They are logged by the caller after the logger is initialised.
	Warnings []string
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

// ApplyAccountDefaults fills in account-derived bucket names once the
// account ID is known. Explicit env overrides win.
func (c *Config) ApplyAccountDefaults() {
	if c.RawBucket == "" {
		c.RawBucket = fmt.Sprintf(rawBucketPattern, c.AccountID)
	}
	if c.CuratedBucket == "" {
		c.CuratedBucket = fmt.Sprintf(curatedBucketPattern, c.AccountID)
	}
	if c.ResultsBucket == "" {
		c.ResultsBucket = fmt.Sprintf(resultsBucketPattern, c.AccountID)
	}
}

// Validate checks fields that every entry point requires.
func (c *Config) Validate() error {
	if !c.Local && c.AccountID == "" {
		return fmt.Errorf("ACCOUNT_ID is not set and could not be resolved")
	}
	if strings.HasPrefix(c.BackupPrefix, "parquet/") {
		return fmt.Errorf("BACKUP_PREFIX %q overlaps the table data prefix", c.BackupPrefix)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// AccountID may be left empty; callers resolve it via STS before use.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		AccountID:     os.Getenv("ACCOUNT_ID"),
		Region:        os.Getenv("AWS_REGION"),
		DatabaseName:  os.Getenv("DATABASE_NAME"),
		RawBucket:     os.Getenv("RAW_BUCKET"),
		CuratedBucket: os.Getenv("CURATED_BUCKET"),
		ResultsBucket: os.Getenv("RESULTS_BUCKET"),
		BackupPrefix:  os.Getenv("BACKUP_PREFIX"),
		MetaDBPath:    os.Getenv("META_DB_PATH"),
		DataDir:       os.Getenv("DATA_DIR"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
	}

	// Defaults
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
		cfg.Warnings = append(cfg.Warnings, "AWS_REGION not set, defaulting to us-east-1")
	}
	if cfg.DatabaseName == "" {
		cfg.DatabaseName = "mobiltex_datalake"
	}
	if cfg.BackupPrefix == "" {
		cfg.BackupPrefix = "backups/"
	}
	if !strings.HasSuffix(cfg.BackupPrefix, "/") {
		cfg.BackupPrefix += "/"
	}
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "datalake_meta.sqlite"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "sample_data"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be KEY=VALUE. Comments (#) and blanks are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

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
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars take precedence over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
