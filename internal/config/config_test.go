package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"ACCOUNT_ID", "AWS_REGION", "DATABASE_NAME", "RAW_BUCKET",
		"CURATED_BUCKET", "RESULTS_BUCKET", "BACKUP_PREFIX", "META_DB_PATH", "DATA_DIR", "LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "mobiltex_datalake", cfg.DatabaseName)
	assert.Equal(t, "backups/", cfg.BackupPrefix)
	assert.Equal(t, "sample_data", cfg.DataDir)
	assert.NotEmpty(t, cfg.Warnings, "default region should produce a warning")
}

func TestBackupPrefixNormalised(t *testing.T) {
	t.Setenv("BACKUP_PREFIX", "snapshots")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "snapshots/", cfg.BackupPrefix)
}

func TestApplyAccountDefaults(t *testing.T) {
	cfg := &Config{AccountID: "123456789012"}
	cfg.ApplyAccountDefaults()
	assert.Equal(t, "mobiltex-datalake-raw-123456789012", cfg.RawBucket)
	assert.Equal(t, "mobiltex-datalake-curated-123456789012", cfg.CuratedBucket)
	assert.Equal(t, "mobiltex-athena-results-123456789012", cfg.ResultsBucket)

	// explicit values win
	cfg = &Config{AccountID: "123456789012", RawBucket: "custom-raw"}
	cfg.ApplyAccountDefaults()
	assert.Equal(t, "custom-raw", cfg.RawBucket)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Local: true, BackupPrefix: "backups/"}
	require.NoError(t, cfg.Validate())

	cfg = &Config{Local: false, BackupPrefix: "backups/"}
	require.Error(t, cfg.Validate(), "non-local mode requires an account id")

	cfg = &Config{Local: true, BackupPrefix: "parquet/backups/"}
	require.Error(t, cfg.Validate(), "backup prefix inside the data prefix must be rejected")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"# comment\n\nDATABASE_NAME=from_file\nLOG_LEVEL=\"debug\"\n"), 0o644))

	t.Setenv("DATABASE_NAME", "from_env")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from_env", os.Getenv("DATABASE_NAME"), "env var wins over file")
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"), "quotes stripped")

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")), "missing file is not an error")
}
