package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsglue "github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"mobiltex-datalake/internal/catalog"
	gluecat "mobiltex-datalake/internal/catalog/glue"
	"mobiltex-datalake/internal/catalog/metastore"
	"mobiltex-datalake/internal/config"
	"mobiltex-datalake/internal/provision"
	"mobiltex-datalake/internal/storage"
)

// appContext holds the resolved configuration and the wired dependencies
// shared by every command. It is populated once in PersistentPreRunE.
type appContext struct {
	local    bool
	dataRoot string
	envFile  string

	cfg    *config.Config
	logger *slog.Logger

	registry catalog.Registry
	raw      storage.ObjectStore
	curated  storage.ObjectStore

	// Provisioning hooks; nil in local mode where there is nothing remote
	// to create.
	ensureBucket   func(ctx context.Context, b provision.BucketDef) error
	ensureDatabase func(ctx context.Context, name, description string) error

	metaDB *sql.DB
}

// load resolves configuration and wires either the local stack (SQLite
// metastore, filesystem storage) or the AWS stack (Glue, S3).
func (a *appContext) load(cmd *cobra.Command) error {
	switch cmd.Name() {
	case "version", "help":
		return nil
	}
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	cfg.Local = a.local
	a.cfg = cfg

	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(a.logger)
	for _, w := range cfg.Warnings {
		a.logger.Warn(w)
	}

	ctx := cmd.Context()
	if a.local {
		return a.wireLocal()
	}
	return a.wireAWS(ctx)
}

func (a *appContext) wireLocal() error {
	db, err := metastore.OpenSQLite(a.cfg.MetaDBPath)
	if err != nil {
		return err
	}
	if err := metastore.RunMigrations(db); err != nil {
		db.Close()
		return err
	}
	a.metaDB = db
	a.registry = metastore.New(db)

	raw, err := storage.NewFSStore(filepath.Join(a.dataRoot, "raw"))
	if err != nil {
		return err
	}
	curated, err := storage.NewFSStore(filepath.Join(a.dataRoot, "curated"))
	if err != nil {
		return err
	}
	a.raw, a.curated = raw, curated

	if err := a.cfg.Validate(); err != nil {
		return err
	}
	a.logger.Debug("local mode", "metastore", a.cfg.MetaDBPath, "data_root", a.dataRoot)
	return nil
}

func (a *appContext) wireAWS(ctx context.Context) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.cfg.Region))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	// Resolve the account once, up front. Buckets and table locations are
	// derived from it; nothing queries identity again mid-operation.
	if a.cfg.AccountID == "" {
		out, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			return fmt.Errorf("resolve account id: %w", err)
		}
		a.cfg.AccountID = *out.Account
	}
	a.cfg.ApplyAccountDefaults()
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	glueClient := awsglue.NewFromConfig(awsCfg)
	s3Client := s3.NewFromConfig(awsCfg)

	registry := gluecat.New(glueClient, a.cfg.DatabaseName)
	a.registry = registry
	a.raw = storage.NewS3Store(s3Client, a.cfg.RawBucket)
	a.curated = storage.NewS3Store(s3Client, a.cfg.CuratedBucket)

	a.ensureBucket = func(ctx context.Context, b provision.BucketDef) error {
		return storage.NewS3Store(s3Client, b.Name).EnsureBucket(ctx, a.cfg.Region)
	}
	a.ensureDatabase = func(ctx context.Context, _, description string) error {
		return registry.EnsureDatabase(ctx, description)
	}

	a.logger.Debug("aws mode",
		"account", a.cfg.AccountID,
		"region", a.cfg.Region,
		"database", a.cfg.DatabaseName)
	return nil
}

// stackVars returns the substitution variables for the stack definition.
func (a *appContext) stackVars() map[string]string {
	return map[string]string{
		"ACCOUNT_ID":     a.cfg.AccountID,
		"RAW_BUCKET":     a.cfg.RawBucket,
		"CURATED_BUCKET": a.cfg.CuratedBucket,
		"RESULTS_BUCKET": a.cfg.ResultsBucket,
	}
}

// close releases the local metastore handle, if open.
func (a *appContext) close() {
	if a.metaDB != nil {
		_ = a.metaDB.Close()
	}
}
