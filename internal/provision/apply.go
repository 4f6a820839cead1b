package provision

import (
	"context"
	"errors"
	"log/slog"

	"mobiltex-datalake/internal/catalog"
	"mobiltex-datalake/internal/domain"
)

// Applier converges the lake onto a stack definition. Every step is
// idempotent: resources that already exist are left alone, so Apply can
// run repeatedly. The Ensure hooks are nil in local mode, where buckets
// and databases have no remote counterpart.
type Applier struct {
	Registry       catalog.Registry
	EnsureBucket   func(ctx context.Context, b BucketDef) error
	EnsureDatabase func(ctx context.Context, name, description string) error
	Logger         *slog.Logger
}

// Summary reports what Apply created versus what already existed.
type Summary struct {
	BucketsEnsured []string
	TablesCreated  []string
	TablesExisting []string
}

// Apply brings the lake in line with the stack. Partial progress is kept:
// a failure on one resource aborts, but resources already ensured stay.
func (a *Applier) Apply(ctx context.Context, stack *Stack) (*Summary, error) {
	if err := stack.Validate(); err != nil {
		return nil, err
	}
	log := a.Logger
	if log == nil {
		log = slog.Default()
	}
	sum := &Summary{}

	if a.EnsureBucket != nil {
		for _, b := range stack.Buckets {
			if err := a.EnsureBucket(ctx, b); err != nil {
				return sum, err
			}
			log.Info("bucket ensured", "bucket", b.Name, "zone", b.Zone)
			sum.BucketsEnsured = append(sum.BucketsEnsured, b.Name)
		}
	}

	if a.EnsureDatabase != nil {
		if err := a.EnsureDatabase(ctx, stack.Database.Name, stack.Database.Description); err != nil {
			return sum, err
		}
		log.Info("database ensured", "database", stack.Database.Name)
	}

	for _, def := range stack.Tables {
		table, err := def.ToDomain()
		if err != nil {
			return sum, err
		}
		err = a.Registry.CreateTable(ctx, table)
		switch {
		case err == nil:
			log.Info("table created", "table", table.Name, "columns", len(table.Columns))
			sum.TablesCreated = append(sum.TablesCreated, table.Name)
		case errors.As(err, new(*domain.ConflictError)):
			log.Info("table already exists", "table", table.Name)
			sum.TablesExisting = append(sum.TablesExisting, table.Name)
		default:
			return sum, err
		}
	}
	return sum, nil
}
