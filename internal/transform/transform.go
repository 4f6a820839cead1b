// Package transform implements the raw-to-curated job: CSV objects in the
// raw zone become Parquet datasets at each table's registered location.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mobiltex-datalake/internal/catalog"
	"mobiltex-datalake/internal/columnar"
	"mobiltex-datalake/internal/csvio"
	"mobiltex-datalake/internal/domain"
	"mobiltex-datalake/internal/storage"
)

// Job converts raw CSV drops into curated Parquet. One Run processes every
// registered table; a per-table failure is logged and the job moves on to
// the next table, reporting the combined error at the end.
type Job struct {
	registry catalog.Registry
	raw      storage.ObjectStore
	writer   *columnar.Writer
	logger   *slog.Logger
	now      func() time.Time
}

// New returns a Job reading from the raw store and writing to curated.
func New(registry catalog.Registry, raw, curated storage.ObjectStore, logger *slog.Logger, now func() time.Time) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Job{
		registry: registry,
		raw:      raw,
		writer:   columnar.NewWriter(curated),
		logger:   logger,
		now:      now,
	}
}

// Result summarises a job run.
type Result struct {
	RunID  string
	Tables map[string]int // table -> rows written
}

// Run processes every registered table. Raw inputs are expected at
// raw/<table>/ in the raw zone.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()
	logger := j.logger.With("run_id", runID)
	logger.Info("transform job starting")

	tables, err := j.registry.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Tables: map[string]int{}}
	var errs []error
	for i := range tables {
		table := &tables[i]
		rows, err := j.processTable(ctx, table)
		if err != nil {
			logger.Error("table transform failed", "table", table.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", table.Name, err))
			continue
		}
		logger.Info("table transformed", "table", table.Name, "rows", rows)
		result.Tables[table.Name] = rows
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	logger.Info("transform job complete", "tables", len(result.Tables))
	return result, nil
}

func (j *Job) processTable(ctx context.Context, table *domain.Table) (int, error) {
	prefix := "raw/" + table.Name + "/"
	keys, err := j.raw.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, domain.ErrNotFound("no raw objects under %q", prefix)
	}

	ds := &domain.Dataset{}
	for _, key := range keys {
		data, err := j.raw.Get(ctx, key)
		if err != nil {
			return 0, err
		}
		part, err := csvio.Decode(bytes.NewReader(data), table.Columns)
		if err != nil {
			return 0, fmt.Errorf("decode %q: %w", key, err)
		}
		if err := ds.Append(part); err != nil {
			return 0, fmt.Errorf("append %q: %w", key, err)
		}
	}

	if table.HasColumn("last_updated") && ds.Column("last_updated") == nil {
		stamp := domain.TimeValue(j.now())
		ds.Columns = append(ds.Columns, *table.Column("last_updated"))
		for _, row := range ds.Rows {
			row["last_updated"] = stamp
		}
	}

	if len(table.PartitionKeys) > 0 {
		if _, err := columnar.DerivePartitions(ds, "timestamp"); err != nil {
			return 0, err
		}
	}

	summary, err := j.writer.Write(ctx, ds, table.Location, table.PartitionKeys, table.Name+".parquet")
	if err != nil {
		return 0, err
	}
	return summary.TotalRows, nil
}
