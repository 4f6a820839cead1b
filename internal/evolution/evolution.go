// Package evolution implements schema evolution for lake tables: adding a
// column to a table's on-disk data and catalog definition while keeping
// every query against the prior column set valid.
package evolution

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"mobiltex-datalake/internal/catalog"
	"mobiltex-datalake/internal/columnar"
	"mobiltex-datalake/internal/domain"
	"mobiltex-datalake/internal/storage"
)

// Request describes one column addition.
type Request struct {
	Table  string
	Column domain.Column

	// DefaultValue is assigned to every pre-existing row that has no entry
	// in Values. It is caller-supplied, never inferred; an explicit null is
	// allowed and becomes the column's value for old rows.
	DefaultValue domain.Value

	// Values optionally assigns a value per existing row, in dataset order
	// (files in key order, rows in file order). When set, its length must
	// equal the current row count.
	Values []domain.Value

	// BackupPrefix is the key prefix for the pre-rewrite snapshot. It must
	// lie outside the table's registered location so catalog-directed scans
	// can never include backup files.
	BackupPrefix string
}

// Report summarises a completed evolution.
type Report struct {
	Table           string
	SnapshotID      string
	BackupLocation  string
	RowCount        int
	FilesRewritten  int
	OriginalColumns []string
	NewColumns      []string
	ColumnAdded     bool // false when the catalog already listed the column
}

// Procedure runs schema evolution against a registry and an object store.
// It is single-actor: nothing guards against a concurrent writer to the
// same table location.
type Procedure struct {
	registry catalog.Registry
	store    storage.ObjectStore
	logger   *slog.Logger
}

// New returns a Procedure.
func New(registry catalog.Registry, store storage.ObjectStore, logger *slog.Logger) *Procedure {
	if logger == nil {
		logger = slog.Default()
	}
	return &Procedure{registry: registry, store: store, logger: logger}
}

// Run executes the evolution steps in order: read, backup, compute, rewrite,
// catalog update, verify. Any failure after the rewrite has begun surfaces
// as a PartialFailureError carrying the backup location; it must never be
// silently retried as if nothing had been written.
func (p *Procedure) Run(ctx context.Context, req Request) (*Report, error) {
	if _, err := domain.ParseColumnType(string(req.Column.Type)); err != nil {
		return nil, err
	}
	if req.Column.Name == "" {
		return nil, domain.ErrValidation("column name must not be empty")
	}
	if req.BackupPrefix == "" {
		return nil, domain.ErrValidation("backup prefix must not be empty")
	}

	// Step 1: current table definition and full dataset.
	table, err := p.registry.GetTable(ctx, req.Table)
	if err != nil {
		return nil, err
	}
	for _, pk := range table.PartitionKeys {
		if pk.Name == req.Column.Name {
			return nil, domain.ErrValidation("column %q is already a partition key of table %q", req.Column.Name, req.Table)
		}
	}

	tablePrefix, err := storage.KeyForLocation(table.Location)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(tablePrefix, "/") {
		tablePrefix += "/"
	}
	backupPrefix := req.BackupPrefix
	if !strings.HasSuffix(backupPrefix, "/") {
		backupPrefix += "/"
	}
	if strings.HasPrefix(backupPrefix, tablePrefix) || strings.HasPrefix(tablePrefix, backupPrefix) {
		return nil, domain.ErrValidation("backup prefix %q overlaps table location %q: the query engine would scan backup files", backupPrefix, tablePrefix)
	}

	reader := columnar.NewReader(p.store)
	files, err := reader.ListDataFiles(ctx, table.Location)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.ErrNotFound("table %q has no data files under %q", req.Table, table.Location)
	}

	type fileData struct {
		key string
		ds  *domain.Dataset
	}
	parts := make([]fileData, 0, len(files))
	totalRows := 0
	for _, key := range files {
		raw, err := p.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		ds, err := columnar.Decode(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		parts = append(parts, fileData{key: key, ds: ds})
		totalRows += ds.NumRows()
	}

	originalColumns := make([]string, 0, len(parts[0].ds.Columns))
	for _, c := range parts[0].ds.Columns {
		originalColumns = append(originalColumns, c.Name)
	}
	p.logger.Info("evolution: read current dataset",
		"table", req.Table,
		"files", len(parts),
		"rows", totalRows,
		"columns", originalColumns)

	if len(req.Values) > 0 && len(req.Values) != totalRows {
		return nil, domain.ErrValidation("got %d values for %d existing rows", len(req.Values), totalRows)
	}

	// Step 2: backup outside the table prefix, byte-for-byte.
	snapshotID := uuid.New().String()
	backupLocation := backupPrefix + req.Table + "/" + snapshotID + "/"
	for _, f := range parts {
		dst := backupLocation + strings.TrimPrefix(f.key, tablePrefix)
		if err := p.store.Copy(ctx, f.key, dst); err != nil {
			return nil, fmt.Errorf("backup %q: %w", f.key, err)
		}
	}
	p.logger.Info("evolution: backup complete",
		"table", req.Table,
		"snapshot", snapshotID,
		"location", backupLocation)

	// Steps 3 and 4: attach the new column and rewrite each file in place,
	// preserving the physical layout. Past this point a failure leaves the
	// data and catalog potentially inconsistent.
	dataHasColumn := parts[0].ds.Column(req.Column.Name) != nil
	rowIdx := 0
	rewritten := 0
	for _, f := range parts {
		if !dataHasColumn {
			f.ds.Columns = append(f.ds.Columns, req.Column)
			for _, row := range f.ds.Rows {
				v := req.DefaultValue
				if len(req.Values) > 0 {
					v = req.Values[rowIdx]
				}
				row[req.Column.Name] = v
				rowIdx++
			}
		}
		data, err := columnar.Encode(f.ds)
		if err != nil {
			return nil, p.partial(req, backupLocation, "write-dataset", err)
		}
		if err := p.store.Put(ctx, f.key, data); err != nil {
			return nil, p.partial(req, backupLocation, "write-dataset", err)
		}
		rewritten++
	}
	if dataHasColumn {
		p.logger.Info("evolution: data files already contain column, values preserved",
			"table", req.Table, "column", req.Column.Name)
	}

	// Step 5: idempotent catalog update. Re-fetch so no unrelated field of
	// the definition is dropped by the replace.
	fresh, err := p.registry.GetTable(ctx, req.Table)
	if err != nil {
		return nil, p.partial(req, backupLocation, "update-catalog", err)
	}
	added := fresh.WithColumn(req.Column)
	if added {
		if err := p.registry.UpdateTable(ctx, fresh); err != nil {
			return nil, p.partial(req, backupLocation, "update-catalog", err)
		}
	} else {
		p.logger.Info("evolution: catalog already lists column",
			"table", req.Table, "column", req.Column.Name)
	}

	// Step 6: verify the column is present exactly once.
	verified, err := p.registry.GetTable(ctx, req.Table)
	if err != nil {
		return nil, p.partial(req, backupLocation, "verify", err)
	}
	count := 0
	for _, c := range verified.Columns {
		if c.Name == req.Column.Name {
			count++
		}
	}
	if count != 1 {
		return nil, p.partial(req, backupLocation, "verify",
			fmt.Errorf("column %q appears %d times in the catalog definition", req.Column.Name, count))
	}

	report := &Report{
		Table:           req.Table,
		SnapshotID:      snapshotID,
		BackupLocation:  backupLocation,
		RowCount:        totalRows,
		FilesRewritten:  rewritten,
		OriginalColumns: originalColumns,
		NewColumns:      verified.ColumnNames(),
		ColumnAdded:     added,
	}
	p.logger.Info("evolution: complete",
		"table", req.Table,
		"column", req.Column.Name,
		"columns_before", len(report.OriginalColumns),
		"columns_after", len(report.NewColumns))
	return report, nil
}

func (p *Procedure) partial(req Request, backupLocation, step string, err error) error {
	p.logger.Error("evolution: partial failure: data and catalog may be inconsistent",
		"table", req.Table,
		"step", step,
		"backup", backupLocation,
		"error", err)
	return &domain.PartialFailureError{
		Table:          req.Table,
		Step:           step,
		BackupLocation: backupLocation,
		Err:            err,
	}
}
