package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mobiltex-datalake/internal/domain"
)

// Registry is a catalog.Registry over the local SQLite metastore. Unlike
// the Glue implementation it enforces an optimistic-concurrency check:
// UpdateTable rejects a definition whose Version no longer matches the
// stored row.
type Registry struct {
	db *sql.DB
}

// New returns a Registry over an already-migrated metastore connection.
func New(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// GetTable returns the definition for name.
func (r *Registry) GetTable(ctx context.Context, name string) (*domain.Table, error) {
	var (
		id             int64
		t              domain.Table
		classification string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, table_type, classification, location, version
		 FROM lake_tables WHERE name = ?`, name).
		Scan(&id, &t.Name, &t.Description, &t.TableType, &classification, &t.Location, &t.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("table %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get table %q: %w", name, err)
	}
	t.Classification, err = domain.ParseClassification(classification)
	if err != nil {
		return nil, err
	}
	if t.Columns, t.PartitionKeys, err = r.loadColumns(ctx, id); err != nil {
		return nil, err
	}
	if t.Parameters, err = r.loadParameters(ctx, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTable replaces the stored definition. A non-zero Version must match
// the stored version or the update is rejected with a Conflict; the stored
// version is bumped on success.
func (r *Registry) UpdateTable(ctx context.Context, table *domain.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var id, current int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, version FROM lake_tables WHERE name = ?`, table.Name).Scan(&id, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound("table %q not found", table.Name)
	}
	if err != nil {
		return fmt.Errorf("read version for %q: %w", table.Name, err)
	}
	if table.Version != 0 && table.Version != current {
		return domain.ErrConflict("table %q was modified concurrently (have version %d, want %d)",
			table.Name, table.Version, current)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE lake_tables
		 SET description = ?, table_type = ?, classification = ?, location = ?,
		     version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		table.Description, table.TableType, string(table.Classification), table.Location, id)
	if err != nil {
		return fmt.Errorf("update table %q: %w", table.Name, err)
	}
	if err := r.replaceChildren(ctx, tx, id, table); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateTable registers a new table at version 1.
func (r *Registry) CreateTable(ctx context.Context, table *domain.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM lake_tables WHERE name = ?`, table.Name).Scan(&exists); err != nil {
		return fmt.Errorf("check table %q: %w", table.Name, err)
	}
	if exists > 0 {
		return domain.ErrConflict("table %q already exists", table.Name)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO lake_tables (name, description, table_type, classification, location)
		 VALUES (?, ?, ?, ?, ?)`,
		table.Name, table.Description, table.TableType, string(table.Classification), table.Location)
	if err != nil {
		return fmt.Errorf("insert table %q: %w", table.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("table id for %q: %w", table.Name, err)
	}
	if err := r.replaceChildren(ctx, tx, id, table); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteTable removes a table definition.
func (r *Registry) DeleteTable(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lake_tables WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete table %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("table %q not found", name)
	}
	return nil
}

// ListTables returns every registered table, ordered by name.
func (r *Registry) ListTables(ctx context.Context) ([]domain.Table, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM lake_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables := make([]domain.Table, 0, len(names))
	for _, n := range names {
		t, err := r.GetTable(ctx, n)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, nil
}

// replaceChildren rewrites the column and parameter rows for a table.
func (r *Registry) replaceChildren(ctx context.Context, tx *sql.Tx, id int64, table *domain.Table) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM lake_columns WHERE table_id = ?`, id); err != nil {
		return fmt.Errorf("clear columns for %q: %w", table.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lake_table_parameters WHERE table_id = ?`, id); err != nil {
		return fmt.Errorf("clear parameters for %q: %w", table.Name, err)
	}
	insert := func(cols []domain.Column, partitionKey int) error {
		for i, c := range cols {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO lake_columns (table_id, name, type, comment, is_partition_key, position)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				id, c.Name, string(c.Type), c.Comment, partitionKey, i)
			if err != nil {
				return fmt.Errorf("insert column %q.%q: %w", table.Name, c.Name, err)
			}
		}
		return nil
	}
	if err := insert(table.Columns, 0); err != nil {
		return err
	}
	if err := insert(table.PartitionKeys, 1); err != nil {
		return err
	}
	for k, v := range table.Parameters {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lake_table_parameters (table_id, key, value) VALUES (?, ?, ?)`, id, k, v)
		if err != nil {
			return fmt.Errorf("insert parameter %q for %q: %w", k, table.Name, err)
		}
	}
	return nil
}

func (r *Registry) loadColumns(ctx context.Context, id int64) (cols, partitionKeys []domain.Column, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, type, comment, is_partition_key FROM lake_columns
		 WHERE table_id = ? ORDER BY is_partition_key, position`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c           domain.Column
			rawType     string
			isPartition int
		)
		if err := rows.Scan(&c.Name, &rawType, &c.Comment, &isPartition); err != nil {
			return nil, nil, err
		}
		if c.Type, err = domain.ParseColumnType(rawType); err != nil {
			return nil, nil, err
		}
		if isPartition != 0 {
			partitionKeys = append(partitionKeys, c)
		} else {
			cols = append(cols, c)
		}
	}
	return cols, partitionKeys, rows.Err()
}

func (r *Registry) loadParameters(ctx context.Context, id int64) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM lake_table_parameters WHERE table_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("load parameters: %w", err)
	}
	defer rows.Close()

	params := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		params[k] = v
	}
	if len(params) == 0 {
		return nil, rows.Err()
	}
	return params, rows.Err()
}
