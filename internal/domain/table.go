package domain

import "strings"

// Table type constants.
const (
	TableTypeExternal = "EXTERNAL_TABLE"
)

// Table is a catalog entry: an ordered column list plus the storage location
// the query engine scans. Partition key columns are derived from path
// segments at read time and never repeat in Columns.
type Table struct {
	Name           string
	Description    string
	Columns        []Column
	PartitionKeys  []Column
	Location       string // URI prefix, e.g. s3://bucket/parquet/assets/
	TableType      string
	Classification Classification
	Parameters     map[string]string

	// Version is the optimistic-concurrency token used by registries that
	// support compare-and-swap updates. Zero means "no check".
	Version int64
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasColumn reports whether a column of the given name is declared.
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// WithColumn appends col to a copy of the column list unless a column of the
// same name already exists. The returned bool is false when the column was
// already present (check-before-append, so a second add is a no-op).
func (t *Table) WithColumn(col Column) (added bool) {
	if t.HasColumn(col.Name) {
		return false
	}
	t.Columns = append(t.Columns, col)
	return true
}

// ColumnNames returns the declared column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks the structural invariants of a table definition.
func (t *Table) Validate() error {
	if t.Name == "" {
		return ErrValidation("table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return ErrValidation("table %q must declare at least one column", t.Name)
	}
	if t.Location == "" {
		return ErrValidation("table %q must declare a storage location", t.Name)
	}
	seen := map[string]bool{}
	for _, c := range t.Columns {
		if c.Name == "" {
			return ErrValidation("table %q has a column with an empty name", t.Name)
		}
		if seen[c.Name] {
			return ErrValidation("table %q declares column %q more than once", t.Name, c.Name)
		}
		seen[c.Name] = true
	}
	for _, pk := range t.PartitionKeys {
		if seen[pk.Name] {
			return ErrValidation("table %q repeats partition key %q in its column list", t.Name, pk.Name)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate a fetched definition
// without aliasing registry state.
func (t *Table) Clone() *Table {
	cp := *t
	cp.Columns = append([]Column(nil), t.Columns...)
	cp.PartitionKeys = append([]Column(nil), t.PartitionKeys...)
	if t.Parameters != nil {
		cp.Parameters = make(map[string]string, len(t.Parameters))
		for k, v := range t.Parameters {
			cp.Parameters[k] = v
		}
	}
	return &cp
}

// QualifiedName returns database.table for log lines.
func QualifiedName(database, table string) string {
	return strings.Join([]string{database, table}, ".")
}
