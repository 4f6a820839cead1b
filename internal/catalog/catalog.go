// Package catalog defines the table registry contract shared by the Glue
// and local SQLite implementations.
package catalog

import (
	"context"

	"mobiltex-datalake/internal/domain"
)

// Registry is the authoritative store of table definitions. It owns the
// schema; it never touches on-disk data.
type Registry interface {
	// GetTable returns the definition for name, or a NotFound error.
	GetTable(ctx context.Context, name string) (*domain.Table, error)

	// UpdateTable replaces the stored definition with table. Callers mutate
	// a fetched copy, so every field not explicitly changed is preserved.
	// Calling twice with the same definition leaves the same end state.
	// Implementations that support optimistic concurrency reject a stale
	// Version with a Conflict error.
	UpdateTable(ctx context.Context, table *domain.Table) error

	// CreateTable registers a new table; Conflict when the name exists.
	CreateTable(ctx context.Context, table *domain.Table) error

	// DeleteTable removes a table definition; NotFound when absent.
	DeleteTable(ctx context.Context, name string) error

	// ListTables returns every registered table, ordered by name.
	ListTables(ctx context.Context) ([]domain.Table, error)
}
