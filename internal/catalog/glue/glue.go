// Package glue implements the catalog registry on the AWS Glue Data Catalog.
package glue

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"

	"mobiltex-datalake/internal/domain"
)

// Hive SerDe identifiers for Parquet tables, as registered by the original
// provisioning stack. The query engine resolves the reader through these.
const (
	parquetInputFormat  = "org.apache.hadoop.hive.ql.io.parquet.MapredParquetInputFormat"
	parquetOutputFormat = "org.apache.hadoop.hive.ql.io.parquet.MapredParquetOutputFormat"
	parquetSerde        = "org.apache.hadoop.hive.ql.io.parquet.serde.ParquetHiveSerDe"
)

// Registry is a catalog.Registry backed by one Glue database.
//
// Glue offers no compare-and-swap on UpdateTable, so concurrent writers are
// last-writer-wins; the lake runs its procedures single-actor (see the local
// metastore for a version-checked implementation).
type Registry struct {
	client   *glue.Client
	database string
}

// New returns a Registry over the given Glue database.
func New(client *glue.Client, database string) *Registry {
	return &Registry{client: client, database: database}
}

// EnsureDatabase creates the Glue database if it does not exist.
func (r *Registry) EnsureDatabase(ctx context.Context, description string) error {
	_, err := r.client.GetDatabase(ctx, &glue.GetDatabaseInput{Name: aws.String(r.database)})
	if err == nil {
		return nil
	}
	var notFound *gluetypes.EntityNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("get database %q: %w", r.database, err)
	}
	_, err = r.client.CreateDatabase(ctx, &glue.CreateDatabaseInput{
		DatabaseInput: &gluetypes.DatabaseInput{
			Name:        aws.String(r.database),
			Description: aws.String(description),
		},
	})
	var exists *gluetypes.AlreadyExistsException
	if errors.As(err, &exists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create database %q: %w", r.database, err)
	}
	return nil
}

// GetTable returns the definition for name.
func (r *Registry) GetTable(ctx context.Context, name string) (*domain.Table, error) {
	out, err := r.client.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: aws.String(r.database),
		Name:         aws.String(name),
	})
	if err != nil {
		var notFound *gluetypes.EntityNotFoundException
		if errors.As(err, &notFound) {
			return nil, domain.ErrNotFound("table %q not found in database %q", name, r.database)
		}
		return nil, fmt.Errorf("get table %q: %w", name, err)
	}
	return fromGlueTable(out.Table)
}

// UpdateTable replaces the stored definition. The table input is rebuilt
// from the full domain table, so unspecified fields from an earlier fetch
// are carried through rather than dropped.
func (r *Registry) UpdateTable(ctx context.Context, table *domain.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	_, err := r.client.UpdateTable(ctx, &glue.UpdateTableInput{
		DatabaseName: aws.String(r.database),
		TableInput:   toGlueTableInput(table),
	})
	if err != nil {
		var notFound *gluetypes.EntityNotFoundException
		if errors.As(err, &notFound) {
			return domain.ErrNotFound("table %q not found in database %q", table.Name, r.database)
		}
		return fmt.Errorf("update table %q: %w", table.Name, err)
	}
	return nil
}

// CreateTable registers a new table.
func (r *Registry) CreateTable(ctx context.Context, table *domain.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	_, err := r.client.CreateTable(ctx, &glue.CreateTableInput{
		DatabaseName: aws.String(r.database),
		TableInput:   toGlueTableInput(table),
	})
	if err != nil {
		var exists *gluetypes.AlreadyExistsException
		if errors.As(err, &exists) {
			return domain.ErrConflict("table %q already exists in database %q", table.Name, r.database)
		}
		return fmt.Errorf("create table %q: %w", table.Name, err)
	}
	return nil
}

// DeleteTable removes a table definition.
func (r *Registry) DeleteTable(ctx context.Context, name string) error {
	_, err := r.client.DeleteTable(ctx, &glue.DeleteTableInput{
		DatabaseName: aws.String(r.database),
		Name:         aws.String(name),
	})
	if err != nil {
		var notFound *gluetypes.EntityNotFoundException
		if errors.As(err, &notFound) {
			return domain.ErrNotFound("table %q not found in database %q", name, r.database)
		}
		return fmt.Errorf("delete table %q: %w", name, err)
	}
	return nil
}

// ListTables returns every table in the database, ordered by name.
func (r *Registry) ListTables(ctx context.Context) ([]domain.Table, error) {
	var tables []domain.Table
	p := glue.NewGetTablesPaginator(r.client, &glue.GetTablesInput{
		DatabaseName: aws.String(r.database),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tables in %q: %w", r.database, err)
		}
		for i := range page.TableList {
			t, err := fromGlueTable(&page.TableList[i])
			if err != nil {
				return nil, err
			}
			tables = append(tables, *t)
		}
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}

// fromGlueTable maps a Glue table to the domain model, validating the
// column types and classification against their closed sets.
func fromGlueTable(t *gluetypes.Table) (*domain.Table, error) {
	if t == nil || t.StorageDescriptor == nil {
		return nil, domain.ErrValidation("glue table is missing its storage descriptor")
	}
	out := &domain.Table{
		Name:        aws.ToString(t.Name),
		Description: aws.ToString(t.Description),
		Location:    aws.ToString(t.StorageDescriptor.Location),
		TableType:   aws.ToString(t.TableType),
		Parameters:  t.Parameters,
	}
	if out.TableType == "" {
		out.TableType = domain.TableTypeExternal
	}
	if cls, ok := t.Parameters["classification"]; ok {
		parsed, err := domain.ParseClassification(cls)
		if err != nil {
			return nil, err
		}
		out.Classification = parsed
	} else {
		out.Classification = domain.ClassificationParquet
	}
	var err error
	out.Columns, err = fromGlueColumns(t.StorageDescriptor.Columns)
	if err != nil {
		return nil, err
	}
	out.PartitionKeys, err = fromGlueColumns(t.PartitionKeys)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func fromGlueColumns(cols []gluetypes.Column) ([]domain.Column, error) {
	out := make([]domain.Column, 0, len(cols))
	for _, c := range cols {
		t, err := domain.ParseColumnType(aws.ToString(c.Type))
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Column{
			Name:    aws.ToString(c.Name),
			Type:    t,
			Comment: aws.ToString(c.Comment),
		})
	}
	return out, nil
}

func toGlueColumns(cols []domain.Column) []gluetypes.Column {
	out := make([]gluetypes.Column, 0, len(cols))
	for _, c := range cols {
		gc := gluetypes.Column{
			Name: aws.String(c.Name),
			Type: aws.String(string(c.Type)),
		}
		if c.Comment != "" {
			gc.Comment = aws.String(c.Comment)
		}
		out = append(out, gc)
	}
	return out
}

func toGlueTableInput(t *domain.Table) *gluetypes.TableInput {
	params := map[string]string{}
	for k, v := range t.Parameters {
		params[k] = v
	}
	params["classification"] = string(t.Classification)

	in := &gluetypes.TableInput{
		Name:       aws.String(t.Name),
		TableType:  aws.String(t.TableType),
		Parameters: params,
		StorageDescriptor: &gluetypes.StorageDescriptor{
			Location:     aws.String(t.Location),
			Columns:      toGlueColumns(t.Columns),
			InputFormat:  aws.String(parquetInputFormat),
			OutputFormat: aws.String(parquetOutputFormat),
			SerdeInfo: &gluetypes.SerDeInfo{
				SerializationLibrary: aws.String(parquetSerde),
			},
		},
	}
	if len(t.PartitionKeys) > 0 {
		in.PartitionKeys = toGlueColumns(t.PartitionKeys)
	}
	if t.Description != "" {
		in.Description = aws.String(t.Description)
	}
	return in
}
