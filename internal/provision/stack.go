// Package provision declares the lake's resources and applies them
// idempotently: buckets, the catalog database, and the table definitions.
// IAM, KMS, and the job runner remain the platform's concern; the stack
// records their intended attributes so the definition is complete.
package provision

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mobiltex-datalake/internal/domain"
)

//go:embed stack.yaml
var defaultStackYAML string

// Stack is the declarative resource definition for the whole lake.
type Stack struct {
	Database  DatabaseDef `yaml:"database"`
	Buckets   []BucketDef `yaml:"buckets"`
	Workgroup Workgroup   `yaml:"workgroup"`
	Tables    []TableDef  `yaml:"tables"`
}

// DatabaseDef names the catalog database.
type DatabaseDef struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// BucketDef describes one storage bucket. Encryption and lifecycle are
// recorded for the provisioning platform; Apply only ensures existence.
type BucketDef struct {
	Name          string `yaml:"name"`
	Zone          string `yaml:"zone"` // raw, curated, results
	Versioned     bool   `yaml:"versioned"`
	Encrypted     bool   `yaml:"encrypted"`
	LifecycleDays int    `yaml:"lifecycle_days"` // 0 = keep forever
}

// Workgroup describes the query workgroup consuming the lake.
type Workgroup struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	OutputLocation string `yaml:"output_location"`
}

// TableDef is the YAML shape of a table definition.
type TableDef struct {
	Name           string      `yaml:"name"`
	Description    string      `yaml:"description"`
	Location       string      `yaml:"location"`
	Classification string      `yaml:"classification"`
	Columns        []ColumnDef `yaml:"columns"`
	PartitionKeys  []ColumnDef `yaml:"partition_keys"`
}

// ColumnDef is the YAML shape of a column.
type ColumnDef struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Comment string `yaml:"comment"`
}

// LoadStack parses a stack definition, expanding ${VAR} references from
// vars (not from the ambient environment).
func LoadStack(r io.Reader, vars map[string]string) (*Stack, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stack definition: %w", err)
	}
	expanded := os.Expand(string(raw), func(key string) string {
		return vars[key]
	})
	var s Stack
	if err := yaml.Unmarshal([]byte(expanded), &s); err != nil {
		return nil, fmt.Errorf("parse stack definition: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// DefaultStack returns the embedded stack definition, expanded with vars.
// Expected vars: ACCOUNT_ID, RAW_BUCKET, CURATED_BUCKET, RESULTS_BUCKET.
func DefaultStack(vars map[string]string) (*Stack, error) {
	return LoadStack(strings.NewReader(defaultStackYAML), vars)
}

// Validate checks the stack for structural problems before any apply.
func (s *Stack) Validate() error {
	if s.Database.Name == "" {
		return domain.ErrValidation("stack must name a database")
	}
	seen := map[string]bool{}
	for _, t := range s.Tables {
		if seen[t.Name] {
			return domain.ErrValidation("stack defines table %q more than once", t.Name)
		}
		seen[t.Name] = true
		if _, err := t.ToDomain(); err != nil {
			return err
		}
	}
	return nil
}

// ToDomain converts a YAML table definition into the domain model,
// validating types and classification against their closed sets.
func (t *TableDef) ToDomain() (*domain.Table, error) {
	cls := t.Classification
	if cls == "" {
		cls = string(domain.ClassificationParquet)
	}
	classification, err := domain.ParseClassification(cls)
	if err != nil {
		return nil, err
	}
	out := &domain.Table{
		Name:           t.Name,
		Description:    t.Description,
		Location:       t.Location,
		TableType:      domain.TableTypeExternal,
		Classification: classification,
	}
	toCols := func(defs []ColumnDef) ([]domain.Column, error) {
		cols := make([]domain.Column, 0, len(defs))
		for _, d := range defs {
			ct, err := domain.ParseColumnType(d.Type)
			if err != nil {
				return nil, fmt.Errorf("table %q column %q: %w", t.Name, d.Name, err)
			}
			cols = append(cols, domain.Column{Name: d.Name, Type: ct, Comment: d.Comment})
		}
		return cols, nil
	}
	if out.Columns, err = toCols(t.Columns); err != nil {
		return nil, err
	}
	if out.PartitionKeys, err = toCols(t.PartitionKeys); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
