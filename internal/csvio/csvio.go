// Package csvio decodes CSV record sources against a declared column list.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"mobiltex-datalake/internal/domain"
)

// Decode reads CSV data with a header row into a dataset. Every header name
// must match a declared column; declared columns absent from the header are
// simply not populated (the producer may stamp them later). Values parse per
// the declared types; timestamps are read as UTC.
func Decode(r io.Reader, cols []domain.Column) (*domain.Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, domain.ErrValidation("csv input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	byName := map[string]domain.Column{}
	for _, c := range cols {
		byName[c.Name] = c
	}
	headerCols := make([]domain.Column, len(header))
	for i, name := range header {
		c, ok := byName[name]
		if !ok {
			return nil, domain.ErrValidation("csv header names undeclared column %q", name)
		}
		headerCols[i] = c
	}

	ds := &domain.Dataset{}
	// Keep declared order for the dataset column list, limited to what the
	// header actually provides.
	present := map[string]bool{}
	for _, name := range header {
		present[name] = true
	}
	for _, c := range cols {
		if present[c.Name] {
			ds.Columns = append(ds.Columns, c)
		}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		line++
		row := make(domain.Record, len(headerCols))
		for i, raw := range rec {
			v, err := domain.ParseValue(raw, headerCols[i].Type)
			if err != nil {
				return nil, fmt.Errorf("csv line %d column %q: %w", line, headerCols[i].Name, err)
			}
			row[headerCols[i].Name] = v
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}
