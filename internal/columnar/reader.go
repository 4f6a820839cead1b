package columnar

import (
	"context"
	"strings"

	"mobiltex-datalake/internal/domain"
	"mobiltex-datalake/internal/storage"
)

// Reader reads a table's dataset back from an object store, re-deriving
// partition column values from the storage paths.
type Reader struct {
	store storage.ObjectStore
}

// NewReader returns a Reader over the given store.
func NewReader(store storage.ObjectStore) *Reader {
	return &Reader{store: store}
}

// ListDataFiles returns the Parquet object keys under a table location, in
// lexicographic order. Keys under other prefixes (e.g. backups) are never
// touched because listing starts at the table's own prefix.
func (r *Reader) ListDataFiles(ctx context.Context, location string) ([]string, error) {
	prefix, err := storage.KeyForLocation(location)
	if err != nil {
		return nil, err
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	keys, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	files := keys[:0]
	for _, k := range keys {
		if strings.HasSuffix(k, ".parquet") {
			files = append(files, k)
		}
	}
	return files, nil
}

// ReadAll reads every data file under location into one dataset, files in
// key order, rows in file order. Partition key values come from the path
// segments. With a projection only the named columns are returned, in that
// order; partition keys may be projected like any other column.
func (r *Reader) ReadAll(ctx context.Context, location string, partitionKeys []domain.Column, projection ...string) (*domain.Dataset, error) {
	prefix, err := storage.KeyForLocation(location)
	if err != nil {
		return nil, err
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	files, err := r.ListDataFiles(ctx, location)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.ErrNotFound("no data files under %q", location)
	}

	isPartition := map[string]bool{}
	for _, pk := range partitionKeys {
		isPartition[pk.Name] = true
	}

	// Columns to request from the files themselves (partition values are not
	// stored in the file body).
	var fileProjection []string
	for _, name := range projection {
		if !isPartition[name] {
			fileProjection = append(fileProjection, name)
		}
	}

	result := &domain.Dataset{}
	for _, key := range files {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		ds, err := Decode(ctx, data, fileProjection...)
		if err != nil {
			return nil, err
		}

		if len(partitionKeys) > 0 {
			partVals, err := parsePartitionSegments(strings.TrimPrefix(key, prefix), partitionKeys)
			if err != nil {
				return nil, err
			}
			attachPartitionValues(ds, partitionKeys, partVals, projection)
		}
		if len(projection) > 0 {
			ds, err = ds.Project(projection...)
			if err != nil {
				return nil, err
			}
		}
		if err := result.Append(ds); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// attachPartitionValues adds the path-derived partition values to every row.
// When a projection is given, only projected partition keys are attached.
func attachPartitionValues(ds *domain.Dataset, partitionKeys []domain.Column, vals domain.Record, projection []string) {
	wanted := func(name string) bool {
		if len(projection) == 0 {
			return true
		}
		for _, p := range projection {
			if p == name {
				return true
			}
		}
		return false
	}
	for _, pk := range partitionKeys {
		if !wanted(pk.Name) {
			continue
		}
		ds.Columns = append(ds.Columns, pk)
		for _, row := range ds.Rows {
			row[pk.Name] = vals[pk.Name]
		}
	}
}
