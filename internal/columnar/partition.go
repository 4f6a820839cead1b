package columnar

import (
	"strings"

	"mobiltex-datalake/internal/domain"
)

// DerivePartitions adds year and month columns to every row, computed from
// the named timestamp column in UTC. The original timestamp column is left
// untouched; rows with a null timestamp are rejected since they could not be
// placed in any partition.
func DerivePartitions(ds *domain.Dataset, timestampCol string) ([]domain.Column, error) {
	if ds.Column(timestampCol) == nil {
		return nil, domain.ErrNotFound("timestamp column %q not present in dataset", timestampCol)
	}
	for i, row := range ds.Rows {
		v, ok := row[timestampCol]
		if !ok || v.IsNull() {
			return nil, domain.ErrValidation("row %d has no %q value to partition by", i, timestampCol)
		}
		if v.Kind != domain.KindTime {
			return nil, domain.ErrValidation("row %d column %q is not a timestamp", i, timestampCol)
		}
		ts := v.Time.UTC()
		row["year"] = domain.IntValue(int64(ts.Year()))
		row["month"] = domain.IntValue(int64(ts.Month()))
	}
	partitionKeys := []domain.Column{
		{Name: "year", Type: domain.TypeInt},
		{Name: "month", Type: domain.TypeInt},
	}
	ds.Columns = append(ds.Columns, partitionKeys...)
	return partitionKeys, nil
}

// partitionPath renders the Hive-style path segment for one partition tuple,
// e.g. "year=2024/month=3/".
func partitionPath(cols []domain.Column, row domain.Record) string {
	var b strings.Builder
	for _, c := range cols {
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(row[c.Name].String())
		b.WriteByte('/')
	}
	return b.String()
}

// parsePartitionSegments extracts typed partition values from the path
// segments between a table prefix and the file name. Unknown or malformed
// segments are validation errors: the layout convention is strict.
func parsePartitionSegments(relPath string, partitionKeys []domain.Column) (domain.Record, error) {
	vals := make(domain.Record, len(partitionKeys))
	segments := strings.Split(relPath, "/")
	if len(segments) > 0 {
		segments = segments[:len(segments)-1] // drop the file name
	}
	byName := map[string]domain.ColumnType{}
	for _, pk := range partitionKeys {
		byName[pk.Name] = pk.Type
	}
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		name, raw, ok := strings.Cut(seg, "=")
		if !ok {
			return nil, domain.ErrValidation("path segment %q is not a partition key=value pair", seg)
		}
		t, known := byName[name]
		if !known {
			return nil, domain.ErrValidation("path segment %q names an undeclared partition key", seg)
		}
		v, err := domain.ParseValue(raw, t)
		if err != nil {
			return nil, err
		}
		vals[name] = v
	}
	for _, pk := range partitionKeys {
		if _, ok := vals[pk.Name]; !ok {
			return nil, domain.ErrValidation("path %q is missing partition key %q", relPath, pk.Name)
		}
	}
	return vals, nil
}
