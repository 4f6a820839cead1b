// Package columnar encodes datasets as partitioned Parquet files and reads
// them back with schema projection.
package columnar

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"mobiltex-datalake/internal/domain"
)

// arrowType maps a catalog column type to its Arrow representation.
// Timestamps are stored as microseconds, UTC.
func arrowType(t domain.ColumnType) (arrow.DataType, error) {
	switch t {
	case domain.TypeString:
		return arrow.BinaryTypes.String, nil
	case domain.TypeInt:
		return arrow.PrimitiveTypes.Int32, nil
	case domain.TypeBigInt:
		return arrow.PrimitiveTypes.Int64, nil
	case domain.TypeDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case domain.TypeTimestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
	default:
		return nil, domain.ErrValidation("no arrow type for column type %q", t)
	}
}

// columnTypeFor maps an Arrow field type back to a catalog column type.
func columnTypeFor(dt arrow.DataType) (domain.ColumnType, error) {
	switch dt.ID() {
	case arrow.STRING:
		return domain.TypeString, nil
	case arrow.INT32:
		return domain.TypeInt, nil
	case arrow.INT64:
		return domain.TypeBigInt, nil
	case arrow.FLOAT64:
		return domain.TypeDouble, nil
	case arrow.TIMESTAMP:
		return domain.TypeTimestamp, nil
	default:
		return "", domain.ErrValidation("unsupported parquet field type %s", dt.Name())
	}
}

// Encode serialises the dataset into a single Parquet file (Snappy).
func Encode(ds *domain.Dataset) ([]byte, error) {
	if len(ds.Columns) == 0 {
		return nil, domain.ErrValidation("cannot encode a dataset with no columns")
	}
	fields := make([]arrow.Field, len(ds.Columns))
	for i, c := range ds.Columns {
		dt, err := arrowType(c.Type)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	bldr := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer bldr.Release()

	for rowIdx, row := range ds.Rows {
		for i, c := range ds.Columns {
			if err := appendValue(bldr.Field(i), row[c.Name], c.Type); err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", rowIdx, c.Name, err)
			}
		}
	}

	rec := bldr.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(schema, &buf, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return nil, fmt.Errorf("open parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("write parquet: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a Parquet file into a dataset. With a projection, only the
// named columns are returned, in the given order; naming a column absent
// from the file is a NotFound error.
func Decode(ctx context.Context, data []byte, projection ...string) (*domain.Dataset, error) {
	rdr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open parquet reader: %w", err)
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("open arrow reader: %w", err)
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read parquet table: %w", err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	index := map[string]int{}
	for i := 0; i < int(tbl.NumCols()); i++ {
		index[schema.Field(i).Name] = i
	}

	selected := projection
	if len(selected) == 0 {
		selected = make([]string, 0, tbl.NumCols())
		for i := 0; i < int(tbl.NumCols()); i++ {
			selected = append(selected, schema.Field(i).Name)
		}
	}

	nrows := int(tbl.NumRows())
	out := &domain.Dataset{Rows: make([]domain.Record, nrows)}
	for i := range out.Rows {
		out.Rows[i] = make(domain.Record, len(selected))
	}

	for _, name := range selected {
		colIdx, ok := index[name]
		if !ok {
			return nil, domain.ErrNotFound("column %q not present in parquet file", name)
		}
		field := schema.Field(colIdx)
		ct, err := columnTypeFor(field.Type)
		if err != nil {
			return nil, err
		}
		out.Columns = append(out.Columns, domain.Column{Name: name, Type: ct})

		rowIdx := 0
		for _, chunk := range tbl.Column(colIdx).Data().Chunks() {
			if err := readChunk(chunk, name, out.Rows, &rowIdx); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// appendValue appends v to the builder for declared type ct. Nulls are
// appended as nulls; kind mismatches are validation errors.
func appendValue(b array.Builder, v domain.Value, ct domain.ColumnType) error {
	if v.IsNull() {
		b.AppendNull()
		return nil
	}
	switch fb := b.(type) {
	case *array.StringBuilder:
		if v.Kind != domain.KindString {
			return domain.ErrValidation("value %v is not a string", v)
		}
		fb.Append(v.Str)
	case *array.Int32Builder:
		if v.Kind != domain.KindInt {
			return domain.ErrValidation("value %v is not an int", v)
		}
		fb.Append(int32(v.Int))
	case *array.Int64Builder:
		if v.Kind != domain.KindInt {
			return domain.ErrValidation("value %v is not a bigint", v)
		}
		fb.Append(v.Int)
	case *array.Float64Builder:
		if v.Kind != domain.KindDouble {
			return domain.ErrValidation("value %v is not a double", v)
		}
		fb.Append(v.Double)
	case *array.TimestampBuilder:
		if v.Kind != domain.KindTime {
			return domain.ErrValidation("value %v is not a timestamp", v)
		}
		fb.Append(arrow.Timestamp(v.Time.UnixMicro()))
	default:
		return domain.ErrValidation("unsupported builder for column type %q", ct)
	}
	return nil
}

// readChunk copies one Arrow chunk into rows starting at *rowIdx.
func readChunk(chunk arrow.Array, name string, rows []domain.Record, rowIdx *int) error {
	n := chunk.Len()
	switch arr := chunk.(type) {
	case *array.String:
		for k := 0; k < n; k++ {
			rows[*rowIdx][name] = stringOrNull(arr, k)
			*rowIdx++
		}
	case *array.Int32:
		for k := 0; k < n; k++ {
			if arr.IsNull(k) {
				rows[*rowIdx][name] = domain.NullValue()
			} else {
				rows[*rowIdx][name] = domain.IntValue(int64(arr.Value(k)))
			}
			*rowIdx++
		}
	case *array.Int64:
		for k := 0; k < n; k++ {
			if arr.IsNull(k) {
				rows[*rowIdx][name] = domain.NullValue()
			} else {
				rows[*rowIdx][name] = domain.IntValue(arr.Value(k))
			}
			*rowIdx++
		}
	case *array.Float64:
		for k := 0; k < n; k++ {
			if arr.IsNull(k) {
				rows[*rowIdx][name] = domain.NullValue()
			} else {
				rows[*rowIdx][name] = domain.DoubleValue(arr.Value(k))
			}
			*rowIdx++
		}
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		for k := 0; k < n; k++ {
			if arr.IsNull(k) {
				rows[*rowIdx][name] = domain.NullValue()
			} else {
				rows[*rowIdx][name] = domain.TimeValue(timestampToTime(arr.Value(k), unit))
			}
			*rowIdx++
		}
	default:
		return domain.ErrValidation("unsupported parquet column %q of type %s", name, chunk.DataType().Name())
	}
	return nil
}

func stringOrNull(arr *array.String, k int) domain.Value {
	if arr.IsNull(k) {
		return domain.NullValue()
	}
	return domain.StringValue(arr.Value(k))
}

func timestampToTime(ts arrow.Timestamp, unit arrow.TimeUnit) time.Time {
	switch unit {
	case arrow.Second:
		return time.Unix(int64(ts), 0).UTC()
	case arrow.Millisecond:
		return time.UnixMilli(int64(ts)).UTC()
	case arrow.Microsecond:
		return time.UnixMicro(int64(ts)).UTC()
	default:
		return time.Unix(0, int64(ts)).UTC()
	}
}
