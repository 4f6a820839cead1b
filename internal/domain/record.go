package domain

import (
	"fmt"
	"strconv"
	"time"
)

// ValueKind discriminates the variants of Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindDouble
	KindTime
)

// Value is a typed cell value. The zero Value is null.
type Value struct {
	Kind   ValueKind
	Str    string
	Int    int64
	Double float64
	Time   time.Time
}

// NullValue returns an explicit null.
func NullValue() Value { return Value{} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue wraps i.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// DoubleValue wraps f.
func DoubleValue(f float64) Value { return Value{Kind: KindDouble, Double: f} }

// TimeValue wraps t, normalised to UTC. All timestamps in the lake are UTC;
// the convention is fixed here rather than taken from the ambient zone.
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t.UTC()} }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal compares two values for identical kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == o.Str
	case KindInt:
		return v.Int == o.Int
	case KindDouble:
		return v.Double == o.Double
	case KindTime:
		return v.Time.Equal(o.Time)
	}
	return false
}

// String renders the value for paths, CSV output, and log lines.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case KindTime:
		return v.Time.UTC().Format(time.RFC3339Nano)
	}
	return ""
}

// timestampLayouts are accepted on parse, tried in order. All are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseValue converts a raw string into a Value of the given column type.
// Empty strings parse as null. Timestamps are interpreted as UTC.
func ParseValue(raw string, t ColumnType) (Value, error) {
	if raw == "" {
		return NullValue(), nil
	}
	switch t {
	case TypeString:
		return StringValue(raw), nil
	case TypeInt, TypeBigInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, ErrValidation("parse %q as %s: %v", raw, t, err)
		}
		return IntValue(i), nil
	case TypeDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, ErrValidation("parse %q as double: %v", raw, err)
		}
		return DoubleValue(f), nil
	case TypeTimestamp:
		for _, layout := range timestampLayouts {
			if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
				return TimeValue(ts), nil
			}
		}
		return Value{}, ErrValidation("parse %q as timestamp: no known layout matched", raw)
	default:
		return Value{}, ErrValidation("unsupported column type %q", t)
	}
}

// Record is a single row, keyed by column name.
type Record map[string]Value

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	cp := make(Record, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// Dataset is an ordered set of rows with a declared column list. The column
// list fixes iteration order; Rows hold values keyed by column name.
type Dataset struct {
	Columns []Column
	Rows    []Record
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int { return len(d.Rows) }

// Column returns the declared column with the given name, or nil.
func (d *Dataset) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// Project returns a new dataset limited to the named columns, in the order
// given. Referencing an undeclared column is a NotFound error.
func (d *Dataset) Project(names ...string) (*Dataset, error) {
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		c := d.Column(n)
		if c == nil {
			return nil, ErrNotFound("column %q not present in dataset", n)
		}
		cols = append(cols, *c)
	}
	out := &Dataset{Columns: cols, Rows: make([]Record, len(d.Rows))}
	for i, row := range d.Rows {
		pr := make(Record, len(names))
		for _, n := range names {
			pr[n] = row[n]
		}
		out.Rows[i] = pr
	}
	return out, nil
}

// Append adds the rows of other to d. The column lists must match by name
// and type, in order.
func (d *Dataset) Append(other *Dataset) error {
	if len(d.Columns) == 0 {
		d.Columns = append([]Column(nil), other.Columns...)
		d.Rows = append(d.Rows, other.Rows...)
		return nil
	}
	if len(other.Columns) != len(d.Columns) {
		return ErrValidation("cannot append dataset with %d columns to dataset with %d", len(other.Columns), len(d.Columns))
	}
	for i, c := range other.Columns {
		if c.Name != d.Columns[i].Name || c.Type != d.Columns[i].Type {
			return ErrValidation("column mismatch at position %d: %s %s vs %s %s",
				i, c.Name, c.Type, d.Columns[i].Name, d.Columns[i].Type)
		}
	}
	d.Rows = append(d.Rows, other.Rows...)
	return nil
}

// CheckAgainst verifies every row holds values compatible with the declared
// columns (nulls are always accepted).
func (d *Dataset) CheckAgainst(cols []Column) error {
	kindFor := map[ColumnType]ValueKind{
		TypeString:    KindString,
		TypeInt:       KindInt,
		TypeBigInt:    KindInt,
		TypeDouble:    KindDouble,
		TypeTimestamp: KindTime,
	}
	for i, row := range d.Rows {
		for _, c := range cols {
			v, ok := row[c.Name]
			if !ok || v.IsNull() {
				continue
			}
			if v.Kind != kindFor[c.Type] {
				return ErrValidation("row %d column %q: value %s incompatible with declared type %s",
					i, c.Name, fmt.Sprintf("%v", v), c.Type)
			}
		}
	}
	return nil
}
