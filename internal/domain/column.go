package domain

import "strings"

// ColumnType is the closed set of column types the catalog accepts.
// Free-form type strings are rejected at parse time so a typo cannot
// silently break the reader contract.
type ColumnType string

const (
	TypeString    ColumnType = "string"
	TypeInt       ColumnType = "int"
	TypeBigInt    ColumnType = "bigint"
	TypeDouble    ColumnType = "double"
	TypeTimestamp ColumnType = "timestamp"
)

// ParseColumnType validates s against the closed type set.
func ParseColumnType(s string) (ColumnType, error) {
	switch t := ColumnType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeString, TypeInt, TypeBigInt, TypeDouble, TypeTimestamp:
		return t, nil
	default:
		return "", ErrValidation("unsupported column type %q (want string, int, bigint, double, or timestamp)", s)
	}
}

// Classification identifies the file encoding of a table's dataset.
type Classification string

const (
	ClassificationParquet Classification = "parquet"
	ClassificationCSV     Classification = "csv"
)

// ParseClassification validates s against the known encodings.
func ParseClassification(s string) (Classification, error) {
	switch c := Classification(strings.ToLower(strings.TrimSpace(s))); c {
	case ClassificationParquet, ClassificationCSV:
		return c, nil
	default:
		return "", ErrValidation("unsupported classification %q (want parquet or csv)", s)
	}
}

// Column describes a single typed column of a table.
type Column struct {
	Name    string
	Type    ColumnType
	Comment string
}
