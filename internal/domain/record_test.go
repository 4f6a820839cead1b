package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		typ  ColumnType
		want Value
	}{
		{"hello", TypeString, StringValue("hello")},
		{"42", TypeInt, IntValue(42)},
		{"9000000000", TypeBigInt, IntValue(9000000000)},
		{"-0.892", TypeDouble, DoubleValue(-0.892)},
		{"", TypeString, NullValue()},
		{"", TypeTimestamp, NullValue()},
		{"2024-03-01 00:15:00", TypeTimestamp, TimeValue(time.Date(2024, 3, 1, 0, 15, 0, 0, time.UTC))},
		{"2024-03-01T00:15:00Z", TypeTimestamp, TimeValue(time.Date(2024, 3, 1, 0, 15, 0, 0, time.UTC))},
		{"2024-03-01", TypeTimestamp, TimeValue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))},
	}
	for _, tt := range tests {
		got, err := ParseValue(tt.raw, tt.typ)
		require.NoError(t, err, "%s as %s", tt.raw, tt.typ)
		assert.True(t, tt.want.Equal(got), "%s as %s: got %v", tt.raw, tt.typ, got)
	}

	_, err := ParseValue("abc", TypeInt)
	assert.Error(t, err)
	_, err = ParseValue("not a time", TypeTimestamp)
	assert.Error(t, err)
}

func TestTimeValueNormalisesUTC(t *testing.T) {
	loc := time.FixedZone("MST", -7*3600)
	v := TimeValue(time.Date(2024, 3, 1, 10, 0, 0, 0, loc))
	assert.Equal(t, time.UTC, v.Time.Location())
	assert.Equal(t, 17, v.Time.Hour())
}

func TestDatasetProject(t *testing.T) {
	ds := &Dataset{
		Columns: []Column{
			{Name: "a", Type: TypeString},
			{Name: "b", Type: TypeInt},
		},
		Rows: []Record{
			{"a": StringValue("x"), "b": IntValue(1)},
			{"a": StringValue("y"), "b": IntValue(2)},
		},
	}

	p, err := ds.Project("b")
	require.NoError(t, err)
	require.Len(t, p.Columns, 1)
	require.Len(t, p.Rows, 2)
	assert.True(t, IntValue(2).Equal(p.Rows[1]["b"]))
	_, ok := p.Rows[0]["a"]
	assert.False(t, ok)

	_, err = ds.Project("missing")
	require.Error(t, err)
	assert.IsType(t, &NotFoundError{}, err)
}

func TestDatasetAppend(t *testing.T) {
	cols := []Column{{Name: "a", Type: TypeString}}
	ds := &Dataset{}
	require.NoError(t, ds.Append(&Dataset{Columns: cols, Rows: []Record{{"a": StringValue("x")}}}))
	require.NoError(t, ds.Append(&Dataset{Columns: cols, Rows: []Record{{"a": StringValue("y")}}}))
	assert.Equal(t, 2, ds.NumRows())

	err := ds.Append(&Dataset{Columns: []Column{{Name: "a", Type: TypeInt}}})
	require.Error(t, err)
	err = ds.Append(&Dataset{Columns: []Column{{Name: "a", Type: TypeString}, {Name: "b", Type: TypeString}}})
	require.Error(t, err)
}

func TestDatasetCheckAgainst(t *testing.T) {
	cols := []Column{
		{Name: "id", Type: TypeString},
		{Name: "value", Type: TypeDouble},
	}
	ds := &Dataset{
		Columns: cols,
		Rows: []Record{
			{"id": StringValue("r1"), "value": DoubleValue(1.2)},
			{"id": StringValue("r2"), "value": NullValue()},
		},
	}
	require.NoError(t, ds.CheckAgainst(cols))

	ds.Rows = append(ds.Rows, Record{"id": StringValue("r3"), "value": StringValue("oops")})
	require.Error(t, ds.CheckAgainst(cols))
}
