package csvio

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobiltex-datalake/internal/domain"
)

var readingCols = []domain.Column{
	{Name: "reading_id", Type: domain.TypeString},
	{Name: "timestamp", Type: domain.TypeTimestamp},
	{Name: "value", Type: domain.TypeDouble},
	{Name: "quality", Type: domain.TypeString},
}

func TestDecode(t *testing.T) {
	in := strings.NewReader(
		"reading_id,timestamp,value,quality\n" +
			"RDG-0001,2024-03-01 00:15:00,1.24,good\n" +
			"RDG-0002,2024-03-04 06:30:00,-0.892,\n")

	ds, err := Decode(in, readingCols)
	require.NoError(t, err)
	require.Len(t, ds.Columns, 4)
	require.Equal(t, 2, ds.NumRows())

	assert.True(t, domain.StringValue("RDG-0001").Equal(ds.Rows[0]["reading_id"]))
	assert.True(t, domain.TimeValue(time.Date(2024, 3, 1, 0, 15, 0, 0, time.UTC)).Equal(ds.Rows[0]["timestamp"]))
	assert.True(t, domain.DoubleValue(-0.892).Equal(ds.Rows[1]["value"]))
	assert.True(t, ds.Rows[1]["quality"].IsNull(), "empty cell parses as null")
}

func TestDecodeHeaderSubset(t *testing.T) {
	// quality absent from the header: tolerated, column not populated.
	in := strings.NewReader("reading_id,timestamp,value\nRDG-0001,2024-03-01,1.0\n")
	ds, err := Decode(in, readingCols)
	require.NoError(t, err)
	require.Len(t, ds.Columns, 3)
	assert.Nil(t, ds.Column("quality"))
}

func TestDecodeUndeclaredHeader(t *testing.T) {
	in := strings.NewReader("reading_id,wattage\nRDG-0001,9000\n")
	_, err := Decode(in, readingCols)
	require.Error(t, err)
	assert.IsType(t, &domain.ValidationError{}, err)
}

func TestDecodeBadCell(t *testing.T) {
	in := strings.NewReader("reading_id,value\nRDG-0001,not-a-number\n")
	_, err := Decode(in, readingCols)
	require.Error(t, err)
}

func TestDecodeEmptyInput(t *testing.T) {
	_, err := Decode(strings.NewReader(""), readingCols)
	require.Error(t, err)
}
