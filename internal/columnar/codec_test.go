package columnar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobiltex-datalake/internal/domain"
	"mobiltex-datalake/internal/storage"
)

func sampleDataset() *domain.Dataset {
	return &domain.Dataset{
		Columns: []domain.Column{
			{Name: "reading_id", Type: domain.TypeString},
			{Name: "sensor_id", Type: domain.TypeString},
			{Name: "timestamp", Type: domain.TypeTimestamp},
			{Name: "value", Type: domain.TypeDouble},
			{Name: "count", Type: domain.TypeBigInt},
		},
		Rows: []domain.Record{
			{
				"reading_id": domain.StringValue("RDG-0001"),
				"sensor_id":  domain.StringValue("SEN-001"),
				"timestamp":  domain.TimeValue(time.Date(2024, 3, 1, 0, 15, 0, 0, time.UTC)),
				"value":      domain.DoubleValue(1.24),
				"count":      domain.IntValue(12),
			},
			{
				"reading_id": domain.StringValue("RDG-0002"),
				"sensor_id":  domain.NullValue(),
				"timestamp":  domain.TimeValue(time.Date(2024, 4, 2, 6, 30, 0, 0, time.UTC)),
				"value":      domain.NullValue(),
				"count":      domain.IntValue(9000000000),
			},
		},
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	ds := sampleDataset()
	data, err := Encode(ds)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := Decode(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, got.Columns, 5)
	require.Equal(t, 2, got.NumRows())

	for i, want := range ds.Rows {
		for _, c := range ds.Columns {
			assert.True(t, want[c.Name].Equal(got.Rows[i][c.Name]),
				"row %d column %s: want %v, got %v", i, c.Name, want[c.Name], got.Rows[i][c.Name])
		}
	}
}

func TestDecodeProjection(t *testing.T) {
	data, err := Encode(sampleDataset())
	require.NoError(t, err)

	got, err := Decode(context.Background(), data, "reading_id", "value")
	require.NoError(t, err)
	require.Len(t, got.Columns, 2)
	assert.Equal(t, "reading_id", got.Columns[0].Name)
	assert.Equal(t, "value", got.Columns[1].Name)
	require.Equal(t, 2, got.NumRows())
	_, hasTimestamp := got.Rows[0]["timestamp"]
	assert.False(t, hasTimestamp)
}

func TestDecodeProjectionMissingColumn(t *testing.T) {
	data, err := Encode(sampleDataset())
	require.NoError(t, err)

	_, err = Decode(context.Background(), data, "criticality")
	require.Error(t, err)
	assert.True(t, storage.IsNotFound(err))
}

func TestEncodeEmptyDataset(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []domain.Column{{Name: "a", Type: domain.TypeString}},
	}
	data, err := Encode(ds)
	require.NoError(t, err)

	got, err := Decode(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumRows())
	require.Len(t, got.Columns, 1)
}
