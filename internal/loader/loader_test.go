package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobiltex-datalake/internal/catalog/metastore"
	"mobiltex-datalake/internal/columnar"
	"mobiltex-datalake/internal/domain"
	"mobiltex-datalake/internal/storage"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func writeSampleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"assets.csv": "asset_id,asset_name,asset_type,location,install_date,status\n" +
			"AST-001,North Segment,pipeline_segment,\"Calgary, AB\",2019-04-15,active\n" +
			"AST-002,Station Alpha,compressor_station,\"Red Deer, AB\",2017-09-02,active\n",
		"sensors.csv": "sensor_id,asset_id,sensor_model,sensor_type,install_date,status,last_calibration\n" +
			"SEN-001,AST-001,CorrTran MV2,corrosion_rate,2019-04-20,active,2024-01-12\n",
		"readings.csv": "reading_id,sensor_id,timestamp,value,unit,quality\n" +
			"RDG-0001,SEN-001,2024-03-01 00:15:00,1.24,mpy,good\n" +
			"RDG-0002,SEN-001,2024-04-02 06:30:00,1.31,mpy,good\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func registerTables(t *testing.T, reg *metastore.Registry) {
	t.Helper()
	ctx := context.Background()
	tables := []*domain.Table{
		{
			Name: "assets",
			Columns: []domain.Column{
				{Name: "asset_id", Type: domain.TypeString},
				{Name: "asset_name", Type: domain.TypeString},
				{Name: "asset_type", Type: domain.TypeString},
				{Name: "location", Type: domain.TypeString},
				{Name: "install_date", Type: domain.TypeTimestamp},
				{Name: "status", Type: domain.TypeString},
				{Name: "last_updated", Type: domain.TypeTimestamp},
			},
			Location:       "s3://curated/parquet/assets/",
			TableType:      domain.TableTypeExternal,
			Classification: domain.ClassificationParquet,
		},
		{
			Name: "sensors",
			Columns: []domain.Column{
				{Name: "sensor_id", Type: domain.TypeString},
				{Name: "asset_id", Type: domain.TypeString},
				{Name: "sensor_model", Type: domain.TypeString},
				{Name: "sensor_type", Type: domain.TypeString},
				{Name: "install_date", Type: domain.TypeTimestamp},
				{Name: "status", Type: domain.TypeString},
				{Name: "last_calibration", Type: domain.TypeTimestamp},
			},
			Location:       "s3://curated/parquet/sensors/",
			TableType:      domain.TableTypeExternal,
			Classification: domain.ClassificationParquet,
		},
		{
			Name: "readings",
			Columns: []domain.Column{
				{Name: "reading_id", Type: domain.TypeString},
				{Name: "sensor_id", Type: domain.TypeString},
				{Name: "timestamp", Type: domain.TypeTimestamp},
				{Name: "value", Type: domain.TypeDouble},
				{Name: "unit", Type: domain.TypeString},
				{Name: "quality", Type: domain.TypeString},
			},
			PartitionKeys: []domain.Column{
				{Name: "year", Type: domain.TypeInt},
				{Name: "month", Type: domain.TypeInt},
			},
			Location:       "s3://curated/parquet/readings/",
			TableType:      domain.TableTypeExternal,
			Classification: domain.ClassificationParquet,
		},
	}
	for _, tbl := range tables {
		require.NoError(t, reg.CreateTable(ctx, tbl))
	}
}

func TestLoadAll(t *testing.T) {
	ctx := context.Background()
	reg := metastore.New(metastore.OpenTestSQLite(t))
	store := storage.NewMemStore()
	registerTables(t, reg)
	dir := writeSampleDir(t)

	l := New(reg, store, nil, func() time.Time { return fixedNow })
	summaries, err := l.LoadAll(ctx, dir)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "assets", summaries[0].Table)
	assert.Equal(t, 2, summaries[0].Rows)
	assert.Equal(t, "sensors", summaries[1].Table)
	assert.Equal(t, 1, summaries[1].Rows)
	assert.Equal(t, "readings", summaries[2].Table)
	assert.Equal(t, 2, summaries[2].Rows)
	assert.Equal(t, 2, summaries[2].Partitions, "march and april")

	// Assets got stamped with last_updated at load time.
	got, err := columnar.NewReader(store).ReadAll(ctx, "parquet/assets/", nil)
	require.NoError(t, err)
	require.Equal(t, 2, got.NumRows())
	assert.True(t, domain.TimeValue(fixedNow).Equal(got.Rows[0]["last_updated"]))

	// Readings landed under Hive-style partition paths.
	keys, err := store.List(ctx, "parquet/readings/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"parquet/readings/year=2024/month=3/readings.parquet",
		"parquet/readings/year=2024/month=4/readings.parquet",
	}, keys)
}

func TestLoadTableUnknownTable(t *testing.T) {
	reg := metastore.New(metastore.OpenTestSQLite(t))
	l := New(reg, storage.NewMemStore(), nil, nil)
	_, err := l.LoadTable(context.Background(), "nope", "whatever.csv")
	require.Error(t, err)
	assert.IsType(t, &domain.NotFoundError{}, err)
}

func TestLoadTableMissingFile(t *testing.T) {
	reg := metastore.New(metastore.OpenTestSQLite(t))
	registerTables(t, reg)
	l := New(reg, storage.NewMemStore(), nil, nil)
	_, err := l.LoadTable(context.Background(), "assets", filepath.Join(t.TempDir(), "assets.csv"))
	require.Error(t, err)
}
