package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest exercises the ObjectStore contract shared by every backend.
func storeUnderTest(t *testing.T, store ObjectStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "parquet/assets/assets.parquet", []byte("v1")))
	require.NoError(t, store.Put(ctx, "parquet/readings/year=2024/month=3/readings.parquet", []byte("march")))
	require.NoError(t, store.Put(ctx, "parquet/readings/year=2024/month=4/readings.parquet", []byte("april")))

	t.Run("get", func(t *testing.T) {
		data, err := store.Get(ctx, "parquet/assets/assets.parquet")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), data)
	})

	t.Run("get missing is NotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "parquet/assets/nope.parquet")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "parquet/assets/assets.parquet", []byte("v2")))
		data, err := store.Get(ctx, "parquet/assets/assets.parquet")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), data)
	})

	t.Run("list is sorted and prefix-scoped", func(t *testing.T) {
		keys, err := store.List(ctx, "parquet/readings/")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"parquet/readings/year=2024/month=3/readings.parquet",
			"parquet/readings/year=2024/month=4/readings.parquet",
		}, keys)

		keys, err = store.List(ctx, "backups/")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("copy", func(t *testing.T) {
		require.NoError(t, store.Copy(ctx, "parquet/assets/assets.parquet", "backups/assets/snap/assets.parquet"))
		data, err := store.Get(ctx, "backups/assets/snap/assets.parquet")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), data)
	})

	t.Run("copy missing is NotFound", func(t *testing.T) {
		err := store.Copy(ctx, "no/such/key", "anywhere")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "backups/assets/snap/assets.parquet"))
		_, err := store.Get(ctx, "backups/assets/snap/assets.parquet")
		assert.True(t, IsNotFound(err))
		// deleting again is fine
		require.NoError(t, store.Delete(ctx, "backups/assets/snap/assets.parquet"))
	})
}

func TestMemStore(t *testing.T) {
	storeUnderTest(t, NewMemStore())
}

func TestFSStore(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	storeUnderTest(t, store)
}

func TestMemStoreDefensiveCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	data := []byte("original")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestParseS3Path(t *testing.T) {
	bucket, key, err := ParseS3Path("s3://curated/parquet/assets/assets.parquet")
	require.NoError(t, err)
	assert.Equal(t, "curated", bucket)
	assert.Equal(t, "parquet/assets/assets.parquet", key)

	_, _, err = ParseS3Path("https://curated/parquet")
	require.Error(t, err)
	_, _, err = ParseS3Path("s3:///no-bucket")
	require.Error(t, err)
}

func TestKeyForLocation(t *testing.T) {
	key, err := KeyForLocation("s3://curated/parquet/assets/")
	require.NoError(t, err)
	assert.Equal(t, "parquet/assets/", key)

	// bucket-relative keys pass through
	key, err = KeyForLocation("parquet/assets/")
	require.NoError(t, err)
	assert.Equal(t, "parquet/assets/", key)
}
