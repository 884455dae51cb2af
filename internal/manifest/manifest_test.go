package manifest

import (
	"context"
	"testing"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadOnEmptyReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewStore(blobstore.NewLocalStore(dir))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewStore(blobstore.NewLocalStore(dir))

	sl := New()
	sl.Segments = append(sl.Segments, SegmentEntry{ID: 1, Kind: SegmentWritable, Dir: "wr-0", RowCount: 0})

	require.NoError(t, store.Save(ctx, sl))
	assert.Equal(t, uint64(1), sl.ID)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), loaded.ID)
	require.Len(t, loaded.Segments, 1)
	assert.Equal(t, model.SegmentID(1), loaded.Segments[0].ID)
}

func TestStoreSaveIncrementsVersionAndRepublishesCurrent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewStore(blobstore.NewLocalStore(dir))

	sl := New()
	require.NoError(t, store.Save(ctx, sl))
	assert.Equal(t, uint64(1), sl.ID)

	require.NoError(t, store.Save(ctx, sl))
	assert.Equal(t, uint64(2), sl.ID)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), loaded.ID)
}

func TestSchemaConfigRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := blobstore.NewLocalStore(dir)

	cfg := &SchemaConfig{
		TableClass: "orders",
		Tuning: TuningConfig{
			MaxWritingSegmentSize: 64 << 20,
			MinMergeSegNum:        4,
			PurgeDeleteThreshold:  0.3,
		},
	}

	require.NoError(t, SaveSchemaConfig(ctx, store, "meta.json", cfg))

	loaded, err := LoadSchemaConfig(ctx, store, "meta.json")
	require.NoError(t, err)
	assert.Equal(t, "orders", loaded.TableClass)
	assert.Equal(t, 4, loaded.Tuning.MinMergeSegNum)
	assert.InDelta(t, 0.3, loaded.Tuning.PurgeDeleteThreshold, 1e-9)
}

func TestLoadSchemaConfigMissingFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := blobstore.NewLocalStore(dir)

	_, err := LoadSchemaConfig(ctx, store, "meta.json")
	assert.Error(t, err)
}
