package colstore_test

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	colstore "github.com/hupe1980/colstore"
	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/internal/bgtask"
	"github.com/hupe1980/colstore/schema"
)

func testConfig(t *testing.T, tuning schema.TuningConfig) *schema.Config {
	t.Helper()

	row := schema.NewSchema("row", []schema.ColumnMeta{
		{Name: "id", Type: schema.ColumnTypeUint64},
		{Name: "name", Type: schema.ColumnTypeStrUtf8},
	})
	write := schema.NewSchema("write", []schema.ColumnMeta{
		{Name: "id", Type: schema.ColumnTypeUint64},
		{Name: "name", Type: schema.ColumnTypeStrUtf8},
	})
	byID := schema.NewSchema("by_id", []schema.ColumnMeta{{Name: "id", Type: schema.ColumnTypeUint64}})
	byID.SetUnique(true)

	indexes := schema.NewSchemaSet(row)
	require.NoError(t, indexes.Add(byID))

	cfg := &schema.Config{
		Row:            row,
		Write:          write,
		Indexes:        indexes,
		UniqueIndexIDs: []int{0},
		Tuning:         tuning,
	}
	require.NoError(t, cfg.Compile())
	return cfg
}

func rowBytes(t *testing.T, cfg *schema.Config, id uint64, name string) []byte {
	t.Helper()
	row, err := cfg.Row.CombineRow([][]byte{binary.LittleEndian.AppendUint64(nil, id), []byte(name)})
	require.NoError(t, err)
	return row
}

func idKey(id uint64) []byte { return binary.LittleEndian.AppendUint64(nil, id) }

func TestCreateInsertGetAndSearch(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, schema.TuningConfig{})
	bs := blobstore.NewMemoryStore()

	tbl, err := colstore.Create(ctx, bs, cfg)
	require.NoError(t, err)
	defer tbl.Close()

	gid, err := tbl.InsertRow(ctx, rowBytes(t, cfg, 1, "alice"))
	require.NoError(t, err)
	assert.True(t, tbl.Exists(gid))

	got, err := tbl.GetValue(gid, nil)
	require.NoError(t, err)
	assert.Equal(t, rowBytes(t, cfg, 1, "alice"), got)

	ids, err := tbl.IndexSearchExact("by_id", idKey(1))
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, gid, ids[0])

	ok, err := tbl.IndexKeyExists("by_id", idKey(2))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertRejectsDuplicateAndUpdateRemove(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, schema.TuningConfig{})
	bs := blobstore.NewMemoryStore()

	tbl, err := colstore.Create(ctx, bs, cfg)
	require.NoError(t, err)
	defer tbl.Close()

	gid, err := tbl.InsertRow(ctx, rowBytes(t, cfg, 1, "alice"))
	require.NoError(t, err)

	_, err = tbl.InsertRow(ctx, rowBytes(t, cfg, 1, "alice2"))
	var dup *colstore.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "by_id", dup.IndexName)

	newGID, err := tbl.UpdateRow(ctx, gid, rowBytes(t, cfg, 1, "alice3"))
	require.NoError(t, err)
	got, err := tbl.GetValue(newGID, nil)
	require.NoError(t, err)
	assert.Equal(t, rowBytes(t, cfg, 1, "alice3"), got)

	removed, err := tbl.RemoveRow(newGID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, tbl.Exists(newGID))

	_, err = tbl.GetValue(newGID, nil)
	assert.ErrorIs(t, err, colstore.ErrNotFound)
}

func TestFlushAndMergeReadonlySegments(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, schema.TuningConfig{})
	bs := blobstore.NewMemoryStore()

	tbl, err := colstore.Create(ctx, bs, cfg)
	require.NoError(t, err)
	defer tbl.Close()

	for i := uint64(0); i < 3; i++ {
		_, err := tbl.InsertRow(ctx, rowBytes(t, cfg, i, "n"))
		require.NoError(t, err)
	}
	require.NoError(t, tbl.Flush(ctx))
	require.NoError(t, tbl.Flush(ctx))
	assert.GreaterOrEqual(t, tbl.SegmentCount(), 2)

	before := tbl.SegmentCount()
	require.NoError(t, tbl.MergeReadonlySegments(ctx, 0, before-1))
	assert.Equal(t, 2, tbl.SegmentCount())
	assert.Equal(t, uint64(3), tbl.RowCount())
}

func TestIndexAndStoreCursors(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, schema.TuningConfig{})
	bs := blobstore.NewMemoryStore()

	tbl, err := colstore.Create(ctx, bs, cfg)
	require.NoError(t, err)
	defer tbl.Close()

	for i := uint64(0); i < 5; i++ {
		_, err := tbl.InsertRow(ctx, rowBytes(t, cfg, i, "n"))
		require.NoError(t, err)
	}

	var forward []uint64
	it := tbl.CreateIndexIterForward("by_id")
	for it.Next() {
		forward = append(forward, binary.LittleEndian.Uint64(it.Key()))
	}
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, forward)

	var backward []uint64
	bit := tbl.CreateIndexIterBackward("by_id")
	for bit.Next() {
		backward = append(backward, binary.LittleEndian.Uint64(bit.Key()))
	}
	assert.Equal(t, []uint64{4, 3, 2, 1, 0}, backward)

	var rows int
	sit := tbl.CreateStoreIterForward()
	for sit.Next() {
		rows++
	}
	assert.Equal(t, 5, rows)
}

func TestSyncFinishWritingDrainsBackgroundTasks(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, schema.TuningConfig{MaxWritingSegmentSize: 1, MinMergeSegNum: 2})
	bs := blobstore.NewMemoryStore()

	tbl, err := colstore.Create(ctx, bs, cfg, colstore.WithBackgroundTasks(bgtask.Config{}))
	require.NoError(t, err)

	for i := uint64(0); i < 4; i++ {
		_, err := tbl.InsertRow(ctx, rowBytes(t, cfg, i, "n"))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return tbl.SegmentCount() <= 3
	}, time.Second, time.Millisecond)

	require.NoError(t, tbl.SyncFinishWriting(ctx))
	require.NoError(t, tbl.Close())
}

func TestDropTableDeletesData(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, schema.TuningConfig{})
	bs := blobstore.NewMemoryStore()

	tbl, err := colstore.Create(ctx, bs, cfg)
	require.NoError(t, err)

	_, err = tbl.InsertRow(ctx, rowBytes(t, cfg, 1, "a"))
	require.NoError(t, err)

	require.NoError(t, tbl.DropTable(ctx))

	names, err := bs.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}
