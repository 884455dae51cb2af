package bgtask

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/internal/resource"
	"github.com/hupe1980/colstore/internal/table"
	"github.com/hupe1980/colstore/schema"
)

func testConfig(t *testing.T, tuning schema.TuningConfig) *schema.Config {
	t.Helper()

	row := schema.NewSchema("row", []schema.ColumnMeta{
		{Name: "id", Type: schema.ColumnTypeUint64},
	})
	write := schema.NewSchema("write", []schema.ColumnMeta{
		{Name: "id", Type: schema.ColumnTypeUint64},
	})
	byID := schema.NewSchema("by_id", []schema.ColumnMeta{
		{Name: "id", Type: schema.ColumnTypeUint64},
	})
	byID.SetUnique(true)

	indexes := schema.NewSchemaSet(row)
	require.NoError(t, indexes.Add(byID))

	cfg := &schema.Config{
		TableClass:     "primary",
		Row:            row,
		Write:          write,
		Indexes:        indexes,
		UniqueIndexIDs: []int{0},
		Tuning:         tuning,
	}
	require.NoError(t, cfg.Compile())
	return cfg
}

func rowBytes(t *testing.T, cfg *schema.Config, id uint64) []byte {
	t.Helper()
	row, err := cfg.Row.CombineRow([][]byte{binary.LittleEndian.AppendUint64(nil, id)})
	require.NoError(t, err)
	return row
}

func awaitCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

func TestFlushWorkerFreezesActiveSegment(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, schema.TuningConfig{})
	bs := blobstore.NewMemoryStore()

	tbl, err := table.Create(ctx, bs, cfg)
	require.NoError(t, err)
	_, err = tbl.InsertRow(ctx, rowBytes(t, cfg, 1))
	require.NoError(t, err)

	m := NewManager(resource.NewController(resource.Config{}), Config{})
	require.True(t, m.EnqueueFlush(tbl))

	awaitCondition(t, time.Second, func() bool { return tbl.SegmentCount() == 2 })

	m.SafeStopAndWaitForFlush()
	m.SafeStopAndWaitForCompress()
}

func TestCompressWorkerMergesOnceThresholdReached(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, schema.TuningConfig{MaxWritingSegmentSize: 1, MinMergeSegNum: 2})
	bs := blobstore.NewMemoryStore()

	tbl, err := table.Create(ctx, bs, cfg)
	require.NoError(t, err)

	for i := uint64(0); i < 4; i++ {
		_, err := tbl.InsertRow(ctx, rowBytes(t, cfg, i))
		require.NoError(t, err)
	}
	require.GreaterOrEqual(t, tbl.ReadonlySegmentCount(), 2)

	m := NewManager(resource.NewController(resource.Config{}), Config{})
	require.True(t, m.EnqueueCompress(tbl))

	awaitCondition(t, time.Second, func() bool { return tbl.SegmentCount() == 2 })
	assert.Equal(t, uint64(4), tbl.RowCount())

	m.SafeStopAndWaitForFlush()
	m.SafeStopAndWaitForCompress()
}

func TestCompressWorkerPurgesHighRemovedFractionSegment(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, schema.TuningConfig{PurgeDeleteThreshold: 0.5})
	bs := blobstore.NewMemoryStore()

	tbl, err := table.Create(ctx, bs, cfg)
	require.NoError(t, err)

	gid, err := tbl.InsertRow(ctx, rowBytes(t, cfg, 1))
	require.NoError(t, err)
	_, err = tbl.InsertRow(ctx, rowBytes(t, cfg, 2))
	require.NoError(t, err)
	require.NoError(t, tbl.FlushActiveSegment(ctx))

	ok, err := tbl.RemoveRow(gid)
	require.NoError(t, err)
	require.True(t, ok)

	frac, ok := tbl.SegmentRemovedFraction(0)
	require.True(t, ok)
	require.Equal(t, 0.5, frac)

	m := NewManager(resource.NewController(resource.Config{}), Config{})
	require.True(t, m.EnqueueCompress(tbl))

	awaitCondition(t, time.Second, func() bool {
		f, ok := tbl.SegmentRemovedFraction(0)
		return ok && f == 0
	})
	assert.Equal(t, uint64(1), tbl.RowCount())

	m.SafeStopAndWaitForFlush()
	m.SafeStopAndWaitForCompress()
}

func TestEnqueueReportsFalseWhenQueueFull(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, schema.TuningConfig{})
	bs := blobstore.NewMemoryStore()
	tbl, err := table.Create(ctx, bs, cfg)
	require.NoError(t, err)

	m := &Manager{flushCh: make(chan Job)} // unbuffered, no worker draining it
	assert.False(t, m.EnqueueFlush(tbl))
}
