package segment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colstore/blobstore"
)

func TestWritableSegmentSaveLoadRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	ws := NewWritable(cfg)

	id1, err := ws.Append(rowBytes(t, cfg, 1, "alice", "a@example.com"))
	require.NoError(t, err)
	_, err = ws.Append(rowBytes(t, cfg, 2, "bob", "b@example.com"))
	require.NoError(t, err)
	require.NoError(t, ws.RemoveRow(id1))

	bs := blobstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, ws.Save(ctx, bs, "seg1"))

	loaded, err := LoadWritableSegment(ctx, bs, "seg1", cfg)
	require.NoError(t, err)

	assert.Equal(t, ws.NumRows(), loaded.NumRows())

	_, err = loaded.GetValueAppend(id1, nil)
	assert.ErrorIs(t, err, ErrRemoved)

	ids, err := loaded.SeekExact("by_id", idKey(2))
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestReadonlySegmentSaveLoadRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	ws := NewWritable(cfg)

	for _, id := range []uint64{1, 2, 3} {
		_, err := ws.Append(rowBytes(t, cfg, id, "n", "e@example.com"))
		require.NoError(t, err)
	}

	rs, err := Freeze(ws)
	require.NoError(t, err)

	bs := blobstore.NewMemoryStore()
	ctx := context.Background()

	for _, codec := range []Codec{NoopCodec{}, ZstdCodec{}, LZ4Codec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			dir := "seg-" + codec.Name()
			require.NoError(t, rs.Save(ctx, bs, dir, codec))

			loaded, err := LoadReadonlySegment(ctx, bs, dir, cfg)
			require.NoError(t, err)
			assert.Equal(t, rs.NumRows(), loaded.NumRows())

			ids, err := loaded.SeekExact("by_id", idKey(2))
			require.NoError(t, err)
			require.Len(t, ids, 1)

			got, err := loaded.GetValueAppend(ids[0], nil)
			require.NoError(t, err)
			cols, err := cfg.Write.ParseRow(got)
			require.NoError(t, err)
			assert.Equal(t, []byte("n"), cols.Bytes(1))
		})
	}
}

func TestReadonlySegmentZeroIndexesSaveLoad(t *testing.T) {
	cfg := testConfigNoIndexes(t)
	ws := NewWritable(cfg)

	row, err := cfg.Row.CombineRow([][]byte{
		{1, 0, 0, 0, 0, 0, 0, 0},
		[]byte("hi"),
	})
	require.NoError(t, err)
	_, err = ws.Append(row)
	require.NoError(t, err)

	rs, err := Freeze(ws)
	require.NoError(t, err)

	bs := blobstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, rs.Save(ctx, bs, "seg", NoopCodec{}))

	loaded, err := LoadReadonlySegment(ctx, bs, "seg", cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.NumRows())
	assert.Empty(t, loaded.ColGroupNames())
}
