package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritableSegmentAppendAndGetValue(t *testing.T) {
	cfg := testConfig(t)
	ws := NewWritable(cfg)

	id, err := ws.Append(rowBytes(t, cfg, 1, "alice", "alice@example.com"))
	require.NoError(t, err)

	got, err := ws.GetValueAppend(id, nil)
	require.NoError(t, err)

	cols, err := cfg.Write.ParseRow(got)
	require.NoError(t, err)
	assert.Equal(t, []byte("alice"), cols.Bytes(1))
}

func TestWritableSegmentAppendRejectsDuplicateUniqueKey(t *testing.T) {
	cfg := testConfig(t)
	ws := NewWritable(cfg)

	_, err := ws.Append(rowBytes(t, cfg, 1, "alice", "a@example.com"))
	require.NoError(t, err)

	_, err = ws.Append(rowBytes(t, cfg, 1, "bob", "b@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// the failed append must not have left a dangling by_name entry behind.
	ids, err := ws.SeekExact("by_name", []byte("bob"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestWritableSegmentSeekExact(t *testing.T) {
	cfg := testConfig(t)
	ws := NewWritable(cfg)

	id1, err := ws.Append(rowBytes(t, cfg, 1, "alice", "a@example.com"))
	require.NoError(t, err)
	_, err = ws.Append(rowBytes(t, cfg, 2, "bob", "b@example.com"))
	require.NoError(t, err)

	ids, err := ws.SeekExact("by_id", idKey(1))
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, id1, ids[0])

	ids, err = ws.SeekExact("by_id", idKey(99))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestWritableSegmentReplaceRowSameKey(t *testing.T) {
	cfg := testConfig(t)
	ws := NewWritable(cfg)

	id, err := ws.Append(rowBytes(t, cfg, 1, "alice", "a@example.com"))
	require.NoError(t, err)

	require.NoError(t, ws.ReplaceRow(id, rowBytes(t, cfg, 1, "alice", "alice2@example.com")))

	got, err := ws.GetValueAppend(id, nil)
	require.NoError(t, err)
	cols, err := cfg.Write.ParseRow(got)
	require.NoError(t, err)
	assert.Equal(t, []byte("alice2@example.com"), cols.Bytes(2))

	ids, err := ws.SeekExact("by_id", idKey(1))
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, id, ids[0])
}

func TestWritableSegmentReplaceRowChangedIndexedKey(t *testing.T) {
	cfg := testConfig(t)
	ws := NewWritable(cfg)

	id, err := ws.Append(rowBytes(t, cfg, 1, "alice", "a@example.com"))
	require.NoError(t, err)

	require.NoError(t, ws.ReplaceRow(id, rowBytes(t, cfg, 1, "alicia", "a@example.com")))

	oldIDs, err := ws.SeekExact("by_name", []byte("alice"))
	require.NoError(t, err)
	assert.Empty(t, oldIDs)

	newIDs, err := ws.SeekExact("by_name", []byte("alicia"))
	require.NoError(t, err)
	require.Len(t, newIDs, 1)
	assert.Equal(t, id, newIDs[0])
}

func TestWritableSegmentRemoveRow(t *testing.T) {
	cfg := testConfig(t)
	ws := NewWritable(cfg)

	id, err := ws.Append(rowBytes(t, cfg, 1, "alice", "a@example.com"))
	require.NoError(t, err)

	require.NoError(t, ws.RemoveRow(id))

	_, err = ws.GetValueAppend(id, nil)
	assert.ErrorIs(t, err, ErrRemoved)

	ids, err := ws.SeekExact("by_id", idKey(1))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestWritableSegmentZeroIndexesConfig(t *testing.T) {
	cfg := testConfigNoIndexes(t)
	ws := NewWritable(cfg)

	row, err := cfg.Row.CombineRow([][]byte{
		{1, 0, 0, 0, 0, 0, 0, 0},
		[]byte("hello"),
	})
	require.NoError(t, err)

	id, err := ws.Append(row)
	require.NoError(t, err)
	assert.Empty(t, ws.IndexNames())

	_, err = ws.GetValueAppend(id, nil)
	require.NoError(t, err)
}
