package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritableStoreAppendAndGet(t *testing.T) {
	s := NewWritable()
	id0 := s.Append([]byte("a"))
	id1 := s.Append([]byte("bb"))
	assert.Equal(t, uint32(0), id0)
	assert.Equal(t, uint32(1), id1)

	v, ok, err := s.Get(id1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bb", string(v))
}

func TestWritableStoreReplace(t *testing.T) {
	s := NewWritable()
	id := s.Append([]byte("a"))
	before := s.DataStorageSize()

	require.NoError(t, s.Replace(id, []byte("longer value")))
	v, ok, err := s.Get(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "longer value", string(v))
	assert.Greater(t, s.DataStorageSize(), before)
}

func TestWritableStoreRemoveReservesSlot(t *testing.T) {
	s := NewWritable()
	id0 := s.Append([]byte("a"))
	id1 := s.Append([]byte("b"))

	require.NoError(t, s.Remove(id0))
	assert.Equal(t, 2, s.Len()) // slot count unaffected

	_, ok, err := s.Get(id0)
	require.NoError(t, err)
	assert.False(t, ok)

	// id1 is unaffected and keeps its original id.
	v, ok, err := s.Get(id1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", string(v))

	nextID := s.Append([]byte("c"))
	assert.Equal(t, uint32(2), nextID) // ids never reused/shifted
}

func TestWritableStoreReplaceResurrectsRemovedSlot(t *testing.T) {
	s := NewWritable()
	id := s.Append([]byte("a"))
	require.NoError(t, s.Remove(id))

	require.NoError(t, s.Replace(id, []byte("back")))
	v, ok, err := s.Get(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "back", string(v))
}

func TestWritableStoreForEachVisitsClearedSlots(t *testing.T) {
	s := NewWritable()
	s.Append([]byte("a"))
	id1 := s.Append([]byte("b"))
	s.Append([]byte("c"))
	require.NoError(t, s.Remove(id1))

	var seen []uint32
	var clearedSeen []bool
	s.ForEach(func(id uint32, row []byte, cleared bool) bool {
		seen = append(seen, id)
		clearedSeen = append(clearedSeen, cleared)
		return true
	})
	assert.Equal(t, []uint32{0, 1, 2}, seen)
	assert.Equal(t, []bool{false, true, false}, clearedSeen)
}

func TestWritableStoreForEachStopsEarly(t *testing.T) {
	s := NewWritable()
	s.Append([]byte("a"))
	s.Append([]byte("b"))
	s.Append([]byte("c"))

	var visited int
	s.ForEach(func(id uint32, row []byte, cleared bool) bool {
		visited++
		return id < 1
	})
	assert.Equal(t, 2, visited)
}

func TestWritableStoreOutOfRangeErrors(t *testing.T) {
	s := NewWritable()
	_, _, err := s.Get(0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, s.Replace(0, nil), ErrOutOfRange)
	assert.ErrorIs(t, s.Remove(0), ErrOutOfRange)
}

func TestWritableStoreRoundTripThroughDump(t *testing.T) {
	s := NewWritable()
	s.Append([]byte("first"))
	id1 := s.Append([]byte("second"))
	s.Append([]byte(""))
	require.NoError(t, s.Remove(id1))

	data := s.WriteTo()
	reloaded, err := ReadWritable(data)
	require.NoError(t, err)

	assert.Equal(t, s.Len(), reloaded.Len())
	for i := uint32(0); i < uint32(s.Len()); i++ {
		wantV, wantOK, wantErr := s.Get(i)
		gotV, gotOK, gotErr := reloaded.Get(i)
		require.NoError(t, wantErr)
		require.NoError(t, gotErr)
		assert.Equal(t, wantOK, gotOK)
		assert.Equal(t, wantV, gotV)
	}
	assert.Equal(t, s.DataStorageSize(), reloaded.DataStorageSize())
}

func TestReadWritableRejectsBadMagic(t *testing.T) {
	_, err := ReadWritable([]byte{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestReadWritableRejectsTruncated(t *testing.T) {
	_, err := ReadWritable([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncated)
}
