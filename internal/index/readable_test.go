package index

import (
	"encoding/binary"
	"math"
	"sort"
	"testing"

	"github.com/hupe1980/colstore/internal/svec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildReadableIndex bulk-builds a ReadableIndex the way segment freeze
// does: append keys in insertion order, then derive the ascending
// permutation (spec.md §4.7).
func buildReadableIndex(t *testing.T, keys ...string) *ReadableIndex {
	t.Helper()
	v := svec.New(len(keys), 0)
	for _, k := range keys {
		v.Append([]byte(k))
	}
	packed, err := v.IntoPacked()
	require.NoError(t, err)

	ids := make([]uint32, len(keys))
	for i := range ids {
		ids[i] = uint32(i)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytesCmp(keyOfPacked(packed, ids[i]), keyOfPacked(packed, ids[j])) < 0
	})

	return NewReadableFromPacked(packed, 0, ids, bytesCmp)
}

func keyOfPacked(packed svec.Packed, localID uint32) []byte {
	return packed.Pool[packed.Offsets[localID]:packed.Offsets[localID+1]]
}

func TestReadableIndexAscendingIteration(t *testing.T) {
	ri := buildReadableIndex(t, "banana", "apple", "cherry")

	it := ri.NewIter()
	var got []string
	var ids []uint32
	for it.Increment(); it.Valid(); it.Increment() {
		got = append(got, string(it.Key()))
		ids = append(ids, ri.LocalIDAt(it.Pos()))
	}
	assert.Equal(t, []string{"apple", "banana", "cherry"}, got)
	// apple was inserted at local id 1, banana at 0, cherry at 2.
	assert.Equal(t, []uint32{1, 0, 2}, ids)
}

func TestReadableIndexSeekExact(t *testing.T) {
	ri := buildReadableIndex(t, "b", "a", "c")
	it := ri.NewIter()
	assert.True(t, it.SeekExact([]byte("b"), bytesCmp))
	assert.Equal(t, "b", string(it.Key()))

	assert.False(t, it.SeekExact([]byte("missing"), bytesCmp))
}

func TestReadableIndexEncodeDecodeRoundTrip(t *testing.T) {
	ri := buildReadableIndex(t, "z", "m", "a")
	data := ri.Encode()

	decoded, err := DecodeIndex(data, bytesCmp)
	require.NoError(t, err)
	assert.Equal(t, ri.Len(), decoded.Len())

	it := decoded.NewIter()
	var got []string
	for it.Increment(); it.Valid(); it.Increment() {
		got = append(got, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "m", "z"}, got)
}

func TestReadableIndexFixedWidthKeys(t *testing.T) {
	v := svec.New(3, 0)
	v.Append(binary.BigEndian.AppendUint32(nil, 30))
	v.Append(binary.BigEndian.AppendUint32(nil, 10))
	v.Append(binary.BigEndian.AppendUint32(nil, 20))
	packed, err := v.IntoPacked()
	require.NoError(t, err)

	ids := []uint32{1, 2, 0} // pre-sorted: 10, 20, 30
	ri := NewReadableFromPacked(packed, 4, ids, bytesCmp)

	data := ri.Encode()
	decoded, err := DecodeIndex(data, bytesCmp)
	require.NoError(t, err)

	var got []uint32
	it := decoded.NewIter()
	for it.Increment(); it.Valid(); it.Increment() {
		got = append(got, binary.BigEndian.Uint32(it.Key()))
	}
	assert.Equal(t, []uint32{10, 20, 30}, got)
}

func TestDecodeIndexRejectsTruncated(t *testing.T) {
	_, err := DecodeIndex([]byte{1, 2, 3}, bytesCmp)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReadableIndexByteLexOrderMatchesNumericOrder(t *testing.T) {
	// Regression for the ordering contract (spec.md §8 "Byte-lex
	// equivalence"): keys pre-sorted by true int32 order, not raw
	// little-endian byte order, must iterate in that same order.
	values := []int32{-2, -1, 0, 1, 2, math.MinInt32, math.MaxInt32}
	v := svec.New(len(values), 0)
	for _, val := range values {
		v.Append(binary.BigEndian.AppendUint32(nil, uint32(val)))
	}
	packed, err := v.IntoPacked()
	require.NoError(t, err)

	ids := make([]uint32, len(values))
	for i := range ids {
		ids[i] = uint32(i)
	}
	sort.Slice(ids, func(i, j int) bool { return values[ids[i]] < values[ids[j]] })

	ri := NewReadableFromPacked(packed, 4, ids, bytesCmp)
	it := ri.NewIter()
	var got []int32
	for it.Increment(); it.Valid(); it.Increment() {
		got = append(got, int32(binary.BigEndian.Uint32(it.Key())))
	}
	assert.Equal(t, []int32{math.MinInt32, -2, -1, 0, 1, 2, math.MaxInt32}, got)
}
