package store

import (
	"bytes"
	"testing"

	"github.com/hupe1980/colstore/internal/svec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildVariablePacked(t *testing.T, values ...string) svec.Packed {
	t.Helper()
	v := svec.New(len(values), 0)
	for _, s := range values {
		v.Append([]byte(s))
	}
	packed, err := v.IntoPacked()
	require.NoError(t, err)
	return packed
}

func TestReadableStoreEncodeDecodeRoundTripVariable(t *testing.T) {
	packed := buildVariablePacked(t, "alpha", "b", "", "gamma")
	rs := NewReadableFromPacked(packed, 0, true)

	data := rs.Encode()
	decoded, err := Decode(data, true)
	require.NoError(t, err)

	assert.Equal(t, 4, decoded.NumDataRows())
	for i, want := range []string{"alpha", "b", "", "gamma"} {
		got, err := decoded.GetValueAppend(uint32(i), nil)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestReadableStoreFixedWidth(t *testing.T) {
	v := svec.New(3, 0)
	v.Append([]byte{1, 2, 3, 4})
	v.Append([]byte{5, 6, 7, 8})
	v.Append([]byte{9, 10, 11, 12})
	packed, err := v.IntoPacked()
	require.NoError(t, err)

	rs := NewReadableFromPacked(packed, 4, true)
	data := rs.Encode()

	decoded, err := Decode(data, true)
	require.NoError(t, err)
	assert.Equal(t, 3, decoded.NumDataRows())

	got, err := decoded.GetValueAppend(1, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 7, 8}, got)
}

func TestReadableStoreGetValueAppendOutOfRange(t *testing.T) {
	packed := buildVariablePacked(t, "a")
	rs := NewReadableFromPacked(packed, 0, true)
	_, err := rs.GetValueAppend(5, nil)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestReadableStoreIterationOrder(t *testing.T) {
	packed := buildVariablePacked(t, "one", "two", "three")
	rs := NewReadableFromPacked(packed, 0, true)

	it, err := rs.CreateStoreIter()
	require.NoError(t, err)

	var got []string
	for it.Next() {
		v, err := it.ValueAppend(nil)
		require.NoError(t, err)
		got = append(got, string(v))
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestReadableStoreNotIterable(t *testing.T) {
	packed := buildVariablePacked(t, "a")
	rs := NewReadableFromPacked(packed, 0, false)
	_, err := rs.CreateStoreIter()
	assert.ErrorIs(t, err, ErrNotIterable)
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3}, true)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeRejectsTruncatedOffsets(t *testing.T) {
	packed := buildVariablePacked(t, "aa", "bb")
	rs := NewReadableFromPacked(packed, 0, true)
	data := rs.Encode()

	_, err := Decode(data[:readableHeaderSize+2], true)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestGetValueAppendReusesBuffer(t *testing.T) {
	packed := buildVariablePacked(t, "hello")
	rs := NewReadableFromPacked(packed, 0, true)

	buf := []byte("prefix:")
	out, err := rs.GetValueAppend(0, buf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("prefix:")))
	assert.Equal(t, "prefix:hello", string(out))
}
