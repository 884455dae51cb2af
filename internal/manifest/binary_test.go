package manifest

import (
	"bytes"
	"testing"
	"time"

	"github.com/hupe1980/colstore/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryRoundTrip(t *testing.T) {
	sl := &SegList{
		Version:       1,
		ID:            1,
		CreatedAt:     time.Now(),
		NextSegmentID: 3,
		Segments: []SegmentEntry{
			{ID: 1, Kind: SegmentReadonly, Dir: "rd-0", RowCount: 1000},
			{ID: 2, Kind: SegmentWritable, Dir: "wr-1", RowCount: 42},
		},
		RowNumVec: []uint64{0, 1000, 1042},
	}

	var buf bytes.Buffer
	err := WriteBinary(&buf, sl)
	require.NoError(t, err)
	t.Logf("written %d bytes", buf.Len())

	sl2, err := ReadBinary(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, sl.ID, sl2.ID)
	assert.Equal(t, sl.NextSegmentID, sl2.NextSegmentID)
	require.Len(t, sl2.Segments, 2)
	assert.Equal(t, model.SegmentID(1), sl2.Segments[0].ID)
	assert.Equal(t, SegmentReadonly, sl2.Segments[0].Kind)
	assert.Equal(t, "rd-0", sl2.Segments[0].Dir)
	assert.Equal(t, uint32(1000), sl2.Segments[0].RowCount)
	assert.Equal(t, SegmentWritable, sl2.Segments[1].Kind)
	assert.Equal(t, []uint64{0, 1000, 1042}, sl2.RowNumVec)
}

func TestReadBinaryRejectsBadMagic(t *testing.T) {
	_, err := ReadBinary([]byte("not a segment list at all"))
	assert.Error(t, err)
}

func TestReadBinaryRejectsChecksumMismatch(t *testing.T) {
	sl := New()
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, sl))

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	_, err := ReadBinary(corrupted)
	assert.Error(t, err)
}
