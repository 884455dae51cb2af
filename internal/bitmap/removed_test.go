package bitmap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemovedSetMarkAndTest(t *testing.T) {
	rs := New()
	assert.False(t, rs.IsRemoved(5))

	rs.Mark(5)
	rs.Mark(5) // idempotent
	rs.Mark(12)

	assert.True(t, rs.IsRemoved(5))
	assert.True(t, rs.IsRemoved(12))
	assert.False(t, rs.IsRemoved(6))
	assert.EqualValues(t, 2, rs.Cardinality())
}

func TestRemovedSetFraction(t *testing.T) {
	rs := New()
	assert.Equal(t, float64(0), rs.Fraction(0))

	for i := uint32(0); i < 5; i++ {
		rs.Mark(i)
	}
	assert.InDelta(t, 0.5, rs.Fraction(10), 1e-9)
}

func TestRemovedSetRoundTrip(t *testing.T) {
	rs := New()
	rs.Mark(1)
	rs.Mark(100)
	rs.Mark(1000)

	var buf bytes.Buffer
	_, err := rs.WriteTo(&buf)
	require.NoError(t, err)

	loaded := New()
	_, err = loaded.ReadFrom(&buf)
	require.NoError(t, err)

	assert.True(t, loaded.IsRemoved(1))
	assert.True(t, loaded.IsRemoved(100))
	assert.True(t, loaded.IsRemoved(1000))
	assert.False(t, loaded.IsRemoved(2))
	assert.EqualValues(t, rs.Cardinality(), loaded.Cardinality())
}

func TestRemovedSetCloneIsIndependent(t *testing.T) {
	rs := New()
	rs.Mark(1)

	clone := rs.Clone()
	clone.Mark(2)

	assert.False(t, rs.IsRemoved(2))
	assert.True(t, clone.IsRemoved(2))
}

func TestRemovedSetForEach(t *testing.T) {
	rs := New()
	rs.Mark(3)
	rs.Mark(1)
	rs.Mark(2)

	var seen []uint32
	rs.ForEach(func(localID uint32) {
		seen = append(seen, localID)
	})

	assert.Equal(t, []uint32{1, 2, 3}, seen)
}
