// Package bitmap implements the segment-local removed-rows set persisted as
// a segment's removed.bits file.
package bitmap

import (
	"io"

	"github.com/RoaringBitmap/roaring/v2"
)

// RemovedSet tracks the local IDs of logically-deleted rows within a single
// segment. It is consulted on every read path (getValueAppend,
// indexSearchExact, store/index iteration) to hide removed rows without
// rewriting the segment's store or index files.
//
// Segments are compacted by purge once the removed fraction crosses
// purgeDeleteThreshold, so in steady state the set stays sparse: Roaring's
// container model keeps it compact both in memory and on disk.
type RemovedSet struct {
	bm *roaring.Bitmap
}

// New returns an empty RemovedSet.
func New() *RemovedSet {
	return &RemovedSet{bm: roaring.New()}
}

// Mark records localID as removed. Idempotent.
func (s *RemovedSet) Mark(localID uint32) {
	s.bm.Add(localID)
}

// IsRemoved reports whether localID has been marked removed.
func (s *RemovedSet) IsRemoved(localID uint32) bool {
	return s.bm.Contains(localID)
}

// Cardinality returns the number of removed rows.
func (s *RemovedSet) Cardinality() uint64 {
	return s.bm.GetCardinality()
}

// Fraction returns Cardinality() / rowCount, used against
// purgeDeleteThreshold. Returns 0 when rowCount is 0.
func (s *RemovedSet) Fraction(rowCount uint32) float64 {
	if rowCount == 0 {
		return 0
	}
	return float64(s.Cardinality()) / float64(rowCount)
}

// WriteTo serializes the set in Roaring's portable binary format.
func (s *RemovedSet) WriteTo(w io.Writer) (int64, error) {
	return s.bm.WriteTo(w)
}

// ReadFrom replaces the set's contents by reading a previously-written
// removed.bits stream.
func (s *RemovedSet) ReadFrom(r io.Reader) (int64, error) {
	if s.bm == nil {
		s.bm = roaring.New()
	}
	return s.bm.ReadFrom(r)
}

// Clone returns an independent copy, used by merge/purge to carry forward
// a surviving subset of removed bits under a remapped local-ID space.
func (s *RemovedSet) Clone() *RemovedSet {
	return &RemovedSet{bm: s.bm.Clone()}
}

// ForEach calls fn for every removed local ID in ascending order.
func (s *RemovedSet) ForEach(fn func(localID uint32)) {
	it := s.bm.Iterator()
	for it.HasNext() {
		fn(it.Next())
	}
}
