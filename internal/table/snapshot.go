package table

import (
	"sort"

	"github.com/hupe1980/colstore/model"
)

// Snapshot is the immutable view a reader locks onto: the segment list
// and its parallel rowNumVec prefix sum (spec.md §4.8's "State"). A
// writer never mutates a published Snapshot in place; every structural
// change builds a new one and swaps it in under the table lock, so an
// iterator that captured a Snapshot never observes a torn list.
type Snapshot struct {
	segments  []*segHandle
	rowNumVec []uint64 // len(segments)+1
}

func newSnapshot(segments []*segHandle, rowNumVec []uint64) *Snapshot {
	return &Snapshot{segments: segments, rowNumVec: rowNumVec}
}

// totalRows returns rowNumVec's last entry, the table's total live+removed
// row count across all segments.
func (s *Snapshot) totalRows() uint64 {
	return s.rowNumVec[len(s.rowNumVec)-1]
}

// locate resolves a GlobalID to its (segment index, local ID) pair via
// binary search over rowNumVec, the glossary's "gid → (segIdx, subId)"
// mapping.
func (s *Snapshot) locate(gid model.GlobalID) (segIdx int, localID model.LocalID, ok bool) {
	g := uint64(gid)
	if g >= s.totalRows() {
		return 0, 0, false
	}
	// rowNumVec[i] is the first gid served by segments[i]; find the last i
	// with rowNumVec[i] <= g.
	i := sort.Search(len(s.rowNumVec), func(i int) bool { return s.rowNumVec[i] > g }) - 1
	if i < 0 || i >= len(s.segments) {
		return 0, 0, false
	}
	return i, model.LocalID(g - s.rowNumVec[i]), true
}

// writableSegment returns the active writable segment, always the last
// entry in a non-empty Snapshot.
func (s *Snapshot) writableSegment() *segHandle {
	if len(s.segments) == 0 {
		return nil
	}
	return s.segments[len(s.segments)-1]
}

// withNewWritable appends a freshly opened writable segment, used by
// maybeCreateNewSegment after the previous writable segment is frozen and
// replaced in place by its readonly form.
func (s *Snapshot) withNewWritable(frozen *segHandle, fresh *segHandle) *Snapshot {
	segments := make([]*segHandle, len(s.segments)+1)
	copy(segments, s.segments)
	segments[len(s.segments)-1] = frozen
	segments[len(s.segments)] = fresh

	rowNumVec := make([]uint64, len(s.rowNumVec)+1)
	copy(rowNumVec, s.rowNumVec)
	// Freeze drops removed rows, so the frozen segment's end is recomputed
	// from its own row count rather than kept from the writable segment.
	rowNumVec[len(s.rowNumVec)-1] = rowNumVec[len(s.rowNumVec)-2] + uint64(frozen.numRows())
	last := rowNumVec[len(rowNumVec)-2]
	rowNumVec[len(rowNumVec)-1] = last + uint64(fresh.numRows())
	return newSnapshot(segments, rowNumVec)
}

// withGrownWritable rebuilds rowNumVec's last entry after an append grows
// the active writable segment, without touching the segment list itself.
func (s *Snapshot) withGrownWritable() *Snapshot {
	rowNumVec := make([]uint64, len(s.rowNumVec))
	copy(rowNumVec, s.rowNumVec)
	last := s.writableSegment()
	rowNumVec[len(rowNumVec)-1] = rowNumVec[len(rowNumVec)-2] + uint64(last.numRows())
	return newSnapshot(s.segments, rowNumVec)
}

// withMerged replaces segments[from:to] (a run of consecutive readonly
// segments) with a single merged segment and rebuilds rowNumVec for the
// shortened list, per spec.md §4.8 "Merge" step (c).
func (s *Snapshot) withMerged(from, to int, merged *segHandle) *Snapshot {
	segments := make([]*segHandle, 0, len(s.segments)-(to-from)+1)
	segments = append(segments, s.segments[:from]...)
	segments = append(segments, merged)
	segments = append(segments, s.segments[to:]...)

	rowNumVec := make([]uint64, len(segments)+1)
	rowNumVec[0] = s.rowNumVec[0]
	for i, seg := range segments {
		rowNumVec[i+1] = rowNumVec[i] + uint64(seg.numRows())
	}
	return newSnapshot(segments, rowNumVec)
}
