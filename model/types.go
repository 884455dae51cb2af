// Package model defines the identity types shared across the composite
// table, its segments, and their stores and indexes.
package model

import "fmt"

// SegmentID uniquely identifies a segment within a table. Segment IDs are
// monotonically allocated and never reused, even after a segment is
// tombstoned and removed.
type SegmentID uint64

// LocalID is a segment-local row identifier in [0, rowCount) assigned by
// the segment's store on append. It is stable for the lifetime of the
// segment but is not meaningful across segments.
type LocalID uint32

// GlobalID is the table-wide row identifier returned by InsertRow and
// accepted by GetValue/UpdateRow/RemoveRow. It is derived from a
// segment's base offset in the row-number vector plus a LocalID:
//
//	GlobalID = rowNumVec[segIdx] + LocalID
type GlobalID uint64

// Location pins a GlobalID to the segment and local row it currently
// resolves to. It is a transient decomposition recomputed on every lookup,
// never persisted, since merges and purges renumber LocalIDs.
type Location struct {
	SegmentID SegmentID
	LocalID   LocalID
}

func (l Location) String() string {
	return fmt.Sprintf("loc(seg=%d,local=%d)", l.SegmentID, l.LocalID)
}
