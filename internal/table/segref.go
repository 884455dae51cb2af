package table

import (
	"context"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/internal/manifest"
	"github.com/hupe1980/colstore/internal/segment"
	"github.com/hupe1980/colstore/model"
)

// segState is a segment's position in spec.md §4.8's lifecycle state
// machine. Only segWritable and segReadonly are ever assigned; the other
// states are declared but no code in this module sets them, including
// internal/bgtask.
type segState uint8

const (
	segWritable segState = iota
	segFrozen
	segReadonly
	segMerging
	segPurged
	segTombstoned
)

// segHandle is the tagged-variant dispatch spec.md §9 asks for in place
// of virtual dispatch across store/index variants: exactly one of ws/rs
// is non-nil, selected by state.
type segHandle struct {
	id    model.SegmentID
	dir   string
	state segState

	ws *segment.WritableSegment
	rs *segment.ReadonlySegment
}

func (h *segHandle) numRows() int {
	if h.ws != nil {
		return h.ws.NumRows()
	}
	return h.rs.NumRows()
}

func (h *segHandle) dataStorageSize() int64 {
	if h.ws != nil {
		return h.ws.DataStorageSize()
	}
	return h.rs.DataStorageSize()
}

func (h *segHandle) getValueAppend(localID model.LocalID, buf []byte) ([]byte, error) {
	if h.ws != nil {
		return h.ws.GetValueAppend(localID, buf)
	}
	return h.rs.GetValueAppend(localID, buf)
}

func (h *segHandle) seekExact(indexName string, key []byte) ([]model.LocalID, error) {
	if h.ws != nil {
		return h.ws.SeekExact(indexName, key)
	}
	return h.rs.SeekExact(indexName, key)
}

func (h *segHandle) removeRow(localID model.LocalID) error {
	if h.ws != nil {
		return h.ws.RemoveRow(localID)
	}
	h.rs.RemoveRow(localID)
	return nil
}

// removedFraction reports how much of a readonly segment's rows are
// logically deleted, for the compress/merge worker's purgeDeleteThreshold
// check (spec.md §4.8: "readonly → purged when removed-fraction ≥
// purgeDeleteThreshold"). A writable segment never purges this way, since
// it is still being appended to; it reports 0.
func (h *segHandle) removedFraction() float64 {
	if h.rs == nil {
		return 0
	}
	return h.rs.Removed().Fraction(uint32(h.numRows()))
}

func (h *segHandle) selectColumnGroup(name string, localID model.LocalID, buf []byte) ([]byte, error) {
	if h.ws != nil {
		return nil, ErrColGroupsWritableOnly
	}
	return h.rs.SelectColumnGroup(name, localID, buf)
}

func (h *segHandle) kind() manifest.SegmentKind {
	if h.ws != nil {
		return manifest.SegmentWritable
	}
	return manifest.SegmentReadonly
}

func (h *segHandle) save(ctx context.Context, bs blobstore.BlobStore, codec segment.Codec) error {
	if h.ws != nil {
		return h.ws.Save(ctx, bs, h.dir)
	}
	return h.rs.Save(ctx, bs, h.dir, codec)
}
