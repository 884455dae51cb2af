package segment

import (
	"fmt"

	"github.com/hupe1980/colstore/internal/bitmap"
	"github.com/hupe1980/colstore/internal/index"
	"github.com/hupe1980/colstore/internal/store"
	"github.com/hupe1980/colstore/model"
	"github.com/hupe1980/colstore/schema"
)

// ReadonlySegment is the immutable segment variant (spec.md §4.7): a
// readable store, one readable index per declared index, and one readable
// store per declared column group. It is built exclusively by Freeze or
// by loading a previously frozen segment's files back off disk.
type ReadonlySegment struct {
	cfg *schema.Config

	rowStore   *store.ReadableStore
	indexes    []*index.ReadableIndex
	idxSchemas []*schema.Schema
	colGroups  []*store.ReadableStore

	removed  *bitmap.RemovedSet
	rowCount uint32
}

// NumRows returns the segment's row count at freeze time (rowNumVec's
// contribution for this segment; it never grows once readonly).
func (rs *ReadonlySegment) NumRows() int { return int(rs.rowCount) }

// DataStorageSize reports the underlying row store's encoded size.
func (rs *ReadonlySegment) DataStorageSize() int64 { return rs.rowStore.DataStorageSize() }

// GetValueAppend appends localID's row bytes to buf, or ErrRemoved if the
// row has since been purged-pending (removed.bits set post-freeze, e.g. by
// a later removeRow against this now-readonly segment).
func (rs *ReadonlySegment) GetValueAppend(localID model.LocalID, buf []byte) ([]byte, error) {
	if rs.removed.IsRemoved(uint32(localID)) {
		return nil, ErrRemoved
	}
	return rs.rowStore.GetValueAppend(uint32(localID), buf)
}

// RemoveRow marks localID removed. Unlike a writable segment, the index
// entries are left in place — spec.md §4.8: "Index entries are removed
// lazily at purge time in readonly segments (the removed-bits mask hides
// them from queries meanwhile)".
func (rs *ReadonlySegment) RemoveRow(localID model.LocalID) {
	rs.removed.Mark(uint32(localID))
}

// Removed exposes the segment's removed-rows set.
func (rs *ReadonlySegment) Removed() *bitmap.RemovedSet { return rs.removed }

func (rs *ReadonlySegment) indexPos(name string) (int, error) {
	for i, s := range rs.idxSchemas {
		if s.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIndex, name)
}

// SeekExact returns every live local ID registered under key in the named
// index, in ascending key-then-position order (spec.md §4.8
// "indexSearchExact").
func (rs *ReadonlySegment) SeekExact(indexName string, key []byte) ([]model.LocalID, error) {
	pos, err := rs.indexPos(indexName)
	if err != nil {
		return nil, err
	}
	ri := rs.indexes[pos]
	it := ri.NewIter()
	if !it.SeekExact(key, ri.Compare) {
		return nil, nil
	}
	var out []model.LocalID
	for it.Valid() && ri.Compare(it.Key(), key) == 0 {
		id := ri.LocalIDAt(it.Pos())
		if !rs.removed.IsRemoved(id) {
			out = append(out, model.LocalID(id))
		}
		it.Increment()
	}
	return out, nil
}

// CreateStoreIter returns a forward iterator over the row store, used by
// the composite table to concatenate per-segment scans (spec.md §4.8
// "createStoreIterForward/Backward").
func (rs *ReadonlySegment) CreateStoreIter() (*store.StoreIter, error) {
	return rs.rowStore.CreateStoreIter()
}

// ColGroupNames returns the declared column-group names in schema order.
func (rs *ReadonlySegment) ColGroupNames() []string { return indexNames(rs.cfg.ColGroups) }

// SelectColumnGroup returns localID's row bytes from the named column
// group's readable store, projecting fewer bytes off disk than a full
// row fetch when the caller only needs that group's columns.
func (rs *ReadonlySegment) SelectColumnGroup(name string, localID model.LocalID, buf []byte) ([]byte, error) {
	names := indexNames(rs.cfg.ColGroups)
	for i, n := range names {
		if n == name {
			if rs.removed.IsRemoved(uint32(localID)) {
				return nil, ErrRemoved
			}
			return rs.colGroups[i].GetValueAppend(uint32(localID), buf)
		}
	}
	return nil, fmt.Errorf("%w: column group %q", ErrUnknownIndex, name)
}
