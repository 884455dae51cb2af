package segment

import (
	"github.com/hupe1980/colstore/internal/bitmap"
	"github.com/hupe1980/colstore/internal/index"
	"github.com/hupe1980/colstore/model"
)

// IndexCursor walks one segment's named index forward or backward,
// skipping rows a removed-set marks gone (spec.md §6
// "createIndexIterForward/Backward"). The zero value is not usable;
// obtain one from WritableSegment.IndexIterForward/Backward or
// ReadonlySegment.IndexIterForward/Backward.
type IndexCursor struct {
	it       *index.Iter
	localID  func(pos int) uint32
	removed  *bitmap.RemovedSet
	backward bool
}

func newIndexCursor(it *index.Iter, localID func(pos int) uint32, removed *bitmap.RemovedSet, backward bool) *IndexCursor {
	return &IndexCursor{it: it, localID: localID, removed: removed, backward: backward}
}

// Next advances the cursor to the next live entry in its direction,
// reporting false once exhausted (spec.md §8: "iterators never raise on
// exhaustion; they simply report false").
func (c *IndexCursor) Next() bool {
	for {
		if c.backward {
			c.it.Decrement()
		} else {
			c.it.Increment()
		}
		if !c.it.Valid() {
			return false
		}
		if c.removed == nil || !c.removed.IsRemoved(c.localID(c.it.Pos())) {
			return true
		}
	}
}

// Key returns the current entry's index key. Valid only after Next()
// returned true.
func (c *IndexCursor) Key() []byte { return c.it.Key() }

// LocalID returns the current entry's segment-local row ID.
func (c *IndexCursor) LocalID() model.LocalID { return model.LocalID(c.localID(c.it.Pos())) }

// IndexIterForward returns a cursor walking ws's named index in
// ascending key order.
func (ws *WritableSegment) IndexIterForward(name string) (*IndexCursor, error) {
	pos, err := ws.indexPos(name)
	if err != nil {
		return nil, err
	}
	wi := ws.indexes[pos]
	return newIndexCursor(wi.NewIter(), wi.IDAt, ws.removed, false), nil
}

// IndexIterBackward returns a cursor walking ws's named index in
// descending key order.
func (ws *WritableSegment) IndexIterBackward(name string) (*IndexCursor, error) {
	pos, err := ws.indexPos(name)
	if err != nil {
		return nil, err
	}
	wi := ws.indexes[pos]
	return newIndexCursor(wi.NewIter(), wi.IDAt, ws.removed, true), nil
}

// IndexIterForward returns a cursor walking rs's named index in
// ascending key order.
func (rs *ReadonlySegment) IndexIterForward(name string) (*IndexCursor, error) {
	pos, err := rs.indexPos(name)
	if err != nil {
		return nil, err
	}
	ri := rs.indexes[pos]
	return newIndexCursor(ri.NewIter(), ri.LocalIDAt, rs.removed, false), nil
}

// IndexIterBackward returns a cursor walking rs's named index in
// descending key order.
func (rs *ReadonlySegment) IndexIterBackward(name string) (*IndexCursor, error) {
	pos, err := rs.indexPos(name)
	if err != nil {
		return nil, err
	}
	ri := rs.indexes[pos]
	return newIndexCursor(ri.NewIter(), ri.LocalIDAt, rs.removed, true), nil
}
