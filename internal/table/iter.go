package table

import (
	"errors"

	"github.com/hupe1980/colstore/internal/segment"
	"github.com/hupe1980/colstore/model"
)

func (h *segHandle) indexIter(name string, backward bool) (*segment.IndexCursor, error) {
	if h.ws != nil {
		if backward {
			return h.ws.IndexIterBackward(name)
		}
		return h.ws.IndexIterForward(name)
	}
	if backward {
		return h.rs.IndexIterBackward(name)
	}
	return h.rs.IndexIterForward(name)
}

// IndexCursor concatenates each segment's per-index cursor in segment
// order (forward) or reverse segment order (backward), spec.md §6's
// "createIndexIterForward/Backward". Like IndexSearchExact, ordering is
// per-segment rather than a global k-way merge across segments — a
// documented simplification, see DESIGN.md.
type IndexCursor struct {
	snap      *Snapshot
	indexName string
	backward  bool

	order []int
	pos   int
	sub   *segment.IndexCursor
	segIdx int
}

// IndexIterForward returns a cursor walking indexName in ascending key
// order, segment by segment.
func (t *Table) IndexIterForward(indexName string) *IndexCursor {
	return t.newIndexCursor(indexName, false)
}

// IndexIterBackward returns a cursor walking indexName in descending key
// order, segment by segment (reverse segment order, descending within
// each).
func (t *Table) IndexIterBackward(indexName string) *IndexCursor {
	return t.newIndexCursor(indexName, true)
}

func (t *Table) newIndexCursor(indexName string, backward bool) *IndexCursor {
	snap := t.current.Load()
	order := make([]int, len(snap.segments))
	for i := range order {
		if backward {
			order[i] = len(snap.segments) - 1 - i
		} else {
			order[i] = i
		}
	}
	return &IndexCursor{snap: snap, indexName: indexName, backward: backward, order: order, pos: -1}
}

// Next advances the cursor to the next live entry, reporting false once
// every segment is exhausted or indexName is unknown.
func (c *IndexCursor) Next() bool {
	for {
		if c.sub != nil && c.sub.Next() {
			return true
		}
		c.sub = nil
		c.pos++
		if c.pos >= len(c.order) {
			return false
		}
		segIdx := c.order[c.pos]
		sub, err := c.snap.segments[segIdx].indexIter(c.indexName, c.backward)
		if err != nil {
			return false
		}
		c.sub = sub
		c.segIdx = segIdx
	}
}

// Key returns the current entry's index key.
func (c *IndexCursor) Key() []byte { return c.sub.Key() }

// GlobalID returns the current entry's table-wide row identity.
func (c *IndexCursor) GlobalID() model.GlobalID {
	return model.GlobalID(c.snap.rowNumVec[c.segIdx] + uint64(c.sub.LocalID()))
}

// StoreCursor walks the table's rows in global-ID order, forward or
// backward, skipping removed rows (spec.md §6
// "createStoreIterForward/Backward").
type StoreCursor struct {
	snap     *Snapshot
	backward bool
	started  bool
	segIdx   int
	localID  int
	row      []byte
	gid      model.GlobalID
}

// StoreIterForward returns a cursor walking every live row in ascending
// global-ID order.
func (t *Table) StoreIterForward() *StoreCursor {
	return t.newStoreCursor(false)
}

// StoreIterBackward returns a cursor walking every live row in
// descending global-ID order.
func (t *Table) StoreIterBackward() *StoreCursor {
	return t.newStoreCursor(true)
}

func (t *Table) newStoreCursor(backward bool) *StoreCursor {
	snap := t.current.Load()
	c := &StoreCursor{snap: snap, backward: backward}
	if backward {
		c.segIdx = len(snap.segments) - 1
	}
	return c
}

// Next advances the cursor to the next live row, reporting false once
// exhausted.
func (c *StoreCursor) Next() bool {
	for {
		if c.segIdx < 0 || c.segIdx >= len(c.snap.segments) {
			return false
		}

		if c.backward {
			if !c.started {
				c.started = true
				c.localID = c.snap.segments[c.segIdx].numRows()
			}
			c.localID--
			if c.localID < 0 {
				c.segIdx--
				c.started = false
				continue
			}
		} else {
			if !c.started {
				c.started = true
				c.localID = -1
			}
			c.localID++
			if c.localID >= c.snap.segments[c.segIdx].numRows() {
				c.segIdx++
				c.started = false
				continue
			}
		}

		row, err := c.snap.segments[c.segIdx].getValueAppend(model.LocalID(c.localID), nil)
		if err != nil {
			if errors.Is(err, segment.ErrRemoved) {
				continue
			}
			return false
		}
		c.row = row
		c.gid = model.GlobalID(c.snap.rowNumVec[c.segIdx] + uint64(c.localID))
		return true
	}
}

// Row returns the current entry's write-schema row bytes.
func (c *StoreCursor) Row() []byte { return c.row }

// GlobalID returns the current entry's table-wide row identity.
func (c *StoreCursor) GlobalID() model.GlobalID { return c.gid }
