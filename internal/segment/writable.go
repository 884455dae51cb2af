package segment

import (
	"bytes"
	"fmt"
	"time"

	"github.com/hupe1980/colstore/internal/bitmap"
	"github.com/hupe1980/colstore/internal/index"
	"github.com/hupe1980/colstore/internal/store"
	"github.com/hupe1980/colstore/model"
	"github.com/hupe1980/colstore/schema"
)

// WritableSegment is the mutable segment variant (spec.md §4.7): a
// writable store plus one writable index per declared index. It never
// projects into column groups directly — those are only materialized at
// freeze time — since a column group exists purely to speed up narrow
// reads, which the writable segment's row store already serves.
type WritableSegment struct {
	cfg *schema.Config

	store      *store.WritableStore
	indexes    []*index.WritableIndex // parallel to idxSchemas
	idxSchemas []*schema.Schema
	idxCmp     []index.Comparator

	removed   *bitmap.RemovedSet
	createdAt time.Time
}

// NewWritable returns an empty writable segment for the given compiled
// schema config.
func NewWritable(cfg *schema.Config) *WritableSegment {
	names := indexNames(cfg.Indexes)
	indexes := make([]*index.WritableIndex, len(names))
	idxSchemas := make([]*schema.Schema, len(names))
	idxCmp := make([]index.Comparator, len(names))
	for i, name := range names {
		s := schemaByName(cfg.Indexes, name)
		idxSchemas[i] = s
		idxCmp[i] = comparatorFor(s)
		indexes[i] = index.NewWritable(s.Unique(), idxCmp[i])
	}
	return &WritableSegment{
		cfg:        cfg,
		store:      store.NewWritable(),
		indexes:    indexes,
		idxSchemas: idxSchemas,
		idxCmp:     idxCmp,
		removed:    bitmap.New(),
		createdAt:  time.Now(),
	}
}

// Config returns the segment's compiled schema config.
func (ws *WritableSegment) Config() *schema.Config { return ws.cfg }

// NumRows returns the number of local IDs ever allocated (including
// removed slots), i.e. the size rowNumVec must reserve for this segment.
func (ws *WritableSegment) NumRows() int { return ws.store.Len() }

// DataStorageSize reports the store's live-payload byte estimate, used
// against maxWritingSegmentSize (spec.md §4.8 step 2).
func (ws *WritableSegment) DataStorageSize() int64 { return ws.store.DataStorageSize() }

// CreatedAt returns when this segment was opened, persisted into meta.json.
func (ws *WritableSegment) CreatedAt() time.Time { return ws.createdAt }

// Append parses row against the row schema, projects it into the write
// schema for storage, and inserts the row's projected key into every
// declared index (spec.md §4.7 "append(row)"). On any index insert
// failure, the store slot is rolled back and previously-inserted index
// entries for this row are removed — a best-effort compensating write,
// exactly as spec.md describes.
func (ws *WritableSegment) Append(row []byte) (model.LocalID, error) {
	cols, err := ws.cfg.Row.ParseRow(row)
	if err != nil {
		return 0, err
	}

	writeRow, err := ws.cfg.Write.SelectParentRow(cols)
	if err != nil {
		return 0, err
	}
	localID := ws.store.Append(writeRow)

	inserted := 0
	for i, s := range ws.idxSchemas {
		key, err := s.SelectParentRow(cols)
		if err != nil {
			ws.rollbackInsert(localID, inserted)
			return 0, err
		}
		ok, err := ws.indexes[i].Insert(key, localID)
		if err != nil {
			ws.rollbackInsert(localID, inserted)
			if err == index.ErrDuplicateKey {
				return 0, fmt.Errorf("%w: index %q", ErrDuplicateKey, indexNames(ws.cfg.Indexes)[i])
			}
			return 0, err
		}
		if ok {
			inserted++
		}
	}
	return model.LocalID(localID), nil
}

// rollbackInsert undoes the store append and the first n index inserts
// made for a row whose append failed partway through, by re-deriving each
// already-inserted index's key from that index's own entries.
func (ws *WritableSegment) rollbackInsert(localID uint32, n int) {
	_ = ws.store.Remove(localID)
	for i := 0; i < n; i++ {
		key, found := findKeyForID(ws.indexes[i], localID)
		if found {
			ws.indexes[i].Remove(key, localID)
		}
	}
}

func findKeyForID(wi *index.WritableIndex, id uint32) ([]byte, bool) {
	var key []byte
	var found bool
	wi.ForEachEntry(func(k []byte, entryID uint32) {
		if !found && entryID == id {
			key, found = k, true
		}
	})
	return key, found
}

// GetValueAppend appends localID's stored (write-schema) row bytes to buf
// and returns the result, or ErrRemoved if the row was deleted.
func (ws *WritableSegment) GetValueAppend(localID model.LocalID, buf []byte) ([]byte, error) {
	if ws.removed.IsRemoved(uint32(localID)) {
		return nil, ErrRemoved
	}
	row, ok, err := ws.store.Get(uint32(localID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRemoved
	}
	return append(buf, row...), nil
}

// IndexNames returns the segment's declared index names in schema order.
func (ws *WritableSegment) IndexNames() []string { return indexNames(ws.cfg.Indexes) }

func (ws *WritableSegment) indexPos(name string) (int, error) {
	for i, s := range ws.idxSchemas {
		if s.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIndex, name)
}

// SeekExact returns every live local ID currently registered under key in
// the named index, in index order (spec.md §4.8 "indexSearchExact" /
// "insertCheckSegDup" both probe seekExact per segment).
func (ws *WritableSegment) SeekExact(indexName string, key []byte) ([]model.LocalID, error) {
	pos, err := ws.indexPos(indexName)
	if err != nil {
		return nil, err
	}
	wi := ws.indexes[pos]
	it := wi.NewIter()
	if !it.SeekLowerBound(key, ws.idxCmp[pos]) {
		return nil, nil
	}
	var out []model.LocalID
	for it.Valid() && bytes.Equal(it.Key(), key) {
		id := wi.IDAt(it.Pos())
		if !ws.removed.IsRemoved(id) {
			out = append(out, model.LocalID(id))
		}
		it.Increment()
	}
	return out, nil
}

// ReplaceRow overwrites localID's row in place: the store row is replaced,
// and every index whose projected key changed has its old entry removed
// and new entry inserted (spec.md §4.8 updateRow's in-place path). The
// prior key per index is recovered from that index's own entries, since
// the store only ever holds the write-schema projection, not the full row
// needed to re-derive the key independently.
func (ws *WritableSegment) ReplaceRow(localID model.LocalID, row []byte) error {
	if _, ok, err := ws.store.Get(uint32(localID)); err != nil {
		return err
	} else if !ok {
		return ErrRemoved
	}

	newCols, err := ws.cfg.Row.ParseRow(row)
	if err != nil {
		return err
	}

	writeRow, err := ws.cfg.Write.SelectParentRow(newCols)
	if err != nil {
		return err
	}
	if err := ws.store.Replace(uint32(localID), writeRow); err != nil {
		return err
	}

	for i, s := range ws.idxSchemas {
		newKey, err := s.SelectParentRow(newCols)
		if err != nil {
			return err
		}
		oldKey, found := findKeyForID(ws.indexes[i], uint32(localID))
		if found && bytes.Equal(oldKey, newKey) {
			continue
		}
		if _, err := ws.indexes[i].Insert(newKey, uint32(localID)); err != nil {
			if err == index.ErrDuplicateKey {
				return fmt.Errorf("%w: index %q", ErrDuplicateKey, indexNames(ws.cfg.Indexes)[i])
			}
			return err
		}
		if found {
			ws.indexes[i].Remove(oldKey, uint32(localID))
		}
	}
	return nil
}

// RemoveRow marks localID removed and, per spec.md §4.8's removeRow,
// synchronously removes its entry from every index so writable indexes
// stay compact (unlike readonly segments, where removal is lazy).
func (ws *WritableSegment) RemoveRow(localID model.LocalID) error {
	if ws.removed.IsRemoved(uint32(localID)) {
		return nil
	}
	ws.removed.Mark(uint32(localID))
	for i := range ws.indexes {
		if key, found := findKeyForID(ws.indexes[i], uint32(localID)); found {
			ws.indexes[i].Remove(key, uint32(localID))
		}
	}
	return nil
}

// Removed exposes the segment's removed-rows set, e.g. for freeze/purge.
func (ws *WritableSegment) Removed() *bitmap.RemovedSet { return ws.removed }

// Store exposes the underlying writable store for freeze to compact.
func (ws *WritableSegment) Store() *store.WritableStore { return ws.store }

// Index returns the i-th declared writable index (schema order), for
// freeze to drain into a readable index.
func (ws *WritableSegment) Index(i int) *index.WritableIndex { return ws.indexes[i] }

// IndexSchema returns the i-th declared index's compiled key schema.
func (ws *WritableSegment) IndexSchema(i int) *schema.Schema { return ws.idxSchemas[i] }

// ForEach walks all rows (including cleared/removed slots) in local-ID
// order, used by freeze to enumerate rows in original insertion order.
func (ws *WritableSegment) ForEach(fn func(id uint32, row []byte, cleared bool) bool) {
	ws.store.ForEach(fn)
}
