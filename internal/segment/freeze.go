package segment

import (
	"sort"

	"github.com/hupe1980/colstore/internal/bitmap"
	"github.com/hupe1980/colstore/internal/index"
	"github.com/hupe1980/colstore/internal/store"
	"github.com/hupe1980/colstore/internal/svec"
	"github.com/hupe1980/colstore/schema"
)

// Freeze builds a ReadonlySegment from ws, following spec.md §4.7's
// writable→readonly transition: (a) flushing and freezing the writable
// state — the caller is expected to have stopped further writes to ws
// before calling Freeze — (b) reading all live (non-removed, non-cleared)
// rows, (c) projecting each into one SortableStrVec per column group /
// index, (d) sorting and constructing each readable index and store.
// Local IDs are renumbered densely over the surviving rows in their
// original relative order; the returned segment's removed set starts
// empty, since removed rows were compacted away rather than carried
// forward as tombstones.
func Freeze(ws *WritableSegment) (*ReadonlySegment, error) {
	liveOldIDs := collectLiveIDs(ws)

	rowVec := svec.New(len(liveOldIDs), 0)
	for _, oldID := range liveOldIDs {
		row, ok, err := ws.store.Get(oldID)
		if err != nil {
			return nil, err
		}
		if !ok {
			row = nil
		}
		rowVec.Append(row)
	}
	rowPacked, err := rowVec.IntoPacked()
	if err != nil {
		return nil, err
	}
	rowStore := store.NewReadableFromPacked(rowPacked, uint64(ws.cfg.Write.FixedRowLen()), true)

	oldToNew := make(map[uint32]uint32, len(liveOldIDs))
	for newID, oldID := range liveOldIDs {
		oldToNew[oldID] = uint32(newID)
	}

	readableIdx := make([]*index.ReadableIndex, len(ws.idxSchemas))
	for i, s := range ws.idxSchemas {
		ri, err := buildReadableIndex(ws.indexes[i], s, liveOldIDs, oldToNew)
		if err != nil {
			return nil, err
		}
		readableIdx[i] = ri
	}

	cgNames := indexNames(ws.cfg.ColGroups)
	colGroups := make([]*store.ReadableStore, len(cgNames))
	for i, name := range cgNames {
		cgSchema := schemaByName(ws.cfg.ColGroups, name)
		cgVec := svec.New(len(liveOldIDs), 0)
		for _, oldID := range liveOldIDs {
			writeRow, ok, err := ws.store.Get(oldID)
			if err != nil {
				return nil, err
			}
			if !ok {
				cgVec.Append(nil)
				continue
			}
			cols, err := ws.cfg.Write.ParseRow(writeRow)
			if err != nil {
				return nil, err
			}
			cgRow, err := cgSchema.SelectParentRow(cols)
			if err != nil {
				return nil, err
			}
			cgVec.Append(cgRow)
		}
		cgPacked, err := cgVec.IntoPacked()
		if err != nil {
			return nil, err
		}
		colGroups[i] = store.NewReadableFromPacked(cgPacked, uint64(cgSchema.FixedRowLen()), false)
	}

	return &ReadonlySegment{
		cfg:        ws.cfg,
		rowStore:   rowStore,
		indexes:    readableIdx,
		idxSchemas: ws.idxSchemas,
		colGroups:  colGroups,
		removed:    bitmap.New(),
		rowCount:   uint32(len(liveOldIDs)),
	}, nil
}

// collectLiveIDs returns ws's local IDs, in ascending original order,
// that are neither cleared nor logically removed.
func collectLiveIDs(ws *WritableSegment) []uint32 {
	var live []uint32
	ws.ForEach(func(id uint32, _ []byte, cleared bool) bool {
		if !cleared && !ws.removed.IsRemoved(id) {
			live = append(live, id)
		}
		return true
	})
	return live
}

// buildReadableIndex drains a writable index's sorted (key,id) entries
// into a readable index keyed by the freeze's new, densely-renumbered
// local IDs. Every live row is assumed to hold exactly one entry in idx
// (spec.md §4.6/§4.7 describe indexes in the singular-key case this
// engine supports; a genuinely multi-valued index — recorded per column
// in cfg.MultiValuedIndexIDs — would need a key pool keyed by entry
// rather than by row, which is out of scope here).
func buildReadableIndex(idx *index.WritableIndex, s *schema.Schema, liveOldIDs []uint32, oldToNew map[uint32]uint32) (*index.ReadableIndex, error) {
	keyByOld := make(map[uint32][]byte, len(liveOldIDs))
	idx.ForEachEntry(func(key []byte, id uint32) {
		if _, ok := oldToNew[id]; ok {
			keyByOld[id] = key
		}
	})

	keyVec := svec.New(len(liveOldIDs), 0)
	for _, oldID := range liveOldIDs {
		keyVec.Append(keyByOld[oldID]) // nil key if the row had no entry (shouldn't happen; kept nil-safe)
	}
	keyPacked, err := keyVec.IntoPacked()
	if err != nil {
		return nil, err
	}

	cmp := comparatorFor(s)
	ids := make([]uint32, len(liveOldIDs))
	for i := range ids {
		ids[i] = uint32(i)
	}
	// Stable: ids starts in ascending local-ID order, so ties keep that
	// order (spec.md §3/§8 breaks ties by local ID).
	sort.SliceStable(ids, func(a, b int) bool {
		return cmp(packedValueAt(keyPacked, ids[a]), packedValueAt(keyPacked, ids[b])) < 0
	})

	return index.NewReadableFromPacked(keyPacked, uint64(s.FixedRowLen()), ids, cmp), nil
}

func packedValueAt(packed svec.Packed, i uint32) []byte {
	if packed.Offsets == nil {
		return nil
	}
	return packed.Pool[packed.Offsets[i]:packed.Offsets[i+1]]
}
