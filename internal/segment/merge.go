package segment

import (
	"sort"

	"github.com/hupe1980/colstore/internal/bitmap"
	"github.com/hupe1980/colstore/internal/index"
	"github.com/hupe1980/colstore/internal/store"
	"github.com/hupe1980/colstore/internal/svec"
)

// mergeSource identifies one live row contributed by one of the input
// segments, in the order the merged segment will renumber them.
type mergeSource struct {
	seg     int
	localID uint32
}

// MergeReadonly combines a consecutive run of readonly segments into one,
// the multi-segment analogue of Freeze: every live row from segs, in
// segment-then-local-ID order, is copied into fresh packed vectors and
// renumbered densely, and every index is rebuilt and re-sorted over the
// new local IDs. The returned segment's removed set starts empty, since
// rows marked removed in any input segment are dropped rather than
// carried forward as tombstones.
func MergeReadonly(segs []*ReadonlySegment) (*ReadonlySegment, error) {
	cfg := segs[0].cfg

	var live []mergeSource
	for si, rs := range segs {
		n := rs.rowCount
		for id := uint32(0); id < n; id++ {
			if rs.removed.IsRemoved(id) {
				continue
			}
			live = append(live, mergeSource{seg: si, localID: id})
		}
	}

	rowVec := svec.New(len(live), 0)
	for _, src := range live {
		row, err := segs[src.seg].rowStore.GetValueAppend(src.localID, nil)
		if err != nil {
			return nil, err
		}
		rowVec.Append(row)
	}
	rowPacked, err := rowVec.IntoPacked()
	if err != nil {
		return nil, err
	}
	rowStore := store.NewReadableFromPacked(rowPacked, uint64(cfg.Write.FixedRowLen()), true)

	idxSchemas := segs[0].idxSchemas
	readableIdx := make([]*index.ReadableIndex, len(idxSchemas))
	for i, s := range idxSchemas {
		keysBySeg := make([]map[uint32][]byte, len(segs))
		for si, rs := range segs {
			ri := rs.indexes[i]
			m := make(map[uint32][]byte, ri.Len())
			for pos := 0; pos < ri.Len(); pos++ {
				m[ri.LocalIDAt(pos)] = ri.KeyAt(pos)
			}
			keysBySeg[si] = m
		}

		keyVec := svec.New(len(live), 0)
		for _, src := range live {
			keyVec.Append(keysBySeg[src.seg][src.localID])
		}
		keyPacked, err := keyVec.IntoPacked()
		if err != nil {
			return nil, err
		}

		cmp := comparatorFor(s)
		ids := make([]uint32, len(live))
		for i := range ids {
			ids[i] = uint32(i)
		}
		// Stable: ids starts in ascending local-ID order, so ties keep
		// that order (spec.md §3/§8 breaks ties by local ID).
		sort.SliceStable(ids, func(a, b int) bool {
			return cmp(packedValueAt(keyPacked, ids[a]), packedValueAt(keyPacked, ids[b])) < 0
		})
		readableIdx[i] = index.NewReadableFromPacked(keyPacked, uint64(s.FixedRowLen()), ids, cmp)
	}

	cgNames := indexNames(cfg.ColGroups)
	colGroups := make([]*store.ReadableStore, len(cgNames))
	for i, name := range cgNames {
		cgSchema := schemaByName(cfg.ColGroups, name)
		cgVec := svec.New(len(live), 0)
		for _, src := range live {
			cgRow, err := segs[src.seg].colGroups[i].GetValueAppend(src.localID, nil)
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
		cfg:        cfg,
		rowStore:   rowStore,
		indexes:    readableIdx,
		idxSchemas: idxSchemas,
		colGroups:  colGroups,
		removed:    bitmap.New(),
		rowCount:   uint32(len(live)),
	}, nil
}
