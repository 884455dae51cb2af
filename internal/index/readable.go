package index

import (
	"encoding/binary"

	"github.com/hupe1980/colstore/internal/store"
	"github.com/hupe1980/colstore/internal/svec"
)

// readableIndexHeaderSize is the fixed prefix of a readable-index file
// (spec.md §6 "Readable-index file format"): the same three u64 fields
// as a readable store.
const readableIndexHeaderSize = 8 + 8 + 8

// Comparator orders two column-group key byte strings; normally
// (*schema.Schema).CompareData on a key-only projection schema.
type Comparator func(a, b []byte) int

// ReadableIndex is the immutable, ordered index spec.md §4.4 describes:
// a key store (keyed by local/row ID, like a ReadableStore) plus an
// ascending permutation over local IDs, so probes binary-search the
// permutation while storage stays in natural row order.
type ReadableIndex struct {
	keys *store.ReadableStore
	ids  []uint32 // ids[i] is the local ID whose key sorts i-th ascending
	cmp  Comparator
}

// NewReadableFromPacked builds a ReadableIndex from a svec.Packed holding
// one key per local ID in natural row order, plus the ascending
// permutation over those local IDs (spec.md §4.7's freeze/merge path:
// "projecting each into one SortableStrVec per column group / index...
// sorting and constructing each readable index").
func NewReadableFromPacked(packed svec.Packed, fixedLen uint64, ids []uint32, cmp Comparator) *ReadableIndex {
	return &ReadableIndex{
		keys: store.NewReadableFromPacked(packed, fixedLen, false),
		ids:  ids,
		cmp:  cmp,
	}
}

// Len implements ordered: the number of keys (and rows) in the index.
func (ri *ReadableIndex) Len() int { return ri.keys.NumDataRows() }

// KeyAt implements ordered: the key at ascending position pos (not local
// ID pos — use ids[pos] for that).
func (ri *ReadableIndex) KeyAt(pos int) []byte {
	v, err := ri.keys.GetValueAppend(ri.ids[pos], nil)
	if err != nil {
		// DecodeIndex does not range-check ids, so an out-of-range
		// localID from a corrupt packed file panics here.
		panic(err)
	}
	return v
}

// LocalIDAt returns the local/row ID at ascending position pos.
func (ri *ReadableIndex) LocalIDAt(pos int) uint32 { return ri.ids[pos] }

// NewIter returns a fresh iterator over ri, initially unpositioned
// (spec.md §4.4's iterator state machine).
func (ri *ReadableIndex) NewIter() *Iter { return newIter(ri) }

// Compare exposes ri's key comparator, e.g. for a caller building its
// own seek logic outside Iter.
func (ri *ReadableIndex) Compare(a, b []byte) int { return ri.cmp(a, b) }

// Encode serializes ri into spec.md §6's readable-index file format.
func (ri *ReadableIndex) Encode() []byte {
	keyData := ri.keys.Encode()
	// keyData is [fixedLen u64][rowCount u64][poolSize u64][offsets?][pool];
	// splice the ids permutation in right after the three u64 header
	// fields, matching spec.md §6's field order.
	buf := make([]byte, 0, len(keyData)+4*len(ri.ids))
	buf = append(buf, keyData[:readableIndexHeaderSize]...)
	for _, id := range ri.ids {
		buf = binary.LittleEndian.AppendUint32(buf, id)
	}
	buf = append(buf, keyData[readableIndexHeaderSize:]...)
	return buf
}

// DecodeIndex parses spec.md §6's readable-index file format out of
// data, a zero-copy view (typically an mmap'd blob) that must outlive the
// returned ReadableIndex.
func DecodeIndex(data []byte, cmp Comparator) (*ReadableIndex, error) {
	if len(data) < readableIndexHeaderSize {
		return nil, ErrTruncated
	}
	fixedLen := binary.LittleEndian.Uint64(data[0:])
	rowCount := binary.LittleEndian.Uint64(data[8:])
	poolSize := binary.LittleEndian.Uint64(data[16:])

	pos := readableIndexHeaderSize
	idsNeed := pos + 4*int(rowCount)
	if len(data) < idsNeed {
		return nil, ErrTruncated
	}
	ids := make([]uint32, rowCount)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(data[pos:])
		pos += 4
	}

	var offsets []uint32
	if fixedLen == 0 {
		n := int(rowCount) + 1
		need := pos + 4*n
		if len(data) < need {
			return nil, ErrTruncated
		}
		offsets = make([]uint32, n)
		for i := range offsets {
			offsets[i] = binary.LittleEndian.Uint32(data[pos:])
			pos += 4
		}
	}

	if uint64(len(data)-pos) < poolSize {
		return nil, ErrTruncated
	}
	pool := data[pos : pos+int(poolSize)]

	return &ReadableIndex{
		keys: store.NewReadableRaw(fixedLen, rowCount, poolSize, offsets, pool, false),
		ids:  ids,
		cmp:  cmp,
	}, nil
}
