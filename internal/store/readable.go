package store

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/colstore/internal/svec"
)

// readableHeaderSize is the fixed prefix of a readable-store file
// (spec.md §6 "Readable-store file format"): three u64 fields.
const readableHeaderSize = 8 + 8 + 8

// ReadableStore is the immutable, packed row-data container spec.md §4.3
// describes. It is built once, at segment freeze or merge time, from a
// svec.Packed, and never mutated afterward; random access is O(1).
type ReadableStore struct {
	fixedLen uint64
	rowCount uint64
	poolSize uint64
	offsets  []uint32 // nil when fixedLen != 0
	pool     []byte

	// iterable is false for a readable store built over a pure column
	// group, addressed only through an index's local IDs, never scanned
	// sequentially (spec.md §4.3).
	iterable bool
}

// NewReadableFromPacked builds a ReadableStore directly from a svec.Packed
// (spec.md §4.7's freeze/merge path: "rebuilds each readable index and
// store via SortableStrVec"). fixedLen is 0 for a variable-length store;
// if nonzero, packed.Offsets is ignored and every record must be exactly
// fixedLen bytes (the caller is responsible for that invariant, since
// svec itself is type-agnostic).
func NewReadableFromPacked(packed svec.Packed, fixedLen uint64, iterable bool) *ReadableStore {
	rs := &ReadableStore{
		fixedLen: fixedLen,
		rowCount: uint64(len(packed.Offsets)) - 1,
		poolSize: uint64(len(packed.Pool)),
		pool:     packed.Pool,
		iterable: iterable,
	}
	if fixedLen == 0 {
		rs.offsets = packed.Offsets
	}
	return rs
}

// Encode serializes rs into spec.md §6's readable-store file format.
func (rs *ReadableStore) Encode() []byte {
	size := readableHeaderSize
	if rs.fixedLen == 0 {
		size += 4 * len(rs.offsets)
	}
	size += len(rs.pool)

	buf := make([]byte, size)
	binary.LittleEndian.PutUint64(buf[0:], rs.fixedLen)
	binary.LittleEndian.PutUint64(buf[8:], rs.rowCount)
	binary.LittleEndian.PutUint64(buf[16:], rs.poolSize)

	pos := readableHeaderSize
	if rs.fixedLen == 0 {
		for _, off := range rs.offsets {
			binary.LittleEndian.PutUint32(buf[pos:], off)
			pos += 4
		}
	}
	copy(buf[pos:], rs.pool)
	return buf
}

// NewReadableRaw builds a ReadableStore directly from already-decoded
// fields. It exists so internal/index can reuse ReadableStore as the key
// pool inside a readable index's file format (spec.md §6: "the store
// format above, plus a permutation ids[rowCount]"), whose ids array
// splits the header from the offsets/pool and so cannot be parsed with
// Decode directly.
func NewReadableRaw(fixedLen, rowCount, poolSize uint64, offsets []uint32, pool []byte, iterable bool) *ReadableStore {
	return &ReadableStore{
		fixedLen: fixedLen,
		rowCount: rowCount,
		poolSize: poolSize,
		offsets:  offsets,
		pool:     pool,
		iterable: iterable,
	}
}

// Decode parses spec.md §6's readable-store file format out of data, a
// zero-copy view (typically an mmap'd blob) that must outlive the
// returned ReadableStore.
func Decode(data []byte, iterable bool) (*ReadableStore, error) {
	if len(data) < readableHeaderSize {
		return nil, ErrTruncated
	}
	rs := &ReadableStore{
		fixedLen: binary.LittleEndian.Uint64(data[0:]),
		rowCount: binary.LittleEndian.Uint64(data[8:]),
		poolSize: binary.LittleEndian.Uint64(data[16:]),
		iterable: iterable,
	}

	pos := readableHeaderSize
	if rs.fixedLen == 0 {
		n := int(rs.rowCount) + 1
		need := pos + 4*n
		if len(data) < need {
			return nil, ErrTruncated
		}
		offsets := make([]uint32, n)
		for i := range offsets {
			offsets[i] = binary.LittleEndian.Uint32(data[pos:])
			pos += 4
		}
		rs.offsets = offsets
	}

	if uint64(len(data)-pos) < rs.poolSize {
		return nil, ErrTruncated
	}
	rs.pool = data[pos : pos+int(rs.poolSize)]
	return rs, nil
}

// NumDataRows returns the store's row count (spec.md §4.3 "numDataRows").
func (rs *ReadableStore) NumDataRows() int { return int(rs.rowCount) }

// DataStorageSize returns the packed on-disk size in bytes (spec.md §4.3
// "dataStorageSize").
func (rs *ReadableStore) DataStorageSize() int64 {
	size := int64(readableHeaderSize) + int64(rs.poolSize)
	if rs.fixedLen == 0 {
		size += 4 * int64(len(rs.offsets))
	}
	return size
}

// GetValueAppend appends localID's value bytes to buf and returns the
// result (spec.md §4.3 "getValueAppend"), avoiding an intermediate
// allocation for the caller.
func (rs *ReadableStore) GetValueAppend(localID uint32, buf []byte) ([]byte, error) {
	if uint64(localID) >= rs.rowCount {
		return nil, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, localID, rs.rowCount)
	}
	if rs.fixedLen != 0 {
		start := uint64(localID) * rs.fixedLen
		return append(buf, rs.pool[start:start+rs.fixedLen]...), nil
	}
	start := rs.offsets[localID]
	end := rs.offsets[localID+1]
	return append(buf, rs.pool[start:end]...), nil
}

// StoreIter walks a ReadableStore's rows in local-ID order.
type StoreIter struct {
	rs  *ReadableStore
	pos int
}

// CreateStoreIter returns a forward iterator over rs, or ErrNotIterable
// for a pure column store (spec.md §4.3).
func (rs *ReadableStore) CreateStoreIter() (*StoreIter, error) {
	if !rs.iterable {
		return nil, ErrNotIterable
	}
	return &StoreIter{rs: rs, pos: -1}, nil
}

// Next advances the iterator and reports whether a row is available.
func (it *StoreIter) Next() bool {
	it.pos++
	return it.pos < it.rs.NumDataRows()
}

// LocalID returns the current row's local ID. Valid only after Next
// returns true.
func (it *StoreIter) LocalID() uint32 { return uint32(it.pos) }

// ValueAppend appends the current row's bytes to buf.
func (it *StoreIter) ValueAppend(buf []byte) ([]byte, error) {
	return it.rs.GetValueAppend(uint32(it.pos), buf)
}
