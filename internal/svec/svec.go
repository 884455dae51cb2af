package svec

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSizeOverflow is returned by IntoPacked when the accumulated pool
// exceeds the u32 offset range a readable store/index can address
// (spec.md §7 "size-overflow").
var ErrSizeOverflow = errors.New("svec: pool size exceeds uint32 range")

// entry is the sortable vector's per-record index: an (offset, len) span
// into strpool plus the insertion sequence used to break ties so sort
// stays stable under equal keys (spec.md §8: "SortableStrVec sort is
// stable with respect to insertion order under equal keys"). All three
// fields are uint32 so entry packs to exactly 3*sizeof(uint32), matching
// spec.md §4.2's "sizeof(Entry) ≥ 3·sizeof(u32)" note that licenses
// reusing the index buffer as an offsets array once entries are consumed
// in order.
type entry struct {
	offset uint32
	length uint32
	seq    uint32
}

// Vec is an owned (strpool, index) pair: append records in any order,
// sort in place by an arbitrary comparator, then consume into the packed
// (offsets, pool) form a readable store or index writes to disk.
type Vec struct {
	pool    []byte
	entries []entry
}

// New returns an empty Vec. rowHint and poolHint size the initial
// allocations to avoid repeated growth during a bulk build.
func New(rowHint, poolHint int) *Vec {
	return &Vec{
		pool:    make([]byte, 0, poolHint),
		entries: make([]entry, 0, rowHint),
	}
}

// Append adds one record's bytes, copying them into the vector's own
// pool, and returns its 0-based insertion index.
func (v *Vec) Append(value []byte) int {
	off := len(v.pool)
	v.pool = append(v.pool, value...)
	v.entries = append(v.entries, entry{
		offset: uint32(off),
		length: uint32(len(value)),
		seq:    uint32(len(v.entries)),
	})
	return len(v.entries) - 1
}

// Len returns the number of appended records.
func (v *Vec) Len() int { return len(v.entries) }

// Value returns record i's bytes as appended, a zero-copy view into pool.
func (v *Vec) Value(i int) []byte {
	e := v.entries[i]
	return v.pool[e.offset : e.offset+e.length]
}

// SortBy stably reorders the vector's records by less, a strict weak
// order over two record values. Ties fall back to insertion order.
func (v *Vec) SortBy(less func(a, b []byte) bool) {
	sort.SliceStable(v.entries, func(i, j int) bool {
		a := v.entries[i]
		b := v.entries[j]
		va := v.pool[a.offset : a.offset+a.length]
		vb := v.pool[b.offset : b.offset+b.length]
		if less(va, vb) {
			return true
		}
		if less(vb, va) {
			return false
		}
		return a.seq < b.seq
	})
}

// Packed is the consuming conversion target: a u32 offset array of
// length rows+1 (offsets[rows] == len(Pool), the standard trailing
// sentinel a readable store/index format expects) plus the backing byte
// pool, in the vector's current (post-sort) order.
type Packed struct {
	Offsets []uint32
	Pool    []byte
}

// IntoPacked consumes v, producing its Packed form (spec.md §4.2:
// "conversion to a packed (offsets[rows+1], strpool) form by reusing the
// index buffer as a u32 offset array"). Go's garbage collector and type
// system make literal in-place pointer aliasing of the entry slice both
// unsafe and unnecessary, so this is not a move: IntoPacked copies every
// record into a new pool in the vector's current order and builds a
// separate offset array (spec.md §9 "Manual memory aliasing... is
// modelled as an explicit owning conversion"). v must not be used after
// this call.
func (v *Vec) IntoPacked() (Packed, error) {
	if len(v.pool) > 0xFFFFFFFF {
		return Packed{}, fmt.Errorf("%w: pool size %d", ErrSizeOverflow, len(v.pool))
	}

	offsets := make([]uint32, len(v.entries)+1)
	pool := make([]byte, 0, len(v.pool))
	for i, e := range v.entries {
		offsets[i] = uint32(len(pool))
		pool = append(pool, v.pool[e.offset:e.offset+e.length]...)
	}
	offsets[len(v.entries)] = uint32(len(pool))

	v.pool = nil
	v.entries = nil

	return Packed{Offsets: offsets, Pool: pool}, nil
}
