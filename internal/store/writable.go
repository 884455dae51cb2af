package store

import (
	"encoding/binary"
	"fmt"
)

// slotOverhead is a fixed per-slot bookkeeping cost folded into
// DataStorageSize's container estimate (spec.md §4.5: "dataStorageSize()
// reports container bytes plus a running m_dataSize of live payload"),
// approximating a Go slice header plus the cleared-flag byte.
const slotOverhead = 24 + 1

// WritableStore is the mutable, append-only row-data container spec.md
// §4.5 describes: append allocates the next local ID, replace overwrites
// a slot in place, and remove clears a slot's content while reserving
// its ID so later local IDs never shift.
type WritableStore struct {
	rows     [][]byte
	cleared  []bool
	liveSize int64 // spec.md's m_dataSize: sum of live (non-cleared) payload bytes
}

// NewWritable returns an empty writable store.
func NewWritable() *WritableStore {
	return &WritableStore{}
}

// Append adds row and returns its newly allocated local ID.
func (s *WritableStore) Append(row []byte) uint32 {
	id := uint32(len(s.rows))
	s.rows = append(s.rows, row)
	s.cleared = append(s.cleared, false)
	s.liveSize += int64(len(row))
	return id
}

// Replace overwrites id's content in place (spec.md §4.5 "replace").
// Replacing a previously-removed slot resurrects it.
func (s *WritableStore) Replace(id uint32, row []byte) error {
	if uint64(id) >= uint64(len(s.rows)) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	if !s.cleared[id] {
		s.liveSize -= int64(len(s.rows[id]))
	}
	s.rows[id] = row
	s.cleared[id] = false
	s.liveSize += int64(len(row))
	return nil
}

// Remove clears id's content but reserves its slot: later local IDs are
// unaffected, and the slot still appears — as cleared — in ForEach and
// Len (spec.md §4.5 "deletion is logical").
func (s *WritableStore) Remove(id uint32) error {
	if uint64(id) >= uint64(len(s.rows)) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	if s.cleared[id] {
		return nil
	}
	s.liveSize -= int64(len(s.rows[id]))
	s.rows[id] = nil
	s.cleared[id] = true
	return nil
}

// Get returns id's content. ok is false if id was removed; err is
// ErrOutOfRange if id was never allocated.
func (s *WritableStore) Get(id uint32) (row []byte, ok bool, err error) {
	if uint64(id) >= uint64(len(s.rows)) {
		return nil, false, fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	if s.cleared[id] {
		return nil, false, nil
	}
	return s.rows[id], true, nil
}

// Len returns the total number of allocated slots, including cleared
// ones.
func (s *WritableStore) Len() int { return len(s.rows) }

// DataStorageSize reports container bytes (slotOverhead per allocated
// slot) plus the running live-payload total (spec.md §4.5
// "dataStorageSize").
func (s *WritableStore) DataStorageSize() int64 {
	return int64(len(s.rows))*slotOverhead + s.liveSize
}

// ForEach visits every allocated slot in local-ID order, including
// cleared ones, stopping early if fn returns false (spec.md §4.5:
// "Iteration visits all slots in ID order including cleared ones").
func (s *WritableStore) ForEach(fn func(id uint32, row []byte, cleared bool) bool) {
	for i, row := range s.rows {
		if !fn(uint32(i), row, s.cleared[i]) {
			return
		}
	}
}

const (
	writableMagic   = 0x53545257 // "WRTS"
	writableVersion = 1
)

// WriteTo serializes s into a self-describing, version-tagged dump
// (spec.md §6: "a self-describing native-endian dump of the in-memory
// container (version-tagged). Implementations may choose any format
// provided load/save round-trip").
func (s *WritableStore) WriteTo() []byte {
	buf := make([]byte, 0, 16+len(s.rows)*8)
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:], writableMagic)
	binary.LittleEndian.PutUint32(hdr[4:], writableVersion)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(len(s.rows)))
	buf = append(buf, hdr[:]...)

	for i, row := range s.rows {
		var flag byte
		if s.cleared[i] {
			flag = 1
		}
		buf = append(buf, flag)
		buf = binary.AppendUvarint(buf, uint64(len(row)))
		buf = append(buf, row...)
	}
	return buf
}

// ReadWritable parses a WriteTo dump back into a WritableStore.
func ReadWritable(data []byte) (*WritableStore, error) {
	if len(data) < 12 {
		return nil, ErrTruncated
	}
	magic := binary.LittleEndian.Uint32(data[0:])
	if magic != writableMagic {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(data[4:])
	if version > writableVersion {
		return nil, ErrUnsupportedVersion
	}
	count := binary.LittleEndian.Uint32(data[8:])

	s := &WritableStore{
		rows:    make([][]byte, 0, count),
		cleared: make([]bool, 0, count),
	}
	pos := 12
	for i := uint32(0); i < count; i++ {
		if pos >= len(data) {
			return nil, ErrTruncated
		}
		cleared := data[pos] == 1
		pos++

		n, nread := binary.Uvarint(data[pos:])
		if nread <= 0 {
			return nil, ErrTruncated
		}
		pos += nread
		if pos+int(n) > len(data) {
			return nil, ErrTruncated
		}
		var row []byte
		if n > 0 {
			row = append([]byte(nil), data[pos:pos+int(n)]...)
		}
		pos += int(n)

		s.rows = append(s.rows, row)
		s.cleared = append(s.cleared, cleared)
		if !cleared {
			s.liveSize += int64(len(row))
		}
	}
	return s, nil
}
