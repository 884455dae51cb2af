package index

import (
	"encoding/binary"
	"sort"
)

// writableIndexMagic/-Version tag WritableIndex's version-tagged
// self-describing dump, the same style store.WritableStore uses for its
// own WriteTo/ReadWritable pair.
const (
	writableIndexMagic   = 0x58444957 // "WIDX"
	writableIndexVersion = 1
)

// entryOverhead approximates a node's bookkeeping cost (key slice header,
// id, and the pointer overhead a node-based map would pay) for
// IndexStorageSize's best-effort estimate (spec.md §4.6:
// "indexStorageSize() returns a best-effort byte estimate (in a
// node-based map: nodes × (entry + pointer-overhead) + sum-of-key-bytes)").
const entryOverhead = 24 + 4 + 16

type wentry struct {
	key []byte
	id  uint32
}

// WritableIndex is the mutable sorted multimap spec.md §4.6 describes: a
// typed or byte-string key ordered by cmp, mapping to one or more local
// IDs. Ties under the same key are kept sorted by ID, which both gives
// Insert/Remove an exact binary-searchable position and a deterministic
// iteration order among duplicates.
//
// The pack had no grounded ordered-map/B-tree library to build this on
// (see DESIGN.md), so it is a flat sorted slice rather than a node-based
// tree; IndexStorageSize still reports the node-based-map estimate
// spec.md §4.6 names, since that is the byte-budget contract callers
// rely on, not an implementation commitment to a particular container.
type WritableIndex struct {
	entries []wentry
	unique  bool
	cmp     Comparator
}

// NewWritable returns an empty writable index ordered by cmp.
func NewWritable(unique bool, cmp Comparator) *WritableIndex {
	return &WritableIndex{unique: unique, cmp: cmp}
}

// Unique reports whether wi rejects a second local ID under an existing
// key.
func (wi *WritableIndex) Unique() bool { return wi.unique }

// Len implements ordered: the number of (key, id) entries.
func (wi *WritableIndex) Len() int { return len(wi.entries) }

// KeyAt implements ordered.
func (wi *WritableIndex) KeyAt(pos int) []byte { return wi.entries[pos].key }

// IDAt returns the local ID at position pos.
func (wi *WritableIndex) IDAt(pos int) uint32 { return wi.entries[pos].id }

// tuplePos returns the insertion position for (key, id) under (key, then
// id) order, and whether an entry with exactly that key and id already
// occupies it.
func (wi *WritableIndex) tuplePos(key []byte, id uint32) (int, bool) {
	pos := sort.Search(len(wi.entries), func(i int) bool {
		c := wi.cmp(wi.entries[i].key, key)
		if c != 0 {
			return c >= 0
		}
		return wi.entries[i].id >= id
	})
	exact := pos < len(wi.entries) && wi.cmp(wi.entries[pos].key, key) == 0 && wi.entries[pos].id == id
	return pos, exact
}

// keyLowerBound returns the position of the first entry with the given
// key (under any id), or len(entries) if none.
func (wi *WritableIndex) keyLowerBound(key []byte) int {
	return sort.Search(len(wi.entries), func(i int) bool {
		return wi.cmp(wi.entries[i].key, key) >= 0
	})
}

// Insert adds (key, id) (spec.md §4.6 "insert"). inserted is false, with
// no error, if (key, id) is already present. For a unique index, inserted
// is false and err is ErrDuplicateKey if a different id is already
// registered under key.
func (wi *WritableIndex) Insert(key []byte, id uint32) (inserted bool, err error) {
	pos, exact := wi.tuplePos(key, id)
	if exact {
		return false, nil
	}
	if wi.unique {
		if kp := wi.keyLowerBound(key); kp < len(wi.entries) && wi.cmp(wi.entries[kp].key, key) == 0 {
			return false, ErrDuplicateKey
		}
	}

	wi.entries = append(wi.entries, wentry{})
	copy(wi.entries[pos+1:], wi.entries[pos:])
	wi.entries[pos] = wentry{key: append([]byte(nil), key...), id: id}
	return true, nil
}

// Replace erases (key, oldID) if oldID != newID, then inserts
// (key, newID) (spec.md §4.6 "replace").
func (wi *WritableIndex) Replace(key []byte, oldID, newID uint32) error {
	if oldID != newID {
		wi.Remove(key, oldID)
	}
	_, err := wi.Insert(key, newID)
	return err
}

// Remove erases (key, id), reporting whether it was present (spec.md
// §4.6 "remove").
func (wi *WritableIndex) Remove(key []byte, id uint32) bool {
	pos, exact := wi.tuplePos(key, id)
	if !exact {
		return false
	}
	wi.entries = append(wi.entries[:pos], wi.entries[pos+1:]...)
	return true
}

// NewIter returns a fresh iterator over wi, initially unpositioned.
func (wi *WritableIndex) NewIter() *Iter { return newIter(wi) }

// ForEachEntry calls fn for every (key, id) pair in wi's sorted order.
// Used by segment freeze to recover, per local ID, the key a row was
// indexed under, without re-deriving it from the row itself.
func (wi *WritableIndex) ForEachEntry(fn func(key []byte, id uint32)) {
	for _, e := range wi.entries {
		fn(e.key, e.id)
	}
}

// IndexStorageSize returns the best-effort byte estimate spec.md §4.6
// specifies: node/entry overhead per entry plus the sum of key bytes.
func (wi *WritableIndex) IndexStorageSize() int64 {
	var keyBytes int64
	for _, e := range wi.entries {
		keyBytes += int64(len(e.key))
	}
	return int64(len(wi.entries))*entryOverhead + keyBytes
}

// WriteTo serializes wi's (key, id) entries in sorted order, so a reload
// can rebuild the index without re-sorting.
func (wi *WritableIndex) WriteTo() []byte {
	size := 16
	for _, e := range wi.entries {
		size += 8 + len(e.key)
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, writableIndexMagic)
	buf = binary.LittleEndian.AppendUint32(buf, writableIndexVersion)
	unique := uint32(0)
	if wi.unique {
		unique = 1
	}
	buf = binary.LittleEndian.AppendUint32(buf, unique)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(wi.entries)))
	for _, e := range wi.entries {
		buf = binary.LittleEndian.AppendUint32(buf, e.id)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.key)))
		buf = append(buf, e.key...)
	}
	return buf
}

// ReadWritable parses a dump produced by WriteTo, ordering the result by
// cmp (normally the same comparator the index was built with).
func ReadWritable(data []byte, cmp Comparator) (*WritableIndex, error) {
	if len(data) < 16 {
		return nil, ErrTruncated
	}
	if binary.LittleEndian.Uint32(data[0:]) != writableIndexMagic {
		return nil, ErrBadMagic
	}
	if binary.LittleEndian.Uint32(data[4:]) != writableIndexVersion {
		return nil, ErrUnsupportedVersion
	}
	unique := binary.LittleEndian.Uint32(data[8:]) == 1
	n := binary.LittleEndian.Uint32(data[12:])

	pos := 16
	entries := make([]wentry, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(data) < pos+8 {
			return nil, ErrTruncated
		}
		id := binary.LittleEndian.Uint32(data[pos:])
		klen := int(binary.LittleEndian.Uint32(data[pos+4:]))
		pos += 8
		if len(data) < pos+klen {
			return nil, ErrTruncated
		}
		key := append([]byte(nil), data[pos:pos+klen]...)
		pos += klen
		entries = append(entries, wentry{key: key, id: id})
	}
	return &WritableIndex{entries: entries, unique: unique, cmp: cmp}, nil
}
