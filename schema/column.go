package schema

// SortOrder controls how a column participates in CompareData and
// ByteLexConvert.
type SortOrder uint8

const (
	SortAscending SortOrder = iota
	SortDescending
)

// ColumnFlag is a bitset of per-column attributes.
type ColumnFlag uint8

const (
	// ColumnFlagNullable allows the column to carry a null marker. Null
	// representation is the same for every type: a one-byte presence flag
	// preceding the encoded value.
	ColumnFlagNullable ColumnFlag = 1 << iota
	// ColumnFlagNeedsByteLexConvert marks a column whose natural encoding
	// does not already sort correctly under unsigned memcmp (e.g. signed
	// integers, IEEE-754 floats) and so requires ByteLexConvert before use
	// as an index key.
	ColumnFlagNeedsByteLexConvert
	// ColumnFlagCanByteLexConvert marks a column for which a correct
	// ByteLexConvert transform exists. A column can need conversion
	// without one being implemented (e.g. Nested), in which case it
	// cannot back a byte-lex-ordered index.
	ColumnFlagCanByteLexConvert
)

// Has reports whether all bits in mask are set.
func (f ColumnFlag) Has(mask ColumnFlag) bool { return f&mask == mask }

// ColumnMeta describes one column of a Schema: spec.md §3 "Column meta."
type ColumnMeta struct {
	Name string
	Type ColumnType

	// FixedLen is the on-wire width for FixedBinary columns; ignored for
	// every other type (fixed-width numeric types derive their width from
	// Type.FixedWidth()).
	FixedLen int

	// Sort controls CompareData's direction for this column.
	Sort SortOrder

	Flags ColumnFlag

	// fixedOffset is the cached byte offset of this column within a row's
	// fixed-length prefix, filled by Schema.Compile. Valid only when the
	// column itself has fixed width and every earlier column does too.
	fixedOffset int
	hasOffset   bool
}

// width returns the on-wire fixed width of m, and whether m has one at all.
func (m ColumnMeta) width() (int, bool) {
	if m.Type == ColumnTypeFixedBinary || m.Type == ColumnTypeUUID {
		if m.Type == ColumnTypeUUID {
			return 16, true
		}
		return m.FixedLen, m.FixedLen > 0
	}
	return m.Type.FixedWidth()
}

// defaultByteLexFlags reports the default byte-lex requirement for
// t, independent of any explicit flags the caller set. Compile ORs this
// into the column's Flags so callers don't have to know each type's
// byte-lex behavior.
//
// All multi-byte numbers are little-endian on the wire (spec.md §3), so
// every multi-byte fixed-width numeric type needs at least a byte swap
// before unsigned memcmp agrees with numeric order; signed types also
// need their sign bit flipped, and floats need the IEEE-754
// total-ordering transform. Byte-string types (UUID, FixedBinary,
// StrZero, StrUTF8, Binary, CarBin, PairZero) are already memcmp-correct:
// their decoded value bytes are compared with the same semantics as
// bytes.Compare, with no endianness to account for. VarInt/VarUint/
// Nested/Any need conversion in principle but have no transform
// implemented, so they cannot back a byte-lex-ordered index.
func defaultByteLexFlags(t ColumnType) ColumnFlag {
	switch t {
	case ColumnTypeInt8:
		// Single byte: only the sign bit needs flipping, no swap.
		return ColumnFlagNeedsByteLexConvert | ColumnFlagCanByteLexConvert
	case ColumnTypeInt16, ColumnTypeInt32, ColumnTypeInt64, ColumnTypeInt128,
		ColumnTypeFloat32, ColumnTypeFloat64, ColumnTypeFloat128, ColumnTypeDecimal128:
		return ColumnFlagNeedsByteLexConvert | ColumnFlagCanByteLexConvert
	case ColumnTypeUint8:
		return 0
	case ColumnTypeUint16, ColumnTypeUint32, ColumnTypeUint64, ColumnTypeUint128:
		// Unsigned: swap only, no sign bit to flip.
		return ColumnFlagNeedsByteLexConvert | ColumnFlagCanByteLexConvert
	case ColumnTypeUUID, ColumnTypeFixedBinary, ColumnTypeStrZero, ColumnTypeStrUTF8,
		ColumnTypeBinary, ColumnTypeCarBin, ColumnTypePairZero:
		return 0
	case ColumnTypeVarInt, ColumnTypeVarUint, ColumnTypeNested, ColumnTypeAny:
		return ColumnFlagNeedsByteLexConvert
	default:
		return 0
	}
}
