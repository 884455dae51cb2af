// Package schema implements the row codec: typed column metadata, a
// compiled schema describing how a row is laid out on the wire, and the
// operations (parse, combine, project, byte-lex convert, compare, parse
// delimited text, render JSON) spec.md §4.1 assigns to it.
package schema

import "fmt"

// ColumnType is the closed tag set spec.md §3 specifies for a column.
// All multi-byte numbers are little-endian on the wire.
type ColumnType uint8

const (
	ColumnTypeInvalid ColumnType = iota

	// Fixed-width integers, signed and unsigned.
	ColumnTypeInt8
	ColumnTypeInt16
	ColumnTypeInt32
	ColumnTypeInt64
	ColumnTypeInt128
	ColumnTypeUint8
	ColumnTypeUint16
	ColumnTypeUint32
	ColumnTypeUint64
	ColumnTypeUint128

	// Fixed-width floats.
	ColumnTypeFloat32
	ColumnTypeFloat64
	ColumnTypeFloat128

	// Decimal128 is a fixed-width 128-bit decimal.
	ColumnTypeDecimal128

	// UUID is a fixed 16-byte column.
	ColumnTypeUUID

	// FixedBinary is a fixed-length opaque byte string; its width comes
	// from ColumnMeta.FixedLen.
	ColumnTypeFixedBinary

	// StrZero is a zero-terminated string. Embedded NUL bytes are
	// rejected by CombineRow, and so by ParseDelimText (see Open Question
	// decision 2 in DESIGN.md), rather than silently truncated.
	ColumnTypeStrZero

	// StrUTF8 is a UTF-8 string, length-prefixed like Binary unless it is
	// the row's trailing variable-length column.
	ColumnTypeStrUTF8

	// Binary is a varint-length-prefixed opaque byte string.
	ColumnTypeBinary

	// CarBin is a u32-length-prefixed opaque byte string, for payloads
	// too large or too hot-path-sensitive for varint-prefix decoding.
	ColumnTypeCarBin

	// VarInt/VarUint are variable-length signed/unsigned integers
	// (zigzag + varint, and plain varint, respectively).
	ColumnTypeVarInt
	ColumnTypeVarUint

	// PairZero is two zero-terminated strings packed as one column
	// (e.g. a namespaced key).
	ColumnTypePairZero

	// Nested is a recursive value: the encoded form of another row
	// schema, addressable as a single column.
	ColumnTypeNested

	// Any is self-describing: its first encoded byte is the concrete
	// ColumnType of the value that follows.
	ColumnTypeAny
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeInt8:
		return "Int8"
	case ColumnTypeInt16:
		return "Int16"
	case ColumnTypeInt32:
		return "Int32"
	case ColumnTypeInt64:
		return "Int64"
	case ColumnTypeInt128:
		return "Int128"
	case ColumnTypeUint8:
		return "Uint8"
	case ColumnTypeUint16:
		return "Uint16"
	case ColumnTypeUint32:
		return "Uint32"
	case ColumnTypeUint64:
		return "Uint64"
	case ColumnTypeUint128:
		return "Uint128"
	case ColumnTypeFloat32:
		return "Float32"
	case ColumnTypeFloat64:
		return "Float64"
	case ColumnTypeFloat128:
		return "Float128"
	case ColumnTypeDecimal128:
		return "Decimal128"
	case ColumnTypeUUID:
		return "UUID"
	case ColumnTypeFixedBinary:
		return "FixedBinary"
	case ColumnTypeStrZero:
		return "StrZero"
	case ColumnTypeStrUTF8:
		return "StrUTF8"
	case ColumnTypeBinary:
		return "Binary"
	case ColumnTypeCarBin:
		return "CarBin"
	case ColumnTypeVarInt:
		return "VarInt"
	case ColumnTypeVarUint:
		return "VarUint"
	case ColumnTypePairZero:
		return "PairZero"
	case ColumnTypeNested:
		return "Nested"
	case ColumnTypeAny:
		return "Any"
	default:
		return fmt.Sprintf("ColumnType(%d)", uint8(t))
	}
}

// FixedWidth returns the on-wire width of t when it is fixed, and false
// when t's width depends on a value (FixedBinary is fixed but its width
// comes from ColumnMeta.FixedLen, not from the type alone).
func (t ColumnType) FixedWidth() (int, bool) {
	switch t {
	case ColumnTypeInt8, ColumnTypeUint8:
		return 1, true
	case ColumnTypeInt16, ColumnTypeUint16:
		return 2, true
	case ColumnTypeInt32, ColumnTypeUint32, ColumnTypeFloat32:
		return 4, true
	case ColumnTypeInt64, ColumnTypeUint64, ColumnTypeFloat64:
		return 8, true
	case ColumnTypeInt128, ColumnTypeUint128, ColumnTypeFloat128, ColumnTypeDecimal128, ColumnTypeUUID:
		return 16, true
	default:
		return 0, false
	}
}

// IsVariableLength reports whether t's on-wire length depends on its value.
func (t ColumnType) IsVariableLength() bool {
	switch t {
	case ColumnTypeStrZero, ColumnTypeStrUTF8, ColumnTypeBinary, ColumnTypeCarBin,
		ColumnTypeVarInt, ColumnTypeVarUint, ColumnTypePairZero, ColumnTypeNested, ColumnTypeAny:
		return true
	default:
		return false
	}
}
