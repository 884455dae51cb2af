package schema

import (
	"bytes"
	"encoding/binary"
)

// CompareData returns the total order of two packed rows x,y of schema s,
// consistent with each column's type and SortOrder (spec.md §4.1
// "compareData"). Columns are compared in schema order; the first column
// that differs decides the result. A null value sorts before any non-null
// value of the same column.
func (s *Schema) CompareData(x, y []byte) (int, error) {
	cx, err := s.ParseRow(x)
	if err != nil {
		return 0, err
	}
	cy, err := s.ParseRow(y)
	if err != nil {
		return 0, err
	}

	for i, c := range s.columns {
		cmp := compareColumn(c, cx.Cols[i], cx.Row, cy.Cols[i], cy.Row)
		if cmp != 0 {
			if c.Sort == SortDescending {
				cmp = -cmp
			}
			return cmp, nil
		}
	}
	return 0, nil
}

func compareColumn(c ColumnMeta, sx ColumnSlice, rowX []byte, sy ColumnSlice, rowY []byte) int {
	if sx.Null || sy.Null {
		switch {
		case sx.Null && sy.Null:
			return 0
		case sx.Null:
			return -1
		default:
			return 1
		}
	}

	a := rowX[sx.Pos : sx.Pos+sx.Len]
	b := rowY[sy.Pos : sy.Pos+sy.Len]

	switch c.Type {
	case ColumnTypeInt8, ColumnTypeInt16, ColumnTypeInt32, ColumnTypeInt64, ColumnTypeInt128,
		ColumnTypeFloat32, ColumnTypeFloat64, ColumnTypeFloat128, ColumnTypeDecimal128,
		ColumnTypeUint16, ColumnTypeUint32, ColumnTypeUint64, ColumnTypeUint128:
		// Delegate to the exact same transform ByteLexConvert uses, so
		// CompareData and memcmp(ByteLexConvert(...)) agree by
		// construction (spec.md §4.1's ordering contract).
		ca, errA := convertColumnToByteLex(c, a)
		cb, errB := convertColumnToByteLex(c, b)
		if errA != nil || errB != nil {
			return bytes.Compare(a, b)
		}
		return bytes.Compare(ca, cb)
	case ColumnTypeUint8:
		return bytes.Compare(a, b) // single byte: LE/BE coincide
	case ColumnTypeVarInt:
		return compareVarint(a, b)
	case ColumnTypeVarUint:
		return compareVaruint(a, b)
	default:
		// UUID, FixedBinary, StrZero, StrUTF8, Binary, CarBin, PairZero,
		// Nested, Any: opaque byte strings, ordinary lexicographic order.
		return bytes.Compare(a, b)
	}
}

func compareVarint(a, b []byte) int {
	va, _ := binary.Varint(a)
	vb, _ := binary.Varint(b)
	switch {
	case va < vb:
		return -1
	case va > vb:
		return 1
	default:
		return 0
	}
}

func compareVaruint(a, b []byte) int {
	va, _ := binary.Uvarint(a)
	vb, _ := binary.Uvarint(b)
	switch {
	case va < vb:
		return -1
	case va > vb:
		return 1
	default:
		return 0
	}
}
