package schema

import "fmt"

// ByteLexConvert rewrites a packed row or key of schema s so that an
// unsigned byte-wise comparison (memcmp) of two converted outputs agrees
// with s.CompareData on the inputs (spec.md §4.1 "byteLexConvert"). It is
// legal only when every column either needs no conversion or has both
// ColumnFlagNeedsByteLexConvert and ColumnFlagCanByteLexConvert set; a
// column that needs conversion but has no transform implemented (VarInt,
// VarUint, Nested, Any) makes the whole schema ineligible, since
// CompareData could then disagree with memcmp on that column.
//
// The result has no length prefixes: each column's converted value is
// written back to back. This is safe for memcmp agreement because
// bytes.Compare on an unprefixed shorter-is-a-prefix string already
// agrees with CompareData's per-column byte comparison — identical to the
// semantics compareColumn already uses for byte-string types.
func (s *Schema) ByteLexConvert(row []byte) ([]byte, error) {
	cv, err := s.ParseRow(row)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(row))
	for i, c := range s.columns {
		if c.Flags.Has(ColumnFlagNeedsByteLexConvert) && !c.Flags.Has(ColumnFlagCanByteLexConvert) {
			return nil, fmt.Errorf("%w: column %q has no byte-lex transform", ErrInvalidSchema, c.Name)
		}

		slice := cv.Cols[i]
		if slice.Null {
			// A null sorts before any value; a single zero byte does the
			// same under memcmp as long as every non-null encoding below
			// is non-empty, which all fixed-width and length-bearing
			// encodings are.
			out = append(out, 0)
			continue
		}
		val := row[slice.Pos : slice.Pos+slice.Len]

		converted := val
		if c.Flags.Has(ColumnFlagNeedsByteLexConvert) {
			converted, err = convertColumnToByteLex(c, val)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", c.Name, err)
			}
		}

		if c.Sort == SortDescending {
			for _, b := range converted {
				out = append(out, ^b)
			}
		} else {
			out = append(out, converted...)
		}
	}
	return out, nil
}

// convertColumnToByteLex converts one fixed-width numeric column's
// little-endian wire bytes into a big-endian, sign/IEEE-754-adjusted form
// that sorts correctly under unsigned memcmp.
func convertColumnToByteLex(c ColumnMeta, val []byte) ([]byte, error) {
	n := len(val)
	out := make([]byte, n)

	// Byte-swap little-endian to big-endian.
	for i := 0; i < n; i++ {
		out[i] = val[n-1-i]
	}

	switch c.Type {
	case ColumnTypeInt8, ColumnTypeInt16, ColumnTypeInt32, ColumnTypeInt64, ColumnTypeInt128:
		// Flip the sign bit so negatives sort before positives under
		// unsigned memcmp.
		out[0] ^= 0x80

	case ColumnTypeFloat32, ColumnTypeFloat64, ColumnTypeFloat128, ColumnTypeDecimal128:
		// IEEE-754 total-ordering transform: if the sign bit is set
		// (negative), flip every bit; otherwise flip only the sign bit.
		if out[0]&0x80 != 0 {
			for i := range out {
				out[i] = ^out[i]
			}
		} else {
			out[0] ^= 0x80
		}

	case ColumnTypeUint16, ColumnTypeUint32, ColumnTypeUint64, ColumnTypeUint128:
		// Byte swap alone is sufficient; no sign bit.

	default:
		return nil, fmt.Errorf("unsupported byte-lex type %s", c.Type)
	}
	return out, nil
}
