package schema

import (
	"encoding/binary"
	"fmt"
)

// ColumnSlice is a zero-copy (pos,len) reference into a ColumnVec's
// underlying row buffer. A nil-valued nullable column is represented by
// Null=true with Pos/Len meaningless.
type ColumnSlice struct {
	Pos  int
	Len  int
	Null bool
}

// ColumnVec is the result of ParseRow: per-column slices over the
// original row buffer, taken without copying (spec.md §4.1 "parseRow").
type ColumnVec struct {
	Row  []byte
	Cols []ColumnSlice
}

// Bytes returns column i's decoded value bytes (without prefix/terminator).
// Returns nil for a null column.
func (cv ColumnVec) Bytes(i int) []byte {
	c := cv.Cols[i]
	if c.Null {
		return nil
	}
	return cv.Row[c.Pos : c.Pos+c.Len]
}

// ParseRow splits row into a ColumnVec against s. It fails with
// ErrRowParse if a length prefix or terminator overruns the buffer.
func (s *Schema) ParseRow(row []byte) (ColumnVec, error) {
	if !s.compiled {
		return ColumnVec{}, ErrNotCompiled
	}

	cols := make([]ColumnSlice, len(s.columns))
	pos := 0

	for i := range s.columns {
		c := &s.columns[i]

		if c.Flags.Has(ColumnFlagNullable) {
			if pos >= len(row) {
				return ColumnVec{}, fmt.Errorf("%w: column %q: missing null marker", ErrRowParse, c.Name)
			}
			if row[pos] == 0 {
				pos++
				cols[i] = ColumnSlice{Null: true}
				continue
			}
			pos++
		}

		isLast := i == s.lastVarCol
		slice, next, err := decodeColumn(*c, row, pos, isLast)
		if err != nil {
			return ColumnVec{}, fmt.Errorf("%w: column %q: %v", ErrRowParse, c.Name, err)
		}
		cols[i] = slice
		pos = next
	}

	return ColumnVec{Row: row, Cols: cols}, nil
}

// CombineRow is the inverse of ParseRow: given one decoded value per
// column (nil means null, and the column must be nullable), it writes a
// packed row, adding length prefixes/terminators where required. Fails
// with ErrColumnCountMismatch if len(values) != s.NumColumns().
func (s *Schema) CombineRow(values [][]byte) ([]byte, error) {
	if !s.compiled {
		return nil, ErrNotCompiled
	}
	if len(values) != len(s.columns) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrColumnCountMismatch, len(values), len(s.columns))
	}

	var buf []byte
	for i := range s.columns {
		c := s.columns[i]
		v := values[i]

		if c.Flags.Has(ColumnFlagNullable) {
			if v == nil {
				buf = append(buf, 0)
				continue
			}
			buf = append(buf, 1)
		} else if v == nil {
			return nil, fmt.Errorf("%w: column %q is not nullable", ErrRowParse, c.Name)
		}

		var err error
		if i == s.lastVarCol {
			buf, err = ProjectToLast(c, v, buf)
		} else {
			buf, err = ProjectToNorm(c, v, buf)
		}
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
	}
	return buf, nil
}

// ProjectToNorm appends one column's fully-delimited encoded form
// (including any length prefix or terminator) to buf.
func ProjectToNorm(c ColumnMeta, value []byte, buf []byte) ([]byte, error) {
	return encodeColumn(c, value, buf, false)
}

// ProjectToLast appends one column's encoded form, omitting the trailing
// length prefix when the column's encoding uses one (StrUTF8, Binary,
// CarBin, Nested): the decoder infers the length from what remains in the
// row buffer. Self-delimiting encodings (StrZero's terminator, VarInt/
// VarUint's continuation bit, PairZero's two terminators) are unaffected.
func ProjectToLast(c ColumnMeta, value []byte, buf []byte) ([]byte, error) {
	return encodeColumn(c, value, buf, true)
}

func encodeColumn(c ColumnMeta, value []byte, buf []byte, last bool) ([]byte, error) {
	switch c.Type {
	case ColumnTypeFixedBinary:
		if len(value) != c.FixedLen {
			return nil, fmt.Errorf("fixed binary width mismatch: got %d, want %d", len(value), c.FixedLen)
		}
		return append(buf, value...), nil

	case ColumnTypeUUID:
		if len(value) != 16 {
			return nil, fmt.Errorf("uuid width mismatch: got %d, want 16", len(value))
		}
		return append(buf, value...), nil

	case ColumnTypeStrZero:
		for _, b := range value {
			if b == 0 {
				return nil, fmt.Errorf("%w: embedded NUL in StrZero value", ErrRowParse)
			}
		}
		buf = append(buf, value...)
		return append(buf, 0), nil

	case ColumnTypeStrUTF8, ColumnTypeBinary:
		if last {
			return append(buf, value...), nil
		}
		buf = binary.AppendUvarint(buf, uint64(len(value)))
		return append(buf, value...), nil

	case ColumnTypeCarBin:
		if last {
			return append(buf, value...), nil
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(value)))
		return append(buf, value...), nil

	case ColumnTypeNested:
		if last {
			return append(buf, value...), nil
		}
		buf = binary.AppendUvarint(buf, uint64(len(value)))
		return append(buf, value...), nil

	case ColumnTypePairZero:
		// value is two strings joined with a single internal NUL.
		for i, b := range value {
			if b == 0 {
				buf = append(buf, value[:i]...)
				buf = append(buf, 0)
				buf = append(buf, value[i+1:]...)
				return append(buf, 0), nil
			}
		}
		return nil, fmt.Errorf("PairZero value missing internal separator")

	case ColumnTypeVarInt:
		v, n := binary.Varint(value)
		if n <= 0 {
			return nil, fmt.Errorf("invalid VarInt value encoding")
		}
		return binary.AppendVarint(buf, v), nil

	case ColumnTypeVarUint:
		v, n := binary.Uvarint(value)
		if n <= 0 {
			return nil, fmt.Errorf("invalid VarUint value encoding")
		}
		return binary.AppendUvarint(buf, v), nil

	case ColumnTypeAny:
		if len(value) < 1 {
			return nil, fmt.Errorf("Any value missing type tag")
		}
		inner := ColumnMeta{Type: ColumnType(value[0])}
		buf = append(buf, value[0])
		payload, err := encodeColumn(inner, value[1:], nil, false)
		if err != nil {
			return nil, err
		}
		buf = binary.AppendUvarint(buf, uint64(len(payload)))
		return append(buf, payload...), nil

	default:
		// Fixed-width numeric types: raw little-endian bytes of known width.
		w, ok := c.Type.FixedWidth()
		if !ok {
			return nil, fmt.Errorf("unsupported column type %s", c.Type)
		}
		if len(value) != w {
			return nil, fmt.Errorf("width mismatch for %s: got %d, want %d", c.Type, len(value), w)
		}
		return append(buf, value...), nil
	}
}

func decodeColumn(c ColumnMeta, row []byte, pos int, last bool) (ColumnSlice, int, error) {
	switch c.Type {
	case ColumnTypeFixedBinary:
		if pos+c.FixedLen > len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("short buffer for fixed binary")
		}
		return ColumnSlice{Pos: pos, Len: c.FixedLen}, pos + c.FixedLen, nil

	case ColumnTypeUUID:
		if pos+16 > len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("short buffer for uuid")
		}
		return ColumnSlice{Pos: pos, Len: 16}, pos + 16, nil

	case ColumnTypeStrZero:
		end := pos
		for end < len(row) && row[end] != 0 {
			end++
		}
		if end >= len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("missing NUL terminator")
		}
		return ColumnSlice{Pos: pos, Len: end - pos}, end + 1, nil

	case ColumnTypeStrUTF8, ColumnTypeBinary:
		if last {
			return ColumnSlice{Pos: pos, Len: len(row) - pos}, len(row), nil
		}
		l, n := binary.Uvarint(row[pos:])
		if n <= 0 {
			return ColumnSlice{}, 0, fmt.Errorf("invalid length prefix")
		}
		start := pos + n
		if start+int(l) > len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("short buffer for value")
		}
		return ColumnSlice{Pos: start, Len: int(l)}, start + int(l), nil

	case ColumnTypeCarBin:
		if last {
			return ColumnSlice{Pos: pos, Len: len(row) - pos}, len(row), nil
		}
		if pos+4 > len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("short buffer for CarBin length")
		}
		l := binary.LittleEndian.Uint32(row[pos:])
		start := pos + 4
		if start+int(l) > len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("short buffer for CarBin value")
		}
		return ColumnSlice{Pos: start, Len: int(l)}, start + int(l), nil

	case ColumnTypeNested:
		if last {
			return ColumnSlice{Pos: pos, Len: len(row) - pos}, len(row), nil
		}
		l, n := binary.Uvarint(row[pos:])
		if n <= 0 {
			return ColumnSlice{}, 0, fmt.Errorf("invalid nested length prefix")
		}
		start := pos + n
		if start+int(l) > len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("short buffer for nested value")
		}
		return ColumnSlice{Pos: start, Len: int(l)}, start + int(l), nil

	case ColumnTypePairZero:
		first := pos
		for first < len(row) && row[first] != 0 {
			first++
		}
		if first >= len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("missing first NUL in PairZero")
		}
		second := first + 1
		for second < len(row) && row[second] != 0 {
			second++
		}
		if second >= len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("missing second NUL in PairZero")
		}
		return ColumnSlice{Pos: pos, Len: second - pos}, second + 1, nil

	case ColumnTypeVarInt:
		_, n := binary.Varint(row[pos:])
		if n <= 0 {
			return ColumnSlice{}, 0, fmt.Errorf("invalid VarInt encoding")
		}
		return ColumnSlice{Pos: pos, Len: n}, pos + n, nil

	case ColumnTypeVarUint:
		_, n := binary.Uvarint(row[pos:])
		if n <= 0 {
			return ColumnSlice{}, 0, fmt.Errorf("invalid VarUint encoding")
		}
		return ColumnSlice{Pos: pos, Len: n}, pos + n, nil

	case ColumnTypeAny:
		if pos+1 > len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("short buffer for Any type tag")
		}
		l, n := binary.Uvarint(row[pos+1:])
		if n <= 0 {
			return ColumnSlice{}, 0, fmt.Errorf("invalid Any length prefix")
		}
		start := pos + 1 + n
		if start+int(l) > len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("short buffer for Any value")
		}
		// Cols slice covers [tag][payload] so Bytes() returns a value
		// re-encodable by encodeColumn's ColumnTypeAny branch unchanged.
		return ColumnSlice{Pos: pos, Len: 1 + int(l)}, start + int(l), nil

	default:
		w, ok := c.Type.FixedWidth()
		if !ok {
			return ColumnSlice{}, 0, fmt.Errorf("unsupported column type %s", c.Type)
		}
		if pos+w > len(row) {
			return ColumnSlice{}, 0, fmt.Errorf("short buffer for %s", c.Type)
		}
		return ColumnSlice{Pos: pos, Len: w}, pos + w, nil
	}
}
