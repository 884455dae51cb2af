package schema

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ParseDelimText parses one delim-separated text line into a packed row
// of schema s (spec.md §4.1 "parseDelimText"): a type-directed tokenizer
// turns each field into its column's native encoding, so a TSV/CSV-style
// dump can be loaded without a separate value-typing pass. The token for
// a nullable column's null value is the empty string. Nested and Any
// columns have no text representation and always fail.
func (s *Schema) ParseDelimText(delim byte, line string) ([]byte, error) {
	if !s.compiled {
		return nil, ErrNotCompiled
	}

	fields := strings.Split(line, string(delim))
	if len(fields) != len(s.columns) {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrRowParse, len(fields), len(s.columns))
	}

	values := make([][]byte, len(s.columns))
	for i, c := range s.columns {
		tok := fields[i]
		if c.Flags.Has(ColumnFlagNullable) && tok == "" {
			values[i] = nil
			continue
		}
		v, err := parseTextToken(c, tok)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		values[i] = v
	}
	return s.CombineRow(values)
}

func parseTextToken(c ColumnMeta, tok string) ([]byte, error) {
	switch c.Type {
	case ColumnTypeInt8, ColumnTypeInt16, ColumnTypeInt32, ColumnTypeInt64:
		w, _ := c.Type.FixedWidth()
		n, err := strconv.ParseInt(tok, 10, w*8)
		if err != nil {
			return nil, err
		}
		return appendSignedLE(nil, n, w), nil

	case ColumnTypeInt128:
		return parseHexFixed(tok, 16)

	case ColumnTypeUint8, ColumnTypeUint16, ColumnTypeUint32, ColumnTypeUint64:
		w, _ := c.Type.FixedWidth()
		n, err := strconv.ParseUint(tok, 10, w*8)
		if err != nil {
			return nil, err
		}
		return appendUnsignedLE(nil, n, w), nil

	case ColumnTypeUint128:
		return parseHexFixed(tok, 16)

	case ColumnTypeFloat32:
		f, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(f))), nil

	case ColumnTypeFloat64:
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(f)), nil

	case ColumnTypeFloat128, ColumnTypeDecimal128:
		return parseHexFixed(tok, 16)

	case ColumnTypeUUID:
		id, err := uuid.Parse(tok)
		if err != nil {
			return nil, err
		}
		b := id[:]
		return append([]byte(nil), b...), nil

	case ColumnTypeFixedBinary:
		b, err := hex.DecodeString(tok)
		if err != nil {
			return nil, err
		}
		if len(b) != c.FixedLen {
			return nil, fmt.Errorf("fixed binary width mismatch: got %d, want %d", len(b), c.FixedLen)
		}
		return b, nil

	case ColumnTypeStrZero, ColumnTypeStrUTF8:
		return []byte(tok), nil

	case ColumnTypeBinary, ColumnTypeCarBin:
		return hex.DecodeString(tok)

	case ColumnTypeVarInt:
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, err
		}
		return binary.AppendVarint(nil, n), nil

	case ColumnTypeVarUint:
		n, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return nil, err
		}
		return binary.AppendUvarint(nil, n), nil

	case ColumnTypePairZero:
		parts := strings.SplitN(tok, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("PairZero text token needs a ':' separator")
		}
		v := append([]byte(parts[0]), 0)
		return append(v, parts[1]...), nil

	default:
		return nil, fmt.Errorf("column type %s has no text representation", c.Type)
	}
}

func appendSignedLE(buf []byte, n int64, w int) []byte {
	u := uint64(n)
	for i := 0; i < w; i++ {
		buf = append(buf, byte(u>>(8*i)))
	}
	return buf
}

func appendUnsignedLE(buf []byte, n uint64, w int) []byte {
	for i := 0; i < w; i++ {
		buf = append(buf, byte(n>>(8*i)))
	}
	return buf
}

func parseHexFixed(tok string, n int) ([]byte, error) {
	b, err := hex.DecodeString(tok)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("hex token width mismatch: got %d, want %d", len(b), n)
	}
	return b, nil
}

// ToJSONStr renders row as a human-readable JSON object keyed by column
// name, for debug/inspection tooling (spec.md §4.1 "toJSONStr"). Values
// that have no natural JSON scalar (FixedBinary, Binary, CarBin,
// Int128/Uint128/Float128/Decimal128) render as a hex string; UUID renders
// as its canonical hyphenated string; Any renders
// as {"type": ..., "value": ...}; Nested renders as a hex string of its
// raw encoded bytes, since rendering it recursively would require the
// nested schema, which this Schema does not carry.
func (s *Schema) ToJSONStr(row []byte) (string, error) {
	cv, err := s.ParseRow(row)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, c := range s.columns {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:", c.Name)

		slice := cv.Cols[i]
		if slice.Null {
			b.WriteString("null")
			continue
		}
		val := row[slice.Pos : slice.Pos+slice.Len]
		tok, err := columnToJSON(c, val)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", c.Name, err)
		}
		b.WriteString(tok)
	}
	b.WriteByte('}')
	return b.String(), nil
}

func columnToJSON(c ColumnMeta, val []byte) (string, error) {
	switch c.Type {
	case ColumnTypeInt8:
		return strconv.FormatInt(int64(int8(val[0])), 10), nil
	case ColumnTypeInt16:
		return strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(val))), 10), nil
	case ColumnTypeInt32:
		return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(val))), 10), nil
	case ColumnTypeInt64:
		return strconv.FormatInt(int64(binary.LittleEndian.Uint64(val)), 10), nil
	case ColumnTypeUint8:
		return strconv.FormatUint(uint64(val[0]), 10), nil
	case ColumnTypeUint16:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint16(val)), 10), nil
	case ColumnTypeUint32:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(val)), 10), nil
	case ColumnTypeUint64:
		return strconv.FormatUint(binary.LittleEndian.Uint64(val), 10), nil
	case ColumnTypeFloat32:
		f := math.Float32frombits(binary.LittleEndian.Uint32(val))
		return strconv.FormatFloat(float64(f), 'g', -1, 32), nil
	case ColumnTypeFloat64:
		f := math.Float64frombits(binary.LittleEndian.Uint64(val))
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case ColumnTypeUUID:
		id, err := uuid.FromBytes(val)
		if err != nil {
			return "", err
		}
		return strconv.Quote(id.String()), nil
	case ColumnTypeStrZero, ColumnTypeStrUTF8:
		return strconv.Quote(string(val)), nil
	case ColumnTypePairZero:
		for i, b := range val {
			if b == 0 {
				return strconv.Quote(string(val[:i]) + ":" + string(val[i+1:])), nil
			}
		}
		return "", fmt.Errorf("PairZero value missing internal separator")
	case ColumnTypeVarInt:
		n, _ := binary.Varint(val)
		return strconv.FormatInt(n, 10), nil
	case ColumnTypeVarUint:
		n, _ := binary.Uvarint(val)
		return strconv.FormatUint(n, 10), nil
	case ColumnTypeAny:
		inner := ColumnMeta{Type: ColumnType(val[0])}
		tok, err := columnToJSON(inner, val[1:])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`{"type":%q,"value":%s}`, inner.Type, tok), nil
	default:
		// Int128, Uint128, Float128, Decimal128, FixedBinary, Binary, CarBin,
		// Nested: no JSON-native scalar, render as a hex string.
		return strconv.Quote(hex.EncodeToString(val)), nil
	}
}
