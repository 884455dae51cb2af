package segment

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colstore/schema"
)

// testConfig builds a small compiled config: a row schema of (id uint64,
// name str-utf8, email str-utf8), a write schema keeping every column, a
// unique index on id, and a non-unique index on name. Column groups are
// left nil, exercising the same nil-tolerant path a zero-column-group
// table takes.
func testConfig(t *testing.T) *schema.Config {
	t.Helper()

	row := schema.NewSchema("row", []schema.ColumnMeta{
		{Name: "id", Type: schema.ColumnTypeUint64},
		{Name: "name", Type: schema.ColumnTypeStrUTF8},
		{Name: "email", Type: schema.ColumnTypeStrUTF8},
	})
	write := schema.NewSchema("write", []schema.ColumnMeta{
		{Name: "id", Type: schema.ColumnTypeUint64},
		{Name: "name", Type: schema.ColumnTypeStrUTF8},
		{Name: "email", Type: schema.ColumnTypeStrUTF8},
	})

	byID := schema.NewSchema("by_id", []schema.ColumnMeta{
		{Name: "id", Type: schema.ColumnTypeUint64},
	})
	byID.SetUnique(true)

	byName := schema.NewSchema("by_name", []schema.ColumnMeta{
		{Name: "name", Type: schema.ColumnTypeStrUTF8},
	})

	indexes := schema.NewSchemaSet(row)
	require.NoError(t, indexes.Add(byID))
	require.NoError(t, indexes.Add(byName))

	cfg := &schema.Config{
		TableClass:     "primary",
		Row:            row,
		Write:          write,
		Indexes:        indexes,
		UniqueIndexIDs: []int{0},
	}
	require.NoError(t, cfg.Compile())
	return cfg
}

// testConfigNoIndexes builds a minimal compiled config with no declared
// indexes and no column groups, exercising the nil-Indexes/nil-ColGroups
// path (spec.md §3 permits a table with zero of either).
func testConfigNoIndexes(t *testing.T) *schema.Config {
	t.Helper()

	row := schema.NewSchema("row", []schema.ColumnMeta{
		{Name: "id", Type: schema.ColumnTypeUint64},
		{Name: "note", Type: schema.ColumnTypeStrUTF8},
	})
	write := schema.NewSchema("write", []schema.ColumnMeta{
		{Name: "id", Type: schema.ColumnTypeUint64},
		{Name: "note", Type: schema.ColumnTypeStrUTF8},
	})
	cfg := &schema.Config{
		TableClass: "primary",
		Row:        row,
		Write:      write,
	}
	require.NoError(t, cfg.Compile())
	return cfg
}

func rowBytes(t *testing.T, cfg *schema.Config, id uint64, name, email string) []byte {
	t.Helper()
	row, err := cfg.Row.CombineRow([][]byte{
		binary.LittleEndian.AppendUint64(nil, id),
		[]byte(name),
		[]byte(email),
	})
	require.NoError(t, err)
	return row
}

func idKey(id uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, id)
}
