package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCompileWiresRowWriteAndIndexes(t *testing.T) {
	row := NewSchema("row", []ColumnMeta{
		{Name: "id", Type: ColumnTypeUint64},
		{Name: "email", Type: ColumnTypeStrUTF8},
		{Name: "note", Type: ColumnTypeStrUTF8},
	})

	write := NewSchema("write", []ColumnMeta{
		{Name: "id", Type: ColumnTypeUint64},
		{Name: "email", Type: ColumnTypeStrUTF8},
	})

	idx := NewSchema("by_id", []ColumnMeta{{Name: "id", Type: ColumnTypeUint64}})
	idx.SetUnique(true)

	cfg := &Config{
		TableClass: "primary",
		Row:        row,
		Write:      write,
		Indexes:    NewSchemaSet(row),
		UniqueIndexIDs: []int{0},
		ColGroupMap: []ColGroupMapping{
			{ColGroupID: 0, SubColumnID: 0},
			{ColGroupID: 0, SubColumnID: 1},
			{ColGroupID: -1, SubColumnID: -1},
		},
	}
	require.NoError(t, cfg.Indexes.Add(idx))

	require.NoError(t, cfg.Compile())
	assert.True(t, row.IsCompiled())
	assert.True(t, write.IsCompiled())
	assert.True(t, idx.IsCompiled())
}

func TestConfigCompileRejectsMissingRowSchema(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.Compile(), ErrInvalidSchema)
}

func TestConfigCompileRejectsBadColGroupMapLength(t *testing.T) {
	row := NewSchema("row", []ColumnMeta{{Name: "a", Type: ColumnTypeUint8}})
	cfg := &Config{Row: row, ColGroupMap: []ColGroupMapping{{ColGroupID: 0}, {ColGroupID: 1}}}
	err := cfg.Compile()
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestConfigCompileRejectsOutOfRangeUniqueIndexID(t *testing.T) {
	row := NewSchema("row", []ColumnMeta{{Name: "a", Type: ColumnTypeUint8}})
	cfg := &Config{Row: row, Indexes: NewSchemaSet(row), UniqueIndexIDs: []int{5}}
	err := cfg.Compile()
	assert.ErrorIs(t, err, ErrInvalidSchema)
}
