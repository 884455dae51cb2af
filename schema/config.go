package schema

import "fmt"

// ColGroupMapping is the parallel vector spec.md §3 describes: for each
// row column, which column group (if any) materializes it, and that
// group's own sub-column index.
type ColGroupMapping struct {
	ColGroupID   int // -1 if the column is not materialized in any column group
	SubColumnID  int
}

// TuningConfig mirrors the tuning knobs spec.md §6 requires in meta.json:
// max writable-segment size, min segments to trigger merge, purge-delete
// threshold, and compressing work-memory size.
type TuningConfig struct {
	MaxWritingSegmentSize  int64
	MinMergeSegNum         int
	PurgeDeleteThreshold   float64
	CompressingWorkMemSize int64
}

// Config is the compiled schema root (spec.md §3 "Schema config"): the
// row schema, its write-time projection, the index and column-group
// schema sets, derived unique/multi-valued index id lists, the
// in-place-updatable column-group list, the row-column→column-group
// mapping, and tuning knobs.
type Config struct {
	TableClass string

	Row      *Schema
	Write    *Schema // subset of Row actually materialized in writable segments
	Indexes  *SchemaSet
	ColGroups *SchemaSet

	UniqueIndexIDs      []int
	MultiValuedIndexIDs []int
	// InPlaceUpdatableColGroups lists column-group indexes (into
	// ColGroups.Names()) that updateRow may rewrite in place rather than
	// requiring logical-delete-plus-insert.
	InPlaceUpdatableColGroups []int

	ColGroupMap []ColGroupMapping // len == Row.NumColumns()

	Tuning TuningConfig
}

// Compile compiles Row, Write (against Row), every index schema (against
// Row), and every column-group schema (against Row), and validates the
// unique/multi-valued index id lists against Indexes.
func (c *Config) Compile() error {
	if c.Row == nil {
		return fmt.Errorf("%w: no row schema", ErrInvalidSchema)
	}
	if err := c.Row.Compile(nil); err != nil {
		return err
	}
	if c.Write != nil {
		if err := c.Write.Compile(c.Row); err != nil {
			return err
		}
	}
	if c.Indexes != nil {
		for _, name := range c.Indexes.Names() {
			idx := c.Indexes.Get(name)
			if err := idx.Compile(c.Row); err != nil {
				return err
			}
			if err := c.Indexes.Add(idx); err != nil {
				return err
			}
		}
	}
	if c.ColGroups != nil {
		for _, name := range c.ColGroups.Names() {
			cg := c.ColGroups.Get(name)
			if err := cg.Compile(c.Row); err != nil {
				return err
			}
		}
	}
	for _, id := range c.UniqueIndexIDs {
		if id < 0 || (c.Indexes != nil && id >= c.Indexes.Len()) {
			return fmt.Errorf("%w: unique index id %d out of range", ErrInvalidSchema, id)
		}
	}
	for _, id := range c.MultiValuedIndexIDs {
		if id < 0 || (c.Indexes != nil && id >= c.Indexes.Len()) {
			return fmt.Errorf("%w: multi-valued index id %d out of range", ErrInvalidSchema, id)
		}
	}
	if c.ColGroupMap != nil && len(c.ColGroupMap) != c.Row.NumColumns() {
		return fmt.Errorf("%w: column-group map length %d != row column count %d",
			ErrInvalidSchema, len(c.ColGroupMap), c.Row.NumColumns())
	}
	return nil
}
