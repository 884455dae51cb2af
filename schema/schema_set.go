package schema

import "github.com/bits-and-blooms/bitset"

// SchemaSet is an insertion-ordered, name-indexed collection of schemas
// (spec.md §3 "Schema set"): used to group all index schemas of a table,
// or all column-group schemas of a table.
type SchemaSet struct {
	names   []string
	byName  map[string]*Schema
	uniqueU *bitset.BitSet // union of unique-index column ids, against the parent row schema
	parent  *Schema
}

// NewSchemaSet returns an empty set scoped to parent's columns.
func NewSchemaSet(parent *Schema) *SchemaSet {
	return &SchemaSet{
		byName:  make(map[string]*Schema),
		uniqueU: bitset.New(uint(max(parent.NumColumns(), 1))),
		parent:  parent,
	}
}

// Add registers s under its Name. If s is a unique-index schema, every
// parent column it projects from is folded into the union-of-unique-index
// -columns bitset. Add is safe to call again for an already-registered
// name — e.g. after the schema is compiled, to fold in a projection that
// did not exist at registration time — without duplicating the entry.
func (ss *SchemaSet) Add(s *Schema) error {
	if _, exists := ss.byName[s.Name]; !exists {
		ss.names = append(ss.names, s.Name)
	}
	ss.byName[s.Name] = s

	if s.Unique() && s.proj != nil {
		for _, parentCol := range s.proj {
			if parentCol >= 0 {
				ss.uniqueU.Set(uint(parentCol))
			}
		}
	}
	return nil
}

// Get returns the schema registered under name, or nil.
func (ss *SchemaSet) Get(name string) *Schema {
	return ss.byName[name]
}

// Names returns the registered schema names in insertion order.
func (ss *SchemaSet) Names() []string {
	return ss.names
}

// Len returns the number of registered schemas.
func (ss *SchemaSet) Len() int {
	return len(ss.names)
}

// FlattenedColumnCount returns the sum of NumColumns() across every
// registered schema (spec.md §3: "a flattened column count").
func (ss *SchemaSet) FlattenedColumnCount() int {
	n := 0
	for _, name := range ss.names {
		n += ss.byName[name].NumColumns()
	}
	return n
}

// IsUniqueIndexColumn reports whether parentColumnID participates in at
// least one registered unique index (spec.md §3: "a union-of-unique-
// -index-columns schema").
func (ss *SchemaSet) IsUniqueIndexColumn(parentColumnID int) bool {
	if parentColumnID < 0 {
		return false
	}
	return ss.uniqueU.Test(uint(parentColumnID))
}

// UniqueIndexColumns returns the sorted list of parent column ids that
// participate in at least one unique index.
func (ss *SchemaSet) UniqueIndexColumns() []int {
	var cols []int
	for i, e := ss.uniqueU.NextSet(0); e; i, e = ss.uniqueU.NextSet(i + 1) {
		cols = append(cols, int(i))
	}
	return cols
}
