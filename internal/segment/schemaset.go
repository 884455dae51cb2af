package segment

import "github.com/hupe1980/colstore/schema"

// indexNames/colGroupSchema tolerate a nil *schema.SchemaSet: spec.md §3
// allows a table to declare zero indexes or zero column groups, and
// Config.Compile leaves Indexes/ColGroups nil in that case rather than
// requiring an empty-but-non-nil set.
func indexNames(ss *schema.SchemaSet) []string {
	if ss == nil {
		return nil
	}
	return ss.Names()
}

func schemaByName(ss *schema.SchemaSet, name string) *schema.Schema {
	if ss == nil {
		return nil
	}
	return ss.Get(name)
}
