package table

import "github.com/hupe1980/colstore/schema"

// indexNames tolerates a nil *schema.SchemaSet, the same nil-safety
// internal/segment needs for a table declaring zero indexes.
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
