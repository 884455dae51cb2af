// Package segment implements spec.md §4.7's segment: a directory bundling
// one store, one index per declared index, one store per declared column
// group, a removed-rows bitset, and a meta.json, in either of two variants.
//
// A WritableSegment owns a store.WritableStore and one index.WritableIndex
// per index; appends parse against the row schema, project into the write
// schema for storage, and insert the full parsed row's projected key into
// every index. A ReadonlySegment owns a store.ReadableStore and one
// index.ReadableIndex per index (plus one store.ReadableStore per column
// group); it is built from a WritableSegment by Freeze, which compacts away
// removed rows, renumbers local IDs, packs each index's keys into an
// internal/svec vector and sorts a permutation over them with
// sort.SliceStable (spec.md §4.7's writable→readonly transition).
package segment
