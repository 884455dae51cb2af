// Package table implements the composite table spec.md §4.8 describes: a
// sequence of segments (one writable, any number readonly) addressed
// through a row-number vector that maps a table-wide GlobalID to a
// (segment, local ID) pair. Structural changes — opening a new writable
// segment, freezing, merging — are serialized under the table's lock and
// published as a new immutable Snapshot; single-row reads and index
// probes load the current Snapshot without blocking a concurrent writer
// past the pointer swap.
package table
