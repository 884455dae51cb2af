// Package svec implements the sortable string vector (spec.md §4.2): an
// owned (strpool, index) pair used while bulk-building a readable store or
// index during segment freeze or merge. Records are appended in
// arbitrary order, sorted in place by a caller-supplied comparator, then
// consumed into the packed (offsets, pool) form a readable store or index
// serializes directly.
package svec
