// Package store implements the readable (immutable) and writable
// (mutable) row-data containers of spec.md §4.3 and §4.5. A readable
// store is a packed, mmap-friendly byte pool addressed by local ID; a
// writable store is an append-only, in-memory slot array that also
// supports in-place replace and logical (slot-preserving) remove.
//
// Neither type synchronizes its own access: spec.md §5 gives a table
// exactly one writer at a time, so the composite table's own lock is the
// only synchronization these containers need.
package store
