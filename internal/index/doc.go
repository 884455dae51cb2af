// Package index implements the readable (immutable, ordered) and
// writable (mutable, sorted multimap) index containers of spec.md §4.4
// and §4.6, including the shared iterator state machine spec.md §4.4
// specifies.
package index
