package store

import "errors"

var (
	// ErrOutOfRange is returned for a local ID at or past a store's row
	// count.
	ErrOutOfRange = errors.New("store: local id out of range")

	// ErrRemoved is returned by Get for a local ID whose slot was cleared
	// by Remove.
	ErrRemoved = errors.New("store: local id was removed")

	// ErrNotIterable is returned by CreateStoreIter for a readable store
	// built over a pure column store, which is addressed only through an
	// index's local IDs (spec.md §4.3: "returns fail for pure column
	// stores that must be accessed by index").
	ErrNotIterable = errors.New("store: store does not support sequential iteration")

	// ErrTruncated is returned when a packed or dump buffer is shorter
	// than its own header declares.
	ErrTruncated = errors.New("store: truncated buffer")

	// ErrBadMagic is returned when a writable-store dump's magic number
	// does not match.
	ErrBadMagic = errors.New("store: bad magic number")

	// ErrUnsupportedVersion is returned when a writable-store dump's
	// version tag is newer than this package understands.
	ErrUnsupportedVersion = errors.New("store: unsupported dump version")
)
