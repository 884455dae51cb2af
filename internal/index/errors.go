package index

import "errors"

var (
	// ErrDuplicateKey is returned by Insert/Replace on a unique index when
	// a different local ID is already registered under the same key
	// (spec.md §4.6: "Fails with duplicate-key in the unique case").
	ErrDuplicateKey = errors.New("index: duplicate key")

	// ErrTruncated is returned when a readable-index buffer is shorter
	// than its own header declares.
	ErrTruncated = errors.New("index: truncated buffer")

	// ErrBadMagic is returned when a writable-index dump's magic prefix
	// does not match.
	ErrBadMagic = errors.New("index: bad magic")

	// ErrUnsupportedVersion is returned when a writable-index dump's
	// version is newer than this build understands.
	ErrUnsupportedVersion = errors.New("index: unsupported version")
)
