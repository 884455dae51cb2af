package manifest

import "errors"

var (
	// ErrIncompatibleVersion is returned when the segment-list version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible segment list version")

	// ErrNotFound is returned when the CURRENT pointer or segment-list file does not exist.
	ErrNotFound = errors.New("segment list not found")
)
