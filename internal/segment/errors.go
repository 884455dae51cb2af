package segment

import "errors"

// ErrDuplicateKey is returned by Append/ReplaceRow when a unique index
// already holds a different local ID under the row's key (spec.md §4.6).
var ErrDuplicateKey = errors.New("segment: duplicate key in unique index")

// ErrRemoved is returned by GetValueAppend for a local ID whose row has
// been logically deleted.
var ErrRemoved = errors.New("segment: row removed")

// ErrNotWritable is returned when an operation requiring mutation is
// invoked on a ReadonlySegment.
var ErrNotWritable = errors.New("segment: segment is not writable")

// ErrUnknownIndex is returned when an index name does not appear in the
// segment's compiled schema config.
var ErrUnknownIndex = errors.New("segment: unknown index")
