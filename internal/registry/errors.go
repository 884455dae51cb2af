package registry

import "errors"

// ErrUnknownClass is returned by Lookup for a table_class name no
// Register call has claimed.
var ErrUnknownClass = errors.New("registry: unknown table class")
