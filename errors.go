package colstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/colstore/internal/registry"
	"github.com/hupe1980/colstore/internal/table"
)

// ErrNotFound is returned by GetValue/Exists-style operations for a
// GlobalID that does not resolve to a live row (spec.md §7).
var ErrNotFound = errors.New("colstore: not found")

// ErrDropInProgress is returned by any operation racing with Close/Drop.
var ErrDropInProgress = errors.New("colstore: drop in progress")

// ErrDuplicateKey is the sentinel a DuplicateKeyError wraps.
var ErrDuplicateKey = errors.New("colstore: duplicate key")

// ErrUnknownTableClass is returned by Open/Create when meta.json (or the
// caller-supplied schema config) names a table class no ClassFactory is
// registered for.
var ErrUnknownTableClass = errors.New("colstore: unknown table class")

// ErrColumnGroupUnavailable is returned by SelectColumnGroup for a row
// still living in the active writable segment, whose column-group
// projections only materialize at freeze time.
var ErrColumnGroupUnavailable = errors.New("colstore: column group not available for an unfrozen row")

// DuplicateKeyError carries the offending index name, key, and the row
// that already holds it (spec.md §7's duplicate-key rejection).
type DuplicateKeyError struct {
	IndexName  string
	Key        []byte
	ExistingID uint64
	cause      error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("colstore: duplicate key in index %q (existing gid %d)", e.IndexName, e.ExistingID)
}

func (e *DuplicateKeyError) Unwrap() error { return e.cause }

// translateError maps internal/table and internal/registry errors onto
// this package's public taxonomy at the API boundary, the way the
// teacher's errors.go unifies engine/index errors into public ones.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, table.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, table.ErrDropInProgress) {
		return fmt.Errorf("%w: %w", ErrDropInProgress, err)
	}
	if errors.Is(err, table.ErrColGroupsWritableOnly) {
		return fmt.Errorf("%w: %w", ErrColumnGroupUnavailable, err)
	}

	var dk *table.DuplicateKeyError
	if errors.As(err, &dk) {
		return &DuplicateKeyError{IndexName: dk.IndexName, Key: dk.Key, ExistingID: uint64(dk.ExistingID), cause: err}
	}

	if errors.Is(err, registry.ErrUnknownClass) {
		return fmt.Errorf("%w: %w", ErrUnknownTableClass, err)
	}

	return err
}
