package table

import (
	"errors"
	"fmt"

	"github.com/hupe1980/colstore/model"
)

// ErrNotFound is returned by GetValueAppend/Exists for a GlobalID that
// does not resolve to a live row (spec.md §7: "not-found... a normal
// outcome, not an exception path").
var ErrNotFound = errors.New("table: not found")

// ErrDropInProgress is returned by InsertRow, UpdateRow, RemoveRow and
// MergeReadonlySegments once DropTable has marked the table dropped.
var ErrDropInProgress = errors.New("table: drop in progress")

// ErrInvalidGlobalID is returned when a GlobalID falls outside
// rowNumVec's range entirely (as opposed to resolving to a removed row).
var ErrInvalidGlobalID = errors.New("table: invalid global id")

// ErrColGroupsWritableOnly is returned by SelectColumnGroup for a row
// that still lives in the active writable segment: column-group stores
// are only materialized at freeze time (spec.md §4.7), so a row not yet
// frozen has no column-group projection to read.
var ErrColGroupsWritableOnly = errors.New("table: column groups not available for a row in the active writable segment")

// DuplicateKeyError carries the (indexId, key, existingGid) triple
// spec.md §7 requires for a duplicate-key rejection.
type DuplicateKeyError struct {
	IndexName  string
	Key        []byte
	ExistingID model.GlobalID
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("table: duplicate key in index %q (existing gid %d)", e.IndexName, e.ExistingID)
}

// ErrDuplicateKey is the sentinel DuplicateKeyError wraps, so callers can
// errors.Is-match the class without caring about the offending index.
var ErrDuplicateKey = errors.New("table: duplicate key")

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }
