package colstore

import (
	"context"
	"time"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/internal/bgtask"
	"github.com/hupe1980/colstore/internal/registry"
	"github.com/hupe1980/colstore/internal/resource"
	"github.com/hupe1980/colstore/internal/table"
	"github.com/hupe1980/colstore/model"
	"github.com/hupe1980/colstore/schema"
)

func init() {
	registry.RegisterAll()
}

// Table is the public handle spec.md §6 describes: one logical table,
// opened from a blobstore.BlobStore directory, exposing insertRow,
// updateRow, removeRow, getValue, exists, indexSearchExact,
// indexKeyExists, createIndexIterForward/Backward,
// createStoreIterForward/Backward, selectColumns, flush,
// syncFinishWriting, asyncPurgeDelete, and dropTable.
type Table struct {
	inner *table.Table

	logger  *Logger
	metrics MetricsCollector

	ctrl *resource.Controller
	bg   *bgtask.Manager
}

// Create initializes a brand new table directory under bs, dispatching
// to the ClassFactory registered under cfg.TableClass (registry.RegisterAll
// registers PrimaryTableClass automatically; additional classes register
// themselves via registry.Register before Create/Open is called).
func Create(ctx context.Context, bs blobstore.BlobStore, cfg *schema.Config, optFns ...Option) (*Table, error) {
	return open(ctx, bs, cfg, optFns, false)
}

// Open reopens a table directory previously written by Create.
func Open(ctx context.Context, bs blobstore.BlobStore, cfg *schema.Config, optFns ...Option) (*Table, error) {
	return open(ctx, bs, cfg, optFns, true)
}

func open(ctx context.Context, bs blobstore.BlobStore, cfg *schema.Config, optFns []Option, reopen bool) (*Table, error) {
	o := applyOptions(optFns)

	class := cfg.TableClass
	if class == "" {
		class = registry.PrimaryTableClass
	}
	factory, err := registry.Lookup(class)
	if err != nil {
		return nil, translateError(err)
	}

	var inner *table.Table
	if reopen {
		inner, err = factory.Open(ctx, bs, cfg)
	} else {
		inner, err = factory.Create(ctx, bs, cfg)
	}
	if err != nil {
		return nil, translateError(err)
	}

	t := &Table{
		inner:   inner,
		logger:  o.logger,
		metrics: o.metricsCollector,
		ctrl:    resource.NewController(o.resourceConfig),
	}
	if o.autoBackground {
		t.bg = bgtask.NewManager(t.ctrl, o.bgtaskConfig)
	}
	return t, nil
}

// InsertRow appends row (encoded against the table's row schema) to the
// active writable segment, rejecting a duplicate unique-index key
// against every segment. On success it returns the row's new GlobalID
// and, if background tasks are enabled, hints the compress queue that
// this table may have new work.
func (t *Table) InsertRow(ctx context.Context, row []byte) (model.GlobalID, error) {
	start := time.Now()
	gid, err := t.inner.InsertRow(ctx, row)
	t.metrics.RecordInsert(time.Since(start), err)
	t.logger.LogInsert(ctx, uint64(gid), err)
	if err != nil {
		return 0, translateError(err)
	}
	t.hintCompress()
	return gid, nil
}

// UpdateRow replaces gid's row with row, in place when possible and via
// logical delete-plus-insert otherwise (spec.md §4.8, DESIGN.md's Open
// Question decision). Returns the row's possibly-new GlobalID.
func (t *Table) UpdateRow(ctx context.Context, gid model.GlobalID, row []byte) (model.GlobalID, error) {
	start := time.Now()
	newGID, err := t.inner.UpdateRow(ctx, gid, row)
	t.metrics.RecordUpdate(time.Since(start), err)
	t.logger.LogUpdate(ctx, uint64(gid), err)
	if err != nil {
		return 0, translateError(err)
	}
	return newGID, nil
}

// RemoveRow logically deletes gid, returning false if it was already
// gone.
func (t *Table) RemoveRow(gid model.GlobalID) (bool, error) {
	start := time.Now()
	removed, err := t.inner.RemoveRow(gid)
	t.metrics.RecordRemove(time.Since(start), err)
	t.logger.LogRemove(context.Background(), uint64(gid), removed, err)
	if err != nil {
		return false, translateError(err)
	}
	t.hintCompress()
	return removed, nil
}

// GetValue returns gid's write-schema row bytes appended to buf.
func (t *Table) GetValue(gid model.GlobalID, buf []byte) ([]byte, error) {
	out, err := t.inner.GetValueAppend(gid, buf)
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// Exists reports whether gid currently resolves to a live row.
func (t *Table) Exists(gid model.GlobalID) bool {
	return t.inner.Exists(gid)
}

// IndexSearchExact probes indexName across every segment for key,
// returning matching GlobalIDs in segment order.
func (t *Table) IndexSearchExact(indexName string, key []byte) ([]model.GlobalID, error) {
	ids, err := t.inner.IndexSearchExact(indexName, key)
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// IndexKeyExists reports whether any live row is registered under key in
// indexName.
func (t *Table) IndexKeyExists(indexName string, key []byte) (bool, error) {
	ok, err := t.inner.IndexKeyExists(indexName, key)
	if err != nil {
		return false, translateError(err)
	}
	return ok, nil
}

// CreateIndexIterForward returns a cursor walking indexName's live
// entries in ascending key order, segment by segment.
func (t *Table) CreateIndexIterForward(indexName string) *table.IndexCursor {
	return t.inner.IndexIterForward(indexName)
}

// CreateIndexIterBackward returns a cursor walking indexName's live
// entries in descending key order, segment by segment.
func (t *Table) CreateIndexIterBackward(indexName string) *table.IndexCursor {
	return t.inner.IndexIterBackward(indexName)
}

// CreateStoreIterForward returns a cursor walking every live row in
// ascending GlobalID order.
func (t *Table) CreateStoreIterForward() *table.StoreCursor {
	return t.inner.StoreIterForward()
}

// CreateStoreIterBackward returns a cursor walking every live row in
// descending GlobalID order.
func (t *Table) CreateStoreIterBackward() *table.StoreCursor {
	return t.inner.StoreIterBackward()
}

// SelectColumnGroup returns gid's projection onto the named column
// group, without decoding the whole row (spec.md §6 "selectColumns").
// Only available once gid's row has been frozen into a readonly segment;
// see ErrColumnGroupUnavailable.
func (t *Table) SelectColumnGroup(name string, gid model.GlobalID, buf []byte) ([]byte, error) {
	out, err := t.inner.SelectColumnGroup(name, gid, buf)
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// Flush is spec.md §6's flush operation: force the active writable
// segment to freeze into a readonly segment regardless of size.
func (t *Table) Flush(ctx context.Context) error {
	start := time.Now()
	err := t.inner.FlushActiveSegment(ctx)
	t.metrics.RecordFlush(time.Since(start), err)
	t.logger.LogFlush(ctx, err)
	return translateError(err)
}

// SyncFinishWriting blocks until any background flush/compress work this
// table has queued has drained, then performs one final synchronous
// flush — spec.md §6's syncFinishWriting, used before a clean shutdown
// or a consistent snapshot read.
func (t *Table) SyncFinishWriting(ctx context.Context) error {
	if t.bg != nil {
		t.bg.SafeStopAndWaitForFlush()
		t.bg.SafeStopAndWaitForCompress()
		t.bg = nil
	}
	return t.Flush(ctx)
}

// AsyncPurgeDelete enqueues tbl for a compress/merge pass, which folds
// in a purge-delete check per readonly segment (spec.md §6
// asyncPurgeDelete) when background tasks are enabled via
// WithBackgroundTasks. Otherwise it synchronously merges all readonly
// segments into one when there are at least two, which drops their
// removed rows; a single readonly segment is left as it is.
func (t *Table) AsyncPurgeDelete(ctx context.Context) {
	if t.bg != nil {
		t.bg.EnqueueCompress(t.inner)
		return
	}
	n := t.inner.ReadonlySegmentCount()
	if n >= 2 {
		_ = t.inner.MergeReadonlySegments(ctx, 0, n)
	}
}

// MergeReadonlySegments merges the readonly segments in [from, to) into
// one, synchronously.
func (t *Table) MergeReadonlySegments(ctx context.Context, from, to int) error {
	start := time.Now()
	err := t.inner.MergeReadonlySegments(ctx, from, to)
	t.metrics.RecordMerge(to-from, time.Since(start), err)
	t.logger.LogMerge(ctx, from, to, err)
	return translateError(err)
}

// DropTable is spec.md §6's dropTable: drains background tasks, then
// deletes every blob under the table's directory. The Table must not be
// used after DropTable returns, successfully or not.
func (t *Table) DropTable(ctx context.Context) error {
	if t.bg != nil {
		t.bg.SafeStopAndWaitForFlush()
		t.bg.SafeStopAndWaitForCompress()
		t.bg = nil
	}
	err := t.inner.DropTable(ctx)
	t.logger.LogDrop(ctx, err)
	return translateError(err)
}

// SegmentCount, RowCount, and Tuning expose schema accessors and
// operational introspection (spec.md §6 "schema accessors").
func (t *Table) SegmentCount() int             { return t.inner.SegmentCount() }
func (t *Table) RowCount() uint64              { return t.inner.RowCount() }
func (t *Table) Tuning() schema.TuningConfig   { return t.inner.Tuning() }

func (t *Table) hintCompress() {
	if t.bg == nil {
		return
	}
	tuning := t.inner.Tuning()
	minMergeSegNum := tuning.MinMergeSegNum
	if minMergeSegNum <= 0 {
		minMergeSegNum = 2
	}
	if t.inner.ReadonlySegmentCount() >= minMergeSegNum || tuning.PurgeDeleteThreshold > 0 {
		t.bg.EnqueueCompress(t.inner)
	}
}
