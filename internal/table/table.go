package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/internal/manifest"
	"github.com/hupe1980/colstore/internal/segment"
	"github.com/hupe1980/colstore/model"
	"github.com/hupe1980/colstore/schema"
)

const metaFileName = "meta.json"

// Table is the composite table spec.md §4.8 describes. One writer at a
// time (mu, held across every structural or writable-segment mutation);
// many concurrent readers, each loading the current Snapshot instead of
// holding the writer out (spec.md §5 "Lock").
type Table struct {
	cfg *schema.Config
	bs  blobstore.BlobStore

	segStore *manifest.Store
	codec    segment.Codec

	mu        sync.RWMutex
	current   atomic.Pointer[Snapshot]
	nextSegID model.SegmentID

	dropped atomic.Bool
}

// Create initializes a brand new table directory: writes meta.json and an
// empty segment list holding a single fresh writable segment.
func Create(ctx context.Context, bs blobstore.BlobStore, cfg *schema.Config) (*Table, error) {
	if err := cfg.Compile(); err != nil {
		return nil, err
	}

	smc := &manifest.SchemaConfig{
		TableClass: cfg.TableClass,
		Tuning: manifest.TuningConfig{
			MaxWritingSegmentSize:  cfg.Tuning.MaxWritingSegmentSize,
			MinMergeSegNum:         cfg.Tuning.MinMergeSegNum,
			PurgeDeleteThreshold:   cfg.Tuning.PurgeDeleteThreshold,
			CompressingWorkMemSize: cfg.Tuning.CompressingWorkMemSize,
		},
	}
	if err := manifest.SaveSchemaConfig(ctx, bs, metaFileName, smc); err != nil {
		return nil, err
	}

	t := &Table{
		cfg:      cfg,
		bs:       bs,
		segStore: manifest.NewStore(bs),
		codec:    segment.ZstdCodec{},
	}

	firstDir := segDir(manifest.SegmentWritable, 0)
	first := &segHandle{id: 1, dir: firstDir, state: segWritable, ws: segment.NewWritable(cfg)}
	if err := first.ws.Save(ctx, bs, firstDir); err != nil {
		return nil, err
	}
	t.nextSegID = 2
	t.current.Store(newSnapshot([]*segHandle{first}, []uint64{0, 0}))

	if err := t.publish(ctx, t.current.Load()); err != nil {
		return nil, err
	}
	return t, nil
}

// Open reopens a table directory previously written by Create, restoring
// its segment list and the schema's tuning knobs (the caller supplies cfg
// itself; meta.json's table class is checked for a gross mismatch, but
// full column/index reconstruction from JSON is out of scope here — see
// DESIGN.md).
func Open(ctx context.Context, bs blobstore.BlobStore, cfg *schema.Config) (*Table, error) {
	if err := cfg.Compile(); err != nil {
		return nil, err
	}

	smc, err := manifest.LoadSchemaConfig(ctx, bs, metaFileName)
	if err != nil {
		return nil, err
	}
	if smc.TableClass != cfg.TableClass {
		return nil, fmt.Errorf("table: meta.json table class %q does not match %q", smc.TableClass, cfg.TableClass)
	}

	segStore := manifest.NewStore(bs)
	sl, err := segStore.Load(ctx)
	if err != nil {
		return nil, err
	}

	segments := make([]*segHandle, len(sl.Segments))
	var maxID model.SegmentID
	for i, entry := range sl.Segments {
		h, err := loadSegment(ctx, bs, cfg, entry)
		if err != nil {
			return nil, fmt.Errorf("load segment %d (%s): %w", entry.ID, entry.Dir, err)
		}
		segments[i] = h
		if entry.ID > maxID {
			maxID = entry.ID
		}
	}

	t := &Table{
		cfg:       cfg,
		bs:        bs,
		segStore:  segStore,
		codec:     segment.ZstdCodec{},
		nextSegID: maxID + 1,
	}
	t.current.Store(newSnapshot(segments, sl.RowNumVec))
	return t, nil
}

func loadSegment(ctx context.Context, bs blobstore.BlobStore, cfg *schema.Config, entry manifest.SegmentEntry) (*segHandle, error) {
	switch entry.Kind {
	case manifest.SegmentWritable:
		ws, err := segment.LoadWritableSegment(ctx, bs, entry.Dir, cfg)
		if err != nil {
			return nil, err
		}
		return &segHandle{id: entry.ID, dir: entry.Dir, state: segWritable, ws: ws}, nil
	case manifest.SegmentReadonly:
		rs, err := segment.LoadReadonlySegment(ctx, bs, entry.Dir, cfg)
		if err != nil {
			return nil, err
		}
		return &segHandle{id: entry.ID, dir: entry.Dir, state: segReadonly, rs: rs}, nil
	default:
		return nil, fmt.Errorf("table: unknown segment kind %d", entry.Kind)
	}
}

func segDir(kind manifest.SegmentKind, idx int) string {
	if kind == manifest.SegmentWritable {
		return fmt.Sprintf("wr-%d", idx)
	}
	return fmt.Sprintf("rd-%d", idx)
}

// publish writes the segment list implied by snap (spec.md §6's
// SegList/CURRENT protocol), so a reopen after a crash mid-write sees the
// last structurally-consistent state.
func (t *Table) publish(ctx context.Context, snap *Snapshot) error {
	sl := manifest.New()
	sl.NextSegmentID = t.nextSegID
	sl.RowNumVec = snap.rowNumVec
	sl.Segments = make([]manifest.SegmentEntry, len(snap.segments))
	for i, h := range snap.segments {
		sl.Segments[i] = manifest.SegmentEntry{
			ID:       h.id,
			Kind:     h.kind(),
			Dir:      h.dir,
			RowCount: uint32(h.numRows()),
		}
	}
	return t.segStore.Save(ctx, sl)
}

// InsertRow implements spec.md §4.8's insertRow: opens a fresh writable
// segment if the active one has outgrown maxWritingSegmentSize, rejects a
// duplicate unique-index key against every other segment, then appends
// the row and its index entries to the active writable segment.
func (t *Table) InsertRow(ctx context.Context, row []byte) (model.GlobalID, error) {
	if t.dropped.Load() {
		return 0, ErrDropInProgress
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.current.Load()

	if t.shouldRotate(snap) {
		newSnap, err := t.freezeAndOpenNew(ctx, snap)
		if err != nil {
			return 0, err
		}
		snap = newSnap
	}

	cols, err := t.cfg.Row.ParseRow(row)
	if err != nil {
		return 0, err
	}
	if dup, err := t.checkDuplicates(snap, cols, nil); err != nil {
		return 0, err
	} else if dup != nil {
		return 0, dup
	}

	ws := snap.writableSegment()
	localID, err := ws.ws.Append(row)
	if err != nil {
		return 0, err
	}

	newSnap := snap.withGrownWritable()
	t.current.Store(newSnap)

	gid := model.GlobalID(newSnap.rowNumVec[len(newSnap.rowNumVec)-2] + uint64(localID))
	return gid, nil
}

func (t *Table) shouldRotate(snap *Snapshot) bool {
	max := t.cfg.Tuning.MaxWritingSegmentSize
	if max <= 0 {
		return false
	}
	return snap.writableSegment().dataStorageSize() >= max
}

// freezeAndOpenNew is maybeCreateNewSegment: freeze the active writable
// segment into a readonly one, persist it, and open a fresh writable
// segment in its place.
func (t *Table) freezeAndOpenNew(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	old := snap.writableSegment()

	rs, err := segment.Freeze(old.ws)
	if err != nil {
		return nil, err
	}

	idx := len(snap.segments) - 1
	frozenDir := segDir(manifest.SegmentReadonly, idx)
	if err := rs.Save(ctx, t.bs, frozenDir, t.codec); err != nil {
		return nil, err
	}
	frozen := &segHandle{id: old.id, dir: frozenDir, state: segReadonly, rs: rs}

	freshID := t.nextSegID
	t.nextSegID++
	freshDir := segDir(manifest.SegmentWritable, idx+1)
	fresh := &segHandle{id: freshID, dir: freshDir, state: segWritable, ws: segment.NewWritable(t.cfg)}
	if err := fresh.ws.Save(ctx, t.bs, freshDir); err != nil {
		return nil, err
	}

	newSnap := snap.withNewWritable(frozen, fresh)
	if err := t.publish(ctx, newSnap); err != nil {
		return nil, err
	}
	t.current.Store(newSnap)
	return newSnap, nil
}

// FlushActiveSegment forces the maybeCreateNewSegment transition
// regardless of size, spec.md §6's "flush" surface operation.
func (t *Table) FlushActiveSegment(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.current.Load()
	if snap.writableSegment().numRows() == 0 {
		return nil
	}
	_, err := t.freezeAndOpenNew(ctx, snap)
	return err
}

// checkDuplicates is insertCheckSegDup: for every unique index, probe
// every segment for the row's projected key. excludeGID, when non-nil, is
// the row's own current identity (UpdateRow's own prior entry must not
// count as a conflict with itself).
func (t *Table) checkDuplicates(snap *Snapshot, cols schema.ColumnVec, excludeGID *model.GlobalID) (*DuplicateKeyError, error) {
	names := indexNames(t.cfg.Indexes)
	for _, pos := range t.cfg.UniqueIndexIDs {
		if pos < 0 || pos >= len(names) {
			continue
		}
		name := names[pos]
		idxSchema := schemaByName(t.cfg.Indexes, name)
		key, err := idxSchema.SelectParentRow(cols)
		if err != nil {
			return nil, err
		}
		for segIdx, h := range snap.segments {
			ids, err := h.seekExact(name, key)
			if err != nil {
				return nil, err
			}
			for _, localID := range ids {
				gid := model.GlobalID(snap.rowNumVec[segIdx] + uint64(localID))
				if excludeGID != nil && gid == *excludeGID {
					continue
				}
				return &DuplicateKeyError{IndexName: name, Key: key, ExistingID: gid}, nil
			}
		}
	}
	return nil, nil
}

// GetValueAppend implements getValueAppend: locate gid, dispatch to its
// segment, append the row's write-schema bytes to buf.
func (t *Table) GetValueAppend(gid model.GlobalID, buf []byte) ([]byte, error) {
	snap := t.current.Load()
	segIdx, localID, ok := snap.locate(gid)
	if !ok {
		return nil, ErrNotFound
	}
	out, err := snap.segments[segIdx].getValueAppend(localID, buf)
	if err != nil {
		if errors.Is(err, segment.ErrRemoved) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// Exists reports whether gid currently resolves to a live row.
func (t *Table) Exists(gid model.GlobalID) bool {
	_, err := t.GetValueAppend(gid, nil)
	return err == nil
}

// IndexSearchExact implements indexSearchExact: probe every segment's
// named index for key, in segment order, skipping removed rows.
func (t *Table) IndexSearchExact(indexName string, key []byte) ([]model.GlobalID, error) {
	snap := t.current.Load()
	var out []model.GlobalID
	for segIdx, h := range snap.segments {
		ids, err := h.seekExact(indexName, key)
		if err != nil {
			return nil, err
		}
		for _, localID := range ids {
			out = append(out, model.GlobalID(snap.rowNumVec[segIdx]+uint64(localID)))
		}
	}
	return out, nil
}

// IndexKeyExists reports whether any live row is registered under key in
// the named index.
func (t *Table) IndexKeyExists(indexName string, key []byte) (bool, error) {
	ids, err := t.IndexSearchExact(indexName, key)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// UpdateRow implements spec.md §4.8's updateRow. A new unique-index key
// already held by another row is rejected with a DuplicateKeyError.
// Otherwise the row is replaced in place when it still lives in the active
// writable segment (whether or not its keys changed), and logically
// deleted and re-inserted into the writable segment when it lives in a
// readonly one (Open Question decision 1 in DESIGN.md).
func (t *Table) UpdateRow(ctx context.Context, gid model.GlobalID, row []byte) (model.GlobalID, error) {
	if t.dropped.Load() {
		return 0, ErrDropInProgress
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.current.Load()
	segIdx, localID, ok := snap.locate(gid)
	if !ok {
		return 0, ErrNotFound
	}
	h := snap.segments[segIdx]
	if _, err := h.getValueAppend(localID, nil); err != nil {
		if errors.Is(err, segment.ErrRemoved) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	cols, err := t.cfg.Row.ParseRow(row)
	if err != nil {
		return 0, err
	}

	if dup, err := t.checkDuplicates(snap, cols, &gid); err != nil {
		return 0, err
	} else if dup != nil {
		return 0, dup
	}

	if segIdx == len(snap.segments)-1 {
		if err := h.ws.ReplaceRow(localID, row); err != nil {
			return 0, err
		}
		return gid, nil
	}

	if err := h.removeRow(localID); err != nil {
		return 0, err
	}

	ws := snap.writableSegment()
	newLocalID, err := ws.ws.Append(row)
	if err != nil {
		return 0, err
	}
	newSnap := snap.withGrownWritable()
	t.current.Store(newSnap)
	return model.GlobalID(newSnap.rowNumVec[len(newSnap.rowNumVec)-2] + uint64(newLocalID)), nil
}

// RemoveRow implements removeRow: locate gid and mark it removed in its
// owning segment. Returns false if gid was already gone.
func (t *Table) RemoveRow(gid model.GlobalID) (bool, error) {
	if t.dropped.Load() {
		return false, ErrDropInProgress
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.current.Load()
	segIdx, localID, ok := snap.locate(gid)
	if !ok {
		return false, nil
	}
	h := snap.segments[segIdx]
	if _, err := h.getValueAppend(localID, nil); err != nil {
		if errors.Is(err, segment.ErrRemoved) {
			return false, nil
		}
		return false, err
	}
	if err := h.removeRow(localID); err != nil {
		return false, err
	}
	return true, nil
}

// SegmentCount returns the number of segments currently in the table
// (readonly + the one writable segment), used by tests and by the
// compress/merge worker's minMergeSegNum trigger.
func (t *Table) SegmentCount() int {
	return len(t.current.Load().segments)
}

// RowCount returns the table's total row count, including removed rows
// not yet purged.
func (t *Table) RowCount() uint64 {
	return t.current.Load().totalRows()
}

// ForEachRow walks every live row across all segments in segment order
// (spec.md §6 "createStoreIterForward"), stopping early if fn returns
// false.
func (t *Table) ForEachRow(fn func(gid model.GlobalID, row []byte) bool) error {
	snap := t.current.Load()
	for segIdx, h := range snap.segments {
		n := h.numRows()
		for local := 0; local < n; local++ {
			row, err := h.getValueAppend(model.LocalID(local), nil)
			if err != nil {
				if errors.Is(err, segment.ErrRemoved) {
					continue
				}
				return err
			}
			gid := model.GlobalID(snap.rowNumVec[segIdx] + uint64(local))
			if !fn(gid, row) {
				return nil
			}
		}
	}
	return nil
}

// Tuning returns the table's tuning knobs, used by internal/bgtask's
// background workers to decide when to flush, merge, or purge without
// depending on internal/table's own unexported Config field.
func (t *Table) Tuning() schema.TuningConfig {
	return t.cfg.Tuning
}

// ReadonlySegmentCount returns the number of readonly segments, excluding
// the trailing active writable one, for the compress/merge worker's
// minMergeSegNum trigger.
func (t *Table) ReadonlySegmentCount() int {
	n := t.SegmentCount()
	if n == 0 {
		return 0
	}
	return n - 1
}

// SegmentRemovedFraction reports the fraction of removed rows in readonly
// segment idx (0-indexed among readonly segments only), for the purge
// worker's purgeDeleteThreshold check (spec.md §4.8).
func (t *Table) SegmentRemovedFraction(idx int) (float64, bool) {
	snap := t.current.Load()
	if idx < 0 || idx >= len(snap.segments)-1 {
		return 0, false
	}
	return snap.segments[idx].removedFraction(), true
}

// SelectColumnGroup returns gid's projection onto the named column group,
// reading only that group's readable store rather than the full row
// (spec.md §6 "selectColumns"/"selectOneColumn"). Only available for rows
// already frozen into a readonly segment; see ErrColGroupsWritableOnly.
func (t *Table) SelectColumnGroup(name string, gid model.GlobalID, buf []byte) ([]byte, error) {
	snap := t.current.Load()
	segIdx, localID, ok := snap.locate(gid)
	if !ok {
		return nil, ErrNotFound
	}
	out, err := snap.segments[segIdx].selectColumnGroup(name, localID, buf)
	if err != nil {
		if errors.Is(err, segment.ErrRemoved) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// DropTable marks the table dropped (InsertRow, UpdateRow, RemoveRow and
// MergeReadonlySegments then return ErrDropInProgress; reads are not
// checked) and deletes every blob under its directory. Callers must not use t
// after DropTable returns, successfully or not.
func (t *Table) DropTable(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dropped.Store(true)

	names, err := t.bs.List(ctx, "")
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := t.bs.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
