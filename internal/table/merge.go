package table

import (
	"context"
	"fmt"

	"github.com/hupe1980/colstore/internal/manifest"
	"github.com/hupe1980/colstore/internal/segment"
)

// MergeReadonlySegments implements spec.md §4.8's Merge: a consecutive run
// of readonly segments segments[from:to] is rebuilt into a single new
// readonly segment, replacing the run in the published Snapshot. Like
// Freeze, the merged segment renumbers local IDs densely over the
// surviving (non-removed) rows in original cross-segment order, so gids
// below the run are unchanged while gids within and above it are
// recomputed from the new rowNumVec.
//
// The segments the merge subsumes are deleted synchronously right here,
// after the new Snapshot is published; there is no reference counting,
// so a reader still holding an older Snapshot that references them is
// not waited for (see DESIGN.md). internal/bgtask's purge pass calls this
// function too, so the same holds for purges.
func (t *Table) MergeReadonlySegments(ctx context.Context, from, to int) error {
	if t.dropped.Load() {
		return ErrDropInProgress
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.current.Load()
	if from < 0 || to <= from || to > len(snap.segments)-1 {
		return fmt.Errorf("table: invalid merge range [%d,%d)", from, to)
	}
	for i := from; i < to; i++ {
		if snap.segments[i].state != segReadonly {
			return fmt.Errorf("table: segment %d is not readonly, cannot merge", i)
		}
	}

	rsegs := make([]*segment.ReadonlySegment, to-from)
	for i := from; i < to; i++ {
		rsegs[i-from] = snap.segments[i].rs
	}
	merged, err := segment.MergeReadonly(rsegs)
	if err != nil {
		return err
	}

	// The merged segment gets a directory of its own, distinct from every
	// directory in the run, so deleting the run below leaves it intact.
	mergedID := t.nextSegID
	t.nextSegID++
	mergedDir := fmt.Sprintf("%s-m%d", segDir(manifest.SegmentReadonly, from), mergedID)
	if err := merged.Save(ctx, t.bs, mergedDir, t.codec); err != nil {
		return err
	}

	mergedHandle := &segHandle{id: mergedID, dir: mergedDir, state: segReadonly, rs: merged}

	newSnap := snap.withMerged(from, to, mergedHandle)
	if err := t.publish(ctx, newSnap); err != nil {
		return err
	}
	t.current.Store(newSnap)

	for i := from; i < to; i++ {
		t.deleteSegmentDir(ctx, snap.segments[i].dir)
	}
	return nil
}

// deleteSegmentDir removes every blob under dir. Errors are swallowed: a
// leftover blob from a segment no live Snapshot references anymore is
// orphaned disk space, not data loss. Nothing retries the deletion.
func (t *Table) deleteSegmentDir(ctx context.Context, dir string) {
	names, err := t.bs.List(ctx, dir+"/")
	if err != nil {
		return
	}
	for _, name := range names {
		_ = t.bs.Delete(ctx, name)
	}
}
