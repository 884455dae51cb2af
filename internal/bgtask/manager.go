// Package bgtask implements spec.md §6's background task runners: two
// global, process-wide work queues — flush-and-freeze and compress-and-
// merge — that accept segments from any table. A table's write lock is
// only held for the brief structural publish step each task ends with;
// the expensive I/O (freeze, merge, purge) runs outside it, following
// spec.md §5's "the write lock is released across long I/O" rule.
//
// This generalizes spec.md §6's source-language "flushChannel<SegmentHandle>
// / compressChannel<SegmentHandle>" design to Go: two bounded channels of
// *Job, each drained by a small worker pool managed by an
// errgroup.Group, throttled through a shared internal/resource.Controller
// so background I/O doesn't starve foreground table operations.
package bgtask

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/colstore/internal/resource"
	"github.com/hupe1980/colstore/internal/table"
)

// Job names one table for a background pass. The worker re-derives what
// work is actually due (rotation size, minMergeSegNum, purgeDeleteThreshold)
// from the table's current state at the time the job runs, rather than
// the state at enqueue time — a job is a hint to look, not a fixed plan.
type Job struct {
	Table *table.Table
}

// Manager owns the two global queues and their worker pools. The zero
// value is not usable; construct with NewManager.
type Manager struct {
	ctrl *resource.Controller

	flushCh    chan Job
	compressCh chan Job

	flushGroup    *errgroup.Group
	compressGroup *errgroup.Group

	stopOnce sync.Once
	cancel   context.CancelFunc
}

// Config configures a Manager's queue depths and worker pool sizes.
type Config struct {
	QueueSize           int
	FlushWorkers        int
	CompressWorkers     int
	MinMergeSegNumFloor int // if a table's own MinMergeSegNum is 0, this floor applies
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.FlushWorkers <= 0 {
		c.FlushWorkers = 1
	}
	if c.CompressWorkers <= 0 {
		c.CompressWorkers = 1
	}
	if c.MinMergeSegNumFloor <= 0 {
		c.MinMergeSegNumFloor = 2
	}
	return c
}

// NewManager starts a Manager's worker pools immediately; callers enqueue
// jobs with EnqueueFlush/EnqueueCompress and wind down with
// SafeStopAndWaitForFlush/SafeStopAndWaitForCompress.
func NewManager(ctrl *resource.Controller, cfg Config) *Manager {
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		ctrl:       ctrl,
		flushCh:    make(chan Job, cfg.QueueSize),
		compressCh: make(chan Job, cfg.QueueSize),
		cancel:     cancel,
	}

	m.flushGroup = &errgroup.Group{}
	for i := 0; i < cfg.FlushWorkers; i++ {
		m.flushGroup.Go(func() error {
			m.runFlushWorker(ctx)
			return nil
		})
	}

	m.compressGroup = &errgroup.Group{}
	for i := 0; i < cfg.CompressWorkers; i++ {
		m.compressGroup.Go(func() error {
			m.runCompressWorker(ctx, cfg.MinMergeSegNumFloor)
			return nil
		})
	}

	return m
}

// EnqueueFlush schedules tbl for a flush-and-freeze pass. Non-blocking:
// reports false if the queue is full, leaving the caller free to retry on
// its own schedule (a dropped flush hint is never data loss — the next
// InsertRow past the size threshold freezes synchronously anyway).
func (m *Manager) EnqueueFlush(tbl *table.Table) bool {
	select {
	case m.flushCh <- Job{Table: tbl}:
		return true
	default:
		return false
	}
}

// EnqueueCompress schedules tbl for a compress-and-merge pass (and,
// within that pass, a purge-delete check per readonly segment).
func (m *Manager) EnqueueCompress(tbl *table.Table) bool {
	select {
	case m.compressCh <- Job{Table: tbl}:
		return true
	default:
		return false
	}
}

func (m *Manager) runFlushWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-m.flushCh:
			if !ok {
				return
			}
			m.runFlush(ctx, job)
		}
	}
}

func (m *Manager) runFlush(ctx context.Context, job Job) {
	if err := m.ctrl.AcquireBackground(ctx); err != nil {
		return
	}
	defer m.ctrl.ReleaseBackground()

	_ = job.Table.FlushActiveSegment(ctx)
}

func (m *Manager) runCompressWorker(ctx context.Context, minMergeSegNumFloor int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-m.compressCh:
			if !ok {
				return
			}
			m.runCompress(ctx, job, minMergeSegNumFloor)
		}
	}
}

func (m *Manager) runCompress(ctx context.Context, job Job, minMergeSegNumFloor int) {
	if err := m.ctrl.AcquireBackground(ctx); err != nil {
		return
	}
	defer m.ctrl.ReleaseBackground()

	tbl := job.Table
	tuning := tbl.Tuning()

	minMergeSegNum := tuning.MinMergeSegNum
	if minMergeSegNum <= 0 {
		minMergeSegNum = minMergeSegNumFloor
	}

	if n := tbl.ReadonlySegmentCount(); n >= minMergeSegNum {
		_ = tbl.MergeReadonlySegments(ctx, 0, n)
	}

	if tuning.PurgeDeleteThreshold <= 0 {
		return
	}
	for i := 0; i < tbl.ReadonlySegmentCount(); i++ {
		frac, ok := tbl.SegmentRemovedFraction(i)
		if !ok {
			continue
		}
		if frac >= tuning.PurgeDeleteThreshold {
			// A single-segment "merge" recompacts it: MergeReadonly only
			// copies live rows forward, so this is exactly spec.md §4.8's
			// purge-delete (readonly → purged once removed-fraction
			// crosses the threshold).
			_ = tbl.MergeReadonlySegments(ctx, i, i+1)
		}
	}
}

// SafeStopAndWaitForFlush closes the flush queue and blocks until every
// flush worker has drained it and exited (spec.md §6's shutdown
// primitive).
func (m *Manager) SafeStopAndWaitForFlush() {
	close(m.flushCh)
	_ = m.flushGroup.Wait()
}

// SafeStopAndWaitForCompress closes the compress queue and blocks until
// every compress worker has drained it and exited.
func (m *Manager) SafeStopAndWaitForCompress() {
	close(m.compressCh)
	_ = m.compressGroup.Wait()
}

// Stop cancels any in-flight Acquire waits and is safe to call any number
// of times; callers that have already drained both queues via the
// SafeStopAndWaitFor* methods don't need it, but it bounds shutdown time
// if a worker is blocked on AcquireBackground when the process wants out.
func (m *Manager) Stop() {
	m.stopOnce.Do(m.cancel)
}
