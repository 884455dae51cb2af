package colstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives per-operation timing and outcome events.
// Implement this to bridge into Prometheus or another monitoring system.
type MetricsCollector interface {
	RecordInsert(duration time.Duration, err error)
	RecordUpdate(duration time.Duration, err error)
	RecordRemove(duration time.Duration, err error)
	RecordFlush(duration time.Duration, err error)
	RecordMerge(segCount int, duration time.Duration, err error)
}

// NoopMetricsCollector discards every event.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)      {}
func (NoopMetricsCollector) RecordUpdate(time.Duration, error)      {}
func (NoopMetricsCollector) RecordRemove(time.Duration, error)      {}
func (NoopMetricsCollector) RecordFlush(time.Duration, error)       {}
func (NoopMetricsCollector) RecordMerge(int, time.Duration, error)  {}

// BasicMetricsCollector is a simple in-memory MetricsCollector, useful
// for debugging and tests without wiring an external monitoring system.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	UpdateCount      atomic.Int64
	UpdateErrors     atomic.Int64
	RemoveCount      atomic.Int64
	RemoveErrors     atomic.Int64
	FlushCount       atomic.Int64
	FlushErrors      atomic.Int64
	MergeCount       atomic.Int64
	MergeErrors      atomic.Int64
	MergedSegments   atomic.Int64
}

func (b *BasicMetricsCollector) RecordInsert(d time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(d.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordUpdate(_ time.Duration, err error) {
	b.UpdateCount.Add(1)
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordRemove(_ time.Duration, err error) {
	b.RemoveCount.Add(1)
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordFlush(_ time.Duration, err error) {
	b.FlushCount.Add(1)
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordMerge(segCount int, _ time.Duration, err error) {
	b.MergeCount.Add(1)
	b.MergedSegments.Add(int64(segCount))
	if err != nil {
		b.MergeErrors.Add(1)
	}
}

// GetStats returns a point-in-time snapshot of the collected counters.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:    b.InsertCount.Load(),
		InsertErrors:   b.InsertErrors.Load(),
		InsertAvgNanos: b.avgInsertNanos(),
		UpdateCount:    b.UpdateCount.Load(),
		UpdateErrors:   b.UpdateErrors.Load(),
		RemoveCount:    b.RemoveCount.Load(),
		RemoveErrors:   b.RemoveErrors.Load(),
		FlushCount:     b.FlushCount.Load(),
		FlushErrors:    b.FlushErrors.Load(),
		MergeCount:     b.MergeCount.Load(),
		MergeErrors:    b.MergeErrors.Load(),
		MergedSegments: b.MergedSegments.Load(),
	}
}

func (b *BasicMetricsCollector) avgInsertNanos() int64 {
	count := b.InsertCount.Load()
	if count == 0 {
		return 0
	}
	return b.InsertTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount    int64
	InsertErrors   int64
	InsertAvgNanos int64
	UpdateCount    int64
	UpdateErrors   int64
	RemoveCount    int64
	RemoveErrors   int64
	FlushCount     int64
	FlushErrors    int64
	MergeCount     int64
	MergeErrors    int64
	MergedSegments int64
}
