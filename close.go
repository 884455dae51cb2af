package colstore

// Close releases resources held by t: if background tasks were started
// via WithBackgroundTasks, it drains both queues and waits for their
// workers to exit before returning. It does not delete any data; use
// DropTable for that.
func (t *Table) Close() error {
	if t == nil {
		return nil
	}
	if t.bg != nil {
		t.bg.SafeStopAndWaitForFlush()
		t.bg.SafeStopAndWaitForCompress()
		t.bg = nil
	}
	return nil
}
