package pagination

import "sync"

// StopReason records why the stop signal was raised.
type StopReason string

const (
	// StopReasonNone means the stop signal has not been raised.
	StopReasonNone StopReason = ""

	// StopReasonEndOfData is raised by a well-formed page without rulings.
	StopReasonEndOfData StopReason = "end_of_data"

	// StopReasonFailure is raised by a transport error or malformed page.
	StopReasonFailure StopReason = "failure"

	// StopReasonCancelled is raised when the harvest context is cancelled.
	StopReasonCancelled StopReason = "cancelled"
)

// ResultBuffer collects the header and rows merged by concurrent page tasks,
// together with the run's stop signal. Both are guarded by one mutex.
//
// Once populated, element 0 of the buffer is the header and it is written
// exactly once. The stop signal goes from false to true at most once.
type ResultBuffer struct {
	mu         sync.Mutex
	records    [][]string
	rows       int
	stopped    bool
	stopReason StopReason
	stopCh     chan struct{}
}

// NewResultBuffer creates an empty buffer with the stop signal lowered.
func NewResultBuffer() *ResultBuffer {
	return &ResultBuffer{
		stopCh: make(chan struct{}),
	}
}

// Merge appends rows in order. If no header has been written yet, header is
// appended first. Nothing is written when rows is empty.
// Returns the number of rows appended and whether the header was written.
func (b *ResultBuffer) Merge(header []string, rows [][]string) (int, bool) {
	if len(rows) == 0 {
		return 0, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	headerWritten := false
	if len(b.records) == 0 {
		if len(header) == 0 {
			return 0, false
		}
		b.records = append(b.records, header)
		headerWritten = true
	}

	b.records = append(b.records, rows...)
	b.rows += len(rows)

	return len(rows), headerWritten
}

// Stop raises the stop signal. It returns true only for the call that
// performed the transition; later calls keep the first reason.
func (b *ResultBuffer) Stop(reason StopReason) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return false
	}
	b.stopped = true
	b.stopReason = reason
	close(b.stopCh)
	return true
}

// Stopped reports whether the stop signal has been raised.
func (b *ResultBuffer) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

// StopReason returns the reason given to the first Stop call.
func (b *ResultBuffer) StopReason() StopReason {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopReason
}

// StopChan returns a channel that is closed when the stop signal is raised.
func (b *ResultBuffer) StopChan() <-chan struct{} {
	return b.stopCh
}

// Records returns the header followed by all rows in merge order.
// The returned slice is a copy; the rows themselves are shared.
func (b *ResultBuffer) Records() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := make([][]string, len(b.records))
	copy(records, b.records)
	return records
}

// RowCount returns the number of data rows, excluding the header.
func (b *ResultBuffer) RowCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rows
}
