package composite

import (
	"context"
	"sync"

	"github.com/arourke/paleofed/internal/record"
)

// Subquery is one outbound HTTP request belonging to a composite request
// (§3 "Subquery"). The driver owns every Subquery it creates; a Subquery's
// reference back to its driver is non-owning and exists only so an
// adapter's URL builder can register secondary subqueries or read the
// request context.
type Subquery struct {
	Label string
	Main  bool // only main subqueries contribute to Results()
	Kind  Kind

	adapter      Adapter
	driver       *Driver
	registration int

	// Extra is adapter-private state (e.g. a streaming JSON extractor
	// instance) that persists across OnChunk calls for this subquery.
	// Only ever touched from the subquery's own goroutine, so it needs no
	// locking of its own.
	Extra any

	mu         sync.Mutex
	status     Status
	url        string
	records    []record.Record
	warnings   []string
	httpStatus int
	httpReason string
	retryCount int
	removed    int

	done       chan struct{} // closed exactly once, on a terminal transition
	initSignal chan struct{} // buffered 1; tick wakes a queued retry through this
	cancel     context.CancelFunc
}

func newSubquery(d *Driver, label string, main bool, kind Kind, adapter Adapter, regIndex int) *Subquery {
	return &Subquery{
		Label:        label,
		Main:         main,
		Kind:         kind,
		adapter:      adapter,
		driver:       d,
		registration: regIndex,
		status:       StatusCreated,
		done:         make(chan struct{}),
		initSignal:   make(chan struct{}, 1),
	}
}

// Done returns a channel closed once this subquery reaches a terminal
// state (ABORT, or COMP with no further retry). Other subqueries — the
// secondary-lookup case — block on this to read Records() afterward.
func (sq *Subquery) Done() <-chan struct{} { return sq.done }

func (sq *Subquery) Status() Status {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.status
}

func (sq *Subquery) URL() string {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.url
}

func (sq *Subquery) HTTPStatus() (int, string) {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.httpStatus, sq.httpReason
}

func (sq *Subquery) RetryCount() int {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.retryCount
}

// Records returns the records accumulated so far. Safe to call once Done()
// has closed; also safe (if racy in content, never in memory) mid-flight.
func (sq *Subquery) Records() []record.Record {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	out := make([]record.Record, len(sq.records))
	copy(out, sq.records)
	return out
}

func (sq *Subquery) Warnings() []string {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	out := make([]string, len(sq.warnings))
	copy(out, sq.warnings)
	return out
}

// AppendRecord adds one normalized record, called by an adapter's OnChunk.
func (sq *Subquery) AppendRecord(r record.Record) {
	sq.mu.Lock()
	sq.records = append(sq.records, r)
	sq.mu.Unlock()
}

// AddWarning records one adapter-pushed diagnostic (§4.4 on_chunk: a
// message/warnings/errors path). Driver.Warnings prefixes these with the
// subquery's label when assembling the final response.
func (sq *Subquery) AddWarning(msg string) {
	sq.mu.Lock()
	sq.warnings = append(sq.warnings, msg)
	sq.mu.Unlock()
}

// IncRemoved records one record rejected by an adapter's local post-filter
// (the Quaternary source's major/buffer re-filtering, §4.4).
func (sq *Subquery) IncRemoved() {
	sq.mu.Lock()
	sq.removed++
	sq.mu.Unlock()
}

func (sq *Subquery) Removed() int {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.removed
}

func (sq *Subquery) setStatus(s Status) {
	sq.mu.Lock()
	sq.status = s
	sq.mu.Unlock()
}

// resetForRetry discards accumulated records and warnings (§4.5 edge case:
// a retried attempt does not double-report) and bumps the retry count.
func (sq *Subquery) resetForRetry() {
	sq.mu.Lock()
	sq.records = nil
	sq.warnings = nil
	sq.retryCount++
	sq.mu.Unlock()
}
