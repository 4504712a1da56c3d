package collab

import (
	"context"
	"sync"
	"time"
)

// DefaultSearchDelay is the typing-inactivity window before a search
// dispatches.
const DefaultSearchDelay = 300 * time.Millisecond

// SearchResult carries the hits for one dispatched search.
type SearchResult struct {
	Seq   uint64
	Query string
	Hits  []ActorHit
}

// SearchFunc performs the actual lookup.
type SearchFunc func(ctx context.Context, query string) []ActorHit

// SearchDebouncer coalesces keystrokes into at most one search per
// delay window. Each dispatched search carries a monotonic sequence
// number; a completion older than one already delivered is discarded,
// so a slow stale response can never overwrite fresher results.
type SearchDebouncer struct {
	delay  time.Duration
	search SearchFunc

	mu        sync.Mutex
	timer     *time.Timer
	nextSeq   uint64
	delivered uint64
	results   chan SearchResult
	stopped   bool
}

// NewSearchDebouncer constructs a debouncer. A non-positive delay falls
// back to DefaultSearchDelay.
func NewSearchDebouncer(delay time.Duration, search SearchFunc) *SearchDebouncer {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &SearchDebouncer{
		delay:   delay,
		search:  search,
		results: make(chan SearchResult, 8),
	}
}

// Query registers a keystroke. The pending timer is superseded; the
// search dispatches only after the delay elapses with no newer input.
func (d *SearchDebouncer) Query(ctx context.Context, query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.dispatch(ctx, query)
	})
}

// Flush dispatches the query immediately, bypassing the delay. Used on
// explicit submit.
func (d *SearchDebouncer) Flush(ctx context.Context, query string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.dispatch(ctx, query)
}

// Results delivers search completions, newest-wins.
func (d *SearchDebouncer) Results() <-chan SearchResult {
	return d.results
}

// Stop cancels any pending timer and closes the result stream.
func (d *SearchDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	close(d.results)
}

func (d *SearchDebouncer) dispatch(ctx context.Context, query string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.nextSeq++
	seq := d.nextSeq
	d.mu.Unlock()

	hits := d.search(ctx, query)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || seq <= d.delivered {
		// A newer search already delivered; this response is stale.
		return
	}
	d.delivered = seq
	select {
	case d.results <- SearchResult{Seq: seq, Query: query, Hits: hits}:
	default:
		// Consumer lagging; drop rather than block the dispatch path.
	}
}
