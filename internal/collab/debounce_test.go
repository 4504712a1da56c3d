package collab

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, d *SearchDebouncer, timeout time.Duration) (SearchResult, bool) {
	t.Helper()
	select {
	case res, ok := <-d.Results():
		return res, ok
	case <-time.After(timeout):
		return SearchResult{}, false
	}
}

func TestDebouncerCoalescesKeystrokes(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	search := func(ctx context.Context, q string) []ActorHit {
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()
		return []ActorHit{{ActorID: "u1"}}
	}
	d := NewSearchDebouncer(30*time.Millisecond, search)
	defer d.Stop()
	ctx := context.Background()

	// Keystrokes faster than the window: only the last one dispatches.
	d.Query(ctx, "d")
	d.Query(ctx, "du")
	d.Query(ctx, "dup")
	d.Query(ctx, "dupont")

	res, ok := collect(t, d, time.Second)
	require.True(t, ok)
	assert.Equal(t, "dupont", res.Query)

	mu.Lock()
	assert.Equal(t, []string{"dupont"}, queries)
	mu.Unlock()
}

func TestDebouncerDispatchesPerIdleWindow(t *testing.T) {
	search := func(ctx context.Context, q string) []ActorHit { return nil }
	d := NewSearchDebouncer(20*time.Millisecond, search)
	defer d.Stop()
	ctx := context.Background()

	d.Query(ctx, "first")
	first, ok := collect(t, d, time.Second)
	require.True(t, ok)

	d.Query(ctx, "second")
	second, ok := collect(t, d, time.Second)
	require.True(t, ok)

	assert.Equal(t, "first", first.Query)
	assert.Equal(t, "second", second.Query)
	assert.Greater(t, second.Seq, first.Seq)
}

func TestDebouncerFlushBypassesDelay(t *testing.T) {
	search := func(ctx context.Context, q string) []ActorHit {
		return []ActorHit{{ActorID: "u1"}}
	}
	d := NewSearchDebouncer(time.Hour, search)
	defer d.Stop()
	ctx := context.Background()

	// The pending hour-long timer is superseded by the explicit submit.
	d.Query(ctx, "pending")
	d.Flush(ctx, "submitted")

	res, ok := collect(t, d, time.Second)
	require.True(t, ok)
	assert.Equal(t, "submitted", res.Query)
	require.Len(t, res.Hits, 1)
}

func TestDebouncerDiscardsStaleCompletion(t *testing.T) {
	release := make(chan struct{})
	search := func(ctx context.Context, q string) []ActorHit {
		if q == "slow" {
			<-release
		}
		return []ActorHit{{ActorID: q}}
	}
	d := NewSearchDebouncer(time.Hour, search)
	defer d.Stop()
	ctx := context.Background()

	// The slow search dispatches first and blocks mid-flight.
	started := make(chan struct{})
	go func() {
		close(started)
		d.Flush(ctx, "slow")
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	// A fresher search completes while the first is still in flight.
	d.Flush(ctx, "fast")
	res, ok := collect(t, d, time.Second)
	require.True(t, ok)
	assert.Equal(t, "fast", res.Query)

	// Releasing the stale search must not publish a second result.
	close(release)
	_, ok = collect(t, d, 100*time.Millisecond)
	assert.False(t, ok, "stale completion must be discarded")
}

func TestDebouncerStop(t *testing.T) {
	search := func(ctx context.Context, q string) []ActorHit { return nil }
	d := NewSearchDebouncer(10*time.Millisecond, search)
	ctx := context.Background()

	d.Query(ctx, "pending")
	d.Stop()

	// The channel is closed; the pending timer never delivers.
	res, ok := <-d.Results()
	assert.False(t, ok)
	assert.Zero(t, res.Seq)

	// Calls after Stop are no-ops.
	d.Query(ctx, "ignored")
	d.Flush(ctx, "ignored")
	d.Stop()
}
