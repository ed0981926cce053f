package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/events"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestCoordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	c := NewCoordinator(opts...)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

// collect reads events until every handle in want has seen a terminal event
func collect(t *testing.T, c *Coordinator, want ...Handle) map[Handle][]events.Event {
	t.Helper()
	pending := make(map[Handle]bool, len(want))
	for _, h := range want {
		pending[h] = true
	}

	got := make(map[Handle][]events.Event)
	timeout := time.After(5 * time.Second)
	for len(pending) > 0 {
		select {
		case e, ok := <-c.Events():
			if !ok {
				t.Fatalf("event stream closed with %d handles outstanding", len(pending))
			}
			got[e.Handle] = append(got[e.Handle], e)
			if e.Terminal() {
				delete(pending, e.Handle)
			}
		case <-timeout:
			t.Fatalf("timed out waiting for terminal events; outstanding: %v", pending)
		}
	}
	return got
}

func terminalOf(t *testing.T, evs []events.Event) events.Event {
	t.Helper()
	var terminals []events.Event
	for _, e := range evs {
		if e.Terminal() {
			terminals = append(terminals, e)
		}
	}
	require.Len(t, terminals, 1, "exactly one terminal event per handle")
	require.True(t, evs[len(evs)-1].Terminal(), "terminal event must be last")
	return terminals[0]
}

// blockingTask runs until release is closed, honouring ctx when cooperative
func blockingTask(started chan<- struct{}, release <-chan struct{}, cooperative bool) Task {
	return Func("blocking", func(ctx context.Context, r Reporter) (any, error) {
		close(started)
		if cooperative {
			select {
			case <-release:
				return "released", nil
			case <-ctx.Done():
				return nil, fmt.Errorf("stopped: %w", ctx.Err())
			}
		}
		<-release
		return "released", nil
	})
}

// ============================================================================
// Lifecycle Tests
// ============================================================================

func TestSubmit_ProgressIsClampedAndMonotonic(t *testing.T) {
	c := newTestCoordinator(t)

	h, err := c.Submit(Func("load", func(ctx context.Context, r Reporter) (any, error) {
		r.Progress(10)
		r.Progress(5)  // lower than last, ignored
		r.Progress(10) // equal, ignored
		r.Status("halfway")
		r.Progress(150) // clamped to 100
		return 42, nil
	}))
	require.NoError(t, err)

	evs := collect(t, c, h)[h]
	require.Len(t, evs, 4)

	assert.Equal(t, events.EventProgress, evs[0].Type)
	assert.Equal(t, 10, evs[0].Progress)
	assert.Equal(t, events.EventStatus, evs[1].Type)
	assert.Equal(t, "halfway", evs[1].Message)
	assert.Equal(t, 100, evs[2].Progress)

	result := terminalOf(t, evs)
	assert.Equal(t, events.EventResult, result.Type)
	assert.Equal(t, 42, result.Payload)
	assert.Equal(t, "load", result.Kind)

	snap, ok := c.Snapshot(h)
	require.True(t, ok)
	assert.Equal(t, StateCompleted, snap.State)
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, "halfway", snap.Message)
	assert.False(t, snap.Finished.Before(snap.Started))
}

func TestSubmit_StorageErrorIsDelivered(t *testing.T) {
	c := newTestCoordinator(t)

	h, err := c.Submit(Func("load", func(ctx context.Context, r Reporter) (any, error) {
		return nil, &database.StorageError{Op: "list devices", Err: errors.New("disk I/O error")}
	}))
	require.NoError(t, err)

	term := terminalOf(t, collect(t, c, h)[h])
	assert.Equal(t, events.EventError, term.Type)
	assert.ErrorIs(t, term.Err, database.ErrStorage)

	snap, _ := c.Snapshot(h)
	assert.Equal(t, StateFailed, snap.State)
}

func TestSubmit_PanicBecomesInternalFault(t *testing.T) {
	c := newTestCoordinator(t, WithWorkers(1))

	bad, err := c.Submit(Func("explode", func(ctx context.Context, r Reporter) (any, error) {
		panic("kaboom")
	}))
	require.NoError(t, err)

	good, err := c.Submit(Func("after", func(ctx context.Context, r Reporter) (any, error) {
		return "still alive", nil
	}))
	require.NoError(t, err)

	got := collect(t, c, bad, good)

	fault := terminalOf(t, got[bad])
	assert.Equal(t, events.EventError, fault.Type)
	var ife *InternalFault
	require.ErrorAs(t, fault.Err, &ife)
	assert.Equal(t, "kaboom", ife.Value)
	assert.Equal(t, bad, ife.Handle)
	assert.NotEmpty(t, ife.Stack)

	assert.Equal(t, events.EventResult, terminalOf(t, got[good]).Type)
	assert.Equal(t, int64(1), c.Metrics().Snapshot().Faults)
}

func TestSubmit_NilTask(t *testing.T) {
	c := newTestCoordinator(t)
	_, err := c.Submit(nil)
	assert.ErrorIs(t, err, ErrNilTask)
}

func TestSubmit_HandlesAreUnique(t *testing.T) {
	c := newTestCoordinator(t)

	seen := map[Handle]bool{}
	var handles []Handle
	for i := 0; i < 20; i++ {
		h, err := c.Submit(Func("noop", func(ctx context.Context, r Reporter) (any, error) { return nil, nil }))
		require.NoError(t, err)
		assert.False(t, seen[h], "duplicate handle %s", h)
		seen[h] = true
		handles = append(handles, h)
	}
	collect(t, c, handles...)
}

// ============================================================================
// Cancellation Tests
// ============================================================================

func TestCancel_RunningCooperativeTask(t *testing.T) {
	c := newTestCoordinator(t)

	started := make(chan struct{})
	h, err := c.Submit(blockingTask(started, make(chan struct{}), true))
	require.NoError(t, err)
	<-started

	c.Cancel(h)

	term := terminalOf(t, collect(t, c, h)[h])
	assert.Equal(t, events.EventCancelled, term.Type)

	snap, _ := c.Snapshot(h)
	assert.Equal(t, StateCancelled, snap.State)
}

func TestCancel_TaskIgnoringCancellationCompletes(t *testing.T) {
	c := newTestCoordinator(t)

	started := make(chan struct{})
	release := make(chan struct{})
	h, err := c.Submit(blockingTask(started, release, false))
	require.NoError(t, err)
	<-started

	c.Cancel(h)
	close(release)

	term := terminalOf(t, collect(t, c, h)[h])
	assert.Equal(t, events.EventResult, term.Type)
	assert.Equal(t, "released", term.Payload)
}

func TestCancel_QueuedTaskIsCancelledImmediately(t *testing.T) {
	c := newTestCoordinator(t, WithWorkers(1))

	started := make(chan struct{})
	release := make(chan struct{})
	first, err := c.Submit(blockingTask(started, release, false))
	require.NoError(t, err)
	<-started

	ran := false
	second, err := c.Submit(Func("queued", func(ctx context.Context, r Reporter) (any, error) {
		ran = true
		return nil, nil
	}))
	require.NoError(t, err)

	c.Cancel(second)
	got := collect(t, c, second)
	assert.Equal(t, events.EventCancelled, terminalOf(t, got[second]).Type)

	close(release)
	collect(t, c, first)
	assert.False(t, ran, "cancelled queued task must never run")
}

func TestCancel_TerminalAndUnknownHandlesAreNoOps(t *testing.T) {
	c := newTestCoordinator(t, WithWorkers(1))

	h, err := c.Submit(Func("quick", func(ctx context.Context, r Reporter) (any, error) { return 1, nil }))
	require.NoError(t, err)
	collect(t, c, h)

	c.Cancel(h)
	c.Cancel("no-such-handle")

	next, err := c.Submit(Func("next", func(ctx context.Context, r Reporter) (any, error) { return 2, nil }))
	require.NoError(t, err)

	got := collect(t, c, next)
	assert.Len(t, got, 1, "no extra events for the cancelled terminal handle")

	snap, _ := c.Snapshot(h)
	assert.Equal(t, StateCompleted, snap.State)
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestConcurrentTasksHaveIndependentTerminalEvents(t *testing.T) {
	c := newTestCoordinator(t, WithWorkers(2))

	var barrier sync.WaitGroup
	barrier.Add(2)
	load := func(techID int) Task {
		return Func("load_devices", func(ctx context.Context, r Reporter) (any, error) {
			barrier.Done()
			barrier.Wait() // both are running at once
			for p := 0; p <= 100; p += 25 {
				r.Progress(p)
			}
			return techID, nil
		})
	}

	a, err := c.Submit(load(1))
	require.NoError(t, err)
	b, err := c.Submit(load(2))
	require.NoError(t, err)

	got := collect(t, c, a, b)

	assert.Equal(t, 1, terminalOf(t, got[a]).Payload)
	assert.Equal(t, 2, terminalOf(t, got[b]).Payload)

	for _, h := range []Handle{a, b} {
		last := -1
		for _, e := range got[h] {
			if e.Type == events.EventProgress {
				assert.Greater(t, e.Progress, last)
				last = e.Progress
			}
		}
	}
}

// ============================================================================
// Shutdown Tests
// ============================================================================

func TestClose_RejectsSubmissions(t *testing.T) {
	c := newTestCoordinator(t)
	require.NoError(t, c.Close(context.Background()))

	_, err := c.Submit(Func("late", func(ctx context.Context, r Reporter) (any, error) { return nil, nil }))
	assert.ErrorIs(t, err, ErrCoordinatorClosed)

	// The stream closes once drained
	for range c.Events() {
	}
}

func TestClose_CancelsQueuedAndRunningTasks(t *testing.T) {
	c := newTestCoordinator(t, WithWorkers(1))

	started := make(chan struct{})
	running, err := c.Submit(blockingTask(started, make(chan struct{}), true))
	require.NoError(t, err)
	<-started

	var queued []Handle
	for i := 0; i < 2; i++ {
		h, err := c.Submit(Func("queued", func(ctx context.Context, r Reporter) (any, error) { return nil, nil }))
		require.NoError(t, err)
		queued = append(queued, h)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- c.Close(context.Background()) }()

	got := collect(t, c, append(queued, running)...)
	for h, evs := range got {
		assert.Equal(t, events.EventCancelled, terminalOf(t, evs).Type, "handle %s", h)
	}
	require.NoError(t, <-errCh)

	_, open := <-c.Events()
	assert.False(t, open, "stream closes after the last event")
	assert.Equal(t, int64(3), c.Metrics().Snapshot().Cancelled)
}

func TestClose_AbandonsUncooperativeTasks(t *testing.T) {
	c := newTestCoordinator(t, WithShutdownTimeout(50*time.Millisecond))

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	h, err := c.Submit(blockingTask(started, release, false))
	require.NoError(t, err)
	<-started

	start := time.Now()
	err = c.Close(context.Background())
	assert.ErrorIs(t, err, ErrShutdownTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	snap, ok := c.Snapshot(h)
	require.True(t, ok)
	assert.True(t, snap.Abandoned)
	assert.Equal(t, int64(1), c.Metrics().Snapshot().Abandoned)

	for e := range c.Events() {
		assert.NotEqual(t, h, e.Handle, "abandoned task must not produce events")
	}
}

func TestClose_WaitsForSettledTaskToPublish(t *testing.T) {
	c := newTestCoordinator(t)

	settled := make(chan struct{})
	release := make(chan struct{})
	c.afterSettle = func(Handle) {
		close(settled)
		<-release
	}

	h, err := c.Submit(Func("quick", func(ctx context.Context, r Reporter) (any, error) {
		return "done", nil
	}))
	require.NoError(t, err)
	<-settled

	// An expired context makes Close abandon running tasks at once; this
	// one already settled, so it is not abandoned and still owes its event
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	closed := make(chan error, 1)
	go func() { closed <- c.Close(ctx) }()

	assert.Never(t, func() bool { return len(closed) > 0 }, 100*time.Millisecond, 10*time.Millisecond,
		"Close must wait for the terminal event")
	close(release)

	select {
	case err := <-closed:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}

	got := collect(t, c, h)
	terminal := terminalOf(t, got[h])
	assert.Equal(t, events.EventResult, terminal.Type)
	assert.Equal(t, "done", terminal.Payload)

	snap, ok := c.Snapshot(h)
	require.True(t, ok)
	assert.Equal(t, StateCompleted, snap.State)
	assert.False(t, snap.Abandoned)
}

func TestClose_IsIdempotent(t *testing.T) {
	c := newTestCoordinator(t)
	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
}

func TestSnapshot_RetentionBound(t *testing.T) {
	c := newTestCoordinator(t, WithWorkers(1), WithRetainFinished(2))

	var handles []Handle
	for i := 0; i < 4; i++ {
		h, err := c.Submit(Func("noop", func(ctx context.Context, r Reporter) (any, error) { return nil, nil }))
		require.NoError(t, err)
		handles = append(handles, h)
	}
	collect(t, c, handles...)

	_, ok := c.Snapshot(handles[0])
	assert.False(t, ok, "oldest finished task is forgotten")
	_, ok = c.Snapshot(handles[3])
	assert.True(t, ok)
}
