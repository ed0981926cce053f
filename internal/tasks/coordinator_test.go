package tasks

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/clexbrowser/internal/events"
	"github.com/thenoetrevino/clexbrowser/internal/models"
	"github.com/thenoetrevino/clexbrowser/internal/testutil"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

func TestConcurrentLoadDevices_IndependentResults(t *testing.T) {
	store := seeded(t)
	tsmc := testutil.MustTechnology(t, store, "tsmc28")
	gf := testutil.MustTechnology(t, store, "gf22")

	c := worker.NewCoordinator(worker.WithWorkers(2), worker.WithLogger(slog.New(slog.DiscardHandler)))
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	h1, err := c.Submit(LoadDevices(store, tsmc.ID, false))
	require.NoError(t, err)
	h2, err := c.Submit(LoadDevices(store, gf.ID, false))
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)

	// events of both handles interleave on one stream
	got := map[events.Handle][]events.Event{}
	pending := map[events.Handle]bool{h1: true, h2: true}
	for len(pending) > 0 {
		e := <-c.Events()
		got[e.Handle] = append(got[e.Handle], e)
		if e.Terminal() {
			delete(pending, e.Handle)
		}
	}

	for h, wantDevices := range map[events.Handle]int{h1: 3, h2: 1} {
		evs := got[h]
		last := evs[len(evs)-1]
		require.Equal(t, events.EventResult, last.Type)
		assert.Equal(t, KindLoadDevices, last.Kind)
		assert.Len(t, last.Payload.(DevicesPayload).Devices, wantDevices)

		prev := -1
		for _, e := range evs {
			if e.Type == events.EventProgress {
				assert.Greater(t, e.Progress, prev)
				prev = e.Progress
			}
		}
	}
}

func TestRefreshThroughCoordinator_Cancel(t *testing.T) {
	store := seeded(t)
	c := worker.NewCoordinator(worker.WithWorkers(1), worker.WithLogger(slog.New(slog.DiscardHandler)))
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	ing := &blockingIngester{started: make(chan struct{})}
	h, err := c.Submit(CreateOrRefreshDatabase(ing, store, "output.log", true))
	require.NoError(t, err)

	<-ing.started
	c.Cancel(h)

	evs := testutil.AwaitTerminal(t, c.Events(), h)
	assert.Equal(t, events.EventCancelled, evs[len(evs)-1].Type)
	assert.Len(t, testutil.DumpDefinitions(t, store), 2)
}

// blockingIngester waits for cancellation
type blockingIngester struct {
	started chan struct{}
}

func (b *blockingIngester) ParseFile(ctx context.Context, path string) (*models.Dataset, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}
