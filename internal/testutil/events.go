package testutil

import (
	"testing"
	"time"

	"github.com/thenoetrevino/clexbrowser/internal/events"
)

// AwaitTerminal reads from stream until h's terminal event and returns
// every event seen for h. Events of other handles are skipped.
func AwaitTerminal(t *testing.T, stream <-chan events.Event, h events.Handle) []events.Event {
	t.Helper()
	var got []events.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-stream:
			if !ok {
				t.Fatalf("event stream closed before terminal event for %s", h)
			}
			if e.Handle != h {
				continue
			}
			got = append(got, e)
			if e.Terminal() {
				return got
			}
		case <-timeout:
			t.Fatalf("timed out waiting for terminal event for %s", h)
			return got
		}
	}
}
