package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/thenoetrevino/clexbrowser/internal/config"
	"github.com/thenoetrevino/clexbrowser/internal/events"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

// errStreamClosed is returned when the coordinator stops before the task
// reached a terminal state
var errStreamClosed = errors.New("task coordinator stopped")

// RunTask runs one task on a short-lived coordinator and waits for its
// result. Cancelling ctx cancels the task; the call still waits for the
// task to settle. onEvent, when set, sees every event of the task.
func RunTask(ctx context.Context, cfg *config.Config, task worker.Task, onEvent func(events.Event)) (any, error) {
	c := worker.NewCoordinator(
		worker.WithWorkers(1),
		worker.WithEventBuffer(cfg.Worker.EventBuffer),
		worker.WithShutdownTimeout(cfg.Worker.ShutdownTimeout),
		worker.WithLogger(slog.Default()),
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
		defer cancel()
		if err := c.Close(closeCtx); err != nil {
			slog.Warn("coordinator did not stop cleanly", "error", err)
		}
	}()

	h, err := c.Submit(task)
	if err != nil {
		return nil, err
	}

	done := ctx.Done()
	for {
		select {
		case e, ok := <-c.Events():
			if !ok {
				return nil, errStreamClosed
			}
			if e.Handle != h {
				continue
			}
			if onEvent != nil {
				onEvent(e)
			}
			switch e.Type {
			case events.EventResult:
				return e.Payload, nil
			case events.EventError:
				return nil, e.Err
			case events.EventCancelled:
				return nil, context.Canceled
			}
		case <-done:
			c.Cancel(h)
			done = nil
		}
	}
}
