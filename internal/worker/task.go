package worker

import (
	"context"
	"time"

	"github.com/thenoetrevino/clexbrowser/internal/events"
)

// Handle identifies a submitted task. It is an opaque UUID string.
type Handle = events.Handle

// Reporter is handed to a running task to publish progress and status.
// Progress is clamped to [0, 100]; values below the last reported one are
// ignored. Both calls are no-ops once the task is no longer running.
type Reporter interface {
	Progress(percent int)
	Status(message string)
}

// Task is a unit of background work. Implementations capture their input
// when they are constructed; the coordinator never mutates a task.
//
// Cancellation is cooperative: Run should poll ctx and return an error
// wrapping ctx.Err() when it stops early.
type Task interface {
	Kind() string
	Run(ctx context.Context, r Reporter) (any, error)
}

// RunFunc is the body of a Task built with Func
type RunFunc func(ctx context.Context, r Reporter) (any, error)

type funcTask struct {
	kind string
	run  RunFunc
}

func (t funcTask) Kind() string { return t.kind }

func (t funcTask) Run(ctx context.Context, r Reporter) (any, error) {
	return t.run(ctx, r)
}

// Func adapts a function into a Task
func Func(kind string, run RunFunc) Task {
	return funcTask{kind: kind, run: run}
}

// Snapshot is an immutable copy of a task's bookkeeping
type Snapshot struct {
	Handle    Handle
	Kind      string
	State     State
	Progress  int
	Message   string
	Err       error
	Submitted time.Time
	Started   time.Time
	Finished  time.Time
	// Abandoned tasks were still running when Close gave up on them
	Abandoned bool
}
