// Package worker runs tasks on a bounded pool of goroutines and reports
// their lifecycle as an ordered stream of events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/thenoetrevino/clexbrowser/internal/events"
)

const (
	// DefaultShutdownTimeout is how long Close waits for running tasks
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultRetainFinished bounds how many finished tasks Snapshot remembers
	DefaultRetainFinished = 1024
)

// DefaultWorkers returns max(2, NumCPU)
func DefaultWorkers() int {
	return max(2, runtime.NumCPU())
}

// job is the coordinator's record of one task. All fields except task,
// ctx and cancel are guarded by Coordinator.mu.
type job struct {
	handle Handle
	kind   string
	task   Task
	ctx    context.Context
	cancel context.CancelFunc

	state        State
	progress     int
	lastReported int
	message      string
	err          error
	abandoned    bool

	submitted time.Time
	started   time.Time
	finished  time.Time
}

func (j *job) snapshot() Snapshot {
	return Snapshot{
		Handle:    j.handle,
		Kind:      j.kind,
		State:     j.state,
		Progress:  j.progress,
		Message:   j.message,
		Err:       j.err,
		Submitted: j.submitted,
		Started:   j.started,
		Finished:  j.finished,
		Abandoned: j.abandoned,
	}
}

// Coordinator owns the task queue, the worker goroutines and the event
// stream. Submit, Cancel and Snapshot are safe to call from any goroutine.
type Coordinator struct {
	mu       sync.Mutex
	cond     *sync.Cond
	jobs     map[Handle]*job
	queue    []*job
	finished []Handle // terminal handles, oldest first
	closing  bool

	workers         int
	shutdownTimeout time.Duration
	retainFinished  int
	eventBuffer     int

	events  *events.Queue
	metrics *Metrics
	logger  *slog.Logger

	// Parent of every task context; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	workersDone chan struct{}
	closeOnce   sync.Once
	closeErr    error

	// Counts settled tasks whose terminal event is not yet published;
	// Add happens under mu so shutdown never closes the queue early
	publishing sync.WaitGroup

	// Test hook run between settling a task and publishing its terminal event
	afterSettle func(Handle)
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithWorkers sets the pool size
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithShutdownTimeout sets how long Close waits before abandoning tasks
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// WithEventBuffer sets the pending-event bound of the notification queue
func WithEventBuffer(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.eventBuffer = n
		}
	}
}

// WithRetainFinished bounds how many finished tasks stay visible to Snapshot
func WithRetainFinished(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.retainFinished = n
		}
	}
}

// WithLogger sets the coordinator's logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator starts the worker goroutines and the event pump
func NewCoordinator(opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		jobs:            make(map[Handle]*job),
		workers:         DefaultWorkers(),
		shutdownTimeout: DefaultShutdownTimeout,
		retainFinished:  DefaultRetainFinished,
		eventBuffer:     events.DefaultCapacity,
		metrics:         NewMetrics(),
		logger:          slog.Default(),
		ctx:             ctx,
		cancel:          cancel,
		workersDone:     make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}

	c.events = events.NewQueue(
		events.WithCapacity(c.eventBuffer),
		events.WithLogger(c.logger),
		events.WithDropHook(func(events.Event) {
			c.metrics.DroppedProgress.Add(1)
		}),
	)

	var g errgroup.Group
	for i := 0; i < c.workers; i++ {
		g.Go(func() error {
			c.workerLoop()
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(c.workersDone)
	}()

	c.logger.Debug("coordinator started", "workers", c.workers)

	return c
}

// Events returns the single ordered notification stream. It is closed
// after Close once every remaining event was consumed.
func (c *Coordinator) Events() <-chan events.Event {
	return c.events.Events()
}

// Metrics returns the live counters
func (c *Coordinator) Metrics() *Metrics {
	return c.metrics
}

// Submit queues task and returns its handle. It never blocks.
func (c *Coordinator) Submit(task Task) (Handle, error) {
	if task == nil {
		return "", ErrNilTask
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return "", ErrCoordinatorClosed
	}

	ctx, cancel := context.WithCancel(c.ctx)
	j := &job{
		handle:       Handle(uuid.NewString()),
		kind:         task.Kind(),
		task:         task,
		ctx:          ctx,
		cancel:       cancel,
		state:        StateQueued,
		lastReported: -1,
		submitted:    time.Now(),
	}
	c.jobs[j.handle] = j
	c.queue = append(c.queue, j)
	c.cond.Signal()
	c.mu.Unlock()

	c.metrics.Submitted.Add(1)
	c.logger.Debug("task submitted", "handle", j.handle, "kind", j.kind)

	return j.handle, nil
}

// Cancel asks the task to stop. A queued task is cancelled immediately; a
// running task has its context cancelled and decides itself how to end.
// Unknown and finished handles are ignored.
func (c *Coordinator) Cancel(h Handle) {
	c.mu.Lock()
	j, ok := c.jobs[h]
	if !ok || j.state.IsTerminal() {
		c.mu.Unlock()
		return
	}

	if j.state == StateQueued {
		c.removeQueuedLocked(j)
		c.settleLocked(j, StateCancelled, nil)
		c.publishing.Add(1)
		c.mu.Unlock()
		j.cancel()
		c.publish(j, events.Cancelled(h))
		c.publishing.Done()
		return
	}
	c.mu.Unlock()

	c.logger.Debug("cancel requested", "handle", h, "kind", j.kind)
	j.cancel()
}

// Snapshot returns a copy of the task's bookkeeping
func (c *Coordinator) Snapshot(h Handle) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[h]
	if !ok {
		return Snapshot{}, false
	}
	return j.snapshot(), true
}

// Close stops accepting tasks, cancels queued and running ones and waits
// up to the shutdown timeout (or until ctx is done) for workers to return.
// Tasks still running after that are abandoned: their later events are
// discarded. Close returns ErrShutdownTimeout in that case. Calling Close
// again returns the first result.
func (c *Coordinator) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closeErr = c.shutdown(ctx)
	})
	return c.closeErr
}

func (c *Coordinator) shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closing = true
	queued := c.queue
	c.queue = nil
	for _, j := range queued {
		c.settleLocked(j, StateCancelled, nil)
	}
	c.cond.Broadcast()
	c.mu.Unlock()

	for _, j := range queued {
		j.cancel()
		c.publish(j, events.Cancelled(j.handle))
	}

	// Cancels every running task's context
	c.cancel()

	timer := time.NewTimer(c.shutdownTimeout)
	defer timer.Stop()

	var err error
	select {
	case <-c.workersDone:
	case <-timer.C:
		err = c.abandonRunning()
	case <-ctx.Done():
		err = errors.Join(c.abandonRunning(), ctx.Err())
	}

	// Tasks that settled before abandonRunning still owe their terminal event
	c.publishing.Wait()
	c.events.Close()
	c.logger.Debug("coordinator closed", "cancelled_queued", len(queued))

	return err
}

// abandonRunning marks every still-running task as abandoned
func (c *Coordinator) abandonRunning() error {
	c.mu.Lock()
	var abandoned []Handle
	for h, j := range c.jobs {
		if j.state == StateRunning {
			j.abandoned = true
			abandoned = append(abandoned, h)
		}
	}
	c.mu.Unlock()

	if len(abandoned) == 0 {
		return nil
	}

	c.metrics.Abandoned.Add(int64(len(abandoned)))
	c.logger.Warn("abandoning tasks that ignored cancellation",
		"count", len(abandoned),
		"timeout", c.shutdownTimeout)

	return fmt.Errorf("%d task(s): %w", len(abandoned), ErrShutdownTimeout)
}

// workerLoop pulls jobs until the coordinator is closing and the queue is empty
func (c *Coordinator) workerLoop() {
	for {
		c.mu.Lock()
		for len(c.queue) == 0 && !c.closing {
			c.cond.Wait()
		}
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}

		j := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.transitionLocked(j, StateRunning)
		j.started = time.Now()
		c.mu.Unlock()

		c.metrics.Running.Add(1)
		c.run(j)
		c.metrics.Running.Add(-1)
	}
}

// run executes one job and publishes its single terminal event
func (c *Coordinator) run(j *job) {
	defer j.cancel()

	payload, err := c.execute(j)

	var (
		to       State
		terminal events.Event
		fault    *InternalFault
	)
	switch {
	case errors.As(err, &fault):
		to, terminal = StateFailed, events.Failure(j.handle, err)
		c.metrics.Faults.Add(1)
		c.logger.Error("task panicked",
			"handle", j.handle,
			"kind", j.kind,
			"panic", fault.Value,
			"stack", string(fault.Stack))
	case err != nil && j.ctx.Err() != nil && errors.Is(err, context.Canceled):
		to, terminal = StateCancelled, events.Cancelled(j.handle)
	case err != nil:
		to, terminal = StateFailed, events.Failure(j.handle, err)
		c.logger.Debug("task failed", "handle", j.handle, "kind", j.kind, "error", err)
	default:
		to, terminal = StateCompleted, events.Result(j.handle, payload)
	}

	c.mu.Lock()
	c.settleLocked(j, to, err)
	abandoned := j.abandoned
	if !abandoned {
		c.publishing.Add(1)
	}
	c.mu.Unlock()

	if abandoned {
		c.logger.Debug("discarding result of abandoned task", "handle", j.handle, "kind", j.kind)
		return
	}
	defer c.publishing.Done()
	if c.afterSettle != nil {
		c.afterSettle(j.handle)
	}
	c.publish(j, terminal)
}

// execute runs the task, converting a panic into an InternalFault
func (c *Coordinator) execute(j *job) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = &InternalFault{
				Handle: j.handle,
				Kind:   j.kind,
				Value:  r,
				Stack:  debug.Stack(),
			}
		}
	}()

	return j.task.Run(j.ctx, &reporter{c: c, j: j})
}

// transitionLocked moves j to state to, refusing edges the state machine
// does not allow.
func (c *Coordinator) transitionLocked(j *job, to State) bool {
	if !IsValidTransition(j.state, to) {
		c.logger.Error("invalid task transition",
			"error", &TransitionError{Handle: j.handle, From: j.state, To: to})
		return false
	}
	j.state = to
	return true
}

// settleLocked moves j to a terminal state and records it for retention
func (c *Coordinator) settleLocked(j *job, to State, err error) {
	if !c.transitionLocked(j, to) {
		return
	}
	j.err = err
	j.finished = time.Now()
	c.metrics.recordTerminal(to)

	c.finished = append(c.finished, j.handle)
	for len(c.finished) > c.retainFinished {
		delete(c.jobs, c.finished[0])
		c.finished[0] = ""
		c.finished = c.finished[1:]
	}
}

func (c *Coordinator) removeQueuedLocked(j *job) {
	for i, q := range c.queue {
		if q == j {
			copy(c.queue[i:], c.queue[i+1:])
			c.queue[len(c.queue)-1] = nil
			c.queue = c.queue[:len(c.queue)-1]
			return
		}
	}
}

func (c *Coordinator) publish(j *job, e events.Event) {
	e.Kind = j.kind
	c.events.Publish(e)
}

// reporter forwards a running task's progress and status to the queue
type reporter struct {
	c *Coordinator
	j *job
}

func (r *reporter) Progress(percent int) {
	percent = min(max(percent, 0), 100)

	r.c.mu.Lock()
	if r.j.state != StateRunning || r.j.abandoned || percent <= r.j.lastReported {
		r.c.mu.Unlock()
		return
	}
	r.j.lastReported = percent
	r.j.progress = percent
	r.c.mu.Unlock()

	r.c.publish(r.j, events.Progress(r.j.handle, percent))
}

func (r *reporter) Status(message string) {
	r.c.mu.Lock()
	if r.j.state != StateRunning || r.j.abandoned {
		r.c.mu.Unlock()
		return
	}
	r.j.message = message
	r.c.mu.Unlock()

	r.c.publish(r.j, events.Status(r.j.handle, message))
}
