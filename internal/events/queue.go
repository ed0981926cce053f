package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultCapacity is the number of pending events before progress is dropped
const DefaultCapacity = 256

// Queue is a bounded FIFO of events drained into a channel by a pump
// goroutine. Publish never blocks. When the queue is full the oldest
// pending progress event is discarded to make room; other events are never
// discarded and may push the queue past its capacity.
type Queue struct {
	mu       sync.Mutex
	pending  []Event
	capacity int
	seq      int64
	closed   bool // Publish refuses events once set

	wake chan struct{}
	out  chan Event

	dropped int64
	onDrop  func(Event)
	logger  *slog.Logger

	// Cancelled when the consumer stops reading
	ctx    context.Context
	cancel context.CancelFunc

	pumpDone chan struct{}
}

// QueueOption configures a Queue
type QueueOption func(*Queue)

// WithCapacity sets the pending-event bound
func WithCapacity(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// WithDropHook is called, outside the queue lock, for every discarded event
func WithDropHook(fn func(Event)) QueueOption {
	return func(q *Queue) {
		q.onDrop = fn
	}
}

// WithLogger sets the queue's logger
func WithLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// NewQueue creates a queue and starts its pump goroutine
func NewQueue(opts ...QueueOption) *Queue {
	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		capacity: DefaultCapacity,
		wake:     make(chan struct{}, 1),
		out:      make(chan Event),
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		pumpDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}

	go q.pump()

	return q
}

// Publish stamps e with a sequence number and timestamp and enqueues it.
// It returns false once the queue is closed, or when e is a progress event
// that had to be discarded immediately.
func (q *Queue) Publish(e Event) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}

	q.seq++
	e.SequenceID = q.seq
	e.Timestamp = time.Now()

	var victim *Event
	accepted := true
	if len(q.pending) >= q.capacity {
		victim = q.evictProgressLocked()
		if victim == nil && e.Droppable() {
			// Nothing older to sacrifice; the new progress goes instead
			victim, accepted = &e, false
		}
	}

	if accepted {
		q.pending = append(q.pending, e)
	}
	if victim != nil {
		q.dropped++
	}
	q.mu.Unlock()

	if victim != nil {
		q.logger.Debug("progress event dropped",
			"handle", victim.Handle,
			"progress", victim.Progress,
			"sequence", victim.SequenceID)
		if q.onDrop != nil {
			q.onDrop(*victim)
		}
	}

	if accepted {
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}

	return accepted
}

// evictProgressLocked removes and returns the oldest pending progress event
func (q *Queue) evictProgressLocked() *Event {
	for i, pe := range q.pending {
		if !pe.Droppable() {
			continue
		}
		victim := pe
		copy(q.pending[i:], q.pending[i+1:])
		q.pending[len(q.pending)-1] = Event{}
		q.pending = q.pending[:len(q.pending)-1]
		return &victim
	}
	return nil
}

// Events returns the ordered stream. It is closed after Close once every
// pending event was delivered, or as soon as Stop is called.
func (q *Queue) Events() <-chan Event {
	return q.out
}

// Close refuses further events. Pending events are still delivered.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Stop closes the queue and discards whatever the consumer has not read
func (q *Queue) Stop() {
	q.Close()
	q.cancel()
}

// Done is closed when the pump has exited and the event channel is closed
func (q *Queue) Done() <-chan struct{} {
	return q.pumpDone
}

// Len returns the number of events waiting for the consumer
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Dropped returns the number of progress events discarded so far
func (q *Queue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// pump moves events from the pending slice into the out channel one at a
// time, preserving publish order.
func (q *Queue) pump() {
	defer close(q.pumpDone)
	defer close(q.out)

	for {
		q.mu.Lock()
		for len(q.pending) == 0 {
			if q.closed {
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()

			select {
			case <-q.wake:
			case <-q.ctx.Done():
				return
			}

			q.mu.Lock()
		}

		next := q.pending[0]
		q.pending[0] = Event{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		select {
		case q.out <- next:
		case <-q.ctx.Done():
			return
		}
	}
}
