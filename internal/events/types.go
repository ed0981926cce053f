// Package events carries task notifications from the worker pool to the
// interactive goroutine.
package events

import "time"

// EventType indicates what kind of notification an event carries
type EventType string

const (
	EventProgress  EventType = "progress"
	EventStatus    EventType = "status"
	EventError     EventType = "error"
	EventResult    EventType = "result"
	EventCancelled EventType = "cancelled"
)

// Handle identifies a submitted task
type Handle string

// Event is a single notification about one task
type Event struct {
	Type   EventType
	Handle Handle
	Kind   string // task kind, for display and logs

	Progress int    // EventProgress: 0-100
	Message  string // EventStatus
	Err      error  // EventError
	Payload  any    // EventResult

	Timestamp  time.Time // When the event was published
	SequenceID int64     // Monotonically increasing across all handles
}

// Terminal reports whether e ends its task's event stream. Every handle
// gets exactly one terminal event.
func (e Event) Terminal() bool {
	switch e.Type {
	case EventResult, EventError, EventCancelled:
		return true
	}
	return false
}

// Droppable reports whether the queue may discard e under pressure.
// Only progress is advisory.
func (e Event) Droppable() bool {
	return e.Type == EventProgress
}

// Progress builds a progress event
func Progress(h Handle, percent int) Event {
	return Event{Type: EventProgress, Handle: h, Progress: percent}
}

// Status builds a status message event
func Status(h Handle, message string) Event {
	return Event{Type: EventStatus, Handle: h, Message: message}
}

// Failure builds a terminal error event
func Failure(h Handle, err error) Event {
	return Event{Type: EventError, Handle: h, Err: err}
}

// Result builds a terminal result event
func Result(h Handle, payload any) Event {
	return Event{Type: EventResult, Handle: h, Payload: payload}
}

// Cancelled builds the terminal event of a cancelled task
func Cancelled(h Handle) Event {
	return Event{Type: EventCancelled, Handle: h}
}
