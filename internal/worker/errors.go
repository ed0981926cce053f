package worker

import (
	"errors"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/events"
)

var (
	// ErrCoordinatorClosed is returned by Submit once Close has begun
	ErrCoordinatorClosed = errors.New("coordinator closed")

	// ErrNilTask is returned by Submit when given a nil task
	ErrNilTask = errors.New("nil task")

	// ErrShutdownTimeout is returned by Close when tasks had to be abandoned
	ErrShutdownTimeout = errors.New("shutdown timeout: tasks abandoned")
)

// InternalFault reports a panic recovered from a task. The coordinator
// keeps running after a fault.
type InternalFault struct {
	Handle events.Handle
	Kind   string
	Value  any
	Stack  []byte
}

// Error implements the error interface.
func (f *InternalFault) Error() string {
	return fmt.Sprintf("internal fault in %s task %s: %v", f.Kind, f.Handle, f.Value)
}

// Unwrap exposes the panic value when it was an error.
func (f *InternalFault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// TransitionError reports an attempt to move a task along an edge the
// state machine does not allow.
type TransitionError struct {
	Handle events.Handle
	From   State
	To     State
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("task %s: invalid transition %s -> %s", e.Handle, e.From, e.To)
}
