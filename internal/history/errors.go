package history

import "errors"

var (
	// ErrNothingToUndo is returned by Undo when the cursor is at the start
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo when the cursor is at the end
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrNilCommand is returned when a nil command is executed or recorded
	ErrNilCommand = errors.New("nil command")

	// ErrStaleCommand is returned by MarkUndone and MarkRedone when the
	// command is no longer next in line
	ErrStaleCommand = errors.New("command is not next in history")
)
