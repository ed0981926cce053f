// Package history keeps a bounded undo/redo stack of commands.
package history

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultMaxDepth is the number of applied commands kept for undo
const DefaultMaxDepth = 50

// History is an ordered list of commands with a cursor. Commands before the
// cursor are applied and can be undone; commands at and after it were
// undone and can be redone.
//
// A History is not safe for concurrent use; it belongs to the goroutine
// that drives the UI.
type History struct {
	commands []*Command
	cursor   int
	maxDepth int
	logger   *slog.Logger
}

// Option configures a History
type Option func(*History)

// WithMaxDepth sets how many applied commands are kept
func WithMaxDepth(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxDepth = n
		}
	}
}

// WithLogger sets the history's logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates an empty history
func New(opts ...Option) *History {
	h := &History{
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute applies cmd and, on success, drops the redo tail and appends
// cmd. On failure the history is left as it was and the error returned.
func (h *History) Execute(ctx context.Context, cmd *Command) error {
	if cmd == nil {
		return ErrNilCommand
	}
	if err := cmd.Apply(ctx); err != nil {
		return fmt.Errorf("%s: %w", cmd.Label, err)
	}
	h.push(cmd)
	return nil
}

// Record appends a command that was already applied elsewhere, typically
// by a background task. The redo tail is dropped as for Execute.
func (h *History) Record(cmd *Command) error {
	if cmd == nil {
		return ErrNilCommand
	}
	h.push(cmd)
	return nil
}

func (h *History) push(cmd *Command) {
	h.commands = append(h.commands[:h.cursor], cmd)
	h.cursor++

	if len(h.commands) > h.maxDepth {
		evicted := h.commands[0]
		h.commands[0] = nil
		h.commands = h.commands[1:]
		h.cursor--
		h.logger.Debug("history full, oldest command evicted", "label", evicted.Label)
	}
}

// Undo reverts the command before the cursor and returns its label. The
// cursor moves only if the revert succeeds.
func (h *History) Undo(ctx context.Context) (string, error) {
	if !h.CanUndo() {
		return "", ErrNothingToUndo
	}
	cmd := h.commands[h.cursor-1]
	if err := cmd.Revert(ctx); err != nil {
		return "", fmt.Errorf("undo %s: %w", cmd.Label, err)
	}
	h.cursor--
	return cmd.Label, nil
}

// Redo re-applies the command at the cursor and returns its label. The
// cursor moves only if the apply succeeds.
func (h *History) Redo(ctx context.Context) (string, error) {
	if !h.CanRedo() {
		return "", ErrNothingToRedo
	}
	cmd := h.commands[h.cursor]
	if err := cmd.Apply(ctx); err != nil {
		return "", fmt.Errorf("redo %s: %w", cmd.Label, err)
	}
	h.cursor++
	return cmd.Label, nil
}

// CanUndo reports whether a command is available to undo
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether an undone command is available to redo
func (h *History) CanRedo() bool {
	return h.cursor < len(h.commands)
}

// PeekUndoLabel returns the label Undo would revert
func (h *History) PeekUndoLabel() (string, bool) {
	if !h.CanUndo() {
		return "", false
	}
	return h.commands[h.cursor-1].Label, true
}

// PeekRedoLabel returns the label Redo would re-apply
func (h *History) PeekRedoLabel() (string, bool) {
	if !h.CanRedo() {
		return "", false
	}
	return h.commands[h.cursor].Label, true
}

// PendingUndo returns the command Undo would revert, for callers that run
// the revert on another goroutine and report back with MarkUndone
func (h *History) PendingUndo() (*Command, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	return h.commands[h.cursor-1], true
}

// PendingRedo returns the command Redo would re-apply
func (h *History) PendingRedo() (*Command, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	return h.commands[h.cursor], true
}

// MarkUndone moves the cursor back over cmd after its Revert succeeded
// elsewhere
func (h *History) MarkUndone(cmd *Command) error {
	next, ok := h.PendingUndo()
	if !ok || next != cmd {
		return ErrStaleCommand
	}
	h.cursor--
	return nil
}

// MarkRedone moves the cursor forward over cmd after its Apply succeeded
// elsewhere
func (h *History) MarkRedone(cmd *Command) error {
	next, ok := h.PendingRedo()
	if !ok || next != cmd {
		return ErrStaleCommand
	}
	h.cursor++
	return nil
}

// UndoText is the menu text for the undo action, e.g. "Undo: Edit nch"
func (h *History) UndoText() string {
	if label, ok := h.PeekUndoLabel(); ok {
		return "Undo: " + label
	}
	return "Undo"
}

// RedoText is the menu text for the redo action
func (h *History) RedoText() string {
	if label, ok := h.PeekRedoLabel(); ok {
		return "Redo: " + label
	}
	return "Redo"
}

// Clear forgets every command. Use it after the dataset changed outside the
// history, such as a reload or a bulk delete.
func (h *History) Clear() {
	clear(h.commands)
	h.commands = h.commands[:0]
	h.cursor = 0
}

// Len returns the number of commands, applied and undone
func (h *History) Len() int {
	return len(h.commands)
}

// Cursor returns the number of applied commands
func (h *History) Cursor() int {
	return h.cursor
}

// MaxDepth returns the configured capacity
func (h *History) MaxDepth() int {
	return h.maxDepth
}
