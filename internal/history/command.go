package history

import (
	"context"

	"github.com/google/uuid"
)

// Action changes the dataset. It must leave the store untouched when it
// returns an error.
type Action func(ctx context.Context) error

// Command is a reversible mutation. Apply and Revert close over the data
// captured when the command was built, so Revert(Apply(state)) restores
// exactly the fields Apply touched.
type Command struct {
	ID    string
	Label string

	apply  Action
	revert Action
}

// NewCommand builds a command from its forward and inverse actions
func NewCommand(label string, apply, revert Action) *Command {
	return &Command{
		ID:     uuid.NewString(),
		Label:  label,
		apply:  apply,
		revert: revert,
	}
}

// Apply runs the forward action
func (c *Command) Apply(ctx context.Context) error {
	return c.apply(ctx)
}

// Revert runs the inverse action
func (c *Command) Revert(ctx context.Context) error {
	return c.revert(ctx)
}
