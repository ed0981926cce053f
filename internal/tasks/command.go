package tasks

import (
	"context"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/history"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

// Direction selects which action of a command RunCommand runs
type Direction int

const (
	Forward Direction = iota
	Inverse
)

// String returns the direction's name
func (d Direction) String() string {
	if d == Inverse {
		return "inverse"
	}
	return "forward"
}

// CommandResult is the result of RunCommand. The owner of the history
// records Command once it sees this result for a Forward run.
type CommandResult struct {
	Command   *history.Command
	Direction Direction
}

// RunCommand runs one action of cmd off the interactive goroutine.
// Polls: before the action; the action itself runs in one transaction.
func RunCommand(cmd *history.Command, direction Direction) worker.Task {
	return worker.Func(KindRunCommand, func(ctx context.Context, r worker.Reporter) (any, error) {
		if cmd == nil {
			return nil, history.ErrNilCommand
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.Status(cmd.Label)

		run := cmd.Apply
		if direction == Inverse {
			run = cmd.Revert
		}
		if err := run(ctx); err != nil {
			return nil, fmt.Errorf("%s (%s): %w", cmd.Label, direction, err)
		}

		r.Progress(100)
		return CommandResult{Command: cmd, Direction: direction}, nil
	})
}
