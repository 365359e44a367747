package processor

import (
	"context"

	"github.com/zjrosen/namebridge/internal/orchestration/command"
)

// CommandHandler processes a specific command type. Handlers run on the
// processor goroutine, one at a time, so they may read and mutate the
// correlation stores without further locking.
type CommandHandler interface {
	// Handle executes the command and returns its result. A returned error is
	// wrapped into a failed CommandResult by the processor.
	Handle(ctx context.Context, cmd command.Command) (*command.CommandResult, error)
}

// HandlerFunc adapts an ordinary function to CommandHandler.
type HandlerFunc func(ctx context.Context, cmd command.Command) (*command.CommandResult, error)

// Handle calls f(ctx, cmd).
func (f HandlerFunc) Handle(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	return f(ctx, cmd)
}
