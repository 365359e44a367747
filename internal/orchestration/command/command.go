// Package command provides the foundational types for the orchestration engine.
// This package defines the Command interface, CommandType constants, and the
// BaseCommand struct that every command embeds.
package command

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Command represents an explicit intent entering the orchestration engine.
// All commands must implement this interface to be processed by the FIFO processor.
type Command interface {
	// ID returns unique command identifier for tracing/correlation
	ID() string
	// Type returns the command type for routing to handlers
	Type() CommandType
	// Validate checks command preconditions before execution
	Validate() error
	// Priority returns execution priority (0=normal, 1=urgent)
	Priority() int
	// CreatedAt returns when command was created
	CreatedAt() time.Time
}

// CommandType identifies the kind of command for handler routing.
type CommandType string

const (
	// Initiating Commands

	// CmdRequestRegistration starts a name acquisition: price, funding analysis, selection prompt.
	CmdRequestRegistration CommandType = "request_registration"
	// CmdAssignSubdomain starts a subdomain assignment under a parent the requester owns.
	CmdAssignSubdomain CommandType = "assign_subdomain"

	// Dispatch Commands

	// CmdHandleResponse routes an asynchronous confirmation or selection to its saga.
	CmdHandleResponse CommandType = "handle_response"

	// Saga Step Commands

	// CmdBeginCommit issues the commit transaction of the commit-reveal protocol.
	CmdBeginCommit CommandType = "begin_commit"
	// CmdRevealCommitment issues the register transaction once the commitment has aged.
	CmdRevealCommitment CommandType = "reveal_commitment"
	// CmdBeginBridge prepares and issues a bridge deposit from an externally-owned wallet.
	CmdBeginBridge CommandType = "begin_bridge"
	// CmdPollBridge checks whether a submitted deposit has been filled.
	CmdPollBridge CommandType = "poll_bridge"
	// CmdBeginTransfer issues the smart-wallet to EOA transfer that precedes a bridge.
	CmdBeginTransfer CommandType = "begin_transfer"

	// Housekeeping Commands

	// CmdSweepStores evicts expired correlation records.
	CmdSweepStores CommandType = "sweep_stores"
	// CmdReloadSettings swaps the engine tunables after a config change.
	CmdReloadSettings CommandType = "reload_settings"
	// CmdNotifyUser emits a plain notice to a requester.
	CmdNotifyUser CommandType = "notify_user"
)

// String returns the string representation of the CommandType.
func (ct CommandType) String() string {
	return string(ct)
}

// CommandSource identifies where the command originated.
type CommandSource string

const (
	// SourceUser indicates the command came from a chat user's request.
	SourceUser CommandSource = "user"
	// SourceResponse indicates the command carries a signer or form response.
	SourceResponse CommandSource = "response"
	// SourceInternal indicates the command was system-generated (follow-ups, sweeps).
	SourceInternal CommandSource = "internal"
	// SourceTimer indicates the command was submitted by a scheduled continuation.
	SourceTimer CommandSource = "timer"
	// SourceConfig indicates the command was triggered by a config file change.
	SourceConfig CommandSource = "config"
)

// String returns the string representation of the CommandSource.
func (cs CommandSource) String() string {
	return string(cs)
}

// BaseCommand provides common fields for all commands.
// Concrete command types should embed this struct.
type BaseCommand struct {
	id          string
	cmdType     CommandType
	priority    int
	createdAt   time.Time
	source      CommandSource
	traceID     string
	spanContext trace.SpanContext // For OpenTelemetry trace propagation
}

// NewBaseCommand creates a BaseCommand with a generated UUID and current timestamp.
func NewBaseCommand(cmdType CommandType, source CommandSource) BaseCommand {
	return BaseCommand{
		id:        uuid.New().String(),
		cmdType:   cmdType,
		createdAt: time.Now(),
		source:    source,
	}
}

// ID returns the unique command identifier.
func (b *BaseCommand) ID() string {
	return b.id
}

// Type returns the command type for handler routing.
func (b *BaseCommand) Type() CommandType {
	return b.cmdType
}

// Priority returns the execution priority (0=normal, 1=urgent).
func (b *BaseCommand) Priority() int {
	return b.priority
}

// CreatedAt returns when the command was created.
func (b *BaseCommand) CreatedAt() time.Time {
	return b.createdAt
}

// Source returns the origin of this command.
func (b *BaseCommand) Source() CommandSource {
	return b.source
}

// TraceID returns the correlation ID for related commands.
// If a valid SpanContext is set, the trace ID is derived from it.
func (b *BaseCommand) TraceID() string {
	if b.spanContext.IsValid() {
		return b.spanContext.TraceID().String()
	}
	return b.traceID
}

// SetTraceID sets the correlation ID for command tracing.
func (b *BaseCommand) SetTraceID(traceID string) {
	b.traceID = traceID
}

// SpanContext returns the OpenTelemetry span context for trace propagation.
func (b *BaseCommand) SpanContext() trace.SpanContext {
	return b.spanContext
}

// SetSpanContext sets the OpenTelemetry span context for trace propagation.
func (b *BaseCommand) SetSpanContext(sc trace.SpanContext) {
	b.spanContext = sc
}

// SetPriority sets the execution priority.
func (b *BaseCommand) SetPriority(priority int) {
	b.priority = priority
}

// Validate is a no-op for BaseCommand. Concrete commands should override this.
func (b *BaseCommand) Validate() error {
	return nil
}

// CommandResult contains the outcome of command execution.
type CommandResult struct {
	// Success indicates whether the command executed successfully.
	Success bool
	// Events contains outbound effects to publish (action requests, notices).
	Events []any
	// FollowUp contains commands to enqueue after the current one.
	FollowUp []Command
	// Error contains the error if Success is false.
	Error error
	// Data contains optional result data for the caller.
	Data any
}

// ErrQueueFull is returned when the command queue has reached capacity.
var ErrQueueFull = errors.New("command queue is full")
