// Package processor provides the FIFO command processor of the orchestration
// engine. A single goroutine executes commands in submission order, which is
// what lets every saga handler touch shared state without locks.
package processor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
	"github.com/zjrosen/namebridge/internal/pubsub"
)

// DefaultQueueCapacity is the default buffer size for the command queue.
const DefaultQueueCapacity = 1000

// ErrUnknownCommandType is returned when no handler is registered for a command type.
var ErrUnknownCommandType = types.ErrUnknownCommandType

// Option configures the CommandProcessor.
type Option func(*CommandProcessor)

// WithQueueCapacity sets the command queue buffer capacity.
func WithQueueCapacity(capacity int) Option {
	return func(p *CommandProcessor) {
		p.queueCapacity = capacity
	}
}

// WithEventBus sets the event bus for publishing command results.
func WithEventBus(bus *pubsub.Broker[any]) Option {
	return func(p *CommandProcessor) {
		p.eventBus = bus
	}
}

// WithMiddleware adds middleware to be applied to all handlers.
// Middleware is applied in order: first middleware wraps outermost.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(p *CommandProcessor) {
		p.middlewares = append(p.middlewares, middlewares...)
	}
}

// CommandProcessor processes commands sequentially in FIFO order.
type CommandProcessor struct {
	// Command queue (buffered channel)
	queue         chan queueItem
	queueCapacity int
	sendMu        sync.RWMutex // Held for every send; Drain takes it exclusively to close the queue

	// Handler registry
	handlers map[command.CommandType]CommandHandler

	// Middleware chain applied to all handlers
	middlewares []Middleware

	// Event publishing
	eventBus *pubsub.Broker[any]

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// State tracking
	running  atomic.Bool
	started  atomic.Bool
	readyCh  chan struct{} // Closed when processor is ready to accept commands
	readyMu  sync.Mutex    // Protects readyCh initialization
	readySet bool          // True after readyCh is closed

	// Counters
	processedCount atomic.Int64
	errorCount     atomic.Int64
	droppedCount   atomic.Int64
}

// queueItem wraps a command with an optional result channel for SubmitAndWait.
type queueItem struct {
	cmd      command.Command
	resultCh chan *command.CommandResult // nil for fire-and-forget Submit
}

// NewCommandProcessor creates a new CommandProcessor with the given options.
func NewCommandProcessor(opts ...Option) *CommandProcessor {
	p := &CommandProcessor{
		queueCapacity: DefaultQueueCapacity,
		handlers:      make(map[command.CommandType]CommandHandler),
		readyCh:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// RegisterHandler registers a handler for a command type.
// Must be called before Run() is called.
// The handler is wrapped with all configured middleware.
func (p *CommandProcessor) RegisterHandler(cmdType command.CommandType, handler CommandHandler) {
	p.handlers[cmdType] = ChainMiddleware(handler, p.middlewares...)
}

// HasHandler reports whether cmdType is routable.
func (p *CommandProcessor) HasHandler(cmdType command.CommandType) bool {
	_, ok := p.handlers[cmdType]
	return ok
}

// Run starts the command processing loop.
// This method blocks until the context is cancelled, Stop() or Drain() is called.
// Run can only be called once - subsequent calls return immediately.
func (p *CommandProcessor) Run(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.queue = make(chan queueItem, p.queueCapacity)

	// Add to wait group BEFORE setting running to avoid race with Drain()
	p.wg.Add(1)
	p.running.Store(true)

	p.readyMu.Lock()
	if !p.readySet {
		close(p.readyCh)
		p.readySet = true
	}
	p.readyMu.Unlock()

	defer func() {
		p.running.Store(false)
		p.wg.Done()
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		case item, ok := <-p.queue:
			if !ok {
				// Queue closed during Drain
				return
			}
			p.processItem(item)
		}
	}
}

// WaitForReady blocks until the processor is ready to accept commands.
func (p *CommandProcessor) WaitForReady(ctx context.Context) error {
	select {
	case <-p.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit adds a command to the queue for asynchronous processing.
// Returns ErrProcessorNotRunning before Run or after Drain, and
// ErrQueueFull if the queue is at capacity.
func (p *CommandProcessor) Submit(cmd command.Command) error {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()

	if !p.running.Load() {
		return types.ErrProcessorNotRunning
	}

	select {
	case p.queue <- queueItem{cmd: cmd}:
		return nil
	default:
		return command.ErrQueueFull
	}
}

// SubmitAndWait adds a command to the queue and waits for the result.
// Respects context cancellation.
func (p *CommandProcessor) SubmitAndWait(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	resultCh := make(chan *command.CommandResult, 1)
	if err := p.trySend(ctx, queueItem{cmd: cmd, resultCh: resultCh}); err != nil {
		return nil, err
	}

	select {
	case result := <-resultCh:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		return nil, context.Canceled
	}
}

func (p *CommandProcessor) trySend(ctx context.Context, item queueItem) error {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()

	if !p.running.Load() {
		return types.ErrProcessorNotRunning
	}
	select {
	case p.queue <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return command.ErrQueueFull
	}
}

// Stop cancels the processing context and waits for shutdown.
// Any pending commands in the queue are NOT processed.
func (p *CommandProcessor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Drain processes all remaining commands in the queue before stopping.
// Follow-ups produced while draining are dropped.
func (p *CommandProcessor) Drain() {
	p.sendMu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.sendMu.Unlock()
		return
	}
	close(p.queue)
	p.sendMu.Unlock()

	p.wg.Wait()
}

// IsRunning returns true if the processor is currently accepting commands.
func (p *CommandProcessor) IsRunning() bool {
	return p.running.Load()
}

// ProcessedCount returns the total number of commands processed.
func (p *CommandProcessor) ProcessedCount() int64 {
	return p.processedCount.Load()
}

// ErrorCount returns the total number of commands that resulted in errors.
func (p *CommandProcessor) ErrorCount() int64 {
	return p.errorCount.Load()
}

// DroppedFollowUps returns how many follow-up commands were lost to a full
// queue or a drain in progress.
func (p *CommandProcessor) DroppedFollowUps() int64 {
	return p.droppedCount.Load()
}

// QueueLength returns the current number of pending commands.
func (p *CommandProcessor) QueueLength() int {
	if p.queue == nil {
		return 0
	}
	return len(p.queue)
}

func (p *CommandProcessor) processItem(item queueItem) {
	result := p.processCommand(item.cmd)

	p.processedCount.Add(1)
	if !result.Success {
		p.errorCount.Add(1)
	}

	if item.resultCh != nil {
		item.resultCh <- result
		close(item.resultCh)
	}
}

// processCommand runs validate, route, handle, publish, enqueue follow-ups.
// It never returns nil; errors are carried in the result.
func (p *CommandProcessor) processCommand(cmd command.Command) *command.CommandResult {
	if err := cmd.Validate(); err != nil {
		p.emitErrorEvent(cmd, err)
		return &command.CommandResult{Success: false, Error: err}
	}

	handler, ok := p.handlers[cmd.Type()]
	if !ok {
		p.emitErrorEvent(cmd, ErrUnknownCommandType)
		return &command.CommandResult{Success: false, Error: ErrUnknownCommandType}
	}

	result, err := handler.Handle(p.ctx, cmd)
	if err != nil {
		p.emitErrorEvent(cmd, err)
		return &command.CommandResult{Success: false, Error: err}
	}
	if result == nil {
		result = &command.CommandResult{Success: true}
	}

	if len(result.Events) > 0 {
		p.emitEvents(result.Events)
	}

	for _, followUp := range result.FollowUp {
		p.enqueueFollowUp(cmd, followUp)
	}

	return result
}

// enqueueFollowUp never blocks: the processor goroutine is the only reader
// of the queue, so a blocking send on a full queue would deadlock.
func (p *CommandProcessor) enqueueFollowUp(parent, followUp command.Command) {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()

	if !p.running.Load() {
		p.droppedCount.Add(1)
		log.Warn(log.CatCommands, "follow-up dropped during drain",
			"parent_type", parent.Type().String(),
			"follow_up_type", followUp.Type().String())
		return
	}
	select {
	case p.queue <- queueItem{cmd: followUp}:
	default:
		p.droppedCount.Add(1)
		log.Error(log.CatCommands, "follow-up dropped, queue full",
			"parent_type", parent.Type().String(),
			"follow_up_type", followUp.Type().String(),
			"capacity", p.queueCapacity)
	}
}

func (p *CommandProcessor) emitEvents(events []any) {
	if p.eventBus == nil {
		return
	}
	for _, event := range events {
		p.eventBus.Publish(pubsub.EffectEvent, event)
	}
}

func (p *CommandProcessor) emitErrorEvent(cmd command.Command, err error) {
	if p.eventBus == nil {
		return
	}
	p.eventBus.Publish(pubsub.FailureEvent, CommandErrorEvent{
		CommandID:   cmd.ID(),
		CommandType: cmd.Type(),
		Error:       err,
	})
}
