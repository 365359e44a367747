// Package engine assembles the orchestration infrastructure: the event
// broker, the command processor and its middleware chain, the continuation
// scheduler, the correlation stores and every saga handler.
//
// The returned Engine must be started with Start before commands are
// submitted and stopped with Drain when shutting down.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/namebridge/internal/flags"
	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/handler"
	"github.com/zjrosen/namebridge/internal/orchestration/metrics"
	"github.com/zjrosen/namebridge/internal/orchestration/processor"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
	"github.com/zjrosen/namebridge/internal/orchestration/scheduler"
	"github.com/zjrosen/namebridge/internal/orchestration/tracing"
	"github.com/zjrosen/namebridge/internal/pubsub"
)

const (
	// DefaultSweepInterval is used when Config.SweepInterval is zero.
	DefaultSweepInterval = time.Minute
	// DefaultDedupTTL drops a command identical to one seen this recently,
	// such as a response redelivered by the bus.
	DefaultDedupTTL = 5 * time.Second
)

// Sink delivers outbound effects to the outside world; natsbus.Bus is one.
// Delivery errors are logged and not retried.
type Sink interface {
	DeliverAction(ctx context.Context, action events.ActionRequest) error
	DeliverNotice(ctx context.Context, notice events.Notice) error
}

// eventBusAdapter adapts pubsub.Broker to processor.EventPublisher, which
// takes a plain string event type.
type eventBusAdapter struct {
	broker *pubsub.Broker[any]
}

func (a *eventBusAdapter) Publish(eventType string, payload any) {
	a.broker.Publish(pubsub.EventType(eventType), payload)
}

// Config holds everything the engine needs from the outside.
type Config struct {
	Chain    handler.Collaborators
	Networks handler.Networks
	Settings handler.Settings
	Tunables command.Tunables
	TTLs     repository.TTLs
	Flags    *flags.Registry

	// SweepInterval is how often expired correlation records are evicted.
	SweepInterval time.Duration
	// QueueCapacity defaults to processor.DefaultQueueCapacity.
	QueueCapacity int
	// DedupTTL suppresses identical commands submitted within the window.
	// Zero disables deduplication.
	DedupTTL time.Duration

	// Optional.
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
	Clock   scheduler.Clock
	Sinks   []Sink
}

// Validate checks that all required configuration is provided.
func (c *Config) Validate() error {
	if c.Chain.Names == nil {
		return fmt.Errorf("name oracle is required")
	}
	if c.Chain.Balances == nil {
		return fmt.Errorf("balance oracle is required")
	}
	if c.Chain.Kinds == nil {
		return fmt.Errorf("account kind oracle is required")
	}
	if c.Chain.Bridge == nil {
		return fmt.Errorf("fee quoter is required")
	}
	if c.Chain.Wallets == nil {
		return fmt.Errorf("wallet linker is required")
	}
	if err := c.Networks.Mainnet.Validate(); err != nil {
		return fmt.Errorf("mainnet profile: %w", err)
	}
	if err := c.Networks.Testnet.Validate(); err != nil {
		return fmt.Errorf("testnet profile: %w", err)
	}
	if c.Settings.MinCommitmentAge <= 0 || c.Settings.MaxCommitmentAge <= c.Settings.MinCommitmentAge {
		return fmt.Errorf("commitment ages must satisfy 0 < min < max")
	}
	if c.Settings.PollInterval <= 0 {
		return fmt.Errorf("bridge poll interval must be positive")
	}
	if c.Settings.MaxPollAttempts <= 0 {
		return fmt.Errorf("bridge max poll attempts must be positive")
	}
	if err := command.NewReloadSettingsCommand(command.SourceConfig, c.Tunables).Validate(); err != nil {
		return fmt.Errorf("tunables: %w", err)
	}
	return nil
}

// Engine holds the running orchestration components.
type Engine struct {
	Processor *processor.CommandProcessor
	Scheduler *scheduler.Scheduler
	EventBus  *pubsub.Broker[any]
	Stores    *repository.Stores
	Tuning    *handler.Tuning

	metrics       *metrics.Metrics
	dedup         *processor.DeduplicationMiddleware
	sinks         []Sink
	sweepInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates all orchestration components and registers every handler.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	eventBus := pubsub.NewBrokerWithBuffer[any](256)

	middlewares := []processor.Middleware{
		processor.NewRecoveryMiddleware(),
		tracing.NewTracingMiddleware(tracing.TracingMiddlewareConfig{Tracer: cfg.Tracer}),
		processor.NewLoggingMiddleware(),
		processor.NewCommandLogMiddleware(processor.CommandLogMiddlewareConfig{
			EventBus: &eventBusAdapter{broker: eventBus},
		}),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, processor.NewMetricsMiddleware(cfg.Metrics))
	}
	var dedup *processor.DeduplicationMiddleware
	if cfg.DedupTTL > 0 {
		dedup = processor.NewDeduplicationMiddleware(processor.DeduplicationMiddlewareConfig{TTL: cfg.DedupTTL})
		middlewares = append(middlewares, dedup.Middleware())
	}
	middlewares = append(middlewares, processor.NewTimeoutMiddleware(processor.TimeoutMiddlewareConfig{
		WarningThreshold: 2 * time.Second,
	}))

	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = processor.DefaultQueueCapacity
	}
	cmdProcessor := processor.NewCommandProcessor(
		processor.WithQueueCapacity(capacity),
		processor.WithEventBus(eventBus),
		processor.WithMiddleware(middlewares...),
	)

	var schedOpts []scheduler.Option
	if cfg.Clock != nil {
		schedOpts = append(schedOpts, scheduler.WithClock(cfg.Clock))
	}
	sched := scheduler.New(cmdProcessor, schedOpts...)

	deps := &handler.Deps{
		Stores:    repository.NewStores(cfg.TTLs),
		Chain:     cfg.Chain,
		Networks:  cfg.Networks,
		Scheduler: sched,
		Flags:     cfg.Flags,
		Settings:  cfg.Settings,
		Tuning:    handler.NewTuning(cfg.Tunables),
	}

	var observer handler.StoreObserver
	if cfg.Metrics != nil {
		observer = cfg.Metrics
	}
	registerHandlers(cmdProcessor, deps, observer)

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Engine{
		Processor:     cmdProcessor,
		Scheduler:     sched,
		EventBus:      eventBus,
		Stores:        deps.Stores,
		Tuning:        deps.Tuning,
		metrics:       cfg.Metrics,
		dedup:         dedup,
		sinks:         cfg.Sinks,
		sweepInterval: interval,
	}, nil
}

func registerHandlers(p *processor.CommandProcessor, deps *handler.Deps, observer handler.StoreObserver) {
	// Registration saga
	p.RegisterHandler(command.CmdRequestRegistration, handler.NewRequestRegistrationHandler(deps))
	p.RegisterHandler(command.CmdBeginCommit, handler.NewBeginCommitHandler(deps))
	p.RegisterHandler(command.CmdRevealCommitment, handler.NewRevealCommitmentHandler(deps))

	// Bridge and transfer
	p.RegisterHandler(command.CmdBeginBridge, handler.NewBeginBridgeHandler(deps))
	p.RegisterHandler(command.CmdPollBridge, handler.NewPollBridgeHandler(deps))
	p.RegisterHandler(command.CmdBeginTransfer, handler.NewBeginTransferHandler(deps))

	// Subdomains
	p.RegisterHandler(command.CmdAssignSubdomain, handler.NewAssignSubdomainHandler(deps))

	// Responses from the signing collaborator
	p.RegisterHandler(command.CmdHandleResponse, handler.NewResponseHandler(deps))

	// Housekeeping
	p.RegisterHandler(command.CmdSweepStores, handler.NewSweepStoresHandler(deps, observer))
	p.RegisterHandler(command.CmdReloadSettings, handler.NewReloadSettingsHandler(deps))
	p.RegisterHandler(command.CmdNotifyUser, handler.NewNotifyUserHandler())
}

// AddSink registers a sink. It must be called before Start; transports that
// submit to the engine are created after it and attach here.
func (e *Engine) AddSink(s Sink) {
	e.sinks = append(e.sinks, s)
}

// Start launches the processor, the effect forwarder and the sweep loop. It
// blocks until the processor accepts commands.
func (e *Engine) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	// Subscribe before the processor runs so no effect is missed.
	effects := e.EventBus.Subscribe(runCtx)
	e.wg.Add(2)
	go e.forward(runCtx, effects)
	go e.sweepLoop(runCtx)

	go e.Processor.Run(runCtx)
	if err := e.Processor.WaitForReady(ctx); err != nil {
		cancel()
		return fmt.Errorf("waiting for processor: %w", err)
	}
	log.Info(log.CatOrch, "engine started", "sweep_interval", e.sweepInterval.String(), "sinks", len(e.sinks))
	return nil
}

// Submit queues cmd for asynchronous execution.
func (e *Engine) Submit(cmd command.Command) error {
	return e.Processor.Submit(cmd)
}

// SubmitAndWait queues cmd and waits for its result.
func (e *Engine) SubmitAndWait(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	return e.Processor.SubmitAndWait(ctx, cmd)
}

// QueueLength reports how many commands are waiting.
func (e *Engine) QueueLength() int {
	return e.Processor.QueueLength()
}

// Reload swaps the tunables through the processor so the change is ordered
// with the commands around it.
func (e *Engine) Reload(t command.Tunables) error {
	return e.Submit(command.NewReloadSettingsCommand(command.SourceConfig, t))
}

// Drain stops timers, processes what is already queued, then stops the
// background loops. Pending continuations are dropped; their records expire
// through the store TTLs.
func (e *Engine) Drain() {
	e.Scheduler.Stop()
	e.Processor.Drain()
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	if e.dedup != nil {
		e.dedup.Stop()
	}
	e.EventBus.Close()
	log.Info(log.CatOrch, "engine drained",
		"processed", e.Processor.ProcessedCount(),
		"errors", e.Processor.ErrorCount(),
		"dropped_follow_ups", e.Processor.DroppedFollowUps())
}

func (e *Engine) forward(ctx context.Context, effects <-chan pubsub.Event[any]) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-effects:
			if !ok {
				return
			}
			e.deliver(ctx, evt.Payload)
		}
	}
}

func (e *Engine) deliver(ctx context.Context, payload any) {
	switch p := payload.(type) {
	case events.ActionRequest:
		e.metrics.ObserveEffect(p)
		for _, s := range e.sinks {
			if err := s.DeliverAction(ctx, p); err != nil {
				log.ErrorErr(log.CatTransport, "action delivery failed", err, "id", p.ID, "kind", string(p.Kind))
			}
		}
	case events.Notice:
		e.metrics.ObserveEffect(p)
		for _, s := range e.sinks {
			if err := s.DeliverNotice(ctx, p); err != nil {
				log.ErrorErr(log.CatTransport, "notice delivery failed", err, "code", string(p.Code), "user", p.Requester.UserID)
			}
		}
	case processor.CommandErrorEvent:
		log.ErrorErr(log.CatCommands, "command failed", p.Error, "type", p.CommandType.String(), "id", p.CommandID)
	}
}

func (e *Engine) sweepLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Submit(command.NewSweepStoresCommand(command.SourceTimer)); err != nil {
				log.Warn(log.CatOrch, "sweep not queued", "error", err.Error())
			}
		}
	}
}
