package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
	"github.com/zjrosen/namebridge/internal/pubsub"
)

// Middleware wraps a CommandHandler to add additional behavior.
// Middleware functions are composed using ChainMiddleware.
type Middleware func(CommandHandler) CommandHandler

// ChainMiddleware applies middlewares to a handler in reverse order.
// The first middleware in the list will be the outermost wrapper.
// For example: ChainMiddleware(handler, logging, dedup, timeout)
// Results in: logging(dedup(timeout(handler)))
func ChainMiddleware(handler CommandHandler, middlewares ...Middleware) CommandHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func traceIDOf(cmd command.Command) string {
	if hasTraceID, ok := cmd.(interface{ TraceID() string }); ok {
		return hasTraceID.TraceID()
	}
	return ""
}

func sourceOf(cmd command.Command) command.CommandSource {
	if hasSource, ok := cmd.(interface{ Source() command.CommandSource }); ok {
		return hasSource.Source()
	}
	return ""
}

// outcome folds a handler return into success and the error to report.
func outcome(result *command.CommandResult, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	if result != nil && !result.Success {
		return false, result.Error
	}
	return true, nil
}

// ===========================================================================
// Logging Middleware
// ===========================================================================

// NewLoggingMiddleware creates a middleware that logs command execution.
func NewLoggingMiddleware() Middleware {
	return func(next CommandHandler) CommandHandler {
		return HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
			start := time.Now()
			result, err := next.Handle(ctx, cmd)
			duration := time.Since(start)

			fields := []any{
				"command_id", cmd.ID(),
				"command_type", cmd.Type().String(),
				"trace_id", traceIDOf(cmd),
				"duration", duration,
				"source", string(sourceOf(cmd)),
			}
			switch {
			case err != nil:
				log.Error(log.CatCommands, "command failed", append(fields, "error", err.Error())...)
			case result != nil && !result.Success:
				errMsg := ""
				if result.Error != nil {
					errMsg = result.Error.Error()
				}
				log.Warn(log.CatCommands, "command completed with error result", append(fields, "error", errMsg)...)
			default:
				log.Debug(log.CatCommands, "command completed", fields...)
			}

			return result, err
		})
	}
}

// ===========================================================================
// Recovery Middleware
// ===========================================================================

// NewRecoveryMiddleware turns a handler panic into a failed result so one bad
// response cannot take down the processor goroutine.
func NewRecoveryMiddleware() Middleware {
	return func(next CommandHandler) CommandHandler {
		return HandlerFunc(func(ctx context.Context, cmd command.Command) (result *command.CommandResult, err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error(log.CatCommands, "handler panicked",
						"command_id", cmd.ID(),
						"command_type", cmd.Type().String(),
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()),
					)
					result, err = nil, fmt.Errorf("handler for %s panicked: %v", cmd.Type(), r)
				}
			}()
			return next.Handle(ctx, cmd)
		})
	}
}

// ===========================================================================
// Deduplication Middleware
// ===========================================================================

// DefaultDeduplicationTTL is the default time-to-live for deduplication cache entries.
const DefaultDeduplicationTTL = 5 * time.Second

// ErrDuplicateCommand is returned when a duplicate command is detected within the TTL window.
var ErrDuplicateCommand = types.ErrDuplicateCommand

// DeduplicationMiddlewareConfig configures the deduplication middleware.
type DeduplicationMiddlewareConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration // If 0, uses TTL/2
}

// DeduplicationMiddleware drops a command whose content matches one seen
// within the TTL window. Only commands implementing ContentHash take part;
// internal continuations such as bridge polls repeat legitimately.
type DeduplicationMiddleware struct {
	cache      sync.Map // map[string]time.Time (hash -> expiry time)
	ttl        time.Duration
	cleanupCtx context.Context
	cancelFunc context.CancelFunc
	cleanupWg  sync.WaitGroup
}

// NewDeduplicationMiddleware creates a new deduplication middleware.
// It starts a background goroutine for cache cleanup.
func NewDeduplicationMiddleware(cfg DeduplicationMiddlewareConfig) *DeduplicationMiddleware {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultDeduplicationTTL
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = ttl / 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &DeduplicationMiddleware{
		ttl:        ttl,
		cleanupCtx: ctx,
		cancelFunc: cancel,
	}

	m.cleanupWg.Add(1)
	go m.cleanupLoop(cleanupInterval)
	return m
}

func (m *DeduplicationMiddleware) cleanupLoop(interval time.Duration) {
	defer m.cleanupWg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.cleanupCtx.Done():
			return
		case <-ticker.C:
			m.cleanupExpired()
		}
	}
}

func (m *DeduplicationMiddleware) cleanupExpired() {
	now := time.Now()
	var cleaned int

	m.cache.Range(func(key, value any) bool {
		if now.After(value.(time.Time)) {
			m.cache.Delete(key)
			cleaned++
		}
		return true
	})

	if cleaned > 0 {
		log.Debug(log.CatCommands, "deduplication cache cleanup", "entries_removed", cleaned)
	}
}

// Stop stops the background cleanup goroutine.
func (m *DeduplicationMiddleware) Stop() {
	m.cancelFunc()
	m.cleanupWg.Wait()
}

// CacheSize returns the current number of entries in the cache.
func (m *DeduplicationMiddleware) CacheSize() int {
	count := 0
	m.cache.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Middleware returns the middleware function.
func (m *DeduplicationMiddleware) Middleware() Middleware {
	return func(next CommandHandler) CommandHandler {
		return HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
			hash, ok := contentHash(cmd)
			if !ok {
				return next.Handle(ctx, cmd)
			}

			now := time.Now()
			if existing, loaded := m.cache.Load(hash); loaded && now.Before(existing.(time.Time)) {
				log.Warn(log.CatCommands, "duplicate command rejected",
					"command_id", cmd.ID(),
					"command_type", cmd.Type().String(),
					"content_hash", hash[:16],
				)
				return &command.CommandResult{Success: false, Error: ErrDuplicateCommand}, nil
			}

			m.cache.Store(hash, now.Add(m.ttl))
			return next.Handle(ctx, cmd)
		})
	}
}

// contentHasher is implemented by commands that want deduplication.
// The hash must exclude transient fields like ID and timestamp.
type contentHasher interface {
	ContentHash() string
}

func contentHash(cmd command.Command) (string, bool) {
	hasher, ok := cmd.(contentHasher)
	if !ok {
		return "", false
	}
	h := sha256.New()
	h.Write([]byte(cmd.Type().String()))
	h.Write([]byte{0})
	h.Write([]byte(hasher.ContentHash()))
	return hex.EncodeToString(h.Sum(nil)), true
}

// ===========================================================================
// Command Log Middleware
// ===========================================================================

// EventPublisher is an interface for publishing events.
// This allows the middleware to be tested with a mock publisher.
type EventPublisher interface {
	Publish(eventType string, payload any)
}

// CommandLogMiddlewareConfig configures the command log middleware.
type CommandLogMiddlewareConfig struct {
	// EventBus receives a CommandLogEvent per command. If nil, the middleware
	// is a no-op.
	EventBus EventPublisher
}

// NewCommandLogMiddleware creates a middleware that emits CommandLogEvent for
// each processed command.
func NewCommandLogMiddleware(cfg CommandLogMiddlewareConfig) Middleware {
	return func(next CommandHandler) CommandHandler {
		return HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
			if cfg.EventBus == nil {
				return next.Handle(ctx, cmd)
			}

			start := time.Now()
			result, err := next.Handle(ctx, cmd)
			duration := time.Since(start)

			success, cmdErr := outcome(result, err)
			cfg.EventBus.Publish(string(pubsub.AuditEvent), CommandLogEvent{
				CommandID:   cmd.ID(),
				CommandType: cmd.Type(),
				Source:      sourceOf(cmd),
				Success:     success,
				Error:       cmdErr,
				Duration:    duration,
				Timestamp:   time.Now(),
				TraceID:     traceIDOf(cmd),
			})

			return result, err
		})
	}
}

// ===========================================================================
// Metrics Middleware
// ===========================================================================

// CommandObserver records per-command outcomes. metrics.Metrics implements it.
type CommandObserver interface {
	ObserveCommand(cmdType string, success bool, duration time.Duration)
}

// NewMetricsMiddleware reports every command to observer. A nil observer
// yields a pass-through middleware.
func NewMetricsMiddleware(observer CommandObserver) Middleware {
	return func(next CommandHandler) CommandHandler {
		if observer == nil {
			return next
		}
		return HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
			start := time.Now()
			result, err := next.Handle(ctx, cmd)
			success, _ := outcome(result, err)
			observer.ObserveCommand(cmd.Type().String(), success, time.Since(start))
			return result, err
		})
	}
}

// ===========================================================================
// Timeout Middleware
// ===========================================================================

// DefaultTimeoutWarningThreshold is the default threshold for logging slow handler warnings.
const DefaultTimeoutWarningThreshold = 100 * time.Millisecond

// TimeoutMiddlewareConfig configures the timeout middleware.
type TimeoutMiddlewareConfig struct {
	WarningThreshold time.Duration
}

// NewTimeoutMiddleware logs a warning when a handler exceeds the threshold.
// It never aborts the handler; a half-applied saga step is worse than a slow one.
func NewTimeoutMiddleware(cfg TimeoutMiddlewareConfig) Middleware {
	threshold := cfg.WarningThreshold
	if threshold == 0 {
		threshold = DefaultTimeoutWarningThreshold
	}

	return func(next CommandHandler) CommandHandler {
		return HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
			start := time.Now()
			result, err := next.Handle(ctx, cmd)

			if duration := time.Since(start); duration > threshold {
				log.Warn(log.CatCommands, "handler exceeded time threshold",
					"command_id", cmd.ID(),
					"command_type", cmd.Type().String(),
					"trace_id", traceIDOf(cmd),
					"duration", duration,
					"threshold", threshold,
				)
			}

			return result, err
		})
	}
}
