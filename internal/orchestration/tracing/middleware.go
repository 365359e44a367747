// Package tracing provides OpenTelemetry tracing for the orchestration engine:
// a provider factory, a JSONL file exporter and a processor middleware that
// opens one span per command and links follow-ups to it.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/processor"
)

// TracingMiddlewareConfig configures the tracing middleware.
type TracingMiddlewareConfig struct {
	// Tracer is the OpenTelemetry tracer for creating spans.
	// If nil, the middleware returns a pass-through (no-op).
	Tracer trace.Tracer
}

// NewTracingMiddleware creates middleware that creates spans for command processing.
// Each span carries the command and saga attributes, an event per outbound
// action request or notice, and its context is stamped on every follow-up so
// a whole saga shows up as one trace.
func NewTracingMiddleware(cfg TracingMiddlewareConfig) processor.Middleware {
	if cfg.Tracer == nil {
		return func(next processor.CommandHandler) processor.CommandHandler {
			return next
		}
	}

	return func(next processor.CommandHandler) processor.CommandHandler {
		return processor.HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
			ctx = restoreSpanContext(ctx, cmd)

			spanName := fmt.Sprintf("%s%s", SpanPrefixCommand, cmd.Type())
			ctx, span := cfg.Tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindInternal))
			defer span.End()

			span.SetAttributes(
				attribute.String(AttrCommandID, cmd.ID()),
				attribute.String(AttrCommandType, string(cmd.Type())),
				attribute.Int(AttrCommandPriority, cmd.Priority()),
			)
			if hasSource, ok := cmd.(interface{ Source() command.CommandSource }); ok {
				span.SetAttributes(attribute.String(AttrCommandSource, string(hasSource.Source())))
			}
			span.SetAttributes(sagaAttributes(cmd)...)

			result, err := next.Handle(ctx, cmd)

			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case result != nil && !result.Success:
				if result.Error != nil {
					span.RecordError(result.Error)
					span.SetStatus(codes.Error, result.Error.Error())
				} else {
					span.SetStatus(codes.Error, "command failed without error details")
				}
			default:
				span.SetStatus(codes.Ok, "")
			}

			if result == nil {
				return result, err
			}
			recordEffects(span, result.Events)

			traceID := span.SpanContext().TraceID().String()
			current := span.SpanContext()
			for _, followUp := range result.FollowUp {
				span.AddEvent(EventFollowUpCreated, trace.WithAttributes(
					attribute.String(AttrCommandType, string(followUp.Type())),
					attribute.String(AttrCommandID, followUp.ID()),
				))
				if setter, ok := followUp.(interface{ SetTraceID(string) }); ok {
					setter.SetTraceID(traceID)
				}
				if setter, ok := followUp.(interface{ SetSpanContext(trace.SpanContext) }); ok {
					setter.SetSpanContext(current)
				}
			}

			return result, err
		})
	}
}

// sagaAttributes pulls the correlation key and label off the commands that
// carry them.
func sagaAttributes(cmd command.Command) []attribute.KeyValue {
	switch c := cmd.(type) {
	case *command.HandleResponseCommand:
		attrs := []attribute.KeyValue{attribute.String(AttrCorrelationKey, c.Response.RequestID)}
		if key, ok := correlation.Parse(c.Response.RequestID); ok {
			attrs = append(attrs,
				attribute.String(AttrSagaKind, key.Kind.String()),
				attribute.String(AttrLabel, key.Label),
			)
		}
		return attrs
	case *command.RevealCommitmentCommand:
		return keyAttributes(c.Key)
	case *command.PollBridgeCommand:
		return keyAttributes(c.Key)
	case *command.RequestRegistrationCommand:
		return []attribute.KeyValue{attribute.String(AttrLabel, c.Label), attribute.Bool(AttrTestnet, c.Testnet)}
	case *command.BeginCommitCommand:
		return []attribute.KeyValue{attribute.String(AttrLabel, c.Label), attribute.Bool(AttrTestnet, c.Testnet)}
	case *command.BeginBridgeCommand:
		return []attribute.KeyValue{attribute.String(AttrLabel, c.Label), attribute.Bool(AttrTestnet, c.Testnet)}
	case *command.BeginTransferCommand:
		return []attribute.KeyValue{attribute.String(AttrLabel, c.Label), attribute.Bool(AttrTestnet, c.Testnet)}
	case *command.AssignSubdomainCommand:
		return []attribute.KeyValue{attribute.String(AttrLabel, c.FullName()), attribute.Bool(AttrTestnet, c.Testnet)}
	}
	return nil
}

func keyAttributes(key correlation.Key) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCorrelationKey, key.String()),
		attribute.String(AttrSagaKind, key.Kind.String()),
		attribute.String(AttrLabel, key.Label),
		attribute.Bool(AttrTestnet, key.Kind.Testnet()),
	}
}

func recordEffects(span trace.Span, effects []any) {
	for _, e := range effects {
		switch ev := e.(type) {
		case events.ActionRequest:
			span.AddEvent(EventActionRequested, trace.WithAttributes(
				attribute.String(AttrActionID, ev.ID),
				attribute.String(AttrActionKind, string(ev.Kind)),
				attribute.Int64(AttrChainID, int64(ev.ChainID)),
			))
		case events.Notice:
			span.AddEvent(EventNoticeEmitted, trace.WithAttributes(
				attribute.String(AttrNoticeCode, string(ev.Code)),
				attribute.String(AttrCorrelationKey, ev.Key),
			))
		}
	}
}

// restoreSpanContext makes spans of a follow-up command children of the span
// that produced it.
func restoreSpanContext(ctx context.Context, cmd command.Command) context.Context {
	if hasSpanContext, ok := cmd.(interface{ SpanContext() trace.SpanContext }); ok {
		if sc := hasSpanContext.SpanContext(); sc.IsValid() {
			return trace.ContextWithRemoteSpanContext(ctx, sc)
		}
	}
	return ctx
}
