package tracing

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/processor"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// ===========================================================================
// Test Helpers
// ===========================================================================

var alice = types.Requester{UserID: "u1", ChannelID: "c1"}

func resultHandler(result *command.CommandResult, err error) processor.CommandHandler {
	return processor.HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
		return result, err
	})
}

func successHandler() processor.CommandHandler {
	return resultHandler(&command.CommandResult{Success: true, Data: "ok"}, nil)
}

func setupTestTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return provider.Tracer("test-tracer"), exporter
}

func onlySpan(t *testing.T, exporter *tracetest.InMemoryExporter) tracetest.SpanStub {
	t.Helper()
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	return spans[0]
}

func attr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, a := range span.Attributes {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func eventNamed(span tracetest.SpanStub, name string) (sdktrace.Event, bool) {
	for _, e := range span.Events {
		if e.Name == name {
			return e, true
		}
	}
	return sdktrace.Event{}, false
}

func eventAttr(e sdktrace.Event, key string) string {
	for _, a := range e.Attributes {
		if string(a.Key) == key {
			return a.Value.Emit()
		}
	}
	return ""
}

// ===========================================================================
// TracingMiddleware Tests
// ===========================================================================

func TestNewTracingMiddleware_NilTracer_ReturnsPassThrough(t *testing.T) {
	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{})(successHandler())

	cmd := command.NewSweepStoresCommand(command.SourceInternal)
	result, err := wrapped.Handle(context.Background(), cmd)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ok", result.Data)
}

func TestTracingMiddleware_SpanNameAndCommandAttributes(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})(successHandler())

	cmd := command.NewRequestRegistrationCommand(command.SourceUser, alice, "alice", 365*24*time.Hour, true)
	_, err := wrapped.Handle(context.Background(), cmd)
	require.NoError(t, err)

	span := onlySpan(t, exporter)
	assert.Equal(t, "command.process.request_registration", span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)

	v, ok := attr(span, AttrCommandID)
	require.True(t, ok)
	assert.Equal(t, cmd.ID(), v.AsString())

	v, ok = attr(span, AttrCommandSource)
	require.True(t, ok)
	assert.Equal(t, "user", v.AsString())

	v, ok = attr(span, AttrLabel)
	require.True(t, ok)
	assert.Equal(t, "alice", v.AsString())

	v, ok = attr(span, AttrTestnet)
	require.True(t, ok)
	assert.True(t, v.AsBool())
}

func TestTracingMiddleware_KeyedCommandCarriesCorrelationKey(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})(successHandler())

	key := correlation.CommitKey("c1", "u1", "alice", false)
	_, err := wrapped.Handle(context.Background(), command.NewRevealCommitmentCommand(command.SourceTimer, key, "gen-1"))
	require.NoError(t, err)

	span := onlySpan(t, exporter)
	v, ok := attr(span, AttrCorrelationKey)
	require.True(t, ok)
	assert.Equal(t, "commit-c1-u1-alice", v.AsString())

	v, ok = attr(span, AttrSagaKind)
	require.True(t, ok)
	assert.Equal(t, "commit", v.AsString())
}

func TestTracingMiddleware_ResponseParsesKnownKey(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})(successHandler())

	cmd := command.NewHandleResponseCommand(command.SourceResponse, command.Response{
		RequestID: "bridge-eoa-c1-u1-my-name-1700000000000",
	})
	_, err := wrapped.Handle(context.Background(), cmd)
	require.NoError(t, err)

	span := onlySpan(t, exporter)
	v, ok := attr(span, AttrSagaKind)
	require.True(t, ok)
	assert.Equal(t, "bridge-eoa", v.AsString())

	v, ok = attr(span, AttrLabel)
	require.True(t, ok)
	assert.Equal(t, "my-name", v.AsString())
}

func TestTracingMiddleware_ResponseWithForeignKey(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})(successHandler())

	cmd := command.NewHandleResponseCommand(command.SourceResponse, command.Response{RequestID: "poll-42"})
	_, err := wrapped.Handle(context.Background(), cmd)
	require.NoError(t, err)

	span := onlySpan(t, exporter)
	v, ok := attr(span, AttrCorrelationKey)
	require.True(t, ok)
	assert.Equal(t, "poll-42", v.AsString())

	_, ok = attr(span, AttrSagaKind)
	assert.False(t, ok, "foreign keys carry no saga kind")
}

func TestTracingMiddleware_RecordsHandlerError(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})(resultHandler(nil, errors.New("rpc down")))

	_, err := wrapped.Handle(context.Background(), command.NewSweepStoresCommand(command.SourceInternal))
	require.Error(t, err)

	span := onlySpan(t, exporter)
	assert.Equal(t, codes.Error, span.Status.Code)
	assert.Equal(t, "rpc down", span.Status.Description)
	_, ok := eventNamed(span, "exception")
	assert.True(t, ok, "error should be recorded as an exception event")
}

func TestTracingMiddleware_RecordsFailureResult(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})(
		resultHandler(&command.CommandResult{Success: false, Error: errors.New("label too short")}, nil),
	)

	_, err := wrapped.Handle(context.Background(), command.NewSweepStoresCommand(command.SourceInternal))
	require.NoError(t, err)

	span := onlySpan(t, exporter)
	assert.Equal(t, codes.Error, span.Status.Code)
	assert.Equal(t, "label too short", span.Status.Description)
}

func TestTracingMiddleware_FailureWithoutError(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})(
		resultHandler(&command.CommandResult{Success: false}, nil),
	)

	_, err := wrapped.Handle(context.Background(), command.NewSweepStoresCommand(command.SourceInternal))
	require.NoError(t, err)

	span := onlySpan(t, exporter)
	assert.Equal(t, codes.Error, span.Status.Code)
	assert.Equal(t, "command failed without error details", span.Status.Description)
}

func TestTracingMiddleware_RecordsEffectsAsEvents(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	signer := common.HexToAddress("0xa1")
	action := events.Transaction("commit-c1-u1-alice", "Commit alice.eth", alice, 8453,
		common.HexToAddress("0xc0"), big.NewInt(0), []byte{0x01}, &signer)
	notice := events.NewNotice(alice, events.NoticeCommitSubmitted, "commit requested").WithKey("commit-c1-u1-alice")

	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})(
		resultHandler(&command.CommandResult{Success: true, Events: []any{action, notice, "ignored"}}, nil),
	)

	_, err := wrapped.Handle(context.Background(), command.NewSweepStoresCommand(command.SourceInternal))
	require.NoError(t, err)

	span := onlySpan(t, exporter)
	ev, ok := eventNamed(span, EventActionRequested)
	require.True(t, ok)
	assert.Equal(t, "commit-c1-u1-alice", eventAttr(ev, AttrActionID))
	assert.Equal(t, "transaction", eventAttr(ev, AttrActionKind))
	assert.Equal(t, "8453", eventAttr(ev, AttrChainID))

	ev, ok = eventNamed(span, EventNoticeEmitted)
	require.True(t, ok)
	assert.Equal(t, string(events.NoticeCommitSubmitted), eventAttr(ev, AttrNoticeCode))
	assert.Equal(t, "commit-c1-u1-alice", eventAttr(ev, AttrCorrelationKey))

	assert.Len(t, span.Events, 2)
}

func TestTracingMiddleware_FollowUpsInheritTrace(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	key := correlation.CommitKey("c1", "u1", "alice", false)
	followUp := command.NewRevealCommitmentCommand(command.SourceInternal, key, "gen-1")

	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})(
		resultHandler(&command.CommandResult{Success: true, FollowUp: []command.Command{followUp}}, nil),
	)

	_, err := wrapped.Handle(context.Background(), command.NewSweepStoresCommand(command.SourceInternal))
	require.NoError(t, err)

	parent := onlySpan(t, exporter)
	ev, ok := eventNamed(parent, EventFollowUpCreated)
	require.True(t, ok)
	assert.Equal(t, followUp.ID(), eventAttr(ev, AttrCommandID))

	require.True(t, followUp.SpanContext().IsValid())
	assert.Equal(t, parent.SpanContext.TraceID().String(), followUp.TraceID())
	assert.Equal(t, parent.SpanContext.SpanID(), followUp.SpanContext().SpanID())
}

func TestTracingMiddleware_FollowUpSpanIsChildOfProducer(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	key := correlation.CommitKey("c1", "u1", "alice", false)
	followUp := command.NewRevealCommitmentCommand(command.SourceInternal, key, "gen-1")

	mw := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})
	producer := mw(resultHandler(&command.CommandResult{Success: true, FollowUp: []command.Command{followUp}}, nil))
	consumer := mw(successHandler())

	_, err := producer.Handle(context.Background(), command.NewSweepStoresCommand(command.SourceInternal))
	require.NoError(t, err)
	_, err = consumer.Handle(context.Background(), followUp)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[0].SpanContext.TraceID(), spans[1].SpanContext.TraceID())
	assert.Equal(t, spans[0].SpanContext.SpanID(), spans[1].Parent.SpanID())
}

func TestTracingMiddleware_NilResultPassesThrough(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	wrapped := NewTracingMiddleware(TracingMiddlewareConfig{Tracer: tracer})(resultHandler(nil, nil))

	result, err := wrapped.Handle(context.Background(), command.NewSweepStoresCommand(command.SourceInternal))
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, codes.Ok, onlySpan(t, exporter).Status.Code)
}
