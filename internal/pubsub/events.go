// Package pubsub fans engine output out to any number of in-process
// listeners: handler effects and failures from the processor, the per-command
// audit trail, and log lines.
package pubsub

import "time"

// EventType says what an Event's payload is.
type EventType string

const (
	// EffectEvent carries an ActionRequest or Notice produced by a handler.
	EffectEvent EventType = "effect"
	// FailureEvent carries a processor.CommandErrorEvent.
	FailureEvent EventType = "failure"
	// AuditEvent carries a processor.CommandLogEvent, one per command.
	AuditEvent EventType = "audit"
	// LogEntryEvent carries a formatted log line.
	LogEntryEvent EventType = "log"
)

// Event is one published payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}
