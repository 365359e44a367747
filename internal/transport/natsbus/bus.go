// Package natsbus connects the engine to a NATS message bus. Requests and
// responses arrive on two inbound subjects; action requests and notices are
// published as JSON on two outbound subjects.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/transport"
)

// Conn is the subset of *nats.Conn the bus uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Submitter queues commands on the engine.
type Submitter interface {
	Submit(cmd command.Command) error
}

// Subjects names the four subjects the bus uses.
type Subjects struct {
	Request  string
	Response string
	Action   string
	Notice   string
}

// Reply is published to a message's reply subject, when it has one.
type Reply struct {
	Accepted  bool   `json:"accepted"`
	CommandID string `json:"commandId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Bus implements engine.Sink over NATS.
type Bus struct {
	conn      Conn
	subjects  Subjects
	decoder   *transport.Decoder
	submitter Submitter

	mu   sync.Mutex
	subs []*nats.Subscription
}

// Connect dials url with reconnects enabled for the life of the process.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("namebridge"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn(log.CatTransport, "nats disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info(log.CatTransport, "nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return nc, nil
}

// New creates a Bus. Call Start to begin consuming.
func New(conn Conn, subjects Subjects, decoder *transport.Decoder, submitter Submitter) *Bus {
	return &Bus{conn: conn, subjects: subjects, decoder: decoder, submitter: submitter}
}

// Start subscribes to the inbound subjects.
func (b *Bus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for subject, decode := range map[string]func([]byte) (command.Command, error){
		b.subjects.Request:  b.decoder.Envelope,
		b.subjects.Response: b.decoder.ResponseMessage,
	} {
		sub, err := b.conn.Subscribe(subject, b.handler(decode))
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		b.subs = append(b.subs, sub)
	}
	log.Info(log.CatTransport, "nats bus started",
		"request_subject", b.subjects.Request, "response_subject", b.subjects.Response)
	return nil
}

// Stop unsubscribes from the inbound subjects.
func (b *Bus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub == nil {
			continue
		}
		if err := sub.Unsubscribe(); err != nil {
			log.Warn(log.CatTransport, "nats unsubscribe failed", "subject", sub.Subject, "error", err.Error())
		}
	}
	b.subs = nil
}

func (b *Bus) handler(decode func([]byte) (command.Command, error)) nats.MsgHandler {
	return func(msg *nats.Msg) {
		cmd, err := decode(msg.Data)
		if err != nil {
			log.Warn(log.CatTransport, "rejected nats message", "subject", msg.Subject, "error", err.Error())
			b.reply(msg, Reply{Error: err.Error()})
			return
		}
		if err := b.submitter.Submit(cmd); err != nil {
			log.ErrorErr(log.CatTransport, "submit failed", err, "subject", msg.Subject, "type", cmd.Type().String())
			b.reply(msg, Reply{Error: err.Error()})
			return
		}
		b.reply(msg, Reply{Accepted: true, CommandID: cmd.ID()})
	}
}

func (b *Bus) reply(msg *nats.Msg, r Reply) {
	if msg.Reply == "" {
		return
	}
	if err := b.publishJSON(msg.Reply, r); err != nil {
		log.Warn(log.CatTransport, "nats reply failed", "error", err.Error())
	}
}

// DeliverAction publishes an action request.
func (b *Bus) DeliverAction(_ context.Context, action events.ActionRequest) error {
	return b.publishJSON(b.subjects.Action, action)
}

// DeliverNotice publishes a notice.
func (b *Bus) DeliverNotice(_ context.Context, notice events.Notice) error {
	return b.publishJSON(b.subjects.Notice, notice)
}

func (b *Bus) publishJSON(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}
