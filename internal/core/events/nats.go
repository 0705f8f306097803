package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/nats-io/nats.go"
)

// Connect dials NATS with reconnect settings suitable for a long running server.
func Connect(cfg internal.EventsConfig, logger *slog.Logger) (*nats.Conn, error) {
	if cfg.NATSURL == "" {
		return nil, errors.New("nats url is empty")
	}
	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.NATSURL, err)
	}
	return nc, nil
}

// Subject maps an event type to its NATS subject under prefix.
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// Envelope is the wire form of an event on NATS.
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// MessagePublisher is the part of *nats.Conn the forwarder needs.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// NATSForwarder mirrors bus events onto NATS subjects.
type NATSForwarder struct {
	publisher MessagePublisher
	prefix    string
	logger    *slog.Logger
}

func NewNATSForwarder(publisher MessagePublisher, prefix string, logger *slog.Logger) *NATSForwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSForwarder{publisher: publisher, prefix: prefix, logger: logger}
}

// Handle is an events.Handler; register it with SubscribeAll.
func (f *NATSForwarder) Handle(ctx context.Context, event Event) error {
	data, err := json.Marshal(Envelope{
		ID:         event.EventID(),
		Type:       event.EventType(),
		OccurredAt: event.OccurredAt(),
		Data:       event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.EventID(), err)
	}

	subject := Subject(f.prefix, event.EventType())
	if err := f.publisher.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}

	f.logger.DebugContext(ctx, "event forwarded", "subject", subject, "event_id", event.EventID())
	return nil
}

// Listen subscribes to every subject under prefix and hands decoded envelopes
// to fn until ctx is done.
func Listen(ctx context.Context, nc *nats.Conn, prefix string, logger *slog.Logger, fn func(subject string, env Envelope)) error {
	msgs := make(chan *nats.Msg, 64)
	sub, err := nc.ChanSubscribe(Subject(prefix, ">"), msgs)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			logger.Warn("failed to unsubscribe", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-msgs:
			var env Envelope
			if err := json.Unmarshal(msg.Data, &env); err != nil {
				logger.Warn("dropping malformed event", "subject", msg.Subject, "error", err)
				continue
			}
			fn(msg.Subject, env)
		}
	}
}

// Probe reports whether the connection is usable, for health checks.
type Probe struct {
	Conn *nats.Conn
}

func (p Probe) Name() string { return "nats" }

func (p Probe) Check(context.Context) error {
	if p.Conn == nil {
		return errors.New("not connected")
	}
	if !p.Conn.IsConnected() {
		return fmt.Errorf("nats status %s", p.Conn.Status())
	}
	return nil
}
