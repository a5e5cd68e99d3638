// Package events publishes domain events (developer.created, gate.denied) as JSON
// messages on NATS subjects.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is prepended to every event subject.
const DefaultSubjectPrefix = "devskilltracker"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// Envelope wraps every published payload.
type Envelope struct {
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher publishes events to NATS. It satisfies application.EventPublisher.
type Publisher struct {
	conn   Conn
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

func WithSubjectPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = strings.Trim(prefix, ".")
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher wraps an established connection.
func NewPublisher(conn Conn, opts ...Option) *Publisher {
	p := &Publisher{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials url and returns a publisher over the new connection.
func Connect(url string, opts ...Option) (*Publisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("events: nats url is required")
	}
	p := NewPublisher(nil, opts...)
	conn, err := nats.Connect(url,
		nats.Name("devskilltracker"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				p.logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			p.logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect to nats: %w", err)
	}
	p.conn = conn
	return p, nil
}

// Subject returns the fully qualified subject for name.
func (p *Publisher) Subject(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}

// Publish marshals payload into an Envelope and publishes it on the prefixed subject.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal %s payload: %w", subject, err)
	}
	full := p.Subject(subject)
	message, err := json.Marshal(Envelope{Subject: full, OccurredAt: p.now().UTC(), Payload: data})
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}
	if err := p.conn.Publish(full, message); err != nil {
		return fmt.Errorf("events: publish %s: %w", full, err)
	}
	return nil
}

// Close flushes pending messages and drains the connection.
func (p *Publisher) Close(ctx context.Context) error {
	if p == nil || p.conn == nil {
		return nil
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		p.logger.Warn("nats flush failed", "error", err)
	}
	return p.conn.Drain()
}

// Noop discards events. It is used when no NATS url is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }

func (Noop) Close(context.Context) error { return nil }
