package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/johanWP/DevSkillTracker/internal/logging"
)

// Metrics receives the counters emitted by the application services.
type Metrics interface {
	GateDecision(outcome string)
	RegistrationOutcome(outcome string)
	StoreError(operation string)
}

// EventPublisher delivers domain events to interested operators. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Event subjects published by the services.
const (
	SubjectDeveloperCreated = "developer.created"
	SubjectGateDenied       = "gate.denied"
)

// Option configures the cross-cutting collaborators shared by the services.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger  *slog.Logger
	metrics Metrics
	events  EventPublisher
	now     func() time.Time
}

// WithLogger sets the base logger used when the request context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(o *serviceOptions) {
		o.metrics = metrics
	}
}

// WithEvents sets the domain event publisher.
func WithEvents(events EventPublisher) Option {
	return func(o *serviceOptions) {
		o.events = events
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		o.now = now
	}
}

func newServiceOptions(opts []Option) serviceOptions {
	o := serviceOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	o.logger = logging.OrDefault(o.logger)
	if o.metrics == nil {
		o.metrics = noopMetrics{}
	}
	if o.events == nil {
		o.events = noopEvents{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

type noopMetrics struct{}

func (noopMetrics) GateDecision(string)        {}
func (noopMetrics) RegistrationOutcome(string) {}
func (noopMetrics) StoreError(string)          {}

type noopEvents struct{}

func (noopEvents) Publish(context.Context, string, any) error { return nil }
