// Package metrics exposes Prometheus collectors for the dashboard service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "devskilltracker"

// Option configures a Registry.
type Option func(*Registry)

// WithNamespace overrides the metric name prefix.
func WithNamespace(namespace string) Option {
	return func(r *Registry) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithHistogramBuckets overrides the request duration buckets.
func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Registry) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// WithRuntimeCollectors toggles the Go runtime and process collectors.
func WithRuntimeCollectors(enabled bool) Option {
	return func(r *Registry) {
		r.runtime = enabled
	}
}

// Registry owns a private Prometheus registry and the service's collectors. It
// satisfies application.Metrics.
type Registry struct {
	namespace string
	buckets   []float64
	runtime   bool
	registry  *prometheus.Registry

	gateDecisions *prometheus.CounterVec
	registrations *prometheus.CounterVec
	storeErrors   *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates a registry with every collector registered.
func New(opts ...Option) *Registry {
	r := &Registry{
		namespace: defaultNamespace,
		buckets:   prometheus.DefBuckets,
		runtime:   true,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.runtime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	auto := promauto.With(r.registry)
	r.gateDecisions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "gate_decisions_total",
		Help:      "Identity gate decisions by outcome.",
	}, []string{"outcome"})
	r.registrations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "registrations_total",
		Help:      "Developer registration submissions by outcome.",
	}, []string{"outcome"})
	r.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "store_errors_total",
		Help:      "Document store failures by operation.",
	}, []string{"operation"})
	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})
	r.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   r.buckets,
	}, []string{"method", "route"})

	return r
}

func (r *Registry) GateDecision(outcome string) {
	r.gateDecisions.WithLabelValues(outcome).Inc()
}

func (r *Registry) RegistrationOutcome(outcome string) {
	r.registrations.WithLabelValues(outcome).Inc()
}

func (r *Registry) StoreError(operation string) {
	r.storeErrors.WithLabelValues(operation).Inc()
}

// ObserveHTTPRequest records one served request. route is the matched pattern, not the raw path.
func (r *Registry) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
