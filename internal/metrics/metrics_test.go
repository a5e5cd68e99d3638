package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanWP/DevSkillTracker/internal/application"
)

var _ application.Metrics = (*Registry)(nil)

func TestRegistry_Counters(t *testing.T) {
	t.Parallel()

	r := New(WithRuntimeCollectors(false))
	r.GateDecision(application.GateAuthorized)
	r.GateDecision(application.GateDenied)
	r.GateDecision(application.GateDenied)
	r.RegistrationOutcome(application.OutcomeCreated)
	r.StoreError("list_developers")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.gateDecisions.WithLabelValues(application.GateAuthorized)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.gateDecisions.WithLabelValues(application.GateDenied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.registrations.WithLabelValues(application.OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.storeErrors.WithLabelValues("list_developers")))
}

func TestRegistry_HTTP(t *testing.T) {
	t.Parallel()

	r := New(WithRuntimeCollectors(false), WithNamespace("test"))
	r.ObserveHTTPRequest(http.MethodGet, "GET /", http.StatusOK, 20*time.Millisecond)
	r.ObserveHTTPRequest(http.MethodGet, "GET /", http.StatusOK, 40*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.httpRequests.WithLabelValues(http.MethodGet, "GET /", "200")))
	count, err := testutil.GatherAndCount(r.Gatherer(), "test_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegistry_Handler(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegistrationOutcome(application.OutcomeDuplicate)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `devskilltracker_registrations_total{outcome="duplicate"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IsolatedRegistries(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestRegistry_HistogramBuckets(t *testing.T) {
	t.Parallel()

	r := New(WithRuntimeCollectors(false), WithHistogramBuckets([]float64{0.1, 1}))
	r.ObserveHTTPRequest(http.MethodPost, "POST /developers", http.StatusCreated, 500*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `devskilltracker_http_request_duration_seconds_bucket{method="POST",route="POST /developers",le="0.1"} 0`)
	assert.Contains(t, body, `devskilltracker_http_request_duration_seconds_bucket{method="POST",route="POST /developers",le="1"} 1`)
	assert.NotContains(t, body, `le="0.005"`)
}
