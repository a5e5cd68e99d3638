package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/johanWP/DevSkillTracker/internal/testfixtures"
)

const testAdmin = "admin@example.com"

type observedRequest struct {
	method string
	route  string
	status int
}

type recordingHTTPMetrics struct {
	mu       sync.Mutex
	requests []observedRequest
}

func (m *recordingHTTPMetrics) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, observedRequest{method: method, route: route, status: status})
}

func (m *recordingHTTPMetrics) observed() []observedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]observedRequest(nil), m.requests...)
}

type testServer struct {
	stack     *testfixtures.Stack
	dashboard *DashboardHandler
	metrics   *recordingHTTPMetrics
	handler   http.Handler
}

func newTestServer(t *testing.T, opts ...testfixtures.StackOption) *testServer {
	t.Helper()

	stack := testfixtures.NewStack(t, append([]testfixtures.StackOption{testfixtures.WithAdmins(testAdmin)}, opts...)...)
	ids := testfixtures.NewIDGenerator("form")

	dashboard := NewDashboardHandler(stack.Directory, stack.Catalog, stack.Workflow, stack.Logger)
	dashboard.newFormID = ids.Next

	metrics := &recordingHTTPMetrics{}
	handler := NewRouter(RouterConfig{
		Auth:      NewAuthHandler(stack.Provider, stack.Gate, stack.Logger),
		Dashboard: dashboard,
		API:       NewAPIHandler(stack.Directory, stack.Catalog, stack.Workflow, stack.Logger),
		Gate:      stack.Gate,
		Health:    HealthHandler(nil, stack.Logger),
		Logger:    stack.Logger,
		Middleware: []func(http.Handler) http.Handler{
			RequestLogger(stack.Logger),
			InstrumentRequests(metrics),
		},
	})

	return &testServer{stack: stack, dashboard: dashboard, metrics: metrics, handler: handler}
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	return s.stack.SignIn(t, testAdmin)
}

func withSession(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	return req
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			return cookie
		}
	}
	return nil
}
