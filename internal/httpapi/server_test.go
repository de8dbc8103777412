package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/commerce-notifier/internal/httpapi"
	"github.com/example/commerce-notifier/internal/metrics"
	"github.com/example/commerce-notifier/internal/models"
)

type invokerFunc func(ctx context.Context, raw []byte) models.Response

func (f invokerFunc) HandleJSON(ctx context.Context, raw []byte) models.Response {
	return f(ctx, raw)
}

type readiness bool

func (r readiness) IsReady() bool { return bool(r) }

func echoInvoker(resp models.Response) httpapi.Invoker {
	return invokerFunc(func(context.Context, []byte) models.Response { return resp })
}

func newRouter(t *testing.T, cfg httpapi.Config, deps httpapi.Dependencies) http.Handler {
	t.Helper()
	h, err := httpapi.NewRouter(cfg, deps)
	require.NoError(t, err)
	return h
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewRouterRequiresInvoker(t *testing.T) {
	_, err := httpapi.NewRouter(httpapi.Config{}, httpapi.Dependencies{})
	require.Error(t, err)
}

func TestNewRouterRejectsBadRateLimit(t *testing.T) {
	_, err := httpapi.NewRouter(httpapi.Config{RateLimit: "lots"}, httpapi.Dependencies{
		Invoker: echoInvoker(models.OK(nil)),
	})
	require.Error(t, err)
}

func TestWebhookPassesBodyAndWritesSuccess(t *testing.T) {
	var got string
	invoker := invokerFunc(func(_ context.Context, raw []byte) models.Response {
		got = string(raw)
		return models.OK(models.NotificationBody{Success: true, Message: "Order notification processed", CustomerPhone: "123"})
	})
	h := newRouter(t, httpapi.Config{}, httpapi.Dependencies{Invoker: invoker})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"type":"x"}`)))

	assert.Equal(t, `{"type":"x"}`, got)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["whatsappSent"])
}

func TestWebhookWritesErrorBody(t *testing.T) {
	h := newRouter(t, httpapi.Config{}, httpapi.Dependencies{
		Invoker: echoInvoker(models.Failure(http.StatusBadRequest, "Missing order data")),
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"error": "Missing order data"}, decode(t, rec))
}

func TestWebhookRejectsOversizedBody(t *testing.T) {
	h := newRouter(t, httpapi.Config{MaxBodyBytes: 8}, httpapi.Dependencies{
		Invoker: echoInvoker(models.OK(nil)),
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"type":"much too long"}`)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestChallengeQuery(t *testing.T) {
	h := newRouter(t, httpapi.Config{}, httpapi.Dependencies{Invoker: echoInvoker(models.OK(nil))})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook?challenge=abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"challenge": "abc"}, decode(t, rec))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthReflectsReadiness(t *testing.T) {
	cases := []struct {
		name   string
		ready  httpapi.ReadinessChecker
		status int
		kafka  any
	}{
		{"no kafka", nil, http.StatusOK, nil},
		{"kafka ready", readiness(true), http.StatusOK, "ready"},
		{"kafka down", readiness(false), http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newRouter(t, httpapi.Config{}, httpapi.Dependencies{
				Invoker:   echoInvoker(models.OK(nil)),
				Readiness: tc.ready,
			})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.kafka, decode(t, rec)["kafka"])
		})
	}
}

func TestWebhookSheddingWhenSaturated(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	invoker := invokerFunc(func(context.Context, []byte) models.Response {
		close(entered)
		<-release
		return models.OK(nil)
	})
	h := newRouter(t, httpapi.Config{MaxInFlight: 1}, httpapi.Dependencies{Invoker: invoker})

	var wg sync.WaitGroup
	wg.Add(1)
	first := httptest.NewRecorder()
	go func() {
		defer wg.Done()
		h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`)))
	}()
	<-entered

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, first.Code)
}

func TestWebhookRateLimited(t *testing.T) {
	h := newRouter(t, httpapi.Config{RateLimit: "1-M"}, httpapi.Dependencies{
		Invoker: echoInvoker(models.OK(nil)),
	})

	send := func() int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.7:5555"
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestMetricsEndpointAndInstrumentation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := newRouter(t, httpapi.Config{ExposeMetrics: true}, httpapi.Dependencies{
		Invoker:  echoInvoker(models.OK(nil)),
		Metrics:  m,
		Gatherer: reg,
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("webhook", http.MethodPost, "200")))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMetricsEndpointHiddenWhenDisabled(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newRouter(t, httpapi.Config{}, httpapi.Dependencies{
		Invoker:  echoInvoker(models.OK(nil)),
		Gatherer: reg,
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
