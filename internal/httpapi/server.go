// Package httpapi exposes the notifier as an HTTP webhook endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"golang.org/x/sync/semaphore"

	"github.com/example/commerce-notifier/internal/metrics"
	"github.com/example/commerce-notifier/internal/models"
)

const (
	defaultMaxBodyBytes = 1 << 20

	busyMessage        = "Too many requests in flight"
	rateLimitedMessage = "Rate limit exceeded"
	bodyTooBigMessage  = "Request body too large"
)

// Invoker handles one raw webhook invocation.
type Invoker interface {
	HandleJSON(ctx context.Context, raw []byte) models.Response
}

// ReadinessChecker reports whether an optional backing dependency is usable.
type ReadinessChecker interface {
	IsReady() bool
}

// Config tunes the router.
type Config struct {
	MaxInFlight   int
	RateLimit     string
	MaxBodyBytes  int64
	ExposeMetrics bool
}

// Dependencies are the collaborators of the router.
type Dependencies struct {
	Invoker   Invoker
	Readiness ReadinessChecker
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Logger    zerolog.Logger
}

type api struct {
	invoker      Invoker
	readiness    ReadinessChecker
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	inFlight     *semaphore.Weighted
	maxBodyBytes int64
}

// NewRouter wires the webhook, health and metrics routes.
func NewRouter(cfg Config, deps Dependencies) (http.Handler, error) {
	if deps.Invoker == nil {
		return nil, errors.New("httpapi: invoker dependency is required")
	}
	if reflect.ValueOf(deps.Logger).IsZero() {
		deps.Logger = zerolog.Nop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	a := &api{
		invoker:      deps.Invoker,
		readiness:    deps.Readiness,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	if cfg.MaxInFlight > 0 {
		a.inFlight = semaphore.NewWeighted(int64(cfg.MaxInFlight))
	}

	var limit func(http.Handler) http.Handler
	if cfg.RateLimit != "" {
		mw, err := rateLimit(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("httpapi: invalid rate limit %q: %w", cfg.RateLimit, err)
		}
		limit = mw
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.instrument("health", a.health))

	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/webhook", a.instrument("webhook", a.limitInFlight(a.webhook)))
		r.Get("/webhook", a.instrument("challenge", a.challenge))
	})

	if cfg.ExposeMetrics && deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return r, nil
}

func rateLimit(formatted string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	lim := limiter.New(memory.NewStore(), rate)
	mw := stdlib.NewMiddleware(lim, stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, models.Failure(http.StatusTooManyRequests, rateLimitedMessage))
	}))
	return mw.Handler, nil
}

func (a *api) webhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeResponse(w, models.Failure(http.StatusRequestEntityTooLarge, bodyTooBigMessage))
			return
		}
		a.logger.Warn().Err(err).Msg("failed to read webhook body")
		writeResponse(w, models.Failure(http.StatusBadRequest, "Invalid event structure"))
		return
	}
	writeResponse(w, a.invoker.HandleJSON(r.Context(), raw))
}

// challenge answers the Adobe I/O registration probe sent as a query parameter.
func (a *api) challenge(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("challenge")
	if challenge == "" {
		writeResponse(w, models.Failure(http.StatusBadRequest, "Missing challenge"))
		return
	}
	writeResponse(w, models.OK(models.ChallengeBody{Challenge: challenge}))
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if a.readiness != nil {
		if a.readiness.IsReady() {
			status["kafka"] = "ready"
		} else {
			status["kafka"] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, status)
}

func (a *api) limitInFlight(next http.HandlerFunc) http.HandlerFunc {
	if a.inFlight == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.inFlight.TryAcquire(1) {
			a.logger.Warn().Msg("rejecting webhook: too many requests in flight")
			writeResponse(w, models.Failure(http.StatusServiceUnavailable, busyMessage))
			return
		}
		defer a.inFlight.Release(1)
		next(w, r)
	}
}

// instrument records request count and latency for a named handler.
func (a *api) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.metrics.ObserveHTTP(name, r.Method, status, time.Since(start).Seconds())
		a.logger.Debug().
			Str("handler", name).
			Str("method", r.Method).
			Int("status", status).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	}
}

func writeResponse(w http.ResponseWriter, resp models.Response) {
	writeJSON(w, resp.HTTPStatus(), resp.HTTPBody())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}
