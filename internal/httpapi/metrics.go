package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crackedoura/backend/internal/storage"
)

// Metrics holds the collectors served on /metrics.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	sessionFailures prometheus.Counter
}

// NewMetrics registers request collectors and session gauges backed by sc.
func NewMetrics(sc *storage.Context) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crackedoura_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crackedoura_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		sessionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crackedoura_session_acquire_failures_total",
			Help: "Requests rejected because no storage session could be acquired",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.sessionFailures,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "crackedoura_sessions_open",
			Help: "Storage sessions currently checked out",
		}, func() float64 { return float64(sc.Stats().Open) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "crackedoura_sessions_acquired_total",
			Help: "Storage sessions acquired since startup",
		}, func() float64 { return float64(sc.Stats().Acquired) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "crackedoura_sessions_released_total",
			Help: "Storage sessions released since startup",
		}, func() float64 { return float64(sc.Stats().Released) }),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument records count and latency per matched route.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
