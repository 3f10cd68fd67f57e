// Package metrics exposes the Prometheus collectors of the service: HTTP
// request counters and latencies keyed by chi route pattern, and domain
// counters for checkouts and order transitions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	service  string
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	checkouts   *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// New builds collectors on a private registry so that several instances (one
// per test, for example) never collide on registration.
func New(service string) *Metrics {
	m := &Metrics{
		service:  service,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_checkouts_total",
				Help: "Checkout attempts by outcome",
			},
			[]string{"service", "outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_order_transitions_total",
				Help: "Order state transitions by action and outcome",
			},
			[]string{"service", "action", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.checkouts,
		m.transitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveCheckout(outcome string) {
	m.checkouts.WithLabelValues(m.service, outcome).Inc()
}

func (m *Metrics) ObserveTransition(action, outcome string) {
	m.transitions.WithLabelValues(m.service, action, outcome).Inc()
}

// Middleware records every request under its route pattern rather than the
// raw path, which keeps label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		statusStr := strconv.Itoa(status)

		m.requests.WithLabelValues(m.service, r.Method, path, statusStr).Inc()
		m.duration.WithLabelValues(m.service, r.Method, path, statusStr).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
