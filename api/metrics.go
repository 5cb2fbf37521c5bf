/*
metrics.go - Prometheus instrumentation

PURPOSE:
  Request counters and latencies per route, plus the gauge updated by the
  allocation audit. Each Handler owns its registry so several routers can
  live in one process (tests) without duplicate registration.

METRICS:
  unit_finance_requests_total{code,method,route}
  unit_finance_request_duration_seconds{code,method,route}
  unit_finance_incomplete_allocations{owner_kind}

  The route label is the chi route pattern ("/api/employees/{id}"), not the
  raw path, to keep label cardinality bounded.

SEE ALSO:
  - server.go: /metrics route
  - scheduler.go: Allocation audit updating the gauge
*/
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/unit-finance/allocation"
)

const metricsNamespace = "unit_finance"

// Metrics holds the collectors and the registry serving them.
type Metrics struct {
	Registry *prometheus.Registry

	requestCount          *prometheus.CounterVec
	requestDuration       *prometheus.HistogramVec
	incompleteAllocations *prometheus.GaugeVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "How many HTTP requests processed, partitioned by status code, method and route.",
			},
			[]string{"code", "method", "route"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "The HTTP request latencies in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"code", "method", "route"},
		),
		incompleteAllocations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "incomplete_allocations",
				Help:      "Allocation sets of the current period that do not cover their pool exactly.",
			},
			[]string{"owner_kind"},
		),
	}

	m.Registry.MustRegister(
		m.requestCount,
		m.requestDuration,
		m.incompleteAllocations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records one count and one latency observation per request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		code := strconv.Itoa(status)
		m.requestDuration.WithLabelValues(code, r.Method, route).Observe(time.Since(start).Seconds())
		m.requestCount.WithLabelValues(code, r.Method, route).Inc()
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// SetIncomplete records the number of incomplete sets per owner kind.
// Kinds absent from counts are reset to zero.
func (m *Metrics) SetIncomplete(counts map[allocation.OwnerKind]int) {
	for _, kind := range []allocation.OwnerKind{allocation.OwnerFixedCost, allocation.OwnerEmployee} {
		m.incompleteAllocations.WithLabelValues(string(kind)).Set(float64(counts[kind]))
	}
}
