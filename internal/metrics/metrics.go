// Package metrics holds the Prometheus collectors for the flashcards server.
//
// Each Metrics value owns its own registry instead of using the global
// default one, so several servers (or tests) in one process never collide on
// "duplicate metrics collector registration".
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DecksCreated    prometheus.Counter
	CardsStored     prometheus.Counter
}

// New creates the collectors and registers them, plus the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		DecksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "decks_created_total",
			Help: "Total number of decks committed",
		}),
		CardsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cards_stored_total",
			Help: "Total number of cards committed as part of a deck",
		}),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.DecksCreated,
		m.CardsStored,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordRequest records one served HTTP request.
// route is the chi route pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) RecordRequest(method, route, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// DeckCreated records a committed deck and the number of cards it holds.
func (m *Metrics) DeckCreated(cards int) {
	m.DecksCreated.Inc()
	m.CardsStored.Add(float64(cards))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
