// Package metrics exposes Prometheus counters for search controllers and
// index caches.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lazysearch/lazysearch/internal/index"
	"github.com/lazysearch/lazysearch/internal/search"
)

const namespace = "lazysearch"

// Outcome label values for searches_total.
const (
	OutcomeFired   = "fired"
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Result label values for cache_requests_total.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics holds all collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	Searches   *prometheus.CounterVec
	Suppressed *prometheus.CounterVec
	Debounced  *prometheus.CounterVec
	Cache      *prometheus.CounterVec
	Clears     *prometheus.CounterVec
	Sessions   prometheus.Gauge
}

var (
	_ search.Observer = (*Metrics)(nil)
	_ index.Observer  = (*Metrics)(nil)
)

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches by index and outcome.",
		}, []string{"index", "outcome"}),
		Suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_suppressed_total",
			Help:      "Responses dropped because their cycle was superseded.",
		}, []string{"index"}),
		Debounced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debounced_total",
			Help:      "Searches scheduled behind a debounce timer.",
		}, []string{"index"}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Index cache lookups by result.",
		}, []string{"index", "result"}),
		Clears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_clears_total",
			Help:      "Index cache clears.",
		}, []string{"index"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Connected search sessions.",
		}),
	}

	m.registry.MustRegister(
		m.Searches,
		m.Suppressed,
		m.Debounced,
		m.Cache,
		m.Clears,
		m.Sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SearchDebounced(indexName string) {
	m.Debounced.WithLabelValues(indexName).Inc()
}

func (m *Metrics) SearchFired(indexName string) {
	m.Searches.WithLabelValues(indexName, OutcomeFired).Inc()
}

func (m *Metrics) SearchSettled(indexName string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.Searches.WithLabelValues(indexName, outcome).Inc()
}

func (m *Metrics) SearchSuppressed(indexName string) {
	m.Suppressed.WithLabelValues(indexName).Inc()
}

func (m *Metrics) CacheHit(indexName string) {
	m.Cache.WithLabelValues(indexName, CacheHit).Inc()
}

func (m *Metrics) CacheMiss(indexName string) {
	m.Cache.WithLabelValues(indexName, CacheMiss).Inc()
}

func (m *Metrics) CacheCleared(indexName string) {
	m.Clears.WithLabelValues(indexName).Inc()
}

// SessionOpened increments the session gauge.
func (m *Metrics) SessionOpened() {
	m.Sessions.Inc()
}

// SessionClosed decrements the session gauge.
func (m *Metrics) SessionClosed() {
	m.Sessions.Dec()
}
