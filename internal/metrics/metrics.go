// Package metrics holds the prometheus collectors shared by the upstream clients,
// the geocode cache and the composition pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
	OutcomeDegraded = "degraded"
	OutcomeDropped  = "superseded"
)

// Registry bundles the collectors on a private prometheus registry so tests can build
// as many as they need without colliding on the default one.
type Registry struct {
	reg *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	GeocodeCache     *prometheus.CounterVec
	Compositions     *prometheus.CounterVec
	CycleDuration    prometheus.Histogram
}

// New builds and registers every collector.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skypulse",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by source and outcome.",
		}, []string{"source", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skypulse",
			Name:      "geocode_cache_lookups_total",
			Help:      "Geocode cache lookups by result (hit or miss).",
		}, []string{"result"}),
		Compositions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skypulse",
			Name:      "compositions_total",
			Help:      "Weather composition cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "skypulse",
			Name:      "composition_duration_seconds",
			Help:      "Wall time of one composition cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	r.reg.MustRegister(r.UpstreamRequests, r.GeocodeCache, r.Compositions, r.CycleDuration)
	return r
}

// Handler exposes the registry in the prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Upstream records one upstream call. Safe on a nil registry.
func (r *Registry) Upstream(source, outcome string) {
	if r == nil {
		return
	}
	r.UpstreamRequests.WithLabelValues(source, outcome).Inc()
}

// CacheLookup records a geocode cache hit or miss. Safe on a nil registry.
func (r *Registry) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.GeocodeCache.WithLabelValues(result).Inc()
}

// Composition records the outcome and duration of one cycle. Safe on a nil registry.
func (r *Registry) Composition(outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.Compositions.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		r.CycleDuration.Observe(seconds)
	}
}
