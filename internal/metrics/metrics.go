package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector groups the records API and lookup session metrics. A nil
// *Collector is valid and records nothing.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge
	RateLimited     prometheus.Counter

	LookupDispatched *prometheus.CounterVec
	LookupStale      *prometheus.CounterVec
	LookupFailed     *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewCollector registers every metric on reg.
func NewCollector(namespace string, reg *prometheus.Registry) *Collector {
	f := promauto.With(reg)
	return &Collector{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected with 429.",
		}),

		LookupDispatched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "dispatched_total",
			Help:      "Fetches issued by lookup sessions, by class.",
		}, []string{"class"}),

		LookupStale: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "stale_dropped_total",
			Help:      "Responses dropped because a newer request of the same class was issued.",
		}, []string{"class"}),

		LookupFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "failed_total",
			Help:      "Fetches that failed, by class and error kind.",
		}, []string{"class", "kind"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "cache_lookups_total",
			Help:      "Record cache lookups by kind and outcome.",
		}, []string{"kind", "outcome"}),

		gatherer: reg,
	}
}

// Handler exposes the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) Dispatched(class string) {
	if c == nil {
		return
	}
	c.LookupDispatched.WithLabelValues(class).Inc()
}

func (c *Collector) Stale(class string) {
	if c == nil {
		return
	}
	c.LookupStale.WithLabelValues(class).Inc()
}

func (c *Collector) Failed(class, kind string) {
	if c == nil {
		return
	}
	c.LookupFailed.WithLabelValues(class, kind).Inc()
}

func (c *Collector) CacheLookup(kind string, hit bool) {
	if c == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	c.CacheLookups.WithLabelValues(kind, outcome).Inc()
}
