package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "streamscout"

// Recorder owns the service collectors and the registry they are exposed from.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	resolutions     *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	sniffDuration   prometheus.Histogram
	sessionsActive  prometheus.Gauge
	blockedRequests *prometheus.CounterVec
}

// New registers the collectors on a fresh registry. Go runtime and process
// collectors are included so /metrics is useful on its own.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolution requests by asset kind and terminal outcome.",
		}, []string{"kind", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Manifest cache lookups by result (hit or miss).",
		}, []string{"result"}),
		sniffDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sniff_duration_seconds",
			Help:      "Wall time of a manifest sniff including browser setup and teardown.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 25, 40},
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "browser_sessions_active",
			Help:      "Isolated browser sessions currently open.",
		}),
		blockedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_requests_total",
			Help:      "Sub-resource requests aborted during sniffing, by resource type.",
		}, []string{"type"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.resolutions,
		r.cacheLookups,
		r.sniffDuration,
		r.sessionsActive,
		r.blockedRequests,
	)
	return r
}

// Registry exposes the underlying registry (tests and custom exporters).
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Resolution counts a terminal resolution outcome.
func (r *Recorder) Resolution(kind, outcome string) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(kind, outcome).Inc()
}

// CacheLookup counts a cache hit or miss.
func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveSniff records how long a sniff took.
func (r *Recorder) ObserveSniff(d time.Duration) {
	if r == nil {
		return
	}
	r.sniffDuration.Observe(d.Seconds())
}

// SessionOpened increments the active session gauge.
func (r *Recorder) SessionOpened() {
	if r == nil {
		return
	}
	r.sessionsActive.Inc()
}

// SessionClosed decrements the active session gauge.
func (r *Recorder) SessionClosed() {
	if r == nil {
		return
	}
	r.sessionsActive.Dec()
}

// BlockedRequest counts an aborted sub-resource request.
func (r *Recorder) BlockedRequest(resourceType string) {
	if r == nil {
		return
	}
	r.blockedRequests.WithLabelValues(resourceType).Inc()
}
