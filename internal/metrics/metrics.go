// Package metrics exposes Prometheus collectors for the search flow.
package metrics

import (
	"net/http"
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/articles"
	"github.com/Adda-Baaj/khobor-search/internal/dates"
	"github.com/Adda-Baaj/khobor-search/internal/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "khobor"

// Recorder owns a private registry so tests and multiple instances do not collide.
type Recorder struct {
	registry *prometheus.Registry

	searches  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	rejects   *prometheus.CounterVec
	dates     *prometheus.CounterVec
	published *prometheus.CounterVec
}

// NewRecorder registers all collectors, plus the Go and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "News searches by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Time spent on the upstream search call including transformation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_results_total",
			Help:      "Raw results dropped by the transformer.",
		}, []string{"reason"}),
		dates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "date_resolutions_total",
			Help:      "Date strings resolved, by method.",
		}, []string{"method"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_events_published_total",
			Help:      "Search events handed to the publisher fan-out.",
		}, []string{"outcome"}),
	}

	r.registry.MustRegister(
		r.searches,
		r.duration,
		r.rejects,
		r.dates,
		r.published,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveSearch implements search.Observer.
func (r *Recorder) ObserveSearch(op search.Op, outcome string, elapsed time.Duration) {
	r.searches.WithLabelValues(string(op), outcome).Inc()
	if outcome != "validation" {
		r.duration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
	}
}

// ObserveReject implements articles.RejectObserver.
func (r *Recorder) ObserveReject(reason articles.RejectReason) {
	r.rejects.WithLabelValues(string(reason)).Inc()
}

// ObserveDate implements dates.Observer.
func (r *Recorder) ObserveDate(method dates.Method) {
	r.dates.WithLabelValues(method.String()).Inc()
}

// ObservePublish counts one fan-out attempt.
func (r *Recorder) ObservePublish(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.published.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
