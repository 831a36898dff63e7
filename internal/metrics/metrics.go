// Package metrics provides Prometheus metrics for the fetcher, pipeline and worker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "couponradar"

// Metrics holds the application's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchAttempts   *prometheus.CounterVec
	PagesBlocked    prometheus.Counter
	RunsTotal       prometheus.Counter
	RunDuration     prometheus.Histogram
	CandidateVisits *prometheus.CounterVec
	DealsAccepted   prometheus.Counter
	DealsPublished  *prometheus.CounterVec
}

// New creates a Metrics instance on its own registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		FetchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetcher",
			Name:      "attempts_total",
			Help:      "Page fetch attempts by outcome",
		}, []string{"outcome"}),
		PagesBlocked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetcher",
			Name:      "pages_blocked_total",
			Help:      "Times a page was blocked after a challenge or rate limit",
		}),

		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs started",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		CandidateVisits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "candidate_visits_total",
			Help:      "Product pages visited by outcome",
		}, []string{"outcome"}),
		DealsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "deals_accepted_total",
			Help:      "Deals at or above the discount threshold",
		}),

		DealsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "deals_published_total",
			Help:      "Deals published to the stream by category",
		}, []string{"category"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordFetch records one fetch attempt
func (m *Metrics) RecordFetch(outcome string) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(outcome).Inc()
}

// RecordPageBlocked records a page block
func (m *Metrics) RecordPageBlocked() {
	if m == nil {
		return
	}
	m.PagesBlocked.Inc()
}

// RecordRun records a finished pipeline run
func (m *Metrics) RecordRun(duration time.Duration, deals int) {
	if m == nil {
		return
	}
	m.RunsTotal.Inc()
	m.RunDuration.Observe(duration.Seconds())
	m.DealsAccepted.Add(float64(deals))
}

// RecordVisit records the outcome of one candidate visit
func (m *Metrics) RecordVisit(outcome string) {
	if m == nil {
		return
	}
	m.CandidateVisits.WithLabelValues(outcome).Inc()
}

// RecordPublished records deals published for a category
func (m *Metrics) RecordPublished(category string, n int) {
	if m == nil {
		return
	}
	m.DealsPublished.WithLabelValues(category).Add(float64(n))
}
