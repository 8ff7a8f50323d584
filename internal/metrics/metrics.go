// Package metrics exposes Prometheus instruments for the import pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "squadsync"

// Upstream request outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeUpstream    = "upstream_error"
	OutcomeTransport   = "transport_error"
)

// Metrics holds every collector the service records.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamRetries  prometheus.Counter
	entitiesCreated  *prometheus.CounterVec
	membersDropped   prometheus.Counter
	squadFailures    prometheus.Counter
	imports          *prometheus.CounterVec
	importDuration   prometheus.Histogram
	importProgress   prometheus.Gauge
}

// New creates the collectors on a fresh registry, alongside the standard
// process and Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by outcome.",
		}, []string{"outcome"}),
		upstreamRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_retries_total",
			Help:      "Rate-limited upstream requests that were retried.",
		}),
		entitiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_created_total",
			Help:      "Entities created by reconciliation, by kind.",
		}, []string{"kind"}),
		membersDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "squad_members_dropped_total",
			Help:      "Squad members dropped because their role was not recognised.",
		}),
		squadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "squad_failures_total",
			Help:      "Teams whose squad could not be fetched or reconciled.",
		}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "League imports by result.",
		}, []string{"result"}),
		importDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Wall time of league imports.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		importProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "import_progress_percent",
			Help:      "Progress of the current or last league import.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.upstreamRequests,
		m.upstreamRetries,
		m.entitiesCreated,
		m.membersDropped,
		m.squadFailures,
		m.imports,
		m.importDuration,
		m.importProgress,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry (for tests and extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.upstreamRetries.Inc()
}

// EntitiesCreated adds n created entities of the given kind
// ("competition", "team", "player", "coach").
func (m *Metrics) EntitiesCreated(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.entitiesCreated.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) MembersDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.membersDropped.Add(float64(n))
}

func (m *Metrics) SquadFailed() {
	if m == nil {
		return
	}
	m.squadFailures.Inc()
}

func (m *Metrics) SetProgress(percent int) {
	if m == nil {
		return
	}
	m.importProgress.Set(float64(percent))
}

// ImportFinished records the result ("success" or "failure") and duration.
func (m *Metrics) ImportFinished(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(result).Inc()
	m.importDuration.Observe(d.Seconds())
}
