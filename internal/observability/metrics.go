package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/postcode-matcher/internal/apperr"
)

// Metrics holds the Prometheus collectors for the matching service.
type Metrics struct {
	Queries       *prometheus.CounterVec   // labels: operation, outcome={ok,empty,invalid,unavailable,error}
	QueryDuration *prometheus.HistogramVec // labels: operation
	Cache         *prometheus.CounterVec   // labels: result={hit,miss}

	DatasetRecords    prometheus.Gauge
	DatasetGeneration prometheus.Gauge
	DatasetReloads    *prometheus.CounterVec // labels: outcome={success,error}
}

const namespace = "postcode_matcher"

var durationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1}

func newMetrics() *Metrics {
	return &Metrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries by operation and outcome.",
		}, []string{"operation", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query latency by operation.",
			Buckets:   durationBuckets,
		}, []string{"operation"}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Records in the current dataset generation.",
		}),
		DatasetGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_generation",
			Help:      "Current dataset generation number.",
		}),
		DatasetReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_reloads_total",
			Help:      "Dataset reload attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Queries,
		m.QueryDuration,
		m.Cache,
		m.DatasetRecords,
		m.DatasetGeneration,
		m.DatasetReloads,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// ObserveQuery records one finished query. found is the result count and
// is ignored when err is non-nil.
func (m *Metrics) ObserveQuery(operation string, start time.Time, found int, err error) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	m.Queries.WithLabelValues(operation, Outcome(found, err)).Inc()
}

// Outcome maps a query result to its outcome label.
func Outcome(found int, err error) string {
	switch {
	case err == nil && found == 0:
		return "empty"
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrInvalidParameter):
		return "invalid"
	case errors.Is(err, apperr.ErrDatasetUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// CacheLookup counts a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.Cache.WithLabelValues("hit").Inc()
		return
	}
	m.Cache.WithLabelValues("miss").Inc()
}

// DatasetPublished updates the dataset gauges after a successful reload.
func (m *Metrics) DatasetPublished(generation uint64, records int) {
	if m == nil {
		return
	}
	m.DatasetGeneration.Set(float64(generation))
	m.DatasetRecords.Set(float64(records))
	m.DatasetReloads.WithLabelValues("success").Inc()
}

// DatasetReloadFailed counts a failed reload.
func (m *Metrics) DatasetReloadFailed() {
	if m == nil {
		return
	}
	m.DatasetReloads.WithLabelValues("error").Inc()
}
