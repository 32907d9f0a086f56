package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for price queries.
type Metrics struct {
	Registry       *prometheus.Registry
	QueriesTotal   *prometheus.CounterVec
	QueryDuration  *prometheus.HistogramVec
	ErrorsTotal    *prometheus.CounterVec
	BatchesTotal   prometheus.Counter
	SessionsActive prometheus.Gauge
	CacheHitsTotal prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	queries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfprice_queries_total",
			Help: "Retailer queries by store and outcome.",
		},
		[]string{"store", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfprice_query_duration_seconds",
			Help:    "Wall time of one retailer query, session launch to close.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"store"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfprice_query_errors_total",
			Help: "Failed retailer queries by store and error code.",
		},
		[]string{"store", "code"},
	)
	batches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfprice_batches_total",
			Help: "Comparison batches processed.",
		},
	)
	sessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfprice_sessions_active",
			Help: "Rendering sessions currently open.",
		},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfprice_cache_hits_total",
			Help: "Queries answered from the result cache.",
		},
	)

	registry.MustRegister(queries, duration, errorsTotal, batches, sessions, cacheHits)

	return &Metrics{
		Registry:       registry,
		QueriesTotal:   queries,
		QueryDuration:  duration,
		ErrorsTotal:    errorsTotal,
		BatchesTotal:   batches,
		SessionsActive: sessions,
		CacheHitsTotal: cacheHits,
	}
}

// ObserveQuery records one finished query.
func (m *Metrics) ObserveQuery(store, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(store, outcome).Inc()
	m.QueryDuration.WithLabelValues(store).Observe(d.Seconds())
}

// IncError increments the errors counter for a store and error code.
func (m *Metrics) IncError(store, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(store, code).Inc()
}

// IncBatch increments the batch counter.
func (m *Metrics) IncBatch() {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
}

// SessionOpened and SessionClosed track the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}
