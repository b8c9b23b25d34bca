package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// feed loading pipeline.
type Metrics struct {
	FetchTotal    *prometheus.CounterVec // labels: source, outcome={success,transport_error,malformed_payload,parse_error}
	FetchDuration *prometheus.HistogramVec
	FetchCache    *prometheus.CounterVec // labels: source, result={hit,miss}

	FallbackTotal *prometheus.CounterVec // labels: source, result={cache,empty}
	RowsLoaded    *prometheus.GaugeVec   // labels: source

	SnapshotWriteErrors prometheus.Counter
	SideExportErrors    prometheus.Counter
	PublishErrors       prometheus.Counter

	RefreshDuration prometheus.Histogram
	LastRefresh     *prometheus.GaugeVec // labels: source; unix seconds
	MonitorRunning  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.FetchCache,
		m.FallbackTotal,
		m.RowsLoaded,
		m.SnapshotWriteErrors,
		m.SideExportErrors,
		m.PublishErrors,
		m.RefreshDuration,
		m.LastRefresh,
		m.MonitorRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_feed",
			Name:      "fetch_total",
			Help:      "Feed fetch attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "disaster_feed",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_feed",
			Name:      "fetch_cache_total",
			Help:      "TTL response cache lookups by source and result.",
		}, []string{"source", "result"}),
		FallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_feed",
			Name:      "fallback_total",
			Help:      "Loads that fell back to the snapshot (cache) or returned empty.",
		}, []string{"source", "result"}),
		RowsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "disaster_feed",
			Name:      "rows_loaded",
			Help:      "Rows in the most recently returned table per source.",
		}, []string{"source"}),
		SnapshotWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_feed",
			Name:      "snapshot_write_errors_total",
			Help:      "Snapshot file writes that failed (non-fatal).",
		}),
		SideExportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_feed",
			Name:      "side_export_errors_total",
			Help:      "QuakeML side export failures (non-fatal).",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_feed",
			Name:      "publish_errors_total",
			Help:      "Kafka publish failures (non-fatal).",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_feed",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete all-sources refresh cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastRefresh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "disaster_feed",
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last completed refresh per source.",
		}, []string{"source"}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disaster_feed",
			Name:      "monitor_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
	}
}
