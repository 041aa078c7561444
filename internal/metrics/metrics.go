package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsAnalyzed tracks transactions run through the full pipeline
	TransactionsAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mevshield_transactions_analyzed_total",
			Help: "Total number of transactions analyzed",
		},
	)

	// FindingsTotal tracks emitted threat findings per kind
	FindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mevshield_findings_total",
			Help: "Total number of threat findings emitted",
		},
		[]string{"kind"},
	)

	// DetectorTimeouts tracks detectors skipped for exceeding their budget
	DetectorTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mevshield_detector_timeouts_total",
			Help: "Total number of detector evaluations skipped on timeout",
		},
		[]string{"detector"},
	)

	// AnalyzeLatency tracks end-to-end analysis latency per transaction
	AnalyzeLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mevshield_analyze_latency_seconds",
			Help:    "Latency of a full normalize-detect-score pass",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)

	// CycleDuration tracks full scan cycle duration
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mevshield_cycle_duration_seconds",
			Help:    "Duration of one detection cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	// WindowSize tracks the size of the current observation window
	WindowSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mevshield_window_size",
			Help: "Number of transactions in the current observation window",
		},
	)

	// Commitments tracks commit attempts by result
	Commitments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mevshield_commitments_total",
			Help: "Total commit operations by result",
		},
		[]string{"result"},
	)

	// Reveals tracks reveal attempts by result
	Reveals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mevshield_reveals_total",
			Help: "Total reveal operations by result",
		},
		[]string{"result"},
	)

	// Cancels tracks cancel attempts by result
	Cancels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mevshield_cancels_total",
			Help: "Total cancel operations by result",
		},
		[]string{"result"},
	)

	// DBConnectionPoolUsage tracks database connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mevshield_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
