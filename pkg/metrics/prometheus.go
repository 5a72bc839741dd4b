package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	tickersScanned *prometheus.CounterVec
	scanFailures   *prometheus.CounterVec
	fetchFailures  *prometheus.CounterVec
	candidateScore *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		tickersScanned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscan_tickers_scanned_total",
				Help: "Total number of tickers scanned, by market and data source",
			},
			[]string{"market", "source"},
		),
		scanFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscan_scan_failures_total",
				Help: "Total number of per-ticker scan failures by reason",
			},
			[]string{"reason"},
		),
		fetchFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscan_fetch_failures_total",
				Help: "Total number of live fetch failures by request category",
			},
			[]string{"category"},
		),
		candidateScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockscan_candidate_score",
				Help: "Last recorded score for a candidate ticker",
			},
			[]string{"ticker"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTickerScanned records one scanned ticker.
func (r *Recorder) RecordTickerScanned(market, source string) {
	r.tickersScanned.WithLabelValues(market, source).Inc()
}

// RecordScanFailure records a per-ticker failure by reason.
func (r *Recorder) RecordScanFailure(reason string) {
	r.scanFailures.WithLabelValues(reason).Inc()
}

// RecordFetchFailure records a live fetch failure by request category.
func (r *Recorder) RecordFetchFailure(category string) {
	r.fetchFailures.WithLabelValues(category).Inc()
}

// RecordCandidateScore records the score of a candidate ticker.
func (r *Recorder) RecordCandidateScore(ticker string, score float64) {
	r.candidateScore.WithLabelValues(ticker).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
