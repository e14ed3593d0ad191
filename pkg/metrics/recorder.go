package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder handles metrics recording and exposure
type Recorder struct {
	// Backtest progress metrics
	daysProcessedCounter *prometheus.CounterVec
	valuationLatency     *prometheus.HistogramVec

	// Trade metrics
	tradeCounter      *prometheus.CounterVec
	expirationCounter *prometheus.CounterVec

	// Portfolio state metrics
	portfolioValueGauge *prometheus.GaugeVec
	cashGauge           *prometheus.GaugeVec
	deltaGauge          *prometheus.GaugeVec
	openStrategiesGauge *prometheus.GaugeVec

	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec
}

// NewRecorder creates a new metrics recorder
func NewRecorder() *Recorder {
	return &Recorder{
		daysProcessedCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obt_days_processed_total",
				Help: "The total number of trading days processed",
			},
			[]string{"underlying"},
		),
		valuationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "obt_valuation_latency_seconds",
				Help:    "Portfolio valuation latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15), // From 0.1ms to ~1.6s
			},
			[]string{"underlying"},
		),

		tradeCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obt_trades_total",
				Help: "The total number of recorded trades",
			},
			[]string{"underlying"},
		),
		expirationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obt_expirations_total",
				Help: "The total number of settled expirations",
			},
			[]string{"underlying"},
		),

		portfolioValueGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "obt_portfolio_value",
				Help: "Current marked portfolio value",
			},
			[]string{"underlying"},
		),
		cashGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "obt_portfolio_cash",
				Help: "Current portfolio cash balance",
			},
			[]string{"underlying"},
		),
		deltaGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "obt_portfolio_delta",
				Help: "Current portfolio delta",
			},
			[]string{"underlying"},
		),
		openStrategiesGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "obt_open_strategies",
				Help: "Number of open strategies",
			},
			[]string{"underlying"},
		),

		apiRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obt_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "obt_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // From 1ms to ~16s
			},
			[]string{"method", "path"},
		),
	}
}

// RecordDayProcessed records one completed trading day and its valuation
// latency
func (r *Recorder) RecordDayProcessed(underlying string, latency time.Duration) {
	r.daysProcessedCounter.WithLabelValues(underlying).Inc()
	r.valuationLatency.WithLabelValues(underlying).Observe(latency.Seconds())
}

// RecordTrade records a portfolio trade
func (r *Recorder) RecordTrade(underlying string) {
	r.tradeCounter.WithLabelValues(underlying).Inc()
}

// RecordExpiration records a settled expiration
func (r *Recorder) RecordExpiration(underlying string) {
	r.expirationCounter.WithLabelValues(underlying).Inc()
}

// RecordPortfolioState records the current portfolio snapshot
func (r *Recorder) RecordPortfolioState(underlying string, value, cash, delta float64, openStrategies int) {
	r.portfolioValueGauge.WithLabelValues(underlying).Set(value)
	r.cashGauge.WithLabelValues(underlying).Set(cash)
	r.deltaGauge.WithLabelValues(underlying).Set(delta)
	r.openStrategiesGauge.WithLabelValues(underlying).Set(float64(openStrategies))
}

// RecordAPIRequest records metrics for an API request
func (r *Recorder) RecordAPIRequest(method, path, status string, latency time.Duration) {
	r.apiRequestCounter.WithLabelValues(method, path, status).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}
