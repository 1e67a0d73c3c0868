package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	candlesProcessed *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	events           *prometheus.CounterVec
	tradesClosed     *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		candlesProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweepsim_candles_processed_total",
				Help: "Total number of candles run through the detection pipeline",
			},
			[]string{"symbol"},
		),
		rejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweepsim_rejections_total",
				Help: "Detector and strategy rejections by reason",
			},
			[]string{"detector", "reason"},
		),
		events: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweepsim_events_total",
				Help: "Detected events by kind",
			},
			[]string{"kind", "symbol"},
		),
		tradesClosed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweepsim_trades_closed_total",
				Help: "Closed simulated trades by exit reason",
			},
			[]string{"exit_reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweepsim_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sweepsim_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sweepsim_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCandle records a candle processed by the pipeline.
func (r *Recorder) RecordCandle(symbol string) {
	r.candlesProcessed.WithLabelValues(symbol).Inc()
}

// RecordRejection records a detector or strategy rejection.
func (r *Recorder) RecordRejection(detector, reason string) {
	r.rejections.WithLabelValues(detector, reason).Inc()
}

// RecordEvent records a detected event.
func (r *Recorder) RecordEvent(kind, symbol string) {
	r.events.WithLabelValues(kind, symbol).Inc()
}

// RecordTradeClosed records a closed simulated trade.
func (r *Recorder) RecordTradeClosed(exitReason string) {
	r.tradesClosed.WithLabelValues(exitReason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
