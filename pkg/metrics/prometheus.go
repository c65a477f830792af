package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent     *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	recommendedPrice *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

var (
	recorderOnce sync.Once
	recorder     *Recorder
)

// New returns the process-wide recorder. Collectors register once.
func New() *Recorder {
	recorderOnce.Do(func() {
		recorder = newRecorder(promauto.With(prometheus.DefaultRegisterer))
	})
	return recorder
}

// NewWithRegistry builds a recorder on its own registry, for tests.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	return newRecorder(promauto.With(reg))
}

func newRecorder(f promauto.Factory) *Recorder {
	return &Recorder{
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shoppulse_messages_sent_total",
				Help: "Total number of messages sent to a backend",
			},
			[]string{"backend", "kind"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shoppulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		recommendedPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shoppulse_recommended_price",
				Help: "Last recommended price per product",
			},
			[]string{"product_id"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shoppulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, kind string) {
	r.messagesSent.WithLabelValues(backend, kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordRecommendedPrice(productID string, price float64) {
	r.recommendedPrice.WithLabelValues(productID).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordMessageSent(string, string)       {}
func (Noop) RecordError(string)                     {}
func (Noop) RecordRecommendedPrice(string, float64) {}
func (Noop) RecordLatency(string, float64)          {}
