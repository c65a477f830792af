package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	PricingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shoppulse",
			Subsystem: "pricing",
			Name:      "latency_seconds",
			Help:      "Latency of pricing endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	PricingErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoppulse",
			Subsystem: "pricing",
			Name:      "errors_total",
			Help:      "Errors by pricing endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(PricingLatency, PricingErrors)
	})
}

// Observe records the latency of one endpoint call since start.
func Observe(endpoint string, start time.Time) {
	PricingLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Fail counts an endpoint error by status class.
func Fail(endpoint string, status int) {
	class := "5xx"
	if status < 500 {
		class = "4xx"
	}
	PricingErrors.WithLabelValues(endpoint, class).Inc()
}
