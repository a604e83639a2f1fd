package httpapi

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "dashboard",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to the job-processing backend",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
	[]string{"op", "outcome"},
)

var registerMetrics sync.Once

func init() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(requestDuration)
	})
}
