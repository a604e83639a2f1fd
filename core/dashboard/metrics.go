package dashboard

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "sync",
			Name:      "fetch_failures_total",
			Help:      "Number of failed read-cycle fetches",
		},
		[]string{"op"},
	)
	inconsistencies = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "sync",
			Name:      "state_inconsistencies_total",
			Help:      "Number of distinct stage/status pairs outside the fixed mapping",
		},
	)
)

var registerMetrics sync.Once

func init() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(fetchFailures, inconsistencies)
	})
}

const (
	opListJobs = "list_jobs"
	opGetLogs  = "get_logs"
)
