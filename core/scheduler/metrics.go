package scheduler

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pollTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "scheduler",
			Name:      "poll_ticks_total",
			Help:      "Number of fetches issued per polling cycle",
		},
		[]string{"cycle"},
	)
	sessionStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "scheduler",
			Name:      "session_starts_total",
			Help:      "Number of times an active session was entered or restarted",
		},
	)
	sessionEnds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "scheduler",
			Name:      "session_ends_total",
			Help:      "Number of active sessions ended, by reason",
		},
		[]string{"reason"},
	)
	sessionActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dashboard",
			Subsystem: "scheduler",
			Name:      "session_active",
			Help:      "1 while an active log-polling session is running",
		},
	)
)

var registerMetrics sync.Once

func init() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(pollTicks, sessionStarts, sessionEnds, sessionActive)
	})
}

const (
	cycleBaseline = "baseline"
	cycleLogs     = "logs"

	endCeiling  = "ceiling"
	endExplicit = "explicit"
	endShutdown = "shutdown"
)
