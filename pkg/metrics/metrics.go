package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// KV client metrics (spec.md §4.1)
	KVRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appmesh_kv_requests_total",
			Help: "Total number of coordination store KV requests by method and status",
		},
		[]string{"method", "status"},
	)

	KVRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appmesh_kv_request_duration_seconds",
			Help:    "Coordination store KV request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Session metrics (spec.md §4.2)
	SessionRenewalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appmesh_session_renewals_total",
			Help: "Total number of session create/renew attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Watch engine metrics (spec.md §4.3)
	WatchCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appmesh_watch_cycles_total",
			Help: "Total number of watch loop iterations by path and outcome",
		},
		[]string{"path", "outcome"},
	)

	// Leader election metrics (spec.md §4.4)
	LeaderElected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "appmesh_is_leader",
			Help: "Whether this agent currently holds the leader lock (1 = leader, 0 = not)",
		},
	)

	// Scheduler metrics (spec.md §4.5)
	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appmesh_scheduling_latency_seconds",
			Help:    "Time taken to compute a new topology in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	UnplacedReplicasTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "appmesh_unplaced_replicas",
			Help: "Number of replicas that could not be placed in the last scheduling round, by task",
		},
		[]string{"task"},
	)

	// Topology writer metrics (spec.md §4.6)
	TopologyWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appmesh_topology_writes_total",
			Help: "Total number of topology KV writes by host",
		},
		[]string{"host"},
	)

	// Node convergence metrics (spec.md §4.7)
	ConvergenceActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appmesh_convergence_actions_total",
			Help: "Total number of add/remove actions taken by the node convergence loop",
		},
		[]string{"action"},
	)

	ConvergenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appmesh_convergence_duration_seconds",
			Help:    "Time taken for one node convergence pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Security sync metrics (spec.md §4.8)
	SecurityUpdatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appmesh_security_updates_total",
			Help: "Total number of accepted security document updates",
		},
	)

	SecurityRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appmesh_security_rejections_total",
			Help: "Total number of rejected security document updates by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(KVRequestsTotal)
	prometheus.MustRegister(KVRequestDuration)
	prometheus.MustRegister(SessionRenewalsTotal)
	prometheus.MustRegister(WatchCyclesTotal)
	prometheus.MustRegister(LeaderElected)
	prometheus.MustRegister(SchedulingLatency)
	prometheus.MustRegister(UnplacedReplicasTotal)
	prometheus.MustRegister(TopologyWritesTotal)
	prometheus.MustRegister(ConvergenceActionsTotal)
	prometheus.MustRegister(ConvergenceDuration)
	prometheus.MustRegister(SecurityUpdatesTotal)
	prometheus.MustRegister(SecurityRejectionsTotal)
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations against a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a histogram vec with
// labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
