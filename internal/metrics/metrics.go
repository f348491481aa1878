package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Pool funding
	ContributionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contributions_total",
			Help: "Contribution attempts by outcome",
		},
		[]string{"outcome"}, // accepted|expired|pool_full|already_contributed|invalid_state|error
	)
	PoolsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pools_completed_total",
			Help: "Pools that reached their funding target or were completed by an admin",
		},
	)
	PoolsCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pools_cancelled_total",
			Help: "Pools cancelled, including expiry cleanup",
		},
	)
	RefundsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "refunds_total",
			Help: "Refunds issued for cancelled pools",
		},
	)

	// Expiry sweeper
	SweepRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Completed expiry sweep runs",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// handler for the /metrics endpoint
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ContributionsTotal)
	prometheus.MustRegister(PoolsCompletedTotal)
	prometheus.MustRegister(PoolsCancelledTotal)
	prometheus.MustRegister(RefundsTotal)
	prometheus.MustRegister(SweepRunsTotal)
	prometheus.MustRegister(WorkerQueueDepth)
}
