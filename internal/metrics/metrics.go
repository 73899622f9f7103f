package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the session client.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RefreshAttempts prometheus.Counter
	RefreshFailures prometheus.Counter
	RecoveryRetries prometheus.Counter
	SchedulerTicks  *prometheus.CounterVec
	HardLogouts     prometheus.Counter
}

// New creates and registers all metrics on the given registerer. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crewdock_client_requests_total",
			Help: "Total dispatched requests by HTTP status class",
		}, []string{"status_class"}),
		RefreshAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "crewdock_client_refresh_attempts_total",
			Help: "Total credential refresh calls actually issued",
		}),
		RefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "crewdock_client_refresh_failures_total",
			Help: "Total credential refresh calls that failed",
		}),
		RecoveryRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "crewdock_client_recovery_retries_total",
			Help: "Total requests replayed after an expiry recovery",
		}),
		SchedulerTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crewdock_client_scheduler_ticks_total",
			Help: "Total scheduler task executions by task name",
		}, []string{"task"}),
		HardLogouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "crewdock_client_hard_logouts_total",
			Help: "Total sessions terminated by a hard authentication failure",
		}),
	}
}

// NewNop returns metrics registered on a throwaway registry, for callers that
// do not export metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
