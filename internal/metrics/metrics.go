package metrics

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for security actions.
const (
	OutcomeApplied  = "applied"
	OutcomeWarned   = "applied_with_warning"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type SecurityMetrics struct {
	actions   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	transfers *prometheus.CounterVec
	alerts    *prometheus.CounterVec
}

var (
	securityOnce     sync.Once
	securityRegistry *SecurityMetrics
)

// Security returns the process-wide collectors, registering them on first use.
func Security() *SecurityMetrics {
	securityOnce.Do(func() {
		securityRegistry = New()
		prometheus.MustRegister(securityRegistry.collectors()...)
	})
	return securityRegistry
}

// New builds unregistered collectors. Use Security in the server.
func New() *SecurityMetrics {
	return &SecurityMetrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "security_actions_total",
			Help: "Security actions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "security_action_duration_seconds",
			Help:    "Time spent applying a security action, including the transaction.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payout_transfers_total",
			Help: "Payout transfer attempts by provider and status.",
		}, []string{"provider", "outcome"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "security_alert_failures_total",
			Help: "Alerts that could not be enqueued by task type.",
		}, []string{"task"}),
	}
}

func (m *SecurityMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.actions, m.duration, m.transfers, m.alerts}
}

func (m *SecurityMetrics) ObserveAction(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.actions.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ActionCounter exposes one series of security_actions_total.
func (m *SecurityMetrics) ActionCounter(kind, outcome string) prometheus.Counter {
	return m.actions.WithLabelValues(kind, outcome)
}

func (m *SecurityMetrics) ObserveTransfer(provider, outcome string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(provider, outcome).Inc()
}

func (m *SecurityMetrics) ObserveAlertFailure(task string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(task).Inc()
}

// Handler exposes the default registry for echo.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
