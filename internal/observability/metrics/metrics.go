package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymd_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gymd_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	memberOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymd_member_operations_total",
		Help: "Count of member lifecycle operations by action and result",
	}, []string{"action", "result"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymd_notifications_total",
		Help: "Count of notification dispatches by kind and result",
	}, []string{"kind", "result"})

	reminderSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymd_reminder_sweeps_total",
		Help: "Count of expiry reminder sweeps by result",
	}, []string{"result"})

	activeMembers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gymd_active_members",
		Help: "Number of active member records",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveMemberOperation counts a lifecycle operation outcome
func ObserveMemberOperation(action, result string) {
	memberOperations.WithLabelValues(action, result).Inc()
}

// ObserveNotification counts a dispatched notification outcome
func ObserveNotification(kind, result string) {
	notifications.WithLabelValues(kind, result).Inc()
}

// ObserveReminderSweep counts a reminder sweep outcome
func ObserveReminderSweep(result string) {
	reminderSweeps.WithLabelValues(result).Inc()
}

// SetActiveMembers sets the active member gauge
func SetActiveMembers(count int) {
	if count < 0 {
		count = 0
	}
	activeMembers.Set(float64(count))
}
