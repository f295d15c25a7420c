package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_tracker_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "project_tracker_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	remindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_tracker_reminders_total",
		Help: "Client reminder emails by trigger and result",
	}, []string{"trigger", "result"})

	reminderRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "project_tracker_reminder_run_duration_seconds",
		Help:    "Duration of scheduled reminder runs",
		Buckets: prometheus.DefBuckets,
	})

	rosterConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "project_tracker_assignment_conflicts_total",
		Help: "Assignments rejected because a technician holds another Open project",
	})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveReminder counts one reminder attempt; result is "sent" or "failed".
func ObserveReminder(trigger, result string) {
	remindersSent.WithLabelValues(trigger, result).Inc()
}

func ObserveReminderRun(duration time.Duration) {
	reminderRunDuration.Observe(duration.Seconds())
}

func IncAssignmentConflict() {
	rosterConflicts.Inc()
}
