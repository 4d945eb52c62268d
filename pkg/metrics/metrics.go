// Package metrics provides Prometheus metrics for the sage service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportsTotal tracks profile imports by outcome
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Name:      "import_total",
			Help:      "Total number of profile imports by status",
		},
		[]string{"status"},
	)

	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sage",
			Name:      "import_duration_seconds",
			Help:      "Duration of profile imports in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// ReferenceValuesCreated tracks canonical reference values created during reconciliation
	ReferenceValuesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Name:      "reference_values_created_total",
			Help:      "Total number of reference values created by category",
		},
		[]string{"category"},
	)

	NotificationsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Name:      "notifications_raised_total",
			Help:      "Total number of admin notifications raised by reason",
		},
		[]string{"reason"},
	)

	NotificationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Name:      "notification_actions_total",
			Help:      "Total number of admin actions executed on notifications",
		},
		[]string{"kind", "action"},
	)

	// ClassifierRequests tracks classifier lookups by outcome (cache_hit, ok, fallback)
	ClassifierRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Name:      "classifier_requests_total",
			Help:      "Total number of skill classifier lookups by outcome",
		},
		[]string{"outcome"},
	)

	SkillRenames = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sage",
			Name:      "skill_renames_total",
			Help:      "Total number of global skill renames",
		},
	)

	// EventsPublished tracks kafka publishes by topic and status
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "kafka",
			Name:      "events_published_total",
			Help:      "Total number of events published to kafka",
		},
		[]string{"event_type", "status"},
	)
)

func RecordImport(status string, durationSeconds float64) {
	ImportsTotal.WithLabelValues(status).Inc()
	ImportDuration.Observe(durationSeconds)
}

func RecordReferenceCreated(category string) {
	ReferenceValuesCreated.WithLabelValues(category).Inc()
}

func RecordNotificationRaised(reason string) {
	NotificationsRaised.WithLabelValues(reason).Inc()
}

func RecordNotificationAction(kind, action string) {
	NotificationActions.WithLabelValues(kind, action).Inc()
}

func RecordClassifierRequest(outcome string) {
	ClassifierRequests.WithLabelValues(outcome).Inc()
}

func RecordSkillRename() {
	SkillRenames.Inc()
}

func RecordEventPublished(eventType, status string) {
	EventsPublished.WithLabelValues(eventType, status).Inc()
}
