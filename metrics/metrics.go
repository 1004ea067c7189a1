// Package metrics provides Prometheus metrics for the leadgen server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmailsTotal tracks campaign emails by delivery status
	EmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Subsystem: "campaign",
			Name:      "emails_total",
			Help:      "Total number of campaign emails by status",
		},
		[]string{"status"},
	)

	// EmailOpensTotal tracks first opens recorded by the tracking pixel
	EmailOpensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Subsystem: "tracking",
			Name:      "opens_total",
			Help:      "Total number of emails marked opened",
		},
	)

	// PixelHitsTotal counts every tracking pixel request, repeated or not
	PixelHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Subsystem: "tracking",
			Name:      "pixel_hits_total",
			Help:      "Total number of tracking pixel requests",
		},
	)

	// RemindersEmitted tracks reminders delivered by the poller
	RemindersEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Subsystem: "reminders",
			Name:      "emitted_total",
			Help:      "Total number of event reminders emitted",
		},
	)

	// ReminderPollDuration tracks how long one poll takes
	ReminderPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "leadgen",
			Subsystem: "reminders",
			Name:      "poll_duration_seconds",
			Help:      "Duration of reminder polls in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// AIRequestsTotal tracks generation attempts per model and result
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "Total number of model generation attempts",
		},
		[]string{"model", "result"},
	)

	// PipelineMovesTotal tracks Kanban stage changes
	PipelineMovesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Subsystem: "pipeline",
			Name:      "moves_total",
			Help:      "Total number of deal stage transitions",
		},
		[]string{"stage", "result"},
	)
)

// RecordEmail records one send attempt
func RecordEmail(status string) {
	EmailsTotal.WithLabelValues(status).Inc()
}

// RecordAIAttempt records one model attempt
func RecordAIAttempt(model, result string) {
	AIRequestsTotal.WithLabelValues(model, result).Inc()
}

// RecordPipelineMove records a stage transition attempt
func RecordPipelineMove(stage, result string) {
	PipelineMovesTotal.WithLabelValues(stage, result).Inc()
}
