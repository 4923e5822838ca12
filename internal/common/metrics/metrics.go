// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SlidesClassified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_slides_classified_total",
			Help: "Total number of slides classified as issues",
		},
	)

	AnalysesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_analyses_completed_total",
			Help: "Total number of slides successfully analyzed",
		},
	)

	AnalysesFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_analyses_failed_total",
			Help: "Total number of slide analyses that failed",
		},
	)

	TicketsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_tickets_created_total",
			Help: "Total number of tickets created",
		},
	)

	TicketsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_tickets_failed_total",
			Help: "Total number of ticket creations that failed",
		},
	)

	AttachmentsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_attachments_failed_total",
			Help: "Total number of attachment uploads that failed",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)
)
