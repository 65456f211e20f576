// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	BusinessActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "business_activations_total",
			Help: "Activation attempts by business model and result",
		},
		[]string{"business_model", "result"},
	)

	RequestTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_request_transitions_total",
			Help: "Service request status transitions applied",
		},
		[]string{"from", "to"},
	)

	BusinessNumberConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "business_number_conflicts_total",
			Help: "Business numbers rejected by the unique index and regenerated",
		},
	)
)

const (
	ResultActivated = "activated"
	ResultFailed    = "failed"
)
