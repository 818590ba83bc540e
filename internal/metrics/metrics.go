// Package metrics defines the Prometheus collectors exported by report-engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Workflow events.
const (
	EventStarted   = "started"
	EventSuspended = "suspended"
	EventResumed   = "resumed"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	// Workflow metrics
	WorkflowEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_engine_workflows_total",
			Help: "Report workflow lifecycle events",
		},
		[]string{"event"},
	)

	SectionSearchIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_engine_section_search_iterations",
			Help:    "Search rounds used by each researched section",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
	)

	FanoutTasks = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_engine_fanout_tasks",
			Help:    "Tasks launched per fan-out stage",
			Buckets: []float64{0, 1, 2, 4, 8, 16},
		},
		[]string{"stage"},
	)

	// Collaborator metrics
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_engine_llm_requests_total",
			Help: "LLM requests by provider, kind and outcome",
		},
		[]string{"provider", "kind", "outcome"},
	)

	LLMRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_engine_llm_request_duration_seconds",
			Help:    "LLM request latency in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_engine_search_requests_total",
			Help: "Web search requests by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)
)

// Outcome maps an error to a call outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
