package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	r.WorkspacesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_workspaces_total",
			Help: "Workspaces processed by outcome",
		},
		[]string{"status"},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlas_stage_duration_seconds",
			Help:    "Duration of a pipeline stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"stage", "status"},
	)

	r.StageFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_stage_failures_total",
			Help: "Workspace failures by stage and error kind",
		},
		[]string{"stage", "kind"},
	)

	r.ConvergenceWarnings = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_convergence_warnings_total",
			Help: "Engines that stopped at their iteration cap",
		},
		[]string{"engine"},
	)
}
