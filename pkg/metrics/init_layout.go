package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLayoutMetrics() {
	r.LayoutIterationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_layout_iterations_total",
			Help: "Completed layout iterations",
		},
		[]string{"workspace"},
	)

	r.LayoutSpeed = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_layout_speed",
			Help: "Global layout speed after the last iteration",
		},
		[]string{"workspace"},
	)
}

func (r *Registry) initProjectMetrics() {
	r.ProjectSavesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_project_saves_total",
			Help: "Project save attempts by outcome",
		},
		[]string{"status"},
	)

	r.ProjectArtifactBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "atlas_project_artifact_bytes",
			Help: "Size of the last saved project artifact",
		},
	)
}
