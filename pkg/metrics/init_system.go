package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSystemMetrics() {
	r.RunDurationSeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "atlas_run_duration_seconds",
			Help: "Wall time of the last pipeline run in seconds",
		},
	)

	r.LastRunTimestamp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "atlas_last_run_timestamp_seconds",
			Help: "Unix time the last pipeline run finished",
		},
	)

	r.GoRoutines = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "atlas_goroutines",
			Help: "Number of goroutines",
		},
	)

	r.MemoryAllocBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "atlas_memory_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		},
	)
}
