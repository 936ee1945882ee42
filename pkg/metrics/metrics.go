package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordStage records the duration of one pipeline stage
func (r *Registry) RecordStage(stage, status string, duration time.Duration) {
	r.StageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// RecordFailure records a workspace failure
func (r *Registry) RecordFailure(stage, kind string) {
	r.StageFailuresTotal.WithLabelValues(stage, kind).Inc()
}

// RecordConvergenceWarning records an engine that hit its iteration cap
func (r *Registry) RecordConvergenceWarning(engine string) {
	r.ConvergenceWarnings.WithLabelValues(engine).Inc()
}

// RecordWorkspace records the outcome and size of a workspace
func (r *Registry) RecordWorkspace(name, status string, nodes, edges uint64) {
	r.WorkspacesTotal.WithLabelValues(status).Inc()
	r.GraphNodes.WithLabelValues(name).Set(float64(nodes))
	r.GraphEdges.WithLabelValues(name).Set(float64(edges))
}

// RecordModularity records the partition found for a workspace
func (r *Registry) RecordModularity(workspace string, communities int, modularity float64) {
	r.GraphCommunities.WithLabelValues(workspace).Set(float64(communities))
	r.GraphModularity.WithLabelValues(workspace).Set(modularity)
}

// RecordComponents records the weakly connected component count
func (r *Registry) RecordComponents(workspace string, components int) {
	r.GraphComponents.WithLabelValues(workspace).Set(float64(components))
}

// RecordPageRank records how many iterations PageRank ran
func (r *Registry) RecordPageRank(workspace string, iterations int) {
	r.PageRankIterations.WithLabelValues(workspace).Set(float64(iterations))
}

// RecordLayout records completed layout iterations and the final speed
func (r *Registry) RecordLayout(workspace string, iterations int, speed float64) {
	r.LayoutIterationsTotal.WithLabelValues(workspace).Add(float64(iterations))
	r.LayoutSpeed.WithLabelValues(workspace).Set(speed)
}

// RecordSave records a project save attempt
func (r *Registry) RecordSave(status string, size int) {
	r.ProjectSavesTotal.WithLabelValues(status).Inc()
	if size > 0 {
		r.ProjectArtifactBytes.Set(float64(size))
	}
}

// RecordRun records the end of a pipeline run
func (r *Registry) RecordRun(duration time.Duration) {
	r.RunDurationSeconds.Set(duration.Seconds())
	r.LastRunTimestamp.Set(float64(time.Now().Unix()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}

// WriteTextfile writes every metric to path in the text exposition format,
// for collection by the node exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return prometheus.WriteToTextfile(path, r.registry)
}
