package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for a pipeline run
type Registry struct {
	// Workspace Metrics
	WorkspacesTotal     *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	StageFailuresTotal  *prometheus.CounterVec
	ConvergenceWarnings *prometheus.CounterVec

	// Graph Metrics
	GraphNodes         *prometheus.GaugeVec
	GraphEdges         *prometheus.GaugeVec
	GraphCommunities   *prometheus.GaugeVec
	GraphModularity    *prometheus.GaugeVec
	GraphComponents    *prometheus.GaugeVec
	PageRankIterations *prometheus.GaugeVec

	// Layout Metrics
	LayoutIterationsTotal *prometheus.CounterVec
	LayoutSpeed           *prometheus.GaugeVec

	// Project Metrics
	ProjectSavesTotal    *prometheus.CounterVec
	ProjectArtifactBytes prometheus.Gauge

	// System Metrics
	RunDurationSeconds prometheus.Gauge
	LastRunTimestamp   prometheus.Gauge
	GoRoutines         prometheus.Gauge
	MemoryAllocBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initPipelineMetrics()
	r.initGraphMetrics()
	r.initLayoutMetrics()
	r.initProjectMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
