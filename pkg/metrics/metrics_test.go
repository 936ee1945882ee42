package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.WorkspacesTotal == nil {
		t.Error("WorkspacesTotal not initialized")
	}
	if r.StageDuration == nil {
		t.Error("StageDuration not initialized")
	}
	if r.LayoutIterationsTotal == nil {
		t.Error("LayoutIterationsTotal not initialized")
	}
	if r.ProjectSavesTotal == nil {
		t.Error("ProjectSavesTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordWorkspace(t *testing.T) {
	r := NewRegistry()

	r.RecordWorkspace("all", "completed", 120, 480)
	r.RecordWorkspace("like", "failed", 0, 0)
	r.RecordWorkspace("reply", "completed", 10, 9)

	if v := counterValue(t, r.WorkspacesTotal.WithLabelValues("completed")); v != 2 {
		t.Errorf("Completed counter = %v, want 2", v)
	}
	if v := counterValue(t, r.WorkspacesTotal.WithLabelValues("failed")); v != 1 {
		t.Errorf("Failed counter = %v, want 1", v)
	}
	if v := gaugeValue(t, r.GraphEdges.WithLabelValues("all")); v != 480 {
		t.Errorf("Edges gauge = %v, want 480", v)
	}
}

func TestRecordAnalysis(t *testing.T) {
	r := NewRegistry()

	r.RecordModularity("all", 4, 0.42)
	r.RecordComponents("all", 2)
	r.RecordPageRank("all", 37)
	r.RecordConvergenceWarning("pagerank")

	tests := []struct {
		name     string
		gauge    prometheus.Gauge
		expected float64
	}{
		{"GraphCommunities", r.GraphCommunities.WithLabelValues("all"), 4},
		{"GraphModularity", r.GraphModularity.WithLabelValues("all"), 0.42},
		{"GraphComponents", r.GraphComponents.WithLabelValues("all"), 2},
		{"PageRankIterations", r.PageRankIterations.WithLabelValues("all"), 37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v := gaugeValue(t, tt.gauge); v != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, v, tt.expected)
			}
		})
	}

	if v := counterValue(t, r.ConvergenceWarnings.WithLabelValues("pagerank")); v != 1 {
		t.Errorf("Warnings counter = %v, want 1", v)
	}
}

func TestRecordLayout(t *testing.T) {
	r := NewRegistry()

	// interrupted runs add their partial count
	r.RecordLayout("all", 250, 1.5)
	r.RecordLayout("all", 150, 0.75)

	if v := counterValue(t, r.LayoutIterationsTotal.WithLabelValues("all")); v != 400 {
		t.Errorf("Iterations counter = %v, want 400", v)
	}
	if v := gaugeValue(t, r.LayoutSpeed.WithLabelValues("all")); v != 0.75 {
		t.Errorf("Speed gauge = %v, want 0.75", v)
	}
}

func TestRecordStageAndFailure(t *testing.T) {
	r := NewRegistry()

	r.RecordStage("import", "success", 20*time.Millisecond)
	r.RecordStage("import", "error", 5*time.Millisecond)
	r.RecordFailure("import", "import")

	if v := counterValue(t, r.StageFailuresTotal.WithLabelValues("import", "import")); v != 1 {
		t.Errorf("Failure counter = %v, want 1", v)
	}

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "atlas_stage_duration_seconds" {
			continue
		}
		if len(mf.GetMetric()) != 2 {
			t.Errorf("Expected 2 stage series, got %d", len(mf.GetMetric()))
		}
		return
	}
	t.Error("atlas_stage_duration_seconds not gathered")
}

func TestRecordSaveAndRun(t *testing.T) {
	r := NewRegistry()

	r.RecordSave("success", 2048)
	r.RecordSave("error", 0)
	r.RecordRun(3 * time.Second)

	if v := gaugeValue(t, r.ProjectArtifactBytes); v != 2048 {
		t.Errorf("Artifact bytes = %v, want 2048", v)
	}
	if v := gaugeValue(t, r.RunDurationSeconds); v != 3 {
		t.Errorf("Run duration = %v, want 3", v)
	}
	if v := gaugeValue(t, r.GoRoutines); v <= 0 {
		t.Errorf("Goroutines gauge = %v, want > 0", v)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordWorkspace("retweet", "completed", 3, 4)

	path := filepath.Join(t.TempDir(), "atlas.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), `atlas_graph_nodes{workspace="retweet"} 3`) {
		t.Errorf("Textfile missing node gauge:\n%s", data)
	}
}
