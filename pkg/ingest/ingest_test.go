package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		format  string
		wantErr bool
	}{
		{"gexf/all.gexf", FormatGEXF, false},
		{"edges.CSV", FormatCSV, false},
		{"graph.json", FormatJSON, false},
		{"graph.graphml", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := DetectFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if format != tt.format {
				t.Errorf("Expected %q, got %q", tt.format, format)
			}
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "edges.csv", "source,target,weight,type,tweet\nalice,bob,2,retweet,t1\nbob,carol,,reply,t2\n")
	graph := storage.NewGraphStorage()

	if err := Load(context.Background(), path, "", graph); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	stats := graph.GetStatistics()
	if stats.NodeCount != 3 || stats.EdgeCount != 2 {
		t.Fatalf("Expected 3 nodes and 2 edges, got %d and %d", stats.NodeCount, stats.EdgeCount)
	}

	edges := graph.Edges()
	if edges[0].Weight != 2 || edges[0].Type != "retweet" {
		t.Errorf("Unexpected first edge %+v", edges[0])
	}
	if edges[1].Weight != 1.0 {
		t.Errorf("Expected default weight 1.0, got %v", edges[1].Weight)
	}
	if v, ok := edges[1].GetProperty("tweet"); !ok || v.String() != "t2" {
		t.Errorf("Expected tweet attribute t2, got %v", v)
	}
}

func TestLoadJSON(t *testing.T) {
	doc := `{
	  "directed": false,
	  "nodes": [
	    {"id": "1", "label": "One", "attributes": {"followers": 10, "verified": true}},
	    {"id": "2"}
	  ],
	  "edges": [
	    {"source": "1", "target": "2", "weight": 0.5},
	    {"source": "2", "target": "3", "directed": true}
	  ]
	}`
	path := writeFile(t, "graph.json", doc)
	graph := storage.NewGraphStorage(storage.WithForcedDirection(false))

	if err := Load(context.Background(), path, "", graph); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	one, err := graph.GetNodeByKey("1")
	if err != nil {
		t.Fatalf("GetNodeByKey failed: %v", err)
	}
	if one.Label != "One" {
		t.Errorf("Expected label One, got %s", one.Label)
	}
	if f, ok := one.Float("followers"); !ok || f != 10 {
		t.Errorf("Expected followers 10, got %v", f)
	}

	edges := graph.Edges()
	if edges[0].Directed {
		t.Error("Expected document default to make the first edge undirected")
	}
	if !edges[1].Directed {
		t.Error("Expected per-edge directed flag to win")
	}
}

func TestLoadForcesDirection(t *testing.T) {
	path := writeFile(t, "graph.json", `{"directed": false, "edges": [{"source": "a", "target": "b"}]}`)
	graph := storage.NewGraphStorage()

	if err := Load(context.Background(), path, FormatJSON, graph); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !graph.Edges()[0].Directed {
		t.Error("Expected forced direction to store the edge as directed")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		content   string
		malformed bool
	}{
		{"unknown extension", "graph.graphml", "<graphml/>", false},
		{"csv without target column", "edges.csv", "source,weight\na,1\n", true},
		{"csv bad weight", "edges.csv", "source,target,weight\na,b,x\n", true},
		{"csv short row", "edges.csv", "source,target,weight\na,b\n", true},
		{"negative weight", "edges.csv", "source,target,weight\na,b,-1\n", true},
		{"json syntax", "graph.json", `{"nodes": [`, true},
		{"json empty id", "graph.json", `{"nodes": [{"id": ""}]}`, true},
		{"gexf truncated", "graph.gexf", `<gexf><graph><nodes>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			graph := storage.NewGraphStorage()

			err := Load(context.Background(), path, "", graph)
			var importErr *ImportError
			if !errors.As(err, &importErr) {
				t.Fatalf("Expected *ImportError, got %v", err)
			}
			if importErr.Path != path {
				t.Errorf("Expected path %s, got %s", path, importErr.Path)
			}
			if storage.IsMalformed(err) != tt.malformed {
				t.Errorf("IsMalformed = %v, want %v (%v)", !tt.malformed, tt.malformed, err)
			}
			if graph.GetStatistics().EdgeCount != 0 {
				t.Error("Expected failed import to leave the graph empty")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.gexf"), "", storage.NewGraphStorage())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}

func TestLoadCanceled(t *testing.T) {
	path := writeFile(t, "edges.csv", "source,target\na,b\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Load(ctx, path, "", storage.NewGraphStorage())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestReadFileEmpty(t *testing.T) {
	data, err := ReadFile(writeFile(t, "empty.csv", ""))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected no data, got %d bytes", len(data))
	}
}
