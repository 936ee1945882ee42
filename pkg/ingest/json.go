package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// JSONProcessor handles node-link documents
type JSONProcessor struct{}

type jsonDocument struct {
	Directed *bool      `json:"directed"`
	Nodes    []jsonNode `json:"nodes"`
	Edges    []jsonEdge `json:"edges"`
}

type jsonNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Attributes map[string]any `json:"attributes"`
}

type jsonEdge struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Weight     float64        `json:"weight"`
	Directed   *bool          `json:"directed"`
	Attributes map[string]any `json:"attributes"`
}

// GetName returns the processor format
func (p *JSONProcessor) GetName() string {
	return FormatJSON
}

// ProcessData decodes a node-link document. Edges are directed unless the
// document or the edge says otherwise.
func (p *JSONProcessor) ProcessData(data []byte) ([]storage.NodeRecord, []storage.EdgeRecord, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", storage.ErrMalformedInput, err)
	}
	directed := doc.Directed == nil || *doc.Directed

	nodes := make([]storage.NodeRecord, 0, len(doc.Nodes))
	for i, n := range doc.Nodes {
		attrs, field, err := convertAttributes(n.Attributes)
		if err != nil {
			return nil, nil, storage.MalformedInputError("json", "node", i, err).NodeKey(n.ID).Field(field).Err()
		}
		nodes = append(nodes, storage.NodeRecord{Key: n.ID, Label: n.Label, Attributes: attrs})
	}

	edges := make([]storage.EdgeRecord, 0, len(doc.Edges))
	for i, e := range doc.Edges {
		attrs, field, err := convertAttributes(e.Attributes)
		if err != nil {
			return nil, nil, storage.MalformedInputError("json", "edge", i, err).Field(field).Err()
		}
		edgeDirected := directed
		if e.Directed != nil {
			edgeDirected = *e.Directed
		}
		edges = append(edges, storage.EdgeRecord{
			Source:     e.Source,
			Target:     e.Target,
			Type:       e.Type,
			Weight:     e.Weight,
			Undirected: !edgeDirected,
			Attributes: attrs,
		})
	}
	return nodes, edges, nil
}

func convertAttributes(raw map[string]any) (map[string]storage.Value, string, error) {
	if len(raw) == 0 {
		return nil, "", nil
	}
	attrs := make(map[string]storage.Value, len(raw))
	for k, v := range raw {
		val, err := storage.ValueFromAny(v)
		if err != nil {
			return nil, k, err
		}
		attrs[k] = val
	}
	return attrs, "", nil
}
