package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

const (
	// Magic opens every project artifact
	Magic = "ATLASPRJ"
	// Version is the artifact format version written by Encode
	Version byte = 1
)

var (
	ErrBadMagic           = errors.New("not a project artifact")
	ErrUnsupportedVersion = errors.New("unsupported artifact version")
)

type projectDocument struct {
	ID         uuid.UUID           `json:"id"`
	Name       string              `json:"name"`
	CreatedAt  time.Time           `json:"created_at"`
	Workspaces []workspaceDocument `json:"workspaces"`
}

type workspaceDocument struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Source    string         `json:"source"`
	Format    string         `json:"format,omitempty"`
	Status    Status         `json:"status"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
	Summary   Summary        `json:"summary"`
	Graph     *graphDocument `json:"graph,omitempty"`
}

type graphDocument struct {
	ForcedDirection bool                     `json:"forced_direction"`
	Attributes      map[string]storage.Value `json:"attributes,omitempty"`
	Nodes           []nodeDocument           `json:"nodes"`
	Edges           []edgeDocument           `json:"edges"`
}

type nodeDocument struct {
	Key        string                   `json:"key"`
	Label      string                   `json:"label"`
	Attributes map[string]storage.Value `json:"attributes,omitempty"`
}

type edgeDocument struct {
	Source     string                   `json:"source"`
	Target     string                   `json:"target"`
	Type       string                   `json:"type,omitempty"`
	Weight     float64                  `json:"weight"`
	Directed   bool                     `json:"directed"`
	Attributes map[string]storage.Value `json:"attributes,omitempty"`
}

// Encode writes the artifact: magic, version byte, then the snappy framed
// JSON document.
func Encode(w io.Writer, p *Project) error {
	doc := projectDocument{
		ID:         p.ID,
		Name:       p.Name,
		CreatedAt:  p.CreatedAt,
		Workspaces: make([]workspaceDocument, 0, len(p.Workspaces)),
	}
	for _, ws := range p.Workspaces {
		doc.Workspaces = append(doc.Workspaces, workspaceDocument{
			ID:        ws.ID,
			Name:      ws.Name,
			Source:    ws.Source,
			Format:    ws.Format,
			Status:    ws.Status,
			ErrorKind: ws.ErrorKind,
			Error:     ws.Error,
			Summary:   ws.Summary,
			Graph:     encodeGraph(ws.Graph),
		})
	}

	if _, err := io.WriteString(w, Magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{Version}); err != nil {
		return err
	}
	sw := snappy.NewBufferedWriter(w)
	if err := json.NewEncoder(sw).Encode(doc); err != nil {
		_ = sw.Close()
		return fmt.Errorf("encode project: %w", err)
	}
	return sw.Close()
}

// Marshal encodes the project into memory
func Marshal(p *Project) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads an artifact written by Encode and rebuilds every graph
func Decode(r io.Reader) (*Project, error) {
	header := make([]byte, len(Magic)+1)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMagic, err)
	}
	if string(header[:len(Magic)]) != Magic {
		return nil, ErrBadMagic
	}
	if v := header[len(Magic)]; v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	var doc projectDocument
	if err := json.NewDecoder(snappy.NewReader(r)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}

	p := &Project{ID: doc.ID, Name: doc.Name, CreatedAt: doc.CreatedAt}
	for _, wd := range doc.Workspaces {
		ws := &Workspace{
			ID:        wd.ID,
			Name:      wd.Name,
			Source:    wd.Source,
			Format:    wd.Format,
			Status:    wd.Status,
			ErrorKind: wd.ErrorKind,
			Error:     wd.Error,
			Summary:   wd.Summary,
		}
		if wd.Graph != nil {
			graph, err := decodeGraph(wd.Graph)
			if err != nil {
				return nil, fmt.Errorf("workspace %s: %w", wd.Name, err)
			}
			ws.Graph = graph
		}
		p.Workspaces = append(p.Workspaces, ws)
	}
	return p, nil
}

func encodeGraph(graph *storage.GraphStorage) *graphDocument {
	if graph == nil {
		return nil
	}

	// creation order keeps internal IDs stable across a round trip
	nodes := graph.Nodes()
	slices.SortFunc(nodes, func(a, b *storage.Node) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	doc := &graphDocument{
		ForcedDirection: graph.ForcedDirection(),
		Attributes:      graph.GraphAttributes(),
		Nodes:           make([]nodeDocument, 0, len(nodes)),
	}
	keys := make(map[uint64]string, len(nodes))
	for _, node := range nodes {
		keys[node.ID] = node.Key
		doc.Nodes = append(doc.Nodes, nodeDocument{Key: node.Key, Label: node.Label, Attributes: node.Properties})
	}

	edges := graph.Edges()
	doc.Edges = make([]edgeDocument, 0, len(edges))
	for _, edge := range edges {
		doc.Edges = append(doc.Edges, edgeDocument{
			Source:     keys[edge.FromNodeID],
			Target:     keys[edge.ToNodeID],
			Type:       edge.Type,
			Weight:     edge.Weight,
			Directed:   edge.Directed,
			Attributes: edge.Properties,
		})
	}
	return doc
}

func decodeGraph(doc *graphDocument) (*storage.GraphStorage, error) {
	graph := storage.NewGraphStorage(storage.WithForcedDirection(doc.ForcedDirection))

	nodes := make([]storage.NodeRecord, len(doc.Nodes))
	for i, n := range doc.Nodes {
		nodes[i] = storage.NodeRecord{Key: n.Key, Label: n.Label, Attributes: n.Attributes}
	}
	if err := graph.ImportNodes(nodes); err != nil {
		return nil, err
	}

	edges := make([]storage.EdgeRecord, len(doc.Edges))
	for i, e := range doc.Edges {
		edges[i] = storage.EdgeRecord{
			Source:     e.Source,
			Target:     e.Target,
			Type:       e.Type,
			Weight:     e.Weight,
			Undirected: !e.Directed,
			Attributes: e.Attributes,
		}
	}
	if err := graph.ImportEdges(edges); err != nil {
		return nil, err
	}

	for k, v := range doc.Attributes {
		graph.SetGraphAttribute(k, v)
	}
	return graph, nil
}
