package gexf

import (
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

const (
	namespace    = "http://gexf.net/1.3"
	vizNamespace = "http://gexf.net/1.3/viz"
)

// Colorizer returns the viz colour of a community id
type Colorizer interface {
	RGB(community int) (r, g, b uint8)
}

// WriteOptions configures Write
type WriteOptions struct {
	Creator     string
	Description string
	Colors      Colorizer // Colours nodes without a color attribute by modularity_class
}

// The output model spells out the viz prefix; encoding/xml cannot emit
// prefixed names from namespaces.
type outDocument struct {
	XMLName xml.Name `xml:"gexf"`
	XMLNS   string   `xml:"xmlns,attr"`
	VizNS   string   `xml:"xmlns:viz,attr"`
	Version string   `xml:"version,attr"`
	Meta    outMeta  `xml:"meta"`
	Graph   outGraph `xml:"graph"`
}

type outMeta struct {
	Creator     string `xml:"creator,omitempty"`
	Description string `xml:"description,omitempty"`
}

type outGraph struct {
	Mode            string          `xml:"mode,attr"`
	DefaultEdgeType string          `xml:"defaultedgetype,attr"`
	Attributes      []outAttributes `xml:"attributes"`
	Nodes           []outNode       `xml:"nodes>node"`
	Edges           []outEdge       `xml:"edges>edge"`
}

type outAttributes struct {
	Class      string          `xml:"class,attr"`
	Attributes []AttributeDecl `xml:"attribute"`
}

type outNode struct {
	ID        string     `xml:"id,attr"`
	Label     string     `xml:"label,attr"`
	AttValues []AttValue `xml:"attvalues>attvalue,omitempty"`
	Size      *VizSize   `xml:"viz:size"`
	Position  *VizPos    `xml:"viz:position"`
	Color     *VizColor  `xml:"viz:color"`
}

type outEdge struct {
	ID        string     `xml:"id,attr"`
	Source    string     `xml:"source,attr"`
	Target    string     `xml:"target,attr"`
	Type      string     `xml:"type,attr"`
	Label     string     `xml:"label,attr,omitempty"`
	Weight    float64    `xml:"weight,attr"`
	AttValues []AttValue `xml:"attvalues>attvalue,omitempty"`
}

// vizKeys are written as viz elements instead of attvalues
var vizKeys = map[string]bool{
	storage.AttrX:     true,
	storage.AttrY:     true,
	storage.AttrSize:  true,
	storage.AttrColor: true,
}

// Write encodes graph as a GEXF 1.3 document. Nodes appear in ascending
// identifier order, edges in creation order.
func Write(w io.Writer, graph *storage.GraphStorage, opts WriteOptions) error {
	nodeCols := declarations(graph.NodeSchema(), vizKeys)
	edgeCols := declarations(graph.EdgeSchema(), nil)

	doc := outDocument{
		XMLNS:   namespace,
		VizNS:   vizNamespace,
		Version: "1.3",
		Meta:    outMeta{Creator: opts.Creator, Description: opts.Description},
		Graph: outGraph{
			Mode:            "static",
			DefaultEdgeType: "directed",
			Attributes: []outAttributes{
				{Class: "node", Attributes: nodeCols},
				{Class: "edge", Attributes: edgeCols},
			},
		},
	}

	keys := make(map[uint64]string)
	for _, node := range graph.Nodes() {
		keys[node.ID] = node.Key
		doc.Graph.Nodes = append(doc.Graph.Nodes, encodeNode(node, nodeCols, opts.Colors))
	}

	for _, edge := range graph.Edges() {
		edgeType := "directed"
		if !edge.Directed {
			edgeType = "undirected"
		}
		doc.Graph.Edges = append(doc.Graph.Edges, outEdge{
			ID:        strconv.FormatUint(edge.ID, 10),
			Source:    keys[edge.FromNodeID],
			Target:    keys[edge.ToNodeID],
			Type:      edgeType,
			Label:     edge.Type,
			Weight:    edge.Weight,
			AttValues: attValues(edge.Properties, edgeCols),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode gexf: %w", err)
	}
	return enc.Close()
}

func declarations(schema map[string]storage.ValueType, skip map[string]bool) []AttributeDecl {
	ids := make([]string, 0, len(schema))
	for id := range schema {
		if !skip[id] {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	decls := make([]AttributeDecl, len(ids))
	for i, id := range ids {
		decls[i] = AttributeDecl{ID: id, Title: id, Type: TypeName(schema[id])}
	}
	return decls
}

func attValues(props map[string]storage.Value, cols []AttributeDecl) []AttValue {
	var values []AttValue
	for _, decl := range cols {
		if v, ok := props[decl.ID]; ok {
			values = append(values, AttValue{For: decl.ID, Value: v.String()})
		}
	}
	return values
}

func encodeNode(node *storage.Node, cols []AttributeDecl, colors Colorizer) outNode {
	out := outNode{
		ID:        node.Key,
		Label:     node.Label,
		AttValues: attValues(node.Properties, cols),
	}
	if size, ok := node.Float(storage.AttrSize); ok {
		out.Size = &VizSize{Value: size}
	}
	x, okX := node.Float(storage.AttrX)
	y, okY := node.Float(storage.AttrY)
	if okX && okY {
		out.Position = &VizPos{X: x, Y: y}
	}

	if v, ok := node.GetProperty(storage.AttrColor); ok {
		var rgb uint32
		if _, err := fmt.Sscanf(v.String(), "#%06x", &rgb); err == nil {
			out.Color = &VizColor{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb)}
		}
	}
	if c, ok := node.Int(storage.AttrCommunity); ok && out.Color == nil && colors != nil {
		r, g, b := colors.RGB(int(c))
		out.Color = &VizColor{R: r, G: g, B: b}
	}
	return out
}
