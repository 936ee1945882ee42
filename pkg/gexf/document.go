// Package gexf reads and writes GEXF graph documents.
package gexf

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// Document is a decoded GEXF file. Elements are matched by local name, so
// the 1.1, 1.2 and 1.3 namespaces (and their viz extensions) all decode.
type Document struct {
	XMLName xml.Name `xml:"gexf"`
	Version string   `xml:"version,attr"`
	Graph   Graph    `xml:"graph"`
}

// Graph is the single graph of a document
type Graph struct {
	DefaultEdgeType string            `xml:"defaultedgetype,attr"`
	Mode            string            `xml:"mode,attr"`
	Attributes      []AttributesBlock `xml:"attributes"`
	Nodes           []Node            `xml:"nodes>node"`
	Edges           []Edge            `xml:"edges>edge"`
}

// AttributesBlock declares the attributes of one element class
type AttributesBlock struct {
	Class      string          `xml:"class,attr"`
	Attributes []AttributeDecl `xml:"attribute"`
}

// AttributeDecl declares one attribute column
type AttributeDecl struct {
	ID      string `xml:"id,attr"`
	Title   string `xml:"title,attr"`
	Type    string `xml:"type,attr"`
	Default string `xml:"default"`
}

// AttValue is one attribute value of a node or edge
type AttValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

// Node is a GEXF node with optional viz data
type Node struct {
	ID        string     `xml:"id,attr"`
	Label     string     `xml:"label,attr"`
	AttValues []AttValue `xml:"attvalues>attvalue"`
	Size      *VizSize   `xml:"size"`
	Position  *VizPos    `xml:"position"`
	Color     *VizColor  `xml:"color"`
}

// Edge is a GEXF edge. Weight stays textual so that malformed numbers can be
// reported with their record.
type Edge struct {
	ID        string     `xml:"id,attr"`
	Source    string     `xml:"source,attr"`
	Target    string     `xml:"target,attr"`
	Type      string     `xml:"type,attr"`
	Label     string     `xml:"label,attr"`
	Weight    string     `xml:"weight,attr"`
	AttValues []AttValue `xml:"attvalues>attvalue"`
}

// VizSize is the viz:size element
type VizSize struct {
	Value float64 `xml:"value,attr"`
}

// VizPos is the viz:position element
type VizPos struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
	Z float64 `xml:"z,attr"`
}

// VizColor is the viz:color element
type VizColor struct {
	R uint8 `xml:"r,attr"`
	G uint8 `xml:"g,attr"`
	B uint8 `xml:"b,attr"`
}

// Hex renders the colour as #rrggbb
func (c VizColor) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Decode parses a GEXF document
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrMalformedInput, err)
	}
	return &doc, nil
}

// ParseValue converts a textual attribute value of the given GEXF type
func ParseValue(gexfType, raw string) (storage.Value, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(gexfType) {
	case "integer", "long", "short", "byte":
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return storage.Value{}, err
		}
		return storage.IntValue(i), nil
	case "float", "double", "bigdecimal":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return storage.Value{}, err
		}
		return storage.FloatValue(f), nil
	case "boolean":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return storage.Value{}, err
		}
		return storage.BoolValue(b), nil
	default:
		return storage.StringValue(raw), nil
	}
}

// TypeName returns the GEXF type used to declare values of t
func TypeName(t storage.ValueType) string {
	switch t {
	case storage.TypeInt:
		return "long"
	case storage.TypeFloat:
		return "double"
	case storage.TypeBool:
		return "boolean"
	default:
		return "string"
	}
}

type columns map[string]AttributeDecl

func (d *Document) columns(class string) columns {
	cols := make(columns)
	for _, block := range d.Graph.Attributes {
		blockClass := block.Class
		if blockClass == "" {
			blockClass = "node"
		}
		if blockClass != class {
			continue
		}
		for _, decl := range block.Attributes {
			cols[decl.ID] = decl
		}
	}
	return cols
}

// attributes resolves attvalues against the declarations, filling defaults.
// Undeclared attvalues are kept as strings.
func (c columns) attributes(values []AttValue) (map[string]storage.Value, string, error) {
	attrs := make(map[string]storage.Value, len(c)+len(values))
	for id, decl := range c {
		if decl.Default == "" {
			continue
		}
		v, err := ParseValue(decl.Type, decl.Default)
		if err != nil {
			return nil, id, err
		}
		attrs[id] = v
	}
	for _, av := range values {
		decl, ok := c[av.For]
		if !ok {
			attrs[av.For] = storage.StringValue(av.Value)
			continue
		}
		v, err := ParseValue(decl.Type, av.Value)
		if err != nil {
			return nil, av.For, err
		}
		attrs[av.For] = v
	}
	return attrs, "", nil
}

// Records converts the document into import batches. Viz size, position and
// colour become the size, x, y and color node attributes.
func (d *Document) Records() ([]storage.NodeRecord, []storage.EdgeRecord, error) {
	nodeCols := d.columns("node")
	edgeCols := d.columns("edge")
	// GEXF edges are undirected unless the graph says otherwise
	undirectedByDefault := d.Graph.DefaultEdgeType == "" || strings.EqualFold(d.Graph.DefaultEdgeType, "undirected")

	nodes := make([]storage.NodeRecord, 0, len(d.Graph.Nodes))
	for i, n := range d.Graph.Nodes {
		attrs, field, err := nodeCols.attributes(n.AttValues)
		if err != nil {
			return nil, nil, storage.MalformedInputError("gexf", "node", i, err).NodeKey(n.ID).Field(field).Err()
		}
		if n.Size != nil {
			attrs[storage.AttrSize] = storage.FloatValue(n.Size.Value)
		}
		if n.Position != nil {
			attrs[storage.AttrX] = storage.FloatValue(n.Position.X)
			attrs[storage.AttrY] = storage.FloatValue(n.Position.Y)
		}
		if n.Color != nil {
			attrs[storage.AttrColor] = storage.StringValue(n.Color.Hex())
		}
		nodes = append(nodes, storage.NodeRecord{Key: n.ID, Label: n.Label, Attributes: attrs})
	}

	edges := make([]storage.EdgeRecord, 0, len(d.Graph.Edges))
	for i, e := range d.Graph.Edges {
		attrs, field, err := edgeCols.attributes(e.AttValues)
		if err != nil {
			return nil, nil, storage.MalformedInputError("gexf", "edge", i, err).Field(field).Err()
		}
		rec := storage.EdgeRecord{
			Source:     e.Source,
			Target:     e.Target,
			Type:       e.Label,
			Attributes: attrs,
		}
		if e.Weight != "" {
			w, err := strconv.ParseFloat(strings.TrimSpace(e.Weight), 64)
			if err != nil {
				return nil, nil, storage.MalformedInputError("gexf", "edge", i, err).Field("weight").Err()
			}
			rec.Weight = w
		}
		switch strings.ToLower(e.Type) {
		case "undirected":
			rec.Undirected = true
		case "directed", "mutual":
		default:
			rec.Undirected = undirectedByDefault
		}
		edges = append(edges, rec)
	}
	return nodes, edges, nil
}
