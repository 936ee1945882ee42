package gexf

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<gexf xmlns="http://gexf.net/1.3" xmlns:viz="http://gexf.net/1.3/viz" version="1.3">
  <graph defaultedgetype="directed" mode="static">
    <attributes class="node">
      <attribute id="followers" title="Followers" type="integer"/>
      <attribute id="verified" title="Verified" type="boolean">
        <default>false</default>
      </attribute>
    </attributes>
    <attributes class="edge">
      <attribute id="at" title="At" type="string"/>
    </attributes>
    <nodes>
      <node id="alice" label="Alice">
        <attvalues>
          <attvalue for="followers" value="120"/>
          <attvalue for="verified" value="true"/>
        </attvalues>
        <viz:size value="4.5"/>
        <viz:position x="1" y="-2" z="0"/>
        <viz:color r="255" g="0" b="16"/>
      </node>
      <node id="bob" label="Bob"/>
    </nodes>
    <edges>
      <edge id="0" source="alice" target="bob" weight="2.5" label="retweet">
        <attvalues>
          <attvalue for="at" value="2021-01-06"/>
        </attvalues>
      </edge>
      <edge id="1" source="bob" target="alice" type="undirected"/>
    </edges>
  </graph>
</gexf>`

func TestDecodeRecords(t *testing.T) {
	doc, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	nodes, edges, err := doc.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}

	if len(nodes) != 2 || len(edges) != 2 {
		t.Fatalf("Expected 2 nodes and 2 edges, got %d and %d", len(nodes), len(edges))
	}

	alice := nodes[0]
	if alice.Key != "alice" || alice.Label != "Alice" {
		t.Errorf("Unexpected first node %q/%q", alice.Key, alice.Label)
	}
	if v := alice.Attributes["followers"]; v.Type != storage.TypeInt {
		t.Errorf("Expected followers to be an integer, got %s", v.Type)
	}
	if b, _ := alice.Attributes["verified"].AsBool(); !b {
		t.Error("Expected verified=true on alice")
	}
	if s, _ := alice.Attributes[storage.AttrSize].AsFloat(); s != 4.5 {
		t.Errorf("Expected size 4.5, got %v", s)
	}
	if y, _ := alice.Attributes[storage.AttrY].AsFloat(); y != -2 {
		t.Errorf("Expected y -2, got %v", y)
	}
	if c, _ := alice.Attributes[storage.AttrColor].AsString(); c != "#ff0010" {
		t.Errorf("Expected colour #ff0010, got %s", c)
	}

	// bob only carries the declared default
	if b, err := nodes[1].Attributes["verified"].AsBool(); err != nil || b {
		t.Errorf("Expected default verified=false on bob, got %v (%v)", b, err)
	}

	if edges[0].Weight != 2.5 || edges[0].Type != "retweet" || edges[0].Undirected {
		t.Errorf("Unexpected first edge %+v", edges[0])
	}
	if !edges[1].Undirected {
		t.Error("Expected explicit undirected edge to stay undirected")
	}
}

func TestDefaultEdgeType(t *testing.T) {
	tests := []struct {
		name       string
		attr       string
		undirected bool
	}{
		{"absent", ``, true},
		{"undirected", ` defaultedgetype="undirected"`, true},
		{"directed", ` defaultedgetype="directed"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `<gexf><graph` + tt.attr + `><nodes/><edges><edge source="a" target="b"/></edges></graph></gexf>`
			doc, err := Decode(strings.NewReader(src))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			_, edges, err := doc.Records()
			if err != nil {
				t.Fatalf("Records failed: %v", err)
			}
			if edges[0].Undirected != tt.undirected {
				t.Errorf("Expected undirected=%v, got %v", tt.undirected, edges[0].Undirected)
			}
		})
	}
}

func TestMalformedDocuments(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		record string
	}{
		{
			name: "truncated",
			src:  `<gexf><graph><nodes><node id="a">`,
		},
		{
			name:   "bad weight",
			src:    `<gexf><graph><edges><edge source="a" target="b"/><edge source="b" target="c" weight="heavy"/></edges></graph></gexf>`,
			record: "(record 2)",
		},
		{
			name:   "bad typed attribute",
			src:    `<gexf><graph><attributes class="node"><attribute id="n" type="integer"/></attributes><nodes><node id="a"><attvalues><attvalue for="n" value="x"/></attvalues></node></nodes></graph></gexf>`,
			record: "(field n)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.src))
			if err == nil {
				_, _, err = doc.Records()
			}
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !errors.Is(err, storage.ErrMalformedInput) {
				t.Errorf("Expected ErrMalformedInput, got %v", err)
			}
			if tt.record != "" && !strings.Contains(err.Error(), tt.record) {
				t.Errorf("Expected %q in %q", tt.record, err.Error())
			}
		})
	}
}

type fixedColor struct{}

func (fixedColor) RGB(int) (uint8, uint8, uint8) { return 1, 2, 3 }

func TestWriteRoundTrip(t *testing.T) {
	graph := storage.NewGraphStorage()
	err := graph.ImportNodes([]storage.NodeRecord{
		{Key: "a", Label: "Alpha", Attributes: map[string]storage.Value{"followers": storage.IntValue(7)}},
		{Key: "b"},
	})
	if err != nil {
		t.Fatalf("ImportNodes failed: %v", err)
	}
	err = graph.ImportEdges([]storage.EdgeRecord{
		{Source: "a", Target: "b", Type: "reply", Weight: 3},
		{Source: "b", Target: "a"},
	})
	if err != nil {
		t.Fatalf("ImportEdges failed: %v", err)
	}

	for _, node := range graph.Nodes() {
		_ = graph.SetNodeProperty(node.ID, storage.AttrX, storage.FloatValue(10))
		_ = graph.SetNodeProperty(node.ID, storage.AttrY, storage.FloatValue(-5))
		_ = graph.SetNodeProperty(node.ID, storage.AttrCommunity, storage.IntValue(0))
	}

	var buf bytes.Buffer
	if err := Write(&buf, graph, WriteOptions{Creator: "test", Colors: fixedColor{}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`xmlns:viz="http://gexf.net/1.3/viz"`, `<viz:position`, `<viz:color r="1" g="2" b="3">`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in output", want)
		}
	}

	doc, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode of written document failed: %v", err)
	}
	nodes, edges, err := doc.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(nodes) != 2 || len(edges) != 2 {
		t.Fatalf("Expected 2 nodes and 2 edges, got %d and %d", len(nodes), len(edges))
	}
	if nodes[0].Label != "Alpha" {
		t.Errorf("Expected label Alpha, got %s", nodes[0].Label)
	}
	if f, _ := nodes[0].Attributes["followers"].AsInt(); f != 7 {
		t.Errorf("Expected followers 7, got %d", f)
	}
	if c, _ := nodes[0].Attributes[storage.AttrCommunity].AsInt(); c != 0 {
		t.Errorf("Expected community 0, got %d", c)
	}
	if x, _ := nodes[1].Attributes[storage.AttrX].AsFloat(); x != 10 {
		t.Errorf("Expected x 10, got %v", x)
	}
	if edges[0].Weight != 3 || edges[0].Type != "reply" || edges[0].Undirected {
		t.Errorf("Unexpected first edge %+v", edges[0])
	}
}

func TestWriteKeepsNodeColor(t *testing.T) {
	graph := storage.NewGraphStorage()
	err := graph.ImportNodes([]storage.NodeRecord{
		{Key: "a", Attributes: map[string]storage.Value{
			storage.AttrCommunity: storage.IntValue(0),
			storage.AttrColor:     storage.StringValue("#0a0b0c"),
		}},
		{Key: "b", Attributes: map[string]storage.Value{storage.AttrCommunity: storage.IntValue(0)}},
	})
	if err != nil {
		t.Fatalf("ImportNodes failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, graph, WriteOptions{Colors: fixedColor{}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	doc, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if c := doc.Graph.Nodes[0].Color; c == nil || c.Hex() != "#0a0b0c" {
		t.Errorf("Expected the node's own colour #0a0b0c, got %+v", c)
	}
	if c := doc.Graph.Nodes[1].Color; c == nil || c.Hex() != "#010203" {
		t.Errorf("Expected the community colour #010203, got %+v", c)
	}
}
