package storage

import (
	"sync"
)

// GraphStorage is an in-memory directed multigraph with typed node and edge
// attributes. Each graph is owned by exactly one workspace.
type GraphStorage struct {
	nodes map[uint64]*Node
	edges map[uint64]*Edge

	nodesByKey    map[string]uint64   // external key -> node ID
	outgoingEdges map[uint64][]uint64 // node ID -> outgoing edge IDs
	incomingEdges map[uint64][]uint64 // node ID -> incoming edge IDs

	nodeSchema schema
	edgeSchema schema

	graphAttributes map[string]Value

	nextNodeID uint64
	nextEdgeID uint64

	forceDirected bool

	stats Statistics
	mu    sync.RWMutex
}

// Option configures a GraphStorage
type Option func(*GraphStorage)

// WithForcedDirection makes every imported edge directed regardless of what
// the source declares. Enabled by default.
func WithForcedDirection(force bool) Option {
	return func(gs *GraphStorage) {
		gs.forceDirected = force
	}
}

// Statistics tracks graph size
type Statistics struct {
	NodeCount      uint64
	EdgeCount      uint64
	SelfLoops      uint64
	UndirectedEdge uint64
}

// NodeRecord describes one node of an import batch
type NodeRecord struct {
	Key        string
	Label      string
	Attributes map[string]Value
}

// EdgeRecord describes one edge of an import batch. Weight 0 means the
// source did not specify one and defaults to 1.0.
type EdgeRecord struct {
	Source     string
	Target     string
	Type       string
	Weight     float64
	Undirected bool
	Attributes map[string]Value
}
