package storage

// NewGraphStorage creates an empty graph. Edge direction is forced to
// directed unless WithForcedDirection(false) is given.
func NewGraphStorage(opts ...Option) *GraphStorage {
	gs := &GraphStorage{
		nodes:           make(map[uint64]*Node),
		edges:           make(map[uint64]*Edge),
		nodesByKey:      make(map[string]uint64),
		outgoingEdges:   make(map[uint64][]uint64),
		incomingEdges:   make(map[uint64][]uint64),
		nodeSchema:      make(schema),
		edgeSchema:      make(schema),
		graphAttributes: make(map[string]Value),
		nextNodeID:      1,
		nextEdgeID:      1,
		forceDirected:   true,
	}
	for _, opt := range opts {
		opt(gs)
	}
	return gs
}

// GetStatistics returns current graph statistics
func (gs *GraphStorage) GetStatistics() Statistics {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.stats
}

// ForcedDirection reports whether every edge is stored as directed
func (gs *GraphStorage) ForcedDirection() bool {
	return gs.forceDirected
}

// SetGraphAttribute stores a graph-level attribute
func (gs *GraphStorage) SetGraphAttribute(key string, val Value) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.graphAttributes[key] = val
}

// GraphAttribute returns a graph-level attribute
func (gs *GraphStorage) GraphAttribute(key string) (Value, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	val, ok := gs.graphAttributes[key]
	return val, ok
}

// GraphAttributes returns a copy of all graph-level attributes
func (gs *GraphStorage) GraphAttributes() map[string]Value {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	out := make(map[string]Value, len(gs.graphAttributes))
	for k, v := range gs.graphAttributes {
		out[k] = v
	}
	return out
}

// NodeSchema returns the declared node attribute types
func (gs *GraphStorage) NodeSchema() map[string]ValueType {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.nodeSchema.declared()
}

// EdgeSchema returns the declared edge attribute types
func (gs *GraphStorage) EdgeSchema() map[string]ValueType {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.edgeSchema.declared()
}
