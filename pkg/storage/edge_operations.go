package storage

import (
	"fmt"
	"math"
	"slices"
)

// CreateEdge creates a new edge between two existing nodes
func (gs *GraphStorage) CreateEdge(fromID, toID uint64, edgeType string, properties map[string]Value, weight float64) (*Edge, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if _, exists := gs.nodes[fromID]; !exists {
		return nil, NewError("CreateEdge").Node(fromID).Context("source").Cause(ErrNodeNotFound).Err()
	}
	if _, exists := gs.nodes[toID]; !exists {
		return nil, NewError("CreateEdge").Node(toID).Context("target").Cause(ErrNodeNotFound).Err()
	}
	if err := validateWeight(weight); err != nil {
		return nil, NewError("CreateEdge").Record("edge", -1).Cause(err).Err()
	}
	pending := make(schema)
	if field, err := gs.edgeSchema.check(properties, pending); err != nil {
		return nil, NewError("CreateEdge").Record("edge", -1).Field(field).Cause(err).Err()
	}
	gs.edgeSchema.merge(pending)

	return gs.insertEdge(fromID, toID, edgeType, properties, weight, true).Clone(), nil
}

func validateWeight(weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}
	return nil
}

// insertEdge allocates an edge; callers hold the write lock and have
// validated the input.
func (gs *GraphStorage) insertEdge(fromID, toID uint64, edgeType string, properties map[string]Value, weight float64, directed bool) *Edge {
	if gs.nextEdgeID == ^uint64(0) {
		panic("edge ID space exhausted")
	}
	edgeID := gs.nextEdgeID
	gs.nextEdgeID++

	props := make(map[string]Value, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	edge := &Edge{
		ID:         edgeID,
		FromNodeID: fromID,
		ToNodeID:   toID,
		Type:       edgeType,
		Directed:   directed || gs.forceDirected,
		Weight:     weight,
		Properties: props,
	}

	gs.edges[edgeID] = edge
	gs.outgoingEdges[fromID] = append(gs.outgoingEdges[fromID], edgeID)
	gs.incomingEdges[toID] = append(gs.incomingEdges[toID], edgeID)

	gs.stats.EdgeCount++
	if fromID == toID {
		gs.stats.SelfLoops++
	}
	if !edge.Directed {
		gs.stats.UndirectedEdge++
	}
	return edge
}

// GetEdge retrieves a copy of an edge by ID
func (gs *GraphStorage) GetEdge(edgeID uint64) (*Edge, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	edge, exists := gs.edges[edgeID]
	if !exists {
		return nil, EdgeNotFoundError(edgeID)
	}
	return edge.Clone(), nil
}

// GetOutgoingEdges returns copies of the edges leaving nodeID
func (gs *GraphStorage) GetOutgoingEdges(nodeID uint64) ([]*Edge, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	edgeIDs, exists := gs.outgoingEdges[nodeID]
	if !exists {
		return nil, NodeNotFoundError(nodeID)
	}
	return gs.cloneEdges(edgeIDs), nil
}

// GetIncomingEdges returns copies of the edges entering nodeID
func (gs *GraphStorage) GetIncomingEdges(nodeID uint64) ([]*Edge, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	edgeIDs, exists := gs.incomingEdges[nodeID]
	if !exists {
		return nil, NodeNotFoundError(nodeID)
	}
	return gs.cloneEdges(edgeIDs), nil
}

func (gs *GraphStorage) cloneEdges(edgeIDs []uint64) []*Edge {
	edges := make([]*Edge, 0, len(edgeIDs))
	for _, id := range edgeIDs {
		if edge, ok := gs.edges[id]; ok {
			edges = append(edges, edge.Clone())
		}
	}
	return edges
}

// Edges returns copies of every edge in creation order
func (gs *GraphStorage) Edges() []*Edge {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	ids := make([]uint64, 0, len(gs.edges))
	for id := range gs.edges {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return gs.cloneEdges(ids)
}
