package storage

import (
	"fmt"
	"slices"
)

// CreateNode creates a new node identified by key
func (gs *GraphStorage) CreateNode(key, label string, properties map[string]Value) (*Node, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if key == "" {
		return nil, NewError("CreateNode").NodeKey(key).Cause(ErrEmptyIdentifier).Err()
	}
	if _, exists := gs.nodesByKey[key]; exists {
		return nil, NewError("CreateNode").NodeKey(key).Cause(ErrDuplicateNode).Err()
	}
	pending := make(schema)
	if field, err := gs.nodeSchema.check(properties, pending); err != nil {
		return nil, NewError("CreateNode").NodeKey(key).Field(field).Cause(err).Err()
	}
	gs.nodeSchema.merge(pending)

	return gs.insertNode(key, label, properties).Clone(), nil
}

// insertNode allocates a node; callers hold the write lock and have
// validated the input.
func (gs *GraphStorage) insertNode(key, label string, properties map[string]Value) *Node {
	if gs.nextNodeID == ^uint64(0) {
		panic("node ID space exhausted")
	}
	nodeID := gs.nextNodeID
	gs.nextNodeID++

	props := make(map[string]Value, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	node := &Node{
		ID:         nodeID,
		Key:        key,
		Label:      label,
		Properties: props,
	}

	gs.nodes[nodeID] = node
	gs.nodesByKey[key] = nodeID
	gs.outgoingEdges[nodeID] = make([]uint64, 0)
	gs.incomingEdges[nodeID] = make([]uint64, 0)
	gs.stats.NodeCount++
	return node
}

// GetNode retrieves a copy of a node by ID
func (gs *GraphStorage) GetNode(nodeID uint64) (*Node, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	node, exists := gs.nodes[nodeID]
	if !exists {
		return nil, NodeNotFoundError(nodeID)
	}
	return node.Clone(), nil
}

// GetNodeByKey retrieves a copy of a node by its external identifier
func (gs *GraphStorage) GetNodeByKey(key string) (*Node, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	nodeID, exists := gs.nodesByKey[key]
	if !exists {
		return nil, NewError("get").NodeKey(key).Cause(ErrNodeNotFound).Err()
	}
	return gs.nodes[nodeID].Clone(), nil
}

// NodeIDs returns every node ID in ascending identifier order
func (gs *GraphStorage) NodeIDs() []uint64 {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.sortedNodeIDs()
}

func (gs *GraphStorage) sortedNodeIDs() []uint64 {
	ids := make([]uint64, 0, len(gs.nodes))
	for id := range gs.nodes {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uint64) int {
		return CompareKeys(gs.nodes[a].Key, gs.nodes[b].Key)
	})
	return ids
}

// Nodes returns copies of every node in ascending identifier order
func (gs *GraphStorage) Nodes() []*Node {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	ids := gs.sortedNodeIDs()
	nodes := make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = gs.nodes[id].Clone()
	}
	return nodes
}

// SetNodeProperty sets one attribute on one node
func (gs *GraphStorage) SetNodeProperty(nodeID uint64, key string, val Value) error {
	return gs.SetNodeProperties(key, map[uint64]Value{nodeID: val})
}

// SetNodeProperties writes the same attribute on many nodes at once. Either
// every value is written or none is.
func (gs *GraphStorage) SetNodeProperties(key string, values map[uint64]Value) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	declared, hasDecl := gs.nodeSchema[key]
	for nodeID, val := range values {
		if _, exists := gs.nodes[nodeID]; !exists {
			return NewError("SetNodeProperties").Node(nodeID).Field(key).Cause(ErrNodeNotFound).Err()
		}
		if !hasDecl {
			declared, hasDecl = val.Type, true
			continue
		}
		if declared != val.Type {
			cause := fmt.Errorf("%w: declared %s, got %s", ErrSchemaMismatch, declared, val.Type)
			return NewError("SetNodeProperties").Node(nodeID).Field(key).Cause(cause).Err()
		}
	}
	if hasDecl {
		gs.nodeSchema[key] = declared
	}
	for nodeID, val := range values {
		gs.nodes[nodeID].Properties[key] = val
	}
	return nil
}

// ReplaceNodeProperty redeclares key with the type of values and writes them.
// Nodes outside values that hold key with another type lose it. Analysis
// outputs are written this way, so an input attribute of the same name never
// blocks them.
func (gs *GraphStorage) ReplaceNodeProperty(key string, values map[uint64]Value) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	var declared ValueType
	hasDecl := false
	for nodeID, val := range values {
		if _, exists := gs.nodes[nodeID]; !exists {
			return NewError("ReplaceNodeProperty").Node(nodeID).Field(key).Cause(ErrNodeNotFound).Err()
		}
		if !hasDecl {
			declared, hasDecl = val.Type, true
			continue
		}
		if declared != val.Type {
			cause := fmt.Errorf("%w: values mix %s and %s", ErrSchemaMismatch, declared, val.Type)
			return NewError("ReplaceNodeProperty").Node(nodeID).Field(key).Cause(cause).Err()
		}
	}
	if !hasDecl {
		return nil
	}

	gs.nodeSchema[key] = declared
	for nodeID, node := range gs.nodes {
		if val, ok := values[nodeID]; ok {
			node.Properties[key] = val
		} else if cur, ok := node.Properties[key]; ok && cur.Type != declared {
			delete(node.Properties, key)
		}
	}
	return nil
}

// SetLayoutData attaches layout carry-over state to a node
func (gs *GraphStorage) SetLayoutData(nodeID uint64, data any) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	node, exists := gs.nodes[nodeID]
	if !exists {
		return NodeNotFoundError(nodeID)
	}
	node.LayoutData = data
	return nil
}
