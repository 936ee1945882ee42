package storage

// ImportNodes creates nodes by key, or merges attributes into nodes that
// already exist. Records are validated before any mutation, so a failed
// import leaves the graph unchanged.
func (gs *GraphStorage) ImportNodes(records []NodeRecord) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	pending := make(schema)
	for i, rec := range records {
		if rec.Key == "" {
			return MalformedInputError("ImportNodes", "node", i, ErrEmptyIdentifier).Err()
		}
		if field, err := gs.nodeSchema.check(rec.Attributes, pending); err != nil {
			return MalformedInputError("ImportNodes", "node", i, err).NodeKey(rec.Key).Field(field).Err()
		}
	}
	gs.nodeSchema.merge(pending)

	for _, rec := range records {
		if nodeID, exists := gs.nodesByKey[rec.Key]; exists {
			node := gs.nodes[nodeID]
			if rec.Label != "" {
				node.Label = rec.Label
			}
			for k, v := range rec.Attributes {
				node.Properties[k] = v
			}
			continue
		}
		label := rec.Label
		if label == "" {
			label = rec.Key
		}
		gs.insertNode(rec.Key, label, rec.Attributes)
	}
	return nil
}

// ImportEdges builds the node and edge sets from records, creating nodes on
// first reference. It fails with a malformed input error when an endpoint is
// empty, a weight is not a finite non-negative number, or an attribute
// contradicts the declared schema. Nothing is written unless every record is
// valid.
func (gs *GraphStorage) ImportEdges(records []EdgeRecord) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	pending := make(schema)
	for i, rec := range records {
		if rec.Source == "" || rec.Target == "" {
			return MalformedInputError("ImportEdges", "edge", i, ErrEmptyIdentifier).Err()
		}
		if err := validateWeight(rec.Weight); err != nil {
			return MalformedInputError("ImportEdges", "edge", i, err).Err()
		}
		if field, err := gs.edgeSchema.check(rec.Attributes, pending); err != nil {
			return MalformedInputError("ImportEdges", "edge", i, err).Field(field).Err()
		}
	}
	gs.edgeSchema.merge(pending)

	for _, rec := range records {
		fromID := gs.ensureNode(rec.Source)
		toID := gs.ensureNode(rec.Target)
		weight := rec.Weight
		if weight == 0 {
			weight = 1.0
		}
		gs.insertEdge(fromID, toID, rec.Type, rec.Attributes, weight, !rec.Undirected)
	}
	return nil
}

func (gs *GraphStorage) ensureNode(key string) uint64 {
	if nodeID, exists := gs.nodesByKey[key]; exists {
		return nodeID
	}
	return gs.insertNode(key, key, nil).ID
}
