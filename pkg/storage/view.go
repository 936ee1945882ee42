package storage

import "slices"

// Arc is a collapsed adjacency entry: every parallel edge between the same
// ordered pair folds into one Arc carrying the summed weight and the
// multiplicity.
type Arc struct {
	Node   int
	Weight float64
	Count  int
}

// DirectedView is an index-based adjacency snapshot of a graph. Index i
// refers to NodeIDs[i]; nodes appear in ascending identifier order.
type DirectedView struct {
	NodeIDs []uint64
	Keys    []string
	Out     [][]Arc
	In      [][]Arc

	index map[uint64]int
}

// DirectedView builds the adjacency snapshot. Undirected edges are reported
// in both directions.
func (gs *GraphStorage) DirectedView() *DirectedView {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	ids := gs.sortedNodeIDs()
	n := len(ids)
	view := &DirectedView{
		NodeIDs: ids,
		Keys:    make([]string, n),
		Out:     make([][]Arc, n),
		In:      make([][]Arc, n),
		index:   make(map[uint64]int, n),
	}
	for i, id := range ids {
		view.index[id] = i
		view.Keys[i] = gs.nodes[id].Key
	}

	out := make([]map[int]int, n)
	in := make([]map[int]int, n)
	add := func(u, v int, w float64) {
		if out[u] == nil {
			out[u] = make(map[int]int)
		}
		if in[v] == nil {
			in[v] = make(map[int]int)
		}
		if pos, ok := out[u][v]; ok {
			view.Out[u][pos].Weight += w
			view.Out[u][pos].Count++
		} else {
			out[u][v] = len(view.Out[u])
			view.Out[u] = append(view.Out[u], Arc{Node: v, Weight: w, Count: 1})
		}
		if pos, ok := in[v][u]; ok {
			view.In[v][pos].Weight += w
			view.In[v][pos].Count++
		} else {
			in[v][u] = len(view.In[v])
			view.In[v] = append(view.In[v], Arc{Node: u, Weight: w, Count: 1})
		}
	}

	for u, id := range ids {
		for _, edgeID := range gs.outgoingEdges[id] {
			edge := gs.edges[edgeID]
			v := view.index[edge.ToNodeID]
			add(u, v, edge.Weight)
			if !edge.Directed && u != v {
				add(v, u, edge.Weight)
			}
		}
	}

	byNode := func(a, b Arc) int { return a.Node - b.Node }
	for i := range n {
		slices.SortFunc(view.Out[i], byNode)
		slices.SortFunc(view.In[i], byNode)
	}
	return view
}

// Len returns the number of nodes in the view
func (v *DirectedView) Len() int {
	return len(v.NodeIDs)
}

// Index returns the view index of a node ID
func (v *DirectedView) Index(nodeID uint64) (int, bool) {
	i, ok := v.index[nodeID]
	return i, ok
}

// OutDegree returns the number of outgoing edges of node i, counting
// parallel edges
func (v *DirectedView) OutDegree(i int) int {
	total := 0
	for _, a := range v.Out[i] {
		total += a.Count
	}
	return total
}

// OutWeight returns the summed weight of the outgoing edges of node i
func (v *DirectedView) OutWeight(i int) float64 {
	total := 0.0
	for _, a := range v.Out[i] {
		total += a.Weight
	}
	return total
}

// Degree returns in-degree plus out-degree of node i, counting parallel edges
func (v *DirectedView) Degree(i int) int {
	total := v.OutDegree(i)
	for _, a := range v.In[i] {
		total += a.Count
	}
	return total
}

// ArcCount returns the number of collapsed arcs
func (v *DirectedView) ArcCount() int {
	total := 0
	for _, arcs := range v.Out {
		total += len(arcs)
	}
	return total
}
