package algorithms

import (
	"container/list"
	"fmt"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// ConnectedComponents finds the weakly connected components of the graph.
// Component ids follow the smallest member in identifier order.
func ConnectedComponents(graph *storage.GraphStorage) (*CommunityDetectionResult, error) {
	view := graph.DirectedView()
	n := view.Len()

	visited := make([]bool, n)
	nodeCommunity := make(map[uint64]int, n)
	communities := make([]*Community, 0)
	communityID := 0

	// BFS to find each component
	for start := range n {
		if visited[start] {
			continue
		}

		component := &Community{
			ID:    communityID,
			Nodes: make([]uint64, 0),
		}

		queue := list.New()
		queue.PushBack(start)
		visited[start] = true

		for queue.Len() > 0 {
			u := queue.Remove(queue.Front()).(int)
			nodeID := view.NodeIDs[u]
			component.Nodes = append(component.Nodes, nodeID)
			nodeCommunity[nodeID] = communityID

			// Direction is ignored
			for _, arcs := range [][]storage.Arc{view.Out[u], view.In[u]} {
				for _, arc := range arcs {
					if !visited[arc.Node] {
						visited[arc.Node] = true
						queue.PushBack(arc.Node)
					}
				}
			}
		}

		component.Size = len(component.Nodes)
		communities = append(communities, component)
		communityID++
	}

	return &CommunityDetectionResult{
		Communities:   communities,
		NodeCommunity: nodeCommunity,
		Converged:     true,
	}, nil
}

// AnnotateComponents writes weakly_connected_component on every node and
// returns the components.
func AnnotateComponents(graph *storage.GraphStorage) (*CommunityDetectionResult, error) {
	result, err := ConnectedComponents(graph)
	if err != nil {
		return nil, err
	}
	values := make(map[uint64]storage.Value, len(result.NodeCommunity))
	for nodeID, c := range result.NodeCommunity {
		values[nodeID] = storage.IntValue(int64(c))
	}
	if err := graph.ReplaceNodeProperty(storage.AttrComponent, values); err != nil {
		return nil, fmt.Errorf("write components: %w", err)
	}
	return result, nil
}
