package algorithms

// Community represents a detected community
type Community struct {
	ID      int
	Nodes   []uint64
	Size    int
	Density float64 // Arc density within community
}

// CommunityDetectionResult contains detected communities
type CommunityDetectionResult struct {
	Communities   []*Community
	Modularity    float64        // Quality measure of the partitioning
	NodeCommunity map[uint64]int // Node ID -> Community ID

	Levels    int  // Aggregation levels performed
	Passes    int  // Local moving passes over all levels
	Converged bool // False when a pass or level cap stopped the search
}

// Warning returns a ConvergenceWarning when the search hit a cap, nil
// otherwise.
func (r *CommunityDetectionResult) Warning() *ConvergenceWarning {
	if r.Converged {
		return nil
	}
	return &ConvergenceWarning{Engine: "modularity", Iterations: r.Passes}
}

// CommunityOf returns the community of a node, or -1 when unknown
func (r *CommunityDetectionResult) CommunityOf(nodeID uint64) int {
	c, ok := r.NodeCommunity[nodeID]
	if !ok {
		return -1
	}
	return c
}
