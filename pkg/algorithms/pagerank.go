package algorithms

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// PageRankOptions configures PageRank algorithm
type PageRankOptions struct {
	DampingFactor  float64 // Usually 0.85
	MaxIterations  int
	Tolerance      float64 // L1 convergence threshold
	UseEdgeWeights bool    // Split rank by weight instead of multiplicity
	WarmStart      bool    // Start from existing pagerank attributes
	TopN           int     // Size of TopNodes
}

// DefaultPageRankOptions returns default PageRank configuration
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: 0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
		TopN:          10,
	}
}

func (o PageRankOptions) validate() error {
	switch {
	case o.DampingFactor < 0 || o.DampingFactor > 1 || math.IsNaN(o.DampingFactor):
		return fmt.Errorf("%w: damping factor must be within [0, 1], got %v", ErrInvalidOptions, o.DampingFactor)
	case o.MaxIterations <= 0:
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidOptions, o.MaxIterations)
	case o.Tolerance <= 0:
		return fmt.Errorf("%w: tolerance must be positive, got %v", ErrInvalidOptions, o.Tolerance)
	}
	return nil
}

// PageRankResult contains PageRank scores for all nodes
type PageRankResult struct {
	Scores     map[uint64]float64 // Node ID -> PageRank score
	Iterations int                // Number of iterations performed
	Converged  bool               // Whether algorithm converged
	Delta      float64            // L1 change of the last iteration
	TopNodes   []RankedNode       // Top N nodes by score
}

// RankedNode represents a node with its rank
type RankedNode struct {
	NodeID uint64
	Score  float64
	Node   *storage.Node
}

// Warning returns a ConvergenceWarning when the iteration cap was hit, nil
// otherwise.
func (pr *PageRankResult) Warning() *ConvergenceWarning {
	if pr.Converged {
		return nil
	}
	return &ConvergenceWarning{Engine: "pagerank", Iterations: pr.Iterations}
}

// PageRank computes PageRank scores for all nodes in the graph. Rank held by
// dangling nodes is redistributed uniformly, so scores always sum to 1.
func PageRank(ctx context.Context, graph *storage.GraphStorage, opts PageRankOptions) (*PageRankResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	view := graph.DirectedView()
	n := view.Len()
	if n == 0 {
		return &PageRankResult{
			Scores:    make(map[uint64]float64),
			Converged: true,
		}, nil
	}

	// Outgoing totals decide how a node's rank is split across its arcs
	outTotal := make([]float64, n)
	for u := range n {
		if opts.UseEdgeWeights {
			outTotal[u] = view.OutWeight(u)
		} else {
			outTotal[u] = float64(view.OutDegree(u))
		}
	}

	scores := initialRanks(graph, view, opts.WarmStart)
	newScores := make([]float64, n)
	nf := float64(n)
	d := opts.DampingFactor

	result := &PageRankResult{}
	for result.Iterations < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Iterations++

		dangling := 0.0
		for u := range n {
			if outTotal[u] == 0 {
				dangling += scores[u]
			}
		}
		base := (1.0-d)/nf + d*dangling/nf

		for v := range n {
			newScore := base
			for _, arc := range view.In[v] {
				u := arc.Node
				if outTotal[u] == 0 {
					continue
				}
				share := float64(arc.Count)
				if opts.UseEdgeWeights {
					share = arc.Weight
				}
				newScore += d * scores[u] * share / outTotal[u]
			}
			newScores[v] = newScore
		}

		delta := 0.0
		for i := range n {
			delta += math.Abs(newScores[i] - scores[i])
		}
		scores, newScores = newScores, scores
		result.Delta = delta

		if delta < opts.Tolerance {
			result.Converged = true
			break
		}
	}

	normalize(scores)

	result.Scores = make(map[uint64]float64, n)
	for i, nodeID := range view.NodeIDs {
		result.Scores[nodeID] = scores[i]
	}
	result.TopNodes = findTopNodes(graph, result.Scores, opts.TopN)
	return result, nil
}

// initialRanks returns the uniform distribution, or the stored pagerank
// attributes when warm starting and every node has a usable one.
func initialRanks(graph *storage.GraphStorage, view *storage.DirectedView, warm bool) []float64 {
	n := view.Len()
	scores := make([]float64, n)
	if warm {
		ok := true
		for i, nodeID := range view.NodeIDs {
			node, err := graph.GetNode(nodeID)
			if err != nil {
				ok = false
				break
			}
			rank, found := node.Float(storage.AttrPageRank)
			if !found || rank < 0 || math.IsNaN(rank) || math.IsInf(rank, 0) {
				ok = false
				break
			}
			scores[i] = rank
		}
		if ok && normalize(scores) {
			return scores
		}
	}
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}
	return scores
}

// normalize scales scores to sum to 1 and reports whether that was possible
func normalize(scores []float64) bool {
	sum := 0.0
	for _, score := range scores {
		sum += score
	}
	if sum <= 0 {
		return false
	}
	for i := range scores {
		scores[i] /= sum
	}
	return true
}

// rankedNodeHeap implements a min-heap for RankedNode by score.
// We use a min-heap to efficiently find top N elements:
// - Keep at most N elements in the heap
// - The minimum element is at the root
// - When adding a new element, if heap is full and new > min, pop min and push new
// Equal scores rank the lower node ID higher.
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int           { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool { return rankedBelow(h[i], h[j]) } // Min-heap
func (h rankedNodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

func rankedBelow(a, b RankedNode) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.NodeID > b.NodeID
}

// findTopNodes finds the top N nodes by score using a min-heap.
// Time complexity: O(n log k) where n = len(scores)
// Space complexity: O(k)
func findTopNodes(graph *storage.GraphStorage, scores map[uint64]float64, n int) []RankedNode {
	if n <= 0 {
		return nil
	}

	h := make(rankedNodeHeap, 0, n)
	heap.Init(&h)

	for nodeID, score := range scores {
		rn := RankedNode{NodeID: nodeID, Score: score}
		if h.Len() < n {
			heap.Push(&h, rn)
		} else if rankedBelow(h[0], rn) {
			heap.Pop(&h)
			heap.Push(&h, rn)
		}
	}

	// Extract elements from heap (will be in ascending order)
	result := make([]RankedNode, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		rn := heap.Pop(&h).(RankedNode)
		if node, err := graph.GetNode(rn.NodeID); err == nil {
			rn.Node = node
		}
		result[i] = rn
	}

	return result
}

// GetTopNodesByPageRank returns top N nodes by PageRank score
func (pr *PageRankResult) GetTopNodesByPageRank(n int) []RankedNode {
	if n > len(pr.TopNodes) {
		return pr.TopNodes
	}
	return pr.TopNodes[:n]
}

// GetNodeRank returns the PageRank score for a specific node
func (pr *PageRankResult) GetNodeRank(nodeID uint64) float64 {
	return pr.Scores[nodeID]
}

// PageRankEngine runs PageRank and annotates the graph
type PageRankEngine struct {
	Options PageRankOptions
}

// NewPageRankEngine creates a PageRank engine
func NewPageRankEngine(opts PageRankOptions) *PageRankEngine {
	return &PageRankEngine{Options: opts}
}

// Run computes PageRank and writes the pagerank attribute on every node
func (e *PageRankEngine) Run(ctx context.Context, graph *storage.GraphStorage) (*PageRankResult, error) {
	result, err := PageRank(ctx, graph, e.Options)
	if err != nil {
		return nil, err
	}

	values := make(map[uint64]storage.Value, len(result.Scores))
	for nodeID, score := range result.Scores {
		values[nodeID] = storage.FloatValue(score)
	}
	if err := graph.ReplaceNodeProperty(storage.AttrPageRank, values); err != nil {
		return nil, fmt.Errorf("write ranks: %w", err)
	}
	return result, nil
}
