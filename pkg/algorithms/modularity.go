package algorithms

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// ModularityOptions configures Louvain community detection
type ModularityOptions struct {
	Resolution float64 // Gamma in the modularity objective, usually 1.0
	Threshold  float64 // Minimum modularity gain for another pass
	MaxPasses  int     // Local moving passes per level
	MaxLevels  int     // Aggregation levels
	UseWeights bool    // Use edge weights instead of multiplicity
}

// DefaultModularityOptions returns default Louvain configuration
func DefaultModularityOptions() ModularityOptions {
	return ModularityOptions{
		Resolution: 1.0,
		Threshold:  1e-6,
		MaxPasses:  100,
		MaxLevels:  32,
		UseWeights: true,
	}
}

func (o ModularityOptions) validate() error {
	switch {
	case o.Resolution <= 0 || math.IsNaN(o.Resolution):
		return fmt.Errorf("%w: resolution must be positive, got %v", ErrInvalidOptions, o.Resolution)
	case o.Threshold < 0:
		return fmt.Errorf("%w: threshold must not be negative, got %v", ErrInvalidOptions, o.Threshold)
	case o.MaxPasses <= 0:
		return fmt.Errorf("%w: max passes must be positive, got %d", ErrInvalidOptions, o.MaxPasses)
	case o.MaxLevels <= 0:
		return fmt.Errorf("%w: max levels must be positive, got %d", ErrInvalidOptions, o.MaxLevels)
	}
	return nil
}

// gainEpsilon absorbs rounding when comparing modularity gains
const gainEpsilon = 1e-12

type weightedArc struct {
	node   int
	weight float64
}

// louvainGraph is the symmetrized weighted graph one Louvain level works on.
// Self loops live in self, not in adj.
type louvainGraph struct {
	adj    [][]weightedArc
	self   []float64
	degree []float64
	total  float64 // 2m
}

// newLouvainGraph symmetrizes the directed view: each arc u->v of weight w
// adds w to W[u][v] and to W[v][u].
func newLouvainGraph(view *storage.DirectedView, useWeights bool) *louvainGraph {
	n := view.Len()
	lg := &louvainGraph{
		adj:    make([][]weightedArc, n),
		self:   make([]float64, n),
		degree: make([]float64, n),
	}
	acc := make([]map[int]float64, n)
	for u, arcs := range view.Out {
		for _, arc := range arcs {
			w := float64(arc.Count)
			if useWeights {
				w = arc.Weight
			}
			v := arc.Node
			if u == v {
				lg.self[u] += 2 * w
				continue
			}
			if acc[u] == nil {
				acc[u] = make(map[int]float64)
			}
			if acc[v] == nil {
				acc[v] = make(map[int]float64)
			}
			acc[u][v] += w
			acc[v][u] += w
		}
	}
	lg.finish(acc)
	return lg
}

// finish converts accumulated neighbour weights into sorted adjacency and
// computes degrees.
func (lg *louvainGraph) finish(acc []map[int]float64) {
	lg.total = 0
	for u := range lg.adj {
		lg.degree[u] = lg.self[u]
		arcs := make([]weightedArc, 0, len(acc[u]))
		for v, w := range acc[u] {
			arcs = append(arcs, weightedArc{node: v, weight: w})
			lg.degree[u] += w
		}
		slices.SortFunc(arcs, func(a, b weightedArc) int { return a.node - b.node })
		lg.adj[u] = arcs
		lg.total += lg.degree[u]
	}
}

// partition tracks community totals during local moving
type partition struct {
	comm     []int
	tot      []float64 // sum of degrees per community
	in       []float64 // internal weight per community, both directions
	size     []int
	nonEmpty int
}

func newPartition(lg *louvainGraph) *partition {
	n := len(lg.adj)
	p := &partition{
		comm:     make([]int, n),
		tot:      make([]float64, n),
		in:       make([]float64, n),
		size:     make([]int, n),
		nonEmpty: n,
	}
	for i := range n {
		p.comm[i] = i
		p.tot[i] = lg.degree[i]
		p.in[i] = lg.self[i]
		p.size[i] = 1
	}
	return p
}

func (p *partition) modularity(lg *louvainGraph, gamma float64) float64 {
	if lg.total == 0 {
		return 0
	}
	q := 0.0
	for c := range p.tot {
		if p.size[c] == 0 {
			continue
		}
		q += p.in[c]/lg.total - gamma*(p.tot[c]/lg.total)*(p.tot[c]/lg.total)
	}
	return q
}

// levelOutcome summarizes one run of local moving
type levelOutcome struct {
	moves     int
	passes    int
	converged bool
}

// localMoving moves nodes between neighbouring communities in ascending
// index order until a pass makes no move or no longer pays off. A node picks
// the community with the highest gain; equal gains go to the lowest
// community id, its current community included.
func (lg *louvainGraph) localMoving(ctx context.Context, p *partition, opts ModularityOptions) (levelOutcome, error) {
	n := len(lg.adj)
	var out levelOutcome
	if lg.total == 0 {
		out.converged = true
		return out, nil
	}

	neighWeight := make([]float64, n)
	seen := make([]bool, n)
	neighComms := make([]int, 0, 16)

	for pass := 1; pass <= opts.MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.passes = pass
		before := p.modularity(lg, opts.Resolution)
		communitiesBefore := p.nonEmpty
		moves := 0

		for i := range n {
			ci := p.comm[i]
			k := lg.degree[i]

			neighComms = neighComms[:0]
			seen[ci] = true
			neighComms = append(neighComms, ci)
			for _, arc := range lg.adj[i] {
				c := p.comm[arc.node]
				if !seen[c] {
					seen[c] = true
					neighComms = append(neighComms, c)
				}
				neighWeight[c] += arc.weight
			}

			p.tot[ci] -= k
			p.in[ci] -= 2*neighWeight[ci] + lg.self[i]
			p.size[ci]--

			slices.Sort(neighComms)
			best := ci
			bestGain := neighWeight[ci] - opts.Resolution*p.tot[ci]*k/lg.total
			for _, c := range neighComms {
				gain := neighWeight[c] - opts.Resolution*p.tot[c]*k/lg.total
				if gain > bestGain+gainEpsilon || (gain >= bestGain-gainEpsilon && c < best) {
					best, bestGain = c, gain
				}
			}

			p.tot[best] += k
			p.in[best] += 2*neighWeight[best] + lg.self[i]
			p.size[best]++
			if best != ci {
				p.comm[i] = best
				moves++
				if p.size[ci] == 0 {
					p.nonEmpty--
				}
			}

			for _, c := range neighComms {
				neighWeight[c] = 0
				seen[c] = false
			}
		}

		out.moves += moves
		if moves == 0 {
			out.converged = true
			return out, nil
		}
		gain := p.modularity(lg, opts.Resolution) - before
		if gain < opts.Threshold && p.nonEmpty == communitiesBefore {
			out.converged = true
			return out, nil
		}
	}
	return out, nil
}

// renumber maps community ids to 0..k-1 in order of each community's
// lowest node index and returns the community count.
func (p *partition) renumber() int {
	ids := make(map[int]int)
	for i, c := range p.comm {
		id, ok := ids[c]
		if !ok {
			id = len(ids)
			ids[c] = id
		}
		p.comm[i] = id
	}
	return len(ids)
}

// aggregate folds every community into one super-node. Internal weight
// becomes a self loop. comm must already be renumbered.
func (lg *louvainGraph) aggregate(comm []int, k int) *louvainGraph {
	next := &louvainGraph{
		adj:    make([][]weightedArc, k),
		self:   make([]float64, k),
		degree: make([]float64, k),
	}
	acc := make([]map[int]float64, k)
	for i, arcs := range lg.adj {
		ci := comm[i]
		next.self[ci] += lg.self[i]
		for _, arc := range arcs {
			cj := comm[arc.node]
			if ci == cj {
				next.self[ci] += arc.weight
				continue
			}
			if acc[ci] == nil {
				acc[ci] = make(map[int]float64)
			}
			acc[ci][cj] += arc.weight
		}
	}
	next.finish(acc)
	return next
}

// Modularity detects communities with the Louvain method. Directed arcs are
// symmetrized. Nodes are visited in ascending identifier order, which makes
// the result deterministic. Community ids are 0..k-1, ordered by each
// community's smallest member.
func Modularity(ctx context.Context, graph *storage.GraphStorage, opts ModularityOptions) (*CommunityDetectionResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	view := graph.DirectedView()
	n := view.Len()
	base := newLouvainGraph(view, opts.UseWeights)

	// membership maps each original node to its super-node at the current level
	membership := make([]int, n)
	for i := range membership {
		membership[i] = i
	}

	result := &CommunityDetectionResult{Converged: true}
	lg := base
	for level := 1; ; level++ {
		if level > opts.MaxLevels {
			result.Converged = false
			break
		}
		p := newPartition(lg)
		outcome, err := lg.localMoving(ctx, p, opts)
		if err != nil {
			return nil, err
		}
		result.Passes += outcome.passes
		if !outcome.converged {
			result.Converged = false
		}
		if outcome.moves == 0 {
			break
		}

		result.Levels = level
		k := p.renumber()
		for i := range membership {
			membership[i] = p.comm[membership[i]]
		}
		if k == len(lg.adj) {
			break
		}
		lg = lg.aggregate(p.comm, k)
	}

	final := &partition{comm: membership}
	k := final.renumber()
	result.Modularity = partitionModularity(base, final.comm, k, opts.Resolution)
	result.Communities, result.NodeCommunity = buildCommunities(view, final.comm, k)
	return result, nil
}

// partitionModularity evaluates Q for an arbitrary assignment on g
func partitionModularity(g *louvainGraph, comm []int, k int, gamma float64) float64 {
	if g.total == 0 {
		return 0
	}
	in := make([]float64, k)
	tot := make([]float64, k)
	for i, arcs := range g.adj {
		c := comm[i]
		tot[c] += g.degree[i]
		in[c] += g.self[i]
		for _, arc := range arcs {
			if comm[arc.node] == c {
				in[c] += arc.weight
			}
		}
	}
	q := 0.0
	for c := range k {
		q += in[c]/g.total - gamma*(tot[c]/g.total)*(tot[c]/g.total)
	}
	return q
}

func buildCommunities(view *storage.DirectedView, comm []int, k int) ([]*Community, map[uint64]int) {
	communities := make([]*Community, k)
	for c := range communities {
		communities[c] = &Community{ID: c, Nodes: make([]uint64, 0)}
	}
	nodeCommunity := make(map[uint64]int, len(comm))
	for i, c := range comm {
		nodeID := view.NodeIDs[i]
		communities[c].Nodes = append(communities[c].Nodes, nodeID)
		nodeCommunity[nodeID] = c
	}

	internal := make([]int, k)
	for u, arcs := range view.Out {
		for _, arc := range arcs {
			if arc.Node != u && comm[arc.Node] == comm[u] {
				internal[comm[u]]++
			}
		}
	}
	for c, community := range communities {
		community.Size = len(community.Nodes)
		if community.Size > 1 {
			possible := float64(community.Size * (community.Size - 1))
			community.Density = float64(internal[c]) / possible
		}
	}
	return communities, nodeCommunity
}

// ModularityEngine runs community detection and annotates the graph
type ModularityEngine struct {
	Options ModularityOptions
}

// NewModularityEngine creates a modularity engine
func NewModularityEngine(opts ModularityOptions) *ModularityEngine {
	return &ModularityEngine{Options: opts}
}

// Run detects communities and writes modularity_class on every node and the
// partition's modularity as a graph attribute. Only node attributes change.
func (e *ModularityEngine) Run(ctx context.Context, graph *storage.GraphStorage) (*CommunityDetectionResult, error) {
	result, err := Modularity(ctx, graph, e.Options)
	if err != nil {
		return nil, err
	}

	values := make(map[uint64]storage.Value, len(result.NodeCommunity))
	for nodeID, c := range result.NodeCommunity {
		values[nodeID] = storage.IntValue(int64(c))
	}
	if err := graph.ReplaceNodeProperty(storage.AttrCommunity, values); err != nil {
		return nil, fmt.Errorf("write communities: %w", err)
	}
	graph.SetGraphAttribute("modularity", storage.FloatValue(result.Modularity))
	return result, nil
}
