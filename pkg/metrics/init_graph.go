package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_graph_nodes",
			Help: "Number of nodes in a workspace graph",
		},
		[]string{"workspace"},
	)

	r.GraphEdges = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_graph_edges",
			Help: "Number of edges in a workspace graph",
		},
		[]string{"workspace"},
	)

	r.GraphCommunities = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_graph_communities",
			Help: "Number of modularity classes found",
		},
		[]string{"workspace"},
	)

	r.GraphModularity = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_graph_modularity",
			Help: "Modularity of the final partition",
		},
		[]string{"workspace"},
	)

	r.GraphComponents = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_graph_components",
			Help: "Number of weakly connected components",
		},
		[]string{"workspace"},
	)

	r.PageRankIterations = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_pagerank_iterations",
			Help: "Iterations PageRank needed to converge",
		},
		[]string{"workspace"},
	)
}
