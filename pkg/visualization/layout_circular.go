package visualization

import (
	"math"
	"math/rand"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// CircularLayout arranges nodes in a circle centred on the origin
type CircularLayout struct {
	config *LayoutConfig
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	return &CircularLayout{config: config}
}

// ComputeLayout arranges nodes in a circle, in the order given
func (cl *CircularLayout) ComputeLayout(gs *storage.GraphStorage, nodeIDs []uint64) (map[uint64]Position, error) {
	positions := make(map[uint64]Position)

	if len(nodeIDs) == 0 {
		return positions, nil
	}

	radius := math.Max(math.Min(cl.config.Width, cl.config.Height)/2-cl.config.Padding, 1)
	angleStep := 2 * math.Pi / float64(len(nodeIDs))

	for i, nodeID := range nodeIDs {
		angle := float64(i) * angleStep
		positions[nodeID] = Position{
			X: radius * math.Cos(angle),
			Y: radius * math.Sin(angle),
		}
	}

	return positions, nil
}

// RandomLayout scatters nodes uniformly over the canvas centred on the
// origin. The same seed and node order always give the same positions.
type RandomLayout struct {
	config *LayoutConfig
}

// NewRandomLayout creates a new random layout
func NewRandomLayout(config *LayoutConfig) *RandomLayout {
	return &RandomLayout{config: config}
}

// ComputeLayout assigns random positions, in the order given
func (rl *RandomLayout) ComputeLayout(gs *storage.GraphStorage, nodeIDs []uint64) (map[uint64]Position, error) {
	positions := make(map[uint64]Position, len(nodeIDs))
	rng := rand.New(rand.NewSource(rl.config.Seed))

	for _, nodeID := range nodeIDs {
		positions[nodeID] = Position{
			X: (rng.Float64() - 0.5) * rl.config.Width,
			Y: (rng.Float64() - 0.5) * rl.config.Height,
		}
	}

	return positions, nil
}
