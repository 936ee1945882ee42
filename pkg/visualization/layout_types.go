package visualization

import (
	"errors"

	"github.com/dd0wney/cluso-atlas/pkg/logging"
	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// ErrLayoutInterrupted is returned when a layout run is canceled. The
// positions of the last completed iteration are kept.
var ErrLayoutInterrupted = errors.New("layout interrupted")

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures seed layouts
type LayoutConfig struct {
	Width   float64 // Canvas width
	Height  float64 // Canvas height
	Padding float64 // Padding from edges
	Seed    int64   // Random source for RandomLayout
}

// Layout interface for different layout algorithms
type Layout interface {
	ComputeLayout(gs *storage.GraphStorage, nodeIDs []uint64) (map[uint64]Position, error)
}

// SeedMode selects how nodes without coordinates are placed before the
// first iteration
type SeedMode string

const (
	SeedRandom   SeedMode = "random"
	SeedCircular SeedMode = "circular"
)

// ForceAtlas2Config configures the ForceAtlas2 layout
type ForceAtlas2Config struct {
	ScalingRatio                   float64 // Repulsion strength; 0 picks 10 below 100 nodes, else 2
	Gravity                        float64
	StrongGravity                  bool
	JitterTolerance                float64
	EdgeWeightInfluence            float64
	LinLogMode                     bool
	OutboundAttractionDistribution bool
	BarnesHut                      bool // Always approximate repulsion
	BarnesHutThreshold             int  // Approximate repulsion from this many nodes on
	Theta                          float64

	SeedMode SeedMode
	Seed     int64
	Scale    float64 // Seeding canvas size

	ProgressInterval int
	Progress         func(iteration int)
	StopWhen         func(iteration int, speed float64) bool

	Logger logging.Logger
}

// DefaultForceAtlas2Config returns the standard ForceAtlas2 settings
func DefaultForceAtlas2Config() ForceAtlas2Config {
	return ForceAtlas2Config{
		Gravity:             1.0,
		JitterTolerance:     1.0,
		EdgeWeightInfluence: 1.0,
		BarnesHutThreshold:  1000,
		Theta:               1.2,
		SeedMode:            SeedRandom,
		Seed:                42,
		Scale:               1000,
		ProgressInterval:    100,
	}
}

// LayoutResult summarizes a layout run
type LayoutResult struct {
	Positions       map[uint64]Position
	Iterations      int
	Speed           float64
	SpeedEfficiency float64
	StoppedEarly    bool
	Interrupted     bool
}

// Graph attributes holding the adaptive speed between runs
const (
	attrSpeed           = "fa2_speed"
	attrSpeedEfficiency = "fa2_speed_efficiency"
)

// forceCarry is the per-node state kept in Node.LayoutData between runs
type forceCarry struct {
	DX, DY float64
}
