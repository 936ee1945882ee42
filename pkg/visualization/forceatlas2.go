package visualization

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dd0wney/cluso-atlas/pkg/logging"
	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// ForceAtlas2 is a continuous force-directed layout. Nodes repel each other
// in proportion to their mass (1 + degree), arcs attract their endpoints,
// and gravity pulls everything toward the centroid. Step size adapts to how
// much nodes swing between iterations.
type ForceAtlas2 struct {
	config ForceAtlas2Config
	logger logging.Logger
}

// NewForceAtlas2 creates a layout engine. Zero fields fall back to the
// defaults of DefaultForceAtlas2Config.
func NewForceAtlas2(config ForceAtlas2Config) *ForceAtlas2 {
	defaults := DefaultForceAtlas2Config()
	if config.JitterTolerance == 0 {
		config.JitterTolerance = defaults.JitterTolerance
	}
	if config.BarnesHutThreshold == 0 {
		config.BarnesHutThreshold = defaults.BarnesHutThreshold
	}
	if config.Theta == 0 {
		config.Theta = defaults.Theta
	}
	if config.SeedMode == "" {
		config.SeedMode = defaults.SeedMode
	}
	if config.Scale == 0 {
		config.Scale = defaults.Scale
	}
	if config.ProgressInterval == 0 {
		config.ProgressInterval = defaults.ProgressInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ForceAtlas2{config: config, logger: logger}
}

// nodeState is the scoped per-node accumulator of one session
type nodeState struct {
	x, y         float64
	dx, dy       float64
	oldDx, oldDy float64
	mass         float64
}

type layoutArc struct {
	source, target int
	weight         float64
}

// LayoutSession holds the state of one layout call. Its accumulators exist
// from InitAlgo until EndAlgo.
type LayoutSession struct {
	engine *ForceAtlas2
	graph  *storage.GraphStorage

	nodeIDs []uint64
	nodes   []nodeState
	arcs    []layoutArc

	scalingRatio         float64
	barnesHut            bool
	outboundCompensation float64

	speed           float64
	speedEfficiency float64

	iteration int
	limit     int // -1 for no limit
	stopped   bool
	ended     bool
}

// InitAlgo prepares a session: it seeds positions for nodes that have none,
// restores carry-over state from a previous run, and collects the arcs.
func (fa *ForceAtlas2) InitAlgo(graph *storage.GraphStorage) (*LayoutSession, error) {
	view := graph.DirectedView()
	n := view.Len()

	s := &LayoutSession{
		engine:          fa,
		graph:           graph,
		nodeIDs:         view.NodeIDs,
		nodes:           make([]nodeState, n),
		speed:           1.0,
		speedEfficiency: 1.0,
		limit:           -1,
	}

	s.scalingRatio = fa.config.ScalingRatio
	if s.scalingRatio == 0 {
		s.scalingRatio = 10.0
		if n >= 100 {
			s.scalingRatio = 2.0
		}
	}
	s.barnesHut = fa.config.BarnesHut || n >= fa.config.BarnesHutThreshold

	if v, ok := graph.GraphAttribute(attrSpeed); ok {
		if speed, err := v.AsFloat(); err == nil && speed > 0 {
			s.speed = speed
		}
	}
	if v, ok := graph.GraphAttribute(attrSpeedEfficiency); ok {
		if eff, err := v.AsFloat(); err == nil && eff > 0 {
			s.speedEfficiency = eff
		}
	}

	var unplaced []uint64
	placed := make([]bool, n)
	for i, nodeID := range view.NodeIDs {
		node, err := graph.GetNode(nodeID)
		if err != nil {
			return nil, fmt.Errorf("init layout: %w", err)
		}
		st := &s.nodes[i]
		st.mass = 1 + float64(view.Degree(i))
		x, okX := node.Float(storage.AttrX)
		y, okY := node.Float(storage.AttrY)
		if okX && okY {
			st.x, st.y = x, y
			placed[i] = true
		} else {
			unplaced = append(unplaced, nodeID)
		}
		if carry, ok := node.LayoutData.(*forceCarry); ok {
			st.dx, st.dy = carry.DX, carry.DY
		}
	}

	if len(unplaced) > 0 {
		seeds, err := fa.seedLayout().ComputeLayout(graph, unplaced)
		if err != nil {
			return nil, fmt.Errorf("seed layout: %w", err)
		}
		for i, nodeID := range view.NodeIDs {
			if !placed[i] {
				pos := seeds[nodeID]
				s.nodes[i].x, s.nodes[i].y = pos.X, pos.Y
			}
		}
	}

	influence := fa.config.EdgeWeightInfluence
	for u, arcs := range view.Out {
		for _, arc := range arcs {
			if arc.Node == u {
				continue
			}
			w := 1.0
			switch {
			case influence == 1:
				w = arc.Weight
			case influence != 0:
				w = math.Pow(arc.Weight, influence)
			}
			s.arcs = append(s.arcs, layoutArc{source: u, target: arc.Node, weight: w})
		}
	}

	s.outboundCompensation = 1.0
	if fa.config.OutboundAttractionDistribution && n > 0 {
		total := 0.0
		for i := range s.nodes {
			total += s.nodes[i].mass
		}
		s.outboundCompensation = total / float64(n)
	}

	return s, nil
}

func (fa *ForceAtlas2) seedLayout() Layout {
	config := &LayoutConfig{
		Width:  fa.config.Scale,
		Height: fa.config.Scale,
		Seed:   fa.config.Seed,
	}
	if fa.config.SeedMode == SeedCircular {
		return NewCircularLayout(config)
	}
	return NewRandomLayout(config)
}

// CanAlgo reports whether another iteration may run
func (s *LayoutSession) CanAlgo() bool {
	if s.ended || s.stopped {
		return false
	}
	return s.limit < 0 || s.iteration < s.limit
}

// Iteration returns the number of completed iterations
func (s *LayoutSession) Iteration() int {
	return s.iteration
}

// GoAlgo runs one iteration
func (s *LayoutSession) GoAlgo() {
	if s.ended {
		return
	}
	cfg := s.engine.config
	nodes := s.nodes

	for i := range nodes {
		nodes[i].oldDx, nodes[i].oldDy = nodes[i].dx, nodes[i].dy
		nodes[i].dx, nodes[i].dy = 0, 0
	}

	s.applyRepulsion()
	s.applyGravity()
	s.applyAttraction()
	s.adjustSpeed()

	for i := range nodes {
		st := &nodes[i]
		swinging := st.mass * math.Hypot(st.oldDx-st.dx, st.oldDy-st.dy)
		factor := s.speed / (1 + math.Sqrt(s.speed*swinging))
		st.x += st.dx * factor
		st.y += st.dy * factor
	}

	s.iteration++
	if cfg.StopWhen != nil && cfg.StopWhen(s.iteration, s.speed) {
		s.stopped = true
	}
}

func (s *LayoutSession) applyRepulsion() {
	nodes := s.nodes
	kr := s.scalingRatio

	if s.barnesHut && len(nodes) > 1 {
		all := make([]int, len(nodes))
		for i := range all {
			all[i] = i
		}
		root := newRegion(nodes, all)
		root.build(nodes)
		for i := range nodes {
			root.applyRepulsion(nodes, i, s.engine.config.Theta, kr)
		}
		return
	}

	for i := range nodes {
		for j := range i {
			n1, n2 := &nodes[i], &nodes[j]
			xDist := n1.x - n2.x
			yDist := n1.y - n2.y
			distance2 := xDist*xDist + yDist*yDist
			if distance2 > 0 {
				factor := kr * n1.mass * n2.mass / distance2
				n1.dx += xDist * factor
				n1.dy += yDist * factor
				n2.dx -= xDist * factor
				n2.dy -= yDist * factor
			}
		}
	}
}

func (s *LayoutSession) applyGravity() {
	nodes := s.nodes
	if len(nodes) == 0 {
		return
	}
	cx, cy := 0.0, 0.0
	for i := range nodes {
		cx += nodes[i].x
		cy += nodes[i].y
	}
	cx /= float64(len(nodes))
	cy /= float64(len(nodes))

	g := s.engine.config.Gravity
	for i := range nodes {
		st := &nodes[i]
		xDist := st.x - cx
		yDist := st.y - cy
		var factor float64
		if s.engine.config.StrongGravity {
			factor = st.mass * g
		} else {
			distance := math.Hypot(xDist, yDist)
			if distance == 0 {
				continue
			}
			factor = st.mass * g / distance
		}
		st.dx -= xDist * factor
		st.dy -= yDist * factor
	}
}

func (s *LayoutSession) applyAttraction() {
	cfg := s.engine.config
	coefficient := s.outboundCompensation

	for _, arc := range s.arcs {
		n1, n2 := &s.nodes[arc.source], &s.nodes[arc.target]
		xDist := n1.x - n2.x
		yDist := n1.y - n2.y

		factor := -coefficient * arc.weight
		if cfg.LinLogMode {
			distance := math.Hypot(xDist, yDist)
			if distance == 0 {
				continue
			}
			factor *= math.Log(1+distance) / distance
		}
		if cfg.OutboundAttractionDistribution {
			factor /= n1.mass
		}

		n1.dx += xDist * factor
		n1.dy += yDist * factor
		n2.dx -= xDist * factor
		n2.dy -= yDist * factor
	}
}

// adjustSpeed sets the global speed from the swinging and the effective
// traction of all nodes.
func (s *LayoutSession) adjustSpeed() {
	const (
		minSpeedEfficiency = 0.05
		maxRise            = 0.5
	)

	totalSwinging, totalTraction := 0.0, 0.0
	for i := range s.nodes {
		st := &s.nodes[i]
		totalSwinging += st.mass * math.Hypot(st.oldDx-st.dx, st.oldDy-st.dy)
		totalTraction += st.mass * 0.5 * math.Hypot(st.oldDx+st.dx, st.oldDy+st.dy)
	}
	if totalSwinging == 0 || totalTraction == 0 {
		return
	}

	n := float64(len(s.nodes))
	jitterTolerance := s.engine.config.JitterTolerance
	estimatedOptimal := 0.05 * math.Sqrt(n)
	minJT := math.Sqrt(estimatedOptimal)
	maxJT := 10.0
	jt := jitterTolerance * math.Max(minJT, math.Min(maxJT, estimatedOptimal*totalTraction/(n*n)))

	if totalSwinging/totalTraction > 2.0 {
		if s.speedEfficiency > minSpeedEfficiency {
			s.speedEfficiency *= 0.5
		}
		jt = math.Max(jt, jitterTolerance)
	}

	targetSpeed := jt * s.speedEfficiency * totalTraction / totalSwinging

	if totalSwinging > jt*totalTraction {
		if s.speedEfficiency > minSpeedEfficiency {
			s.speedEfficiency *= 0.7
		}
	} else if s.speed < 1000 {
		s.speedEfficiency *= 1.3
	}

	s.speed += math.Min(targetSpeed-s.speed, maxRise*s.speed)
}

// Positions returns the current coordinates
func (s *LayoutSession) Positions() map[uint64]Position {
	positions := make(map[uint64]Position, len(s.nodeIDs))
	for i, nodeID := range s.nodeIDs {
		positions[nodeID] = Position{X: s.nodes[i].x, Y: s.nodes[i].y}
	}
	return positions
}

// EndAlgo writes positions and carry-over state to the graph and releases
// the accumulators. Calling it again does nothing.
func (s *LayoutSession) EndAlgo() error {
	if s.ended {
		return nil
	}
	s.ended = true
	defer func() {
		s.nodes = nil
		s.arcs = nil
	}()

	xs := make(map[uint64]storage.Value, len(s.nodeIDs))
	ys := make(map[uint64]storage.Value, len(s.nodeIDs))
	for i, nodeID := range s.nodeIDs {
		st := &s.nodes[i]
		xs[nodeID] = storage.FloatValue(st.x)
		ys[nodeID] = storage.FloatValue(st.y)
		if err := s.graph.SetLayoutData(nodeID, &forceCarry{DX: st.dx, DY: st.dy}); err != nil {
			return fmt.Errorf("store layout state: %w", err)
		}
	}
	if err := s.graph.ReplaceNodeProperty(storage.AttrX, xs); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	if err := s.graph.ReplaceNodeProperty(storage.AttrY, ys); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	s.graph.SetGraphAttribute(attrSpeed, storage.FloatValue(s.speed))
	s.graph.SetGraphAttribute(attrSpeedEfficiency, storage.FloatValue(s.speedEfficiency))
	return nil
}

// Run performs iterations steps on graph. Cancellation ends the session
// after the current step and returns the partial result with an error
// wrapping ErrLayoutInterrupted.
func (fa *ForceAtlas2) Run(ctx context.Context, graph *storage.GraphStorage, iterations int) (result *LayoutResult, err error) {
	if iterations < 0 {
		return nil, fmt.Errorf("iterations must not be negative, got %d", iterations)
	}

	session, err := fa.InitAlgo(graph)
	if err != nil {
		return nil, err
	}
	session.limit = iterations

	result = &LayoutResult{}
	defer func() {
		positions := session.Positions()
		result.Speed = session.speed
		result.SpeedEfficiency = session.speedEfficiency
		if endErr := session.EndAlgo(); endErr != nil {
			err = errors.Join(err, endErr)
		}
		result.Positions = positions
		result.Iterations = session.iteration
	}()

	for session.CanAlgo() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Interrupted = true
			fa.logger.Warn("layout interrupted", logging.Iteration(session.iteration))
			return result, fmt.Errorf("%w after %d iterations: %w", ErrLayoutInterrupted, session.iteration, ctxErr)
		}
		session.GoAlgo()

		if session.iteration%fa.config.ProgressInterval == 0 {
			fa.logger.Info("iterations done", logging.Iteration(session.iteration))
			if fa.config.Progress != nil {
				fa.config.Progress(session.iteration)
			}
		}
	}
	result.StoppedEarly = session.stopped
	return result, nil
}
