package visualization

import "math"

// region is a Barnes-Hut quadtree cell. A cell far enough from a node acts
// as a single body at its centre of mass.
type region struct {
	nodes   []int
	mass    float64
	cx, cy  float64
	size    float64
	regions []*region
}

func newRegion(states []nodeState, nodes []int) *region {
	r := &region{nodes: nodes}
	for _, i := range nodes {
		r.mass += states[i].mass
		r.cx += states[i].x * states[i].mass
		r.cy += states[i].y * states[i].mass
	}
	r.cx /= r.mass
	r.cy /= r.mass

	for _, i := range nodes {
		d := math.Hypot(states[i].x-r.cx, states[i].y-r.cy)
		r.size = math.Max(r.size, 2*d)
	}
	return r
}

// build splits the region into quadrants around its centre of mass.
// Quadrants that would hold every node again (coincident points) are split
// into single-node regions instead.
func (r *region) build(states []nodeState) {
	if len(r.nodes) < 2 {
		return
	}

	var quadrants [4][]int
	for _, i := range r.nodes {
		q := 0
		if states[i].x > r.cx {
			q++
		}
		if states[i].y > r.cy {
			q += 2
		}
		quadrants[q] = append(quadrants[q], i)
	}

	for _, nodes := range quadrants {
		switch {
		case len(nodes) == 0:
			continue
		case len(nodes) < len(r.nodes):
			sub := newRegion(states, nodes)
			sub.build(states)
			r.regions = append(r.regions, sub)
		default:
			for _, i := range nodes {
				r.regions = append(r.regions, newRegion(states, []int{i}))
			}
		}
	}
}

// applyRepulsion adds the repulsion this region exerts on node n
func (r *region) applyRepulsion(states []nodeState, n int, theta, kr float64) {
	node := &states[n]
	if len(r.nodes) < 2 {
		if r.nodes[0] != n {
			repelFrom(node, r.cx, r.cy, r.mass, kr)
		}
		return
	}

	distance := math.Hypot(node.x-r.cx, node.y-r.cy)
	if distance*theta > r.size {
		repelFrom(node, r.cx, r.cy, r.mass, kr)
		return
	}
	for _, sub := range r.regions {
		sub.applyRepulsion(states, n, theta, kr)
	}
}

// repelFrom pushes node away from a body of the given mass
func repelFrom(node *nodeState, x, y, mass, kr float64) {
	xDist := node.x - x
	yDist := node.y - y
	distance2 := xDist*xDist + yDist*yDist
	if distance2 > 0 {
		factor := kr * node.mass * mass / distance2
		node.dx += xDist * factor
		node.dy += yDist * factor
	}
}
