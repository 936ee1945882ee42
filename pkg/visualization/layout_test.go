package visualization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// setupLayoutGraph builds two triangles joined by one bridge
func setupLayoutGraph(t *testing.T) *storage.GraphStorage {
	t.Helper()
	gs := storage.NewGraphStorage()
	err := gs.ImportEdges([]storage.EdgeRecord{
		{Source: "a", Target: "b"}, {Source: "b", Target: "c"}, {Source: "c", Target: "a"},
		{Source: "d", Target: "e"}, {Source: "e", Target: "f"}, {Source: "f", Target: "d"},
		{Source: "c", Target: "d"},
	})
	if err != nil {
		t.Fatalf("ImportEdges failed: %v", err)
	}
	return gs
}

func positionsOf(t *testing.T, gs *storage.GraphStorage) map[string]Position {
	t.Helper()
	out := make(map[string]Position)
	for _, node := range gs.Nodes() {
		x, okX := node.Float(storage.AttrX)
		y, okY := node.Float(storage.AttrY)
		if !okX || !okY {
			t.Fatalf("node %s has no position", node.Key)
		}
		out[node.Key] = Position{X: x, Y: y}
	}
	return out
}

func distance(p1, p2 Position) float64 {
	return math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
}

func TestForceAtlas2_ZeroIterationsKeepsSeeds(t *testing.T) {
	tests := []struct {
		name string
		mode SeedMode
	}{
		{"random seed", SeedRandom},
		{"circular seed", SeedCircular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := setupLayoutGraph(t)
			config := DefaultForceAtlas2Config()
			config.SeedMode = tt.mode

			fa := NewForceAtlas2(config)
			session, err := fa.InitAlgo(gs)
			if err != nil {
				t.Fatalf("InitAlgo failed: %v", err)
			}
			seeded := session.Positions()
			if err := session.EndAlgo(); err != nil {
				t.Fatalf("EndAlgo failed: %v", err)
			}

			result, err := fa.Run(context.Background(), gs, 0)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if result.Iterations != 0 {
				t.Errorf("Iterations = %d, want 0", result.Iterations)
			}
			for nodeID, pos := range seeded {
				if result.Positions[nodeID] != pos {
					t.Errorf("node %d moved from %+v to %+v", nodeID, pos, result.Positions[nodeID])
				}
			}
		})
	}
}

func TestForceAtlas2_SeedsAreDeterministic(t *testing.T) {
	first := setupLayoutGraph(t)
	second := setupLayoutGraph(t)
	fa := NewForceAtlas2(DefaultForceAtlas2Config())

	if _, err := fa.Run(context.Background(), first, 10); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := fa.Run(context.Background(), second, 10); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	a, b := positionsOf(t, first), positionsOf(t, second)
	for key, pos := range a {
		if b[key] != pos {
			t.Errorf("node %s differs between identical runs", key)
		}
	}
}

func TestForceAtlas2_StepsCompose(t *testing.T) {
	tests := []struct {
		name string
		n, m int
	}{
		{"one plus one", 1, 1},
		{"ten plus twenty", 10, 20},
		{"zero plus fifteen", 0, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := NewForceAtlas2(DefaultForceAtlas2Config())

			split := setupLayoutGraph(t)
			if _, err := fa.Run(context.Background(), split, tt.n); err != nil {
				t.Fatalf("first Run failed: %v", err)
			}
			if _, err := fa.Run(context.Background(), split, tt.m); err != nil {
				t.Fatalf("second Run failed: %v", err)
			}

			whole := setupLayoutGraph(t)
			if _, err := fa.Run(context.Background(), whole, tt.n+tt.m); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			got, want := positionsOf(t, split), positionsOf(t, whole)
			for key, pos := range want {
				if distance(got[key], pos) > 1e-9 {
					t.Errorf("node %s: split %+v, whole %+v", key, got[key], pos)
				}
			}
		})
	}
}

func TestForceAtlas2_ConnectedNodesCloser(t *testing.T) {
	gs := setupLayoutGraph(t)
	if _, err := NewForceAtlas2(DefaultForceAtlas2Config()).Run(context.Background(), gs, 400); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	pos := positionsOf(t, gs)
	inside := distance(pos["a"], pos["b"])
	across := distance(pos["a"], pos["f"])
	if inside >= across {
		t.Errorf("triangle neighbours %f apart, far nodes %f apart", inside, across)
	}
	for key, p := range pos {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			t.Errorf("node %s has invalid position %+v", key, p)
		}
	}
}

func TestForceAtlas2_BarnesHutMatchesExactRoughly(t *testing.T) {
	build := func() *storage.GraphStorage {
		gs := storage.NewGraphStorage()
		var records []storage.EdgeRecord
		for i := range 60 {
			records = append(records, storage.EdgeRecord{
				Source: fmt.Sprint(i),
				Target: fmt.Sprint((i*7 + 3) % 60),
			})
		}
		if err := gs.ImportEdges(records); err != nil {
			t.Fatalf("ImportEdges failed: %v", err)
		}
		return gs
	}

	exact := DefaultForceAtlas2Config()
	approx := DefaultForceAtlas2Config()
	approx.BarnesHut = true

	gExact, gApprox := build(), build()
	if _, err := NewForceAtlas2(exact).Run(context.Background(), gExact, 50); err != nil {
		t.Fatalf("exact Run failed: %v", err)
	}
	if _, err := NewForceAtlas2(approx).Run(context.Background(), gApprox, 50); err != nil {
		t.Fatalf("Barnes-Hut Run failed: %v", err)
	}

	spread := func(pos map[string]Position) float64 {
		total := 0.0
		for _, p := range pos {
			total += math.Hypot(p.X, p.Y)
		}
		return total / float64(len(pos))
	}
	e, a := spread(positionsOf(t, gExact)), spread(positionsOf(t, gApprox))
	if math.Abs(e-a)/e > 0.5 {
		t.Errorf("Barnes-Hut spread %f too far from exact spread %f", a, e)
	}
}

func TestForceAtlas2_Cancellation(t *testing.T) {
	gs := setupLayoutGraph(t)
	ctx, cancel := context.WithCancel(context.Background())

	config := DefaultForceAtlas2Config()
	config.ProgressInterval = 5
	config.Progress = func(iteration int) {
		if iteration == 10 {
			cancel()
		}
	}

	result, err := NewForceAtlas2(config).Run(ctx, gs, 400)
	if !errors.Is(err, ErrLayoutInterrupted) {
		t.Fatalf("expected ErrLayoutInterrupted, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected the context error to be wrapped, got %v", err)
	}
	if !result.Interrupted || result.Iterations != 10 {
		t.Errorf("result = interrupted %v after %d iterations, want true after 10", result.Interrupted, result.Iterations)
	}

	// Last computed positions are kept on the graph
	pos := positionsOf(t, gs)
	for nodeID, p := range result.Positions {
		node, _ := gs.GetNode(nodeID)
		if pos[node.Key] != p {
			t.Errorf("node %s stored %+v, result %+v", node.Key, pos[node.Key], p)
		}
	}
}

func TestForceAtlas2_ProgressCadence(t *testing.T) {
	gs := setupLayoutGraph(t)
	var reported []int

	config := DefaultForceAtlas2Config()
	config.Progress = func(iteration int) { reported = append(reported, iteration) }

	if _, err := NewForceAtlas2(config).Run(context.Background(), gs, 400); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []int{100, 200, 300, 400}
	if len(reported) != len(want) {
		t.Fatalf("progress reported %v, want %v", reported, want)
	}
	for i := range want {
		if reported[i] != want[i] {
			t.Errorf("progress reported %v, want %v", reported, want)
		}
	}
}

func TestForceAtlas2_StopWhen(t *testing.T) {
	gs := setupLayoutGraph(t)
	config := DefaultForceAtlas2Config()
	config.StopWhen = func(iteration int, speed float64) bool { return iteration >= 7 }

	result, err := NewForceAtlas2(config).Run(context.Background(), gs, 400)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.StoppedEarly || result.Iterations != 7 {
		t.Errorf("stopped=%v after %d iterations, want true after 7", result.StoppedEarly, result.Iterations)
	}
}

func TestLayoutSession_EndAlgoIdempotent(t *testing.T) {
	gs := setupLayoutGraph(t)
	session, err := NewForceAtlas2(DefaultForceAtlas2Config()).InitAlgo(gs)
	if err != nil {
		t.Fatalf("InitAlgo failed: %v", err)
	}
	for session.CanAlgo() && session.Iteration() < 3 {
		session.GoAlgo()
	}
	if err := session.EndAlgo(); err != nil {
		t.Fatalf("EndAlgo failed: %v", err)
	}
	if err := session.EndAlgo(); err != nil {
		t.Errorf("second EndAlgo failed: %v", err)
	}
	if session.CanAlgo() {
		t.Error("ended session must not run again")
	}
}

func TestForceAtlas2_EmptyAndSingleNode(t *testing.T) {
	fa := NewForceAtlas2(DefaultForceAtlas2Config())

	empty := storage.NewGraphStorage()
	result, err := fa.Run(context.Background(), empty, 10)
	if err != nil {
		t.Fatalf("empty Run failed: %v", err)
	}
	if len(result.Positions) != 0 {
		t.Errorf("empty graph produced %d positions", len(result.Positions))
	}

	single := storage.NewGraphStorage()
	if _, err := single.CreateNode("only", "", nil); err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}
	if _, err := fa.Run(context.Background(), single, 10); err != nil {
		t.Fatalf("single Run failed: %v", err)
	}
	for _, p := range positionsOf(t, single) {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			t.Errorf("single node position is NaN")
		}
	}
}

func TestCircularLayout(t *testing.T) {
	gs := setupLayoutGraph(t)
	ids := gs.NodeIDs()

	positions, err := NewCircularLayout(&LayoutConfig{Width: 200, Height: 200, Padding: 10}).ComputeLayout(gs, ids)
	if err != nil {
		t.Fatalf("ComputeLayout failed: %v", err)
	}
	for nodeID, pos := range positions {
		if r := math.Hypot(pos.X, pos.Y); math.Abs(r-90) > 1e-9 {
			t.Errorf("node %d at radius %f, want 90", nodeID, r)
		}
	}
}

func TestApplyRankSizes(t *testing.T) {
	gs := storage.NewGraphStorage()
	ranks := map[string]float64{"low": 0.1, "mid": 0.3, "high": 0.6}
	for key, rank := range ranks {
		if _, err := gs.CreateNode(key, "", map[string]storage.Value{
			storage.AttrPageRank: storage.FloatValue(rank),
		}); err != nil {
			t.Fatalf("CreateNode failed: %v", err)
		}
	}

	if err := ApplyRankSizes(gs, 10, 60); err != nil {
		t.Fatalf("ApplyRankSizes failed: %v", err)
	}

	want := map[string]float64{"low": 10, "mid": 30, "high": 60}
	for key, size := range want {
		node, _ := gs.GetNodeByKey(key)
		got, _ := node.Float(storage.AttrSize)
		if math.Abs(got-size) > 1e-9 {
			t.Errorf("size(%s) = %f, want %f", key, got, size)
		}
	}

	if err := ApplyRankSizes(gs, 5, 1); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestApplyRankSizesKeepsInputSizes(t *testing.T) {
	gs := storage.NewGraphStorage()
	err := gs.ImportNodes([]storage.NodeRecord{
		{Key: "sized", Attributes: map[string]storage.Value{
			storage.AttrPageRank: storage.FloatValue(0.9),
			storage.AttrSize:     storage.IntValue(3),
		}},
		{Key: "low", Attributes: map[string]storage.Value{storage.AttrPageRank: storage.FloatValue(0.1)}},
		{Key: "bare"},
	})
	if err != nil {
		t.Fatalf("ImportNodes failed: %v", err)
	}

	if err := ApplyRankSizes(gs, 10, 50); err != nil {
		t.Fatalf("ApplyRankSizes failed: %v", err)
	}

	want := map[string]float64{"sized": 3, "low": 10, "bare": 10}
	for key, size := range want {
		node, _ := gs.GetNodeByKey(key)
		v, ok := node.GetProperty(storage.AttrSize)
		if !ok || v.Type != storage.TypeFloat {
			t.Fatalf("size(%s) missing or not a float: %v", key, v)
		}
		if got, _ := v.AsFloat(); got != size {
			t.Errorf("size(%s) = %f, want %f", key, got, size)
		}
	}
}

func TestApplyCommunityColorsKeepsInputColors(t *testing.T) {
	gs := storage.NewGraphStorage()
	err := gs.ImportNodes([]storage.NodeRecord{
		{Key: "painted", Attributes: map[string]storage.Value{
			storage.AttrCommunity: storage.IntValue(0),
			storage.AttrColor:     storage.StringValue("#123456"),
		}},
		{Key: "plain", Attributes: map[string]storage.Value{storage.AttrCommunity: storage.IntValue(1)}},
		{Key: "loner"},
	})
	if err != nil {
		t.Fatalf("ImportNodes failed: %v", err)
	}

	palette := DefaultPalette()
	if err := ApplyCommunityColors(gs, palette); err != nil {
		t.Fatalf("ApplyCommunityColors failed: %v", err)
	}

	want := map[string]string{"painted": "#123456", "plain": palette.Color(1)}
	for key, color := range want {
		node, _ := gs.GetNodeByKey(key)
		if v, _ := node.GetProperty(storage.AttrColor); v.String() != color {
			t.Errorf("color(%s) = %s, want %s", key, v.String(), color)
		}
	}
	loner, _ := gs.GetNodeByKey("loner")
	if _, ok := loner.GetProperty(storage.AttrColor); ok {
		t.Error("node without a community should stay uncoloured")
	}
}

func TestCommunityPalette(t *testing.T) {
	gs := storage.NewGraphStorage()
	for i, key := range []string{"a", "b", "c"} {
		if _, err := gs.CreateNode(key, "", map[string]storage.Value{
			storage.AttrCommunity: storage.IntValue(int64(i % 2)),
		}); err != nil {
			t.Fatalf("CreateNode failed: %v", err)
		}
	}
	if _, err := gs.CreateNode("loner", "", nil); err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}

	palette := DefaultPalette()
	colors := CommunityPalette(gs, palette)
	if len(colors) != 3 {
		t.Fatalf("colored %d nodes, want 3", len(colors))
	}

	a, _ := gs.GetNodeByKey("a")
	c, _ := gs.GetNodeByKey("c")
	if colors[a.ID] != colors[c.ID] || colors[a.ID] != palette.Color(0) {
		t.Errorf("same community must share a colour")
	}

	if r, g, b := palette.RGB(0); r != 0x42 || g != 0x85 || b != 0xF4 {
		t.Errorf("RGB(0) = %d,%d,%d", r, g, b)
	}
	if palette.Color(len(palette.NodeColors)) != palette.Color(0) {
		t.Error("palette should wrap")
	}
}

func TestForceAtlas2_PositionsStayFinite(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	properties.Property("every node ends with a finite position", prop.ForAll(
		func(nodes int, targets []int, barnesHut bool) bool {
			gs := storage.NewGraphStorage()
			for i := range nodes {
				if _, err := gs.CreateNode(strconv.Itoa(i), "", nil); err != nil {
					return false
				}
			}
			records := make([]storage.EdgeRecord, 0, len(targets))
			for i, target := range targets {
				records = append(records, storage.EdgeRecord{
					Source: strconv.Itoa(i % nodes),
					Target: strconv.Itoa(target % nodes),
				})
			}
			if err := gs.ImportEdges(records); err != nil {
				return false
			}

			config := DefaultForceAtlas2Config()
			config.BarnesHut = barnesHut
			if _, err := NewForceAtlas2(config).Run(context.Background(), gs, 30); err != nil {
				return false
			}
			for _, node := range gs.Nodes() {
				x, okX := node.Float(storage.AttrX)
				y, okY := node.Float(storage.AttrY)
				if !okX || !okY || math.IsNaN(x+y) || math.IsInf(x+y, 0) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 30),
		gen.SliceOf(gen.IntRange(0, 1000)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
