package layout

import (
	"maps"
	"math"
	"slices"
	"testing"

	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/wire"
)

func connect(g *treeize.Treeize[string], from, to treeize.NodeID) {
	g.Connect(treeize.OutPinID{Node: from}, treeize.InPinID{Node: to})
}

func TestParentWithTwoChildren(t *testing.T) {
	g := treeize.New[string]()
	r := g.Insert("R", geom.Vec{})
	c1 := g.Insert("C1", geom.Vec{})
	c2 := g.Insert("C2", geom.Vec{})
	connect(g, r, c1)
	connect(g, r, c2)

	res := Tree(g, DefaultConfig(), nil)
	pr, p1, p2 := res.Positions[r], res.Positions[c1], res.Positions[c2]

	if got := p2.X - p1.X; got != 400 {
		t.Errorf("C2.x - C1.x = %v, want 400", got)
	}
	wantY := pr.Y + DefaultVerticalSpacing + DefaultVerticalSpacing
	if p1.Y != wantY || p2.Y != wantY {
		t.Errorf("children y = %v, %v, want %v", p1.Y, p2.Y, wantY)
	}
	if mid := (p1.X + p2.X) / 2; mid != pr.X {
		t.Errorf("parent not centered over children: parent x=%v, children mid=%v", pr.X, mid)
	}
	if res.Degenerate() {
		t.Error("tree layout should not be degenerate")
	}
}

func TestForestPacking(t *testing.T) {
	tests := []struct {
		name  string
		sizeA geom.Vec
	}{
		{"default size", geom.Vec{}},
		{"measured size", geom.V(320, 80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := treeize.New[string]()
			a := g.Insert("A", geom.Vec{})
			b := g.Insert("B", geom.Vec{})
			sizes := map[treeize.NodeID]geom.Vec{}
			width := float64(DefaultHorizontalSpacing)
			if tt.sizeA != (geom.Vec{}) {
				sizes[a] = tt.sizeA
				width = tt.sizeA.X
			}

			cfg := DefaultConfig()
			res := Tree(g, cfg, sizes)
			pa, pb := res.Positions[a], res.Positions[b]

			if pb.X < pa.X+width+cfg.HorizontalSpacing {
				t.Errorf("B.x = %v, want >= %v", pb.X, pa.X+width+cfg.HorizontalSpacing)
			}
			if pa != cfg.StartPos {
				t.Errorf("first root at %v, want start %v", pa, cfg.StartPos)
			}
			if !slices.Equal(res.Roots, []treeize.NodeID{a, b}) {
				t.Errorf("Roots = %v", res.Roots)
			}
			if res.Fallback {
				t.Error("isolated nodes are roots, not a fallback")
			}
		})
	}
}

// sameRowGaps checks that nodes sharing a row keep at least spacing between
// them. All nodes must have the same width and height.
func sameRowGaps(t *testing.T, pos map[treeize.NodeID]geom.Vec, width, spacing float64) {
	t.Helper()
	rows := map[float64][]float64{}
	for _, p := range pos {
		rows[p.Y] = append(rows[p.Y], p.X)
	}
	for y, xs := range rows {
		slices.Sort(xs)
		for i := 1; i < len(xs); i++ {
			if gap := xs[i] - (xs[i-1] + width); gap < spacing-1e-9 {
				t.Errorf("row y=%v: gap %v between x=%v and x=%v, want >= %v", y, gap, xs[i-1], xs[i], spacing)
			}
		}
	}
}

func TestNonOverlapDeepSubtrees(t *testing.T) {
	g := treeize.New[string]()
	root := g.Insert("root", geom.Vec{})
	left := g.Insert("left", geom.Vec{})
	right := g.Insert("right", geom.Vec{})
	connect(g, root, left)
	connect(g, root, right)

	// Two narrow parents whose grandchildren are wide enough to collide
	// unless deeper levels are checked.
	var leftKids, rightKids []treeize.NodeID
	for i := 0; i < 3; i++ {
		l := g.Insert("l", geom.Vec{})
		r := g.Insert("r", geom.Vec{})
		connect(g, left, l)
		connect(g, right, r)
		leftKids = append(leftKids, l)
		rightKids = append(rightKids, r)
	}
	deep := g.Insert("deep", geom.Vec{})
	connect(g, leftKids[2], deep)
	deeper := g.Insert("deeper", geom.Vec{})
	connect(g, rightKids[0], deeper)

	cfg := Config{HorizontalSpacing: 20, VerticalSpacing: 10, DefaultSize: geom.V(50, 30)}
	res := Tree(g, cfg, nil)

	if len(res.Positions) != g.Len() {
		t.Fatalf("got %d positions for %d nodes", len(res.Positions), g.Len())
	}
	sameRowGaps(t, res.Positions, 50, 20)

	lastLeft := res.Positions[leftKids[2]]
	firstRight := res.Positions[rightKids[0]]
	if firstRight.X-(lastLeft.X+50) < 20 {
		t.Errorf("cousins overlap: %v and %v", lastLeft, firstRight)
	}
}

func TestNonOverlapMixedWidths(t *testing.T) {
	g := treeize.New[string]()
	root := g.Insert("root", geom.Vec{})
	sizes := map[treeize.NodeID]geom.Vec{root: geom.V(40, 20)}
	var kids []treeize.NodeID
	for _, w := range []float64{10, 300, 25, 80} {
		k := g.Insert("k", geom.Vec{})
		sizes[k] = geom.V(w, 20)
		connect(g, root, k)
		kids = append(kids, k)
	}
	cfg := Config{HorizontalSpacing: 15, VerticalSpacing: 5}
	res := Tree(g, cfg, sizes)

	for i := 1; i < len(kids); i++ {
		prev, cur := kids[i-1], kids[i]
		gap := res.Positions[cur].X - (res.Positions[prev].X + sizes[prev].X)
		if math.Abs(gap-15) > 1e-9 {
			t.Errorf("gap between siblings %d and %d = %v, want 15", i-1, i, gap)
		}
	}
	for _, k := range kids {
		if y := res.Positions[k].Y; y != 20+5 {
			t.Errorf("child y = %v, want 25", y)
		}
	}
}

func TestRootlessFallback(t *testing.T) {
	g := treeize.New[string]()
	a := g.Insert("a", geom.Vec{})
	b := g.Insert("b", geom.Vec{})
	connect(g, a, b)
	connect(g, b, a)

	cfg := DefaultConfig()
	cfg.StartPos = geom.V(7, 9)
	res := Tree(g, cfg, nil)

	if !res.Fallback || !res.Degenerate() {
		t.Error("cycle without entry should fall back")
	}
	for _, id := range []treeize.NodeID{a, b} {
		if res.Positions[id] != cfg.StartPos {
			t.Errorf("%v at %v, want %v", id, res.Positions[id], cfg.StartPos)
		}
	}
}

func TestCycleWithEntryPoint(t *testing.T) {
	g := treeize.New[string]()
	r := g.Insert("r", geom.Vec{})
	a := g.Insert("a", geom.Vec{})
	b := g.Insert("b", geom.Vec{})
	connect(g, r, a)
	connect(g, a, b)
	connect(g, b, a)

	res := Tree(g, DefaultConfig(), nil)
	if res.Degenerate() {
		t.Fatalf("entry point should make the cycle placeable: %+v", res)
	}
	if !(res.Positions[r].Y < res.Positions[a].Y && res.Positions[a].Y < res.Positions[b].Y) {
		t.Errorf("expected r above a above b: %v", res.Positions)
	}
}

func TestUnreachableNodes(t *testing.T) {
	g := treeize.New[string]()
	g.Insert("root", geom.Vec{})
	a := g.Insert("a", geom.Vec{})
	b := g.Insert("b", geom.Vec{})
	connect(g, a, b)
	connect(g, b, a)

	res := Tree(g, DefaultConfig(), nil)
	if res.Fallback {
		t.Error("graph with a root must not use the global fallback")
	}
	if res.Unplaced != 2 {
		t.Errorf("Unplaced = %d, want 2", res.Unplaced)
	}
	if res.Positions[a] != (geom.Vec{}) || res.Positions[b] != (geom.Vec{}) {
		t.Error("unreachable nodes should sit at the start position")
	}
}

func TestDepthGuard(t *testing.T) {
	g := treeize.New[string]()
	prev := g.Insert("0", geom.Vec{})
	for i := 1; i < 10; i++ {
		next := g.Insert("n", geom.Vec{})
		connect(g, prev, next)
		prev = next
	}

	cfg := DefaultConfig()
	cfg.MaxDepth = 3
	res := Tree(g, cfg, nil)

	if len(res.Positions) != 10 {
		t.Fatalf("got %d positions, want 10", len(res.Positions))
	}
	if res.Unplaced != 7 {
		t.Errorf("Unplaced = %d, want 7", res.Unplaced)
	}
}

func TestTotality(t *testing.T) {
	g := treeize.New[string]()
	var ids []treeize.NodeID
	for i := 0; i < 30; i++ {
		ids = append(ids, g.Insert("n", geom.Vec{}))
	}
	// Dense deterministic wiring with duplicates, back edges and self-loops.
	for i := range ids {
		for _, j := range []int{(i * 7) % 30, (i * 11 + 3) % 30, i} {
			connect(g, ids[i], ids[j])
		}
	}
	g.Remove(ids[5])
	g.Remove(ids[17])

	res := Tree(g, DefaultConfig(), nil)
	if len(res.Positions) != g.Len() {
		t.Errorf("got %d positions for %d live nodes", len(res.Positions), g.Len())
	}
	for _, id := range g.NodeIDs() {
		if _, ok := res.Positions[id]; !ok {
			t.Errorf("node %v has no position", id)
		}
	}
}

func TestSelfLoopIgnored(t *testing.T) {
	g := treeize.New[string]()
	a := g.Insert("a", geom.Vec{})
	g.Connect(treeize.OutPinID{Node: a}, treeize.InPinID{Node: a})

	res := Tree(g, DefaultConfig(), nil)
	if res.Degenerate() || !slices.Equal(res.Roots, []treeize.NodeID{a}) {
		t.Errorf("self-loop should leave the node a root: %+v", res)
	}
}

func TestPredicatesFilterWires(t *testing.T) {
	g := treeize.New[string]()
	a := g.Insert("a", geom.Vec{})
	b := g.Insert("b", geom.Vec{})
	connect(g, a, b)

	noOut := func(id treeize.NodeID) bool { return id != a }
	res := Compute(g, DefaultConfig(), noOut, nil, nil)
	if len(res.Roots) != 2 {
		t.Errorf("wire through a hidden output should not count: roots=%v", res.Roots)
	}
	if res.Positions[a].Y != res.Positions[b].Y {
		t.Error("both nodes should be packed as roots on the same row")
	}
}

func TestMeasuredParentHeight(t *testing.T) {
	g := treeize.New[string]()
	p := g.Insert("p", geom.Vec{})
	c := g.Insert("c", geom.Vec{})
	connect(g, p, c)
	sizes := map[treeize.NodeID]geom.Vec{p: geom.V(100, 40)}

	cfg := DefaultConfig()
	cfg.StartPos = geom.V(0, 10)
	res := Tree(g, cfg, sizes)

	if got, want := res.Positions[c].Y, 10+40+cfg.VerticalSpacing; got != want {
		t.Errorf("child y = %v, want %v", got, want)
	}
}

// noOverlap checks that no two node rectangles intersect.
func noOverlap(t *testing.T, pos map[treeize.NodeID]geom.Vec, size func(treeize.NodeID) geom.Vec) {
	t.Helper()
	ids := slices.Collect(maps.Keys(pos))
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			pa, pb, sa, sb := pos[a], pos[b], size(a), size(b)
			if pa.X < pb.X+sb.X && pb.X < pa.X+sa.X && pa.Y < pb.Y+sb.Y && pb.Y < pa.Y+sa.Y {
				t.Errorf("nodes overlap: %v %v at %v and %v %v at %v", a, sa, pa, b, sb, pb)
			}
		}
	}
}

func TestNonOverlapMixedHeights(t *testing.T) {
	g := treeize.New[string]()
	root := g.Insert("root", geom.Vec{})
	tall := g.Insert("tall", geom.Vec{})
	short := g.Insert("short", geom.Vec{})
	wide := g.Insert("wide", geom.Vec{})
	connect(g, root, tall)
	connect(g, root, short)
	connect(g, short, wide)

	// wide sits one level below short but alongside tall.
	sizes := map[treeize.NodeID]geom.Vec{
		tall:  geom.V(50, 200),
		short: geom.V(50, 20),
		wide:  geom.V(300, 20),
	}
	cfg := Config{HorizontalSpacing: 20, VerticalSpacing: 10, DefaultSize: geom.V(50, 30)}
	res := Tree(g, cfg, sizes)

	noOverlap(t, res.Positions, func(id treeize.NodeID) geom.Vec {
		if s, ok := sizes[id]; ok {
			return s
		}
		return cfg.DefaultSize
	})
	if got, want := res.Positions[wide].Y, res.Positions[short].Y+20+cfg.VerticalSpacing; got != want {
		t.Errorf("wide y = %v, want %v", got, want)
	}
	if got := res.Positions[wide].X - (res.Positions[tall].X + 50); got < cfg.HorizontalSpacing {
		t.Errorf("gap between tall and wide = %v, want >= %v", got, cfg.HorizontalSpacing)
	}
}

func TestHorizontalAxis(t *testing.T) {
	g := treeize.New[string]()
	r := g.Insert("R", geom.Vec{})
	c1 := g.Insert("C1", geom.Vec{})
	c2 := g.Insert("C2", geom.Vec{})
	connect(g, r, c1)
	connect(g, r, c2)

	cfg := DefaultConfig()
	cfg.Axis = wire.Horizontal
	cfg.StartPos = geom.V(5, 7)
	res := Tree(g, cfg, nil)
	pr, p1, p2 := res.Positions[r], res.Positions[c1], res.Positions[c2]

	if pr.X != cfg.StartPos.X || p1.Y != cfg.StartPos.Y {
		t.Errorf("tree starts at (%v, %v), want %v", pr.X, p1.Y, cfg.StartPos)
	}
	// Default cards are 200 wide and 150 tall.
	wantX := pr.X + DefaultHorizontalSpacing + DefaultVerticalSpacing
	if p1.X != wantX || p2.X != wantX {
		t.Errorf("children x = %v, %v, want %v", p1.X, p2.X, wantX)
	}
	if got, want := p2.Y-p1.Y, float64(DefaultVerticalSpacing+DefaultHorizontalSpacing); got != want {
		t.Errorf("C2.y - C1.y = %v, want %v", got, want)
	}
	if mid := (p1.Y + p2.Y) / 2; mid != pr.Y {
		t.Errorf("parent not centered beside children: parent y=%v, children mid=%v", pr.Y, mid)
	}
}

func TestApplySkipsRemovedNodes(t *testing.T) {
	g := treeize.New[string]()
	a := g.Insert("a", geom.V(-1, -1))
	b := g.Insert("b", geom.V(-1, -1))
	res := Tree(g, DefaultConfig(), nil)
	g.Remove(a)
	Apply(g, res)

	if p, _ := g.Pos(b); p != res.Positions[b] {
		t.Errorf("Pos(b) = %v, want %v", p, res.Positions[b])
	}
	if g.Len() != 1 {
		t.Error("Apply must not resurrect removed nodes")
	}
	Apply(g, nil)
}

type pinViewer struct{ sources map[string]bool }

func (v pinViewer) HasInput(s *string) bool  { return !v.sources[*s] }
func (v pinViewer) HasOutput(s *string) bool { return v.sources[*s] }

func TestWithViewer(t *testing.T) {
	g := treeize.New[string]()
	src := g.Insert("src", geom.Vec{})
	dst := g.Insert("dst", geom.Vec{})
	connect(g, src, dst)
	connect(g, dst, src)

	res := WithViewer[string](g, pinViewer{sources: map[string]bool{"src": true}}, DefaultConfig(), nil)
	if !slices.Equal(res.Roots, []treeize.NodeID{src}) {
		t.Errorf("Roots = %v, want [src]", res.Roots)
	}
	ps, _ := g.Pos(src)
	pd, _ := g.Pos(dst)
	if pd.Y <= ps.Y {
		t.Errorf("dst should be below src after apply: %v %v", ps, pd)
	}
}

func TestCycles(t *testing.T) {
	g := treeize.New[string]()
	r := g.Insert("r", geom.Vec{})
	a := g.Insert("a", geom.Vec{})
	b := g.Insert("b", geom.Vec{})
	c := g.Insert("c", geom.Vec{})
	connect(g, r, a)
	connect(g, a, b)
	connect(g, b, c)
	connect(g, c, a)
	connect(g, c, a)
	connect(g, r, r)

	got := Cycles(g, nil, nil)
	want := [][]treeize.NodeID{{a, b, c}}
	if len(got) != 1 || !slices.Equal(got[0], want[0]) {
		t.Errorf("Cycles() = %v, want %v", got, want)
	}
	if len(Cycles(treeize.New[string](), nil, nil)) != 0 {
		t.Error("empty graph has no cycles")
	}
}
