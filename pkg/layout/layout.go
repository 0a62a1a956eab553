package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/wire"
)

// Defaults used by [DefaultConfig].
const (
	DefaultHorizontalSpacing = 200
	DefaultVerticalSpacing   = 150
	DefaultMaxDepth          = 256
)

// Config controls spacing and fallback placement.
//
// Spacing names follow the vertical axis. With [wire.Horizontal] the tree
// grows to the right: VerticalSpacing separates a parent's right edge from
// its children and HorizontalSpacing separates siblings vertically.
type Config struct {
	// HorizontalSpacing is the minimum gap between sibling subtrees and
	// between forest roots.
	HorizontalSpacing float64
	// VerticalSpacing is the gap between a parent's bottom edge and its
	// children's top edge.
	VerticalSpacing float64
	// Axis is the direction the tree grows from its roots. The zero value
	// is [wire.Vertical].
	Axis wire.Axis
	// StartPos is the top-left corner of the first root, and the position
	// given to nodes the walk could not place.
	StartPos geom.Vec
	// DefaultSize is used for nodes without a measured size. The zero value
	// means (HorizontalSpacing, VerticalSpacing).
	DefaultSize geom.Vec
	// MaxDepth bounds the tree walk. Zero means DefaultMaxDepth.
	MaxDepth int
}

// DefaultConfig returns the stock spacing.
func DefaultConfig() Config {
	return Config{
		HorizontalSpacing: DefaultHorizontalSpacing,
		VerticalSpacing:   DefaultVerticalSpacing,
		MaxDepth:          DefaultMaxDepth,
	}
}

func (c Config) defaultSize() geom.Vec {
	if c.DefaultSize.X > 0 && c.DefaultSize.Y > 0 {
		return c.DefaultSize
	}
	return geom.V(c.HorizontalSpacing, c.VerticalSpacing)
}

// breadth and length split a node size into the extent across the axis and
// the extent along it.
func (c Config) breadth(s geom.Vec) float64 {
	if c.Axis == wire.Horizontal {
		return s.Y
	}
	return s.X
}

func (c Config) length(s geom.Vec) float64 {
	if c.Axis == wire.Horizontal {
		return s.X
	}
	return s.Y
}

// place maps a breadth/length point to a top-left corner.
func (c Config) place(b, l float64) geom.Vec {
	if c.Axis == wire.Horizontal {
		return geom.V(l, b)
	}
	return geom.V(b, l)
}

func (c Config) maxDepth() int {
	if c.MaxDepth > 0 {
		return c.MaxDepth
	}
	return DefaultMaxDepth
}

// Result is a computed layout.
type Result struct {
	// Positions holds the top-left corner of every live node.
	Positions map[treeize.NodeID]geom.Vec
	// Roots lists the forest roots in placement order.
	Roots []treeize.NodeID
	// Fallback is set when the graph had no roots and every node was
	// placed at StartPos.
	Fallback bool
	// Unplaced counts nodes that were given StartPos because no root
	// reached them or they sat below MaxDepth.
	Unplaced int
}

// Degenerate reports whether the layout contains nodes stacked at the start
// position instead of placed in the forest.
func (r *Result) Degenerate() bool { return r.Fallback || r.Unplaced > 0 }

// Predicate reports whether a node exposes a pin of some kind.
type Predicate func(treeize.NodeID) bool

func all(treeize.NodeID) bool { return true }

// band is the footprint of one level of a subtree: its span across the axis
// relative to the subtree root's center, and its span along the axis
// relative to the root's leading edge.
type band struct{ left, right, near, far float64 }

func (b band) overlaps(o band) bool { return b.near < o.far && o.near < b.far }

// contour lists the bands of a subtree. Bands with the same near and far
// edges are merged, so uniform heights keep one band per depth.
type contour []band

func (c contour) shift(dx float64) {
	for i := range c {
		c[i].left += dx
		c[i].right += dx
	}
}

func (c contour) descend(dy float64) {
	for i := range c {
		c[i].near += dy
		c[i].far += dy
	}
}

func (c contour) bounds() (left, right float64) {
	left, right = math.Inf(1), math.Inf(-1)
	for _, e := range c {
		left = min(left, e.left)
		right = max(right, e.right)
	}
	return left, right
}

// union merges o into c.
func (c contour) union(o contour) contour {
	for _, e := range o {
		i := slices.IndexFunc(c, func(x band) bool { return x.near == e.near && x.far == e.far })
		if i < 0 {
			c = append(c, e)
			continue
		}
		c[i].left = min(c[i].left, e.left)
		c[i].right = max(c[i].right, e.right)
	}
	return c
}

// separation is the shift that moves o clear of c wherever their bands
// overlap along the axis.
func (c contour) separation(o contour, spacing float64) float64 {
	dx := math.Inf(-1)
	for _, a := range c {
		for _, b := range o {
			if a.overlaps(b) {
				dx = max(dx, a.right+spacing-b.left)
			}
		}
	}
	if math.IsInf(dx, -1) {
		_, right := c.bounds()
		left, _ := o.bounds()
		dx = right + spacing - left
	}
	return dx
}

type walker struct {
	cfg      Config
	sizes    map[treeize.NodeID]geom.Vec
	children map[treeize.NodeID][]treeize.NodeID
	placed   map[treeize.NodeID][]treeize.NodeID
	offset   map[treeize.NodeID]float64
	visited  map[treeize.NodeID]bool
	pos      map[treeize.NodeID]geom.Vec
}

func (w *walker) size(id treeize.NodeID) geom.Vec {
	if s, ok := w.sizes[id]; ok && s.X > 0 && s.Y > 0 {
		return s
	}
	return w.cfg.defaultSize()
}

// firstWalk lays out the subtree under id and returns its contour.
func (w *walker) firstWalk(id treeize.NodeID, depth int) contour {
	w.visited[id] = true
	s := w.size(id)
	half, length := w.cfg.breadth(s)/2, w.cfg.length(s)
	self := band{-half, half, 0, length}

	if depth+1 >= w.cfg.maxDepth() {
		return contour{self}
	}

	var kids []treeize.NodeID
	for _, k := range w.children[id] {
		if !w.visited[k] {
			kids = append(kids, k)
		}
	}
	if len(kids) == 0 {
		return contour{self}
	}

	var merged contour
	var firstLeft, lastRight float64
	offsets := make([]float64, len(kids))
	for i, k := range kids {
		c := w.firstWalk(k, depth+1)
		c.descend(length + w.cfg.VerticalSpacing)
		if i == 0 {
			merged = c
			firstLeft, lastRight = c[0].left, c[0].right
			continue
		}

		dx := merged.separation(c, w.cfg.HorizontalSpacing)
		c.shift(dx)
		offsets[i] = dx
		lastRight = c[0].right
		merged = merged.union(c)
	}

	mid := (firstLeft + lastRight) / 2
	merged.shift(-mid)
	for i, k := range kids {
		w.offset[k] = offsets[i] - mid
	}
	w.placed[id] = kids

	return contour{self}.union(merged)
}

// secondWalk converts relative offsets into absolute top-left corners.
func (w *walker) secondWalk(id treeize.NodeID, center, near float64) {
	s := w.size(id)
	w.pos[id] = w.cfg.place(center-w.cfg.breadth(s)/2, near)
	childNear := near + w.cfg.length(s) + w.cfg.VerticalSpacing
	for _, k := range w.placed[id] {
		w.secondWalk(k, center+w.offset[k], childNear)
	}
}

// Compute lays out every live node of g.
//
// hasOutput and hasInput select which wires count as tree edges; nil means
// every node qualifies. sizes holds measured node sizes from a previous
// render pass and may be nil.
func Compute[T any](g *treeize.Treeize[T], cfg Config, hasOutput, hasInput Predicate, sizes map[treeize.NodeID]geom.Vec) *Result {
	if hasOutput == nil {
		hasOutput = all
	}
	if hasInput == nil {
		hasInput = all
	}

	w := &walker{
		cfg:      cfg,
		sizes:    sizes,
		children: make(map[treeize.NodeID][]treeize.NodeID),
		placed:   make(map[treeize.NodeID][]treeize.NodeID),
		offset:   make(map[treeize.NodeID]float64),
		visited:  make(map[treeize.NodeID]bool),
		pos:      make(map[treeize.NodeID]geom.Vec, g.Len()),
	}

	hasParent := make(map[treeize.NodeID]bool)
	for e := range g.Wires() {
		src, dst := e.Out.Node, e.In.Node
		if src == dst || hasParent[dst] || !hasOutput(src) || !hasInput(dst) {
			continue
		}
		hasParent[dst] = true
		w.children[src] = append(w.children[src], dst)
	}

	result := &Result{Positions: w.pos}
	ids := g.NodeIDs()
	for _, id := range ids {
		if !hasParent[id] {
			result.Roots = append(result.Roots, id)
		}
	}

	if len(result.Roots) == 0 {
		result.Fallback = len(ids) > 0
		for _, id := range ids {
			w.pos[id] = cfg.StartPos
		}
		return result
	}

	// start holds the breadth origin in X and the length origin in Y.
	start := cfg.place(cfg.StartPos.X, cfg.StartPos.Y)
	cursor := start.X
	for _, root := range result.Roots {
		c := w.firstWalk(root, 0)
		left, right := c.bounds()
		w.secondWalk(root, cursor-left, start.Y)
		cursor += right - left + cfg.HorizontalSpacing
	}

	for _, id := range ids {
		if _, ok := w.pos[id]; !ok {
			w.pos[id] = cfg.StartPos
			result.Unplaced++
		}
	}
	return result
}

// Tree lays out g treating every wire as a tree edge.
func Tree[T any](g *treeize.Treeize[T], cfg Config, sizes map[treeize.NodeID]geom.Vec) *Result {
	return Compute(g, cfg, nil, nil, sizes)
}

// Apply writes the computed positions into g. Positions of nodes removed
// since the layout was computed are ignored.
func Apply[T any](g *treeize.Treeize[T], r *Result) {
	if r == nil {
		return
	}
	for id, p := range r.Positions {
		g.SetPos(id, p)
	}
}

// TreeAndApply computes a layout and commits it in one step.
func TreeAndApply[T any](g *treeize.Treeize[T], cfg Config, hasOutput, hasInput Predicate, sizes map[treeize.NodeID]geom.Vec) *Result {
	r := Compute(g, cfg, hasOutput, hasInput, sizes)
	Apply(g, r)
	return r
}

// PinViewer is the part of a viewer the layout consults. It is satisfied
// by viewer.Viewer.
type PinViewer[T any] interface {
	HasInput(node *T) bool
	HasOutput(node *T) bool
}

// WithViewer computes and applies a layout using the viewer's pin
// predicates and the given measured sizes.
func WithViewer[T any](g *treeize.Treeize[T], v PinViewer[T], cfg Config, sizes map[treeize.NodeID]geom.Vec) *Result {
	hasOut := make(map[treeize.NodeID]bool, g.Len())
	hasIn := make(map[treeize.NodeID]bool, g.Len())
	for id, value := range g.Nodes() {
		hasOut[id] = v.HasOutput(value)
		hasIn[id] = v.HasInput(value)
	}
	return TreeAndApply(g, cfg,
		func(id treeize.NodeID) bool { return hasOut[id] },
		func(id treeize.NodeID) bool { return hasIn[id] },
		sizes)
}
