package interact

import (
	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/viewer"
	"github.com/matzehuels/treeize/pkg/wire"
)

// DefaultPinRadius is the pin hit radius used by [BuildFrame].
const DefaultPinRadius = 6

// DefaultNodeSize is used by [BuildFrame] for nodes without a size.
var DefaultNodeSize = geom.V(120, 60)

// NodeFrame is a node's on-screen rectangle.
type NodeFrame struct {
	ID   treeize.NodeID
	Rect geom.Rect
}

// PinFrame is a pin's on-screen center.
type PinFrame struct {
	Pin treeize.AnyPin
	Pos geom.Vec
}

// Frame is what the host measured while drawing the current frame.
type Frame struct {
	// Nodes in draw order, bottom first.
	Nodes     []NodeFrame
	Pins      []PinFrame
	PinRadius float64
}

// BuildFrame lays pins out along node edges for hosts that do not measure
// them: inputs on the edge facing the parent, outputs on the opposite one,
// evenly spaced. sizes may be nil, in which case the viewer's estimates are
// used when it has any.
func BuildFrame[T any](g *treeize.Treeize[T], v viewer.Viewer[T], sizes map[treeize.NodeID]geom.Vec, axis wire.Axis) Frame {
	if sizes == nil {
		sizes = viewer.Sizes(g, v)
	}
	f := Frame{PinRadius: DefaultPinRadius}
	for _, id := range g.DrawOrder() {
		node, _ := g.Node(id)
		size, ok := sizes[id]
		if !ok {
			size = DefaultNodeSize
		}
		r := geom.RectFromMinSize(node.Pos, size)
		f.Nodes = append(f.Nodes, NodeFrame{ID: id, Rect: r})

		ins, outs := v.Inputs(&node.Value), v.Outputs(&node.Value)
		for i := range ins {
			f.Pins = append(f.Pins, PinFrame{
				Pin: treeize.InPinOf(treeize.InPinID{Node: id, Input: i}),
				Pos: edgePoint(r, axis, false, i, ins),
			})
		}
		for i := range outs {
			f.Pins = append(f.Pins, PinFrame{
				Pin: treeize.OutPinOf(treeize.OutPinID{Node: id, Output: i}),
				Pos: edgePoint(r, axis, true, i, outs),
			})
		}
	}
	return f
}

func edgePoint(r geom.Rect, axis wire.Axis, far bool, i, n int) geom.Vec {
	t := float64(i+1) / float64(n+1)
	if axis == wire.Horizontal {
		x := r.Min.X
		if far {
			x = r.Max.X
		}
		return geom.V(x, r.Min.Y+t*r.Height())
	}
	y := r.Min.Y
	if far {
		y = r.Max.Y
	}
	return geom.V(r.Min.X+t*r.Width(), y)
}

// frameIndex holds the lookups one step needs.
type frameIndex struct {
	frame  Frame
	rank   map[treeize.NodeID]int
	outPos map[treeize.OutPinID]geom.Vec
	inPos  map[treeize.InPinID]geom.Vec
}

func indexFrame(f Frame) *frameIndex {
	idx := &frameIndex{
		frame:  f,
		rank:   make(map[treeize.NodeID]int, len(f.Nodes)),
		outPos: make(map[treeize.OutPinID]geom.Vec),
		inPos:  make(map[treeize.InPinID]geom.Vec),
	}
	for i, n := range f.Nodes {
		idx.rank[n.ID] = i
	}
	for _, p := range f.Pins {
		if p.Pin.Kind == treeize.PinOut {
			idx.outPos[p.Pin.Out] = p.Pos
		} else {
			idx.inPos[p.Pin.In] = p.Pos
		}
	}
	return idx
}

func (idx *frameIndex) radius() float64 {
	if idx.frame.PinRadius > 0 {
		return idx.frame.PinRadius
	}
	return DefaultPinRadius
}

// pinAt returns the pin under pos. Pins of higher nodes win, then the
// nearest pin.
func (idx *frameIndex) pinAt(pos geom.Vec) (treeize.AnyPin, bool) {
	var (
		best     treeize.AnyPin
		found    bool
		bestRank int
		bestDist float64
	)
	r := idx.radius()
	for _, p := range idx.frame.Pins {
		d := geom.Dist(p.Pos, pos)
		if d > r {
			continue
		}
		rank := idx.rank[p.Pin.Node()]
		if !found || rank > bestRank || (rank == bestRank && d < bestDist) {
			best, found, bestRank, bestDist = p.Pin, true, rank, d
		}
	}
	return best, found
}

// nodeAt returns the topmost node containing pos.
func (idx *frameIndex) nodeAt(pos geom.Vec) (treeize.NodeID, bool) {
	for i := len(idx.frame.Nodes) - 1; i >= 0; i-- {
		if idx.frame.Nodes[i].Rect.Contains(pos) {
			return idx.frame.Nodes[i].ID, true
		}
	}
	return treeize.NodeID{}, false
}

func (idx *frameIndex) wireEnds(w treeize.Wire) (from, to geom.Vec, ok bool) {
	from, ok1 := idx.outPos[w.Out]
	to, ok2 := idx.inPos[w.In]
	return from, to, ok1 && ok2
}
