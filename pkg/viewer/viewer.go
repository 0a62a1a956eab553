// Package viewer defines what a host tells the engine about its nodes.
//
// The graph store never inspects payloads. Pin counts, titles and measured
// sizes all come from a [Viewer], and optional capability interfaces
// ([DroppedWireMenu], [ConnectPolicy], [Sizer]) let a host opt into extra
// behavior. [Cards] is a ready-made viewer over [Card] payloads used by the
// command line tools and the HTTP server.
package viewer

import (
	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/treeize"
)

// Viewer describes node payloads of type T.
type Viewer[T any] interface {
	// Title is the header text of a node.
	Title(node *T) string
	// Inputs is the number of input pins the node currently exposes.
	Inputs(node *T) int
	// Outputs is the number of output pins the node currently exposes.
	Outputs(node *T) int
	// HasInput reports whether the node can be a layout child.
	HasInput(node *T) bool
	// HasOutput reports whether the node can be a layout parent.
	HasOutput(node *T) bool
}

// DroppedWireMenu is implemented by viewers that offer a menu when a new
// wire is released over empty canvas. Returning false discards the wires.
type DroppedWireMenu[T any] interface {
	HasDroppedWireMenu(pending []treeize.AnyPin, g *treeize.Treeize[T]) bool
}

// ConnectPolicy is implemented by viewers that veto connections made by
// the interaction layer. Without it, every connection except self-loops is
// allowed.
type ConnectPolicy[T any] interface {
	CanConnect(from treeize.OutPin, to treeize.InPin, g *treeize.Treeize[T]) bool
}

// Sizer is implemented by viewers that can estimate a node's size without a
// render pass.
type Sizer[T any] interface {
	Size(node *T) geom.Vec
}

// Counts adapts a viewer to the pin count callback used by
// [treeize.Treeize.PruneStale].
func Counts[T any](g *treeize.Treeize[T], v Viewer[T]) treeize.PinCounts {
	return func(id treeize.NodeID) (int, int) {
		node, ok := g.Get(id)
		if !ok {
			return 0, 0
		}
		return v.Inputs(node), v.Outputs(node)
	}
}

// Prune removes wires attached to pins the viewer no longer exposes and
// returns how many were removed.
func Prune[T any](g *treeize.Treeize[T], v Viewer[T]) int {
	return g.PruneStale(Counts(g, v))
}

// Sizes returns estimated sizes for every node when v implements [Sizer],
// and nil otherwise.
func Sizes[T any](g *treeize.Treeize[T], v Viewer[T]) map[treeize.NodeID]geom.Vec {
	s, ok := v.(Sizer[T])
	if !ok {
		return nil
	}
	sizes := make(map[treeize.NodeID]geom.Vec, g.Len())
	for id, node := range g.Nodes() {
		sizes[id] = s.Size(node)
	}
	return sizes
}

// AllowsConnect applies the viewer's connect policy. The pins must exist on
// the current node shapes; self-loops need an explicit [ConnectPolicy].
func AllowsConnect[T any](g *treeize.Treeize[T], v Viewer[T], out treeize.OutPinID, in treeize.InPinID) bool {
	src, ok := g.Get(out.Node)
	if !ok {
		return false
	}
	dst, ok := g.Get(in.Node)
	if !ok {
		return false
	}
	if out.Output < 0 || out.Output >= v.Outputs(src) || in.Input < 0 || in.Input >= v.Inputs(dst) {
		return false
	}
	if p, ok := v.(ConnectPolicy[T]); ok {
		return p.CanConnect(g.OutPin(out), g.InPin(in), g)
	}
	return out.Node != in.Node
}

// OffersMenu reports whether v wants a dropped-wire menu for pending.
func OffersMenu[T any](g *treeize.Treeize[T], v Viewer[T], pending []treeize.AnyPin) bool {
	m, ok := v.(DroppedWireMenu[T])
	return ok && m.HasDroppedWireMenu(pending, g)
}
