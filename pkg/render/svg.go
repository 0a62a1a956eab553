package render

import (
	"bufio"
	"fmt"
	"html"
	"io"

	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/interact"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/viewer"
	"github.com/matzehuels/treeize/pkg/wire"
)

// Options configures [WriteSVG].
type Options struct {
	Style wire.Style
	// Sizes overrides the viewer's size estimates.
	Sizes map[treeize.NodeID]geom.Vec
	// Margin is added around the scene bounds.
	Margin float64
	// Highlight marks nodes drawn with the selection color.
	Highlight map[treeize.NodeID]bool
}

const (
	defaultMargin = 20
	nodeFill      = "#ffffff"
	nodeStroke    = "#333333"
	closedFill    = "#eeeeee"
	selectedFill  = "#dbeafe"
	wireStroke    = "#555555"
	pinFill       = "#333333"
)

// WriteSVG draws the graph in draw order. Wires are painted first, then
// nodes bottom to top, so higher nodes cover lower ones.
func WriteSVG[T any](w io.Writer, g *treeize.Treeize[T], v viewer.Viewer[T], opts Options) error {
	frame := interact.BuildFrame(g, v, opts.Sizes, opts.Style.Axis)
	margin := opts.Margin
	if margin <= 0 {
		margin = defaultMargin
	}

	outPos := make(map[treeize.OutPinID]geom.Vec)
	inPos := make(map[treeize.InPinID]geom.Vec)
	for _, p := range frame.Pins {
		if p.Pin.Kind == treeize.PinOut {
			outPos[p.Pin.Out] = p.Pos
		} else {
			inPos[p.Pin.In] = p.Pos
		}
	}

	var curves []wire.Curve
	for wr := range g.Wires() {
		from, ok1 := outPos[wr.Out]
		to, ok2 := inPos[wr.In]
		if ok1 && ok2 {
			curves = append(curves, opts.Style.Curve(from, to))
		}
	}

	bounds, ok := sceneBounds(frame, curves)
	if !ok {
		bounds = geom.Rect{}
	}
	origin := geom.V(bounds.Min.X-margin, bounds.Min.Y-margin)
	width := bounds.Width() + 2*margin
	height := bounds.Height() + 2*margin

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.2f %.2f %.2f %.2f" width="%.0f" height="%.0f">`+"\n",
		origin.X, origin.Y, width, height, width, height)

	strokeWidth := opts.Style.Width
	if strokeWidth <= 0 {
		strokeWidth = wire.DefaultWidth
	}
	for _, c := range curves {
		if opts.Style.Kind == wire.Line {
			fmt.Fprintf(bw, `  <path d="M %.2f %.2f L %.2f %.2f" fill="none" stroke="%s" stroke-width="%.2f"/>`+"\n",
				c[0].X, c[0].Y, c[3].X, c[3].Y, wireStroke, strokeWidth)
			continue
		}
		fmt.Fprintf(bw, `  <path d="M %.2f %.2f C %.2f %.2f, %.2f %.2f, %.2f %.2f" fill="none" stroke="%s" stroke-width="%.2f"/>`+"\n",
			c[0].X, c[0].Y, c[1].X, c[1].Y, c[2].X, c[2].Y, c[3].X, c[3].Y, wireStroke, strokeWidth)
	}

	for _, nf := range frame.Nodes {
		node, _ := g.Node(nf.ID)
		fill := nodeFill
		switch {
		case opts.Highlight[nf.ID]:
			fill = selectedFill
		case !node.Open:
			fill = closedFill
		}
		r := nf.Rect
		fmt.Fprintf(bw, `  <g id="node-%s">`+"\n", nf.ID)
		fmt.Fprintf(bw, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="6" fill="%s" stroke="%s"/>`+"\n",
			r.Min.X, r.Min.Y, r.Width(), r.Height(), fill, nodeStroke)
		c := r.Center()
		fmt.Fprintf(bw, `    <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="14">%s</text>`+"\n",
			c.X, c.Y, html.EscapeString(v.Title(&node.Value)))
		bw.WriteString("  </g>\n")
	}

	for _, p := range frame.Pins {
		fmt.Fprintf(bw, `  <circle cx="%.2f" cy="%.2f" r="%.1f" fill="%s"/>`+"\n", p.Pos.X, p.Pos.Y, frame.PinRadius/2, pinFill)
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func sceneBounds(f interact.Frame, curves []wire.Curve) (geom.Rect, bool) {
	var (
		b  geom.Rect
		ok bool
	)
	grow := func(r geom.Rect) {
		if !ok {
			b, ok = r, true
			return
		}
		b = b.Union(r)
	}
	for _, n := range f.Nodes {
		grow(n.Rect)
	}
	for _, c := range curves {
		grow(c.Bounds())
	}
	return b, ok
}
