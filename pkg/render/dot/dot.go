package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	terrors "github.com/matzehuels/treeize/pkg/errors"
	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/render"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/viewer"
	"github.com/matzehuels/treeize/pkg/wire"
)

// Options configures DOT generation.
type Options struct {
	// Axis picks the node sides wires leave and enter.
	Axis wire.Axis
	// Sizes overrides the viewer's size estimates.
	Sizes map[treeize.NodeID]geom.Vec
	// Detailed labels wire ends with their pin indices.
	Detailed bool
}

const pointsPerInch = 72

// NodeName is the DOT identifier of a node.
func NodeName(id treeize.NodeID) string {
	return "n" + strconv.FormatUint(uint64(id.Index), 10) + "_" + strconv.FormatUint(uint64(id.Gen), 10)
}

// ToDOT converts a graph to DOT. Nodes are listed in draw order and wires
// in wire order. Closed nodes are drawn dashed.
func ToDOT[T any](g *treeize.Treeize[T], v viewer.Viewer[T], opts Options) string {
	sizes := opts.Sizes
	if sizes == nil {
		sizes = viewer.Sizes(g, v)
	}

	tail, head := "s", "n"
	if opts.Axis == wire.Horizontal {
		tail, head = "e", "w"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, fixedsize=true];\n")
	buf.WriteString("\n")

	for _, id := range g.DrawOrder() {
		n, _ := g.Node(id)
		size, ok := sizes[id]
		if !ok {
			size = geom.V(layoutDefault, layoutDefault)
		}
		c := geom.RectFromMinSize(n.Pos, size).Center()
		attrs := []string{
			fmt.Sprintf("label=%q", v.Title(&n.Value)),
			fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(c.X), fmtFloat(-c.Y)),
			fmt.Sprintf("width=%s", fmtFloat(size.X/pointsPerInch)),
			fmt.Sprintf("height=%s", fmtFloat(size.Y/pointsPerInch)),
		}
		if !n.Open {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", NodeName(id), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for w := range g.Wires() {
		attrs := []string{"tailport=" + tail, "headport=" + head}
		if opts.Detailed {
			attrs = append(attrs,
				fmt.Sprintf("taillabel=\"%d\"", w.Out.Output),
				fmt.Sprintf("headlabel=\"%d\"", w.In.Input))
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", NodeName(w.Out.Node), NodeName(w.In.Node), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

const layoutDefault = 120

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT to SVG using the neato engine, which keeps pinned
// node positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg element so the image scales
// with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders DOT as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders DOT as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
