// Package dot exports a laid-out graph as Graphviz DOT.
//
// Every node is pinned at its stored position so that Graphviz only routes
// the edges. Positions are converted from the scene's top-left, y-down
// convention to Graphviz's centered, y-up points.
//
//	src := dot.ToDOT(g, viewer.Cards{}, dot.Options{Axis: wire.Vertical})
//	svg, err := dot.RenderSVG(ctx, src)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package dot
