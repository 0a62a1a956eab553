// Package render exports laid-out graphs as images.
//
// Two renderers are provided:
//
//   - [WriteSVG] draws the scene directly: node boxes at their stored
//     positions and wires as the same cubic curves the editor hit-tests.
//   - The [dot] subpackage emits Graphviz DOT with pinned positions and
//     renders it in-process.
//
// [ToPDF] and [ToPNG] convert either SVG with the external rsvg-convert
// tool (from librsvg).
//
//	var buf bytes.Buffer
//	err := render.WriteSVG(&buf, g, viewer.Cards{}, render.Options{Style: wire.DefaultStyle()})
//	png, err := render.ToPNG(buf.Bytes(), 2.0)
//
// [dot]: github.com/matzehuels/treeize/pkg/render/dot
package render
