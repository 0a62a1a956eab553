// Package pkg provides the libraries behind treeize, a node-graph engine.
//
// # Overview
//
// A treeize graph holds nodes with numbered input and output pins and wires
// from output pins to input pins. The libraries are organized in layers:
//
//  1. [treeize] - the graph store: generational node handles, draw order,
//     the wire set and the effect queue every edit goes through
//  2. [layout] - tree layout of the graph, rooted at nodes without inputs
//  3. [wire] - wire curves, flattening and hit testing
//  4. [interact] - the editor state machine that turns pointer input into
//     effects
//  5. [viewer] - the interface a host implements to describe its payloads
//
// Around them sit the host-side packages: [snapshot] for documents and
// document stores, [pipeline] for layout plus export with caching, [cache],
// [render] and [render/dot] for SVG, DOT, PNG and PDF output, [errors] and
// [observability].
//
// # Architecture
//
// An editor runs one loop per frame:
//
//	pointer input + measured frame
//	         ↓
//	    [interact] Machine.Step
//	         ↓
//	    [treeize] Effects
//	         ↓
//	    Treeize.ApplyEffects
//
// Nothing mutates the graph while a step inspects it, so the machine can
// hold pin addresses across frames and drop them when their node goes away.
//
// # Quick Start
//
// Build a graph and lay it out:
//
//	g := treeize.New[viewer.Card]()
//	src := g.Insert(viewer.Card{Title: "source", Outputs: 1}, geom.Vec{})
//	dst := g.Insert(viewer.Card{Title: "sink", Inputs: 1}, geom.Vec{})
//	g.Connect(treeize.OutPinID{Node: src}, treeize.InPinID{Node: dst})
//
//	v := viewer.Cards{}
//	res := layout.WithViewer(g, v, layout.DefaultConfig(), viewer.Sizes(g, v))
//
// Edit it with the interaction machine:
//
//	m := interact.New(g, v, interact.DefaultOptions())
//	defer m.Close()
//	frame := interact.BuildFrame(g, v, nil, wire.Vertical)
//	g.ApplyEffects(m.Step(frame, input))
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/interact/...  # Specific package
//	go test -run Example ./...  # Examples only
//
// [treeize]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/treeize
// [layout]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/layout
// [wire]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/wire
// [interact]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/interact
// [viewer]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/viewer
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/snapshot
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/cache
// [render]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/render
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/render/dot
// [errors]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/treeize/pkg/observability
package pkg
