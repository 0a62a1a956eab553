package treeize_test

import (
	"fmt"

	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/treeize"
)

func Example() {
	g := treeize.New[string]()
	a := g.Insert("source", geom.V(0, 0))
	b := g.Insert("sink", geom.V(0, 200))

	g.Connect(treeize.OutPinID{Node: a, Output: 0}, treeize.InPinID{Node: b, Input: 0})
	g.Connect(treeize.OutPinID{Node: a, Output: 0}, treeize.InPinID{Node: b, Input: 0})

	for w := range g.Wires() {
		fmt.Println(w)
	}
	// Output:
	// 0.1:out0->1.1:in0
}

func ExampleEffects() {
	g := treeize.New[string]()
	for _, name := range []string{"keep", "drop", "keep"} {
		g.Insert(name, geom.Vec{})
	}

	// Decide while iterating, mutate afterwards.
	fx := treeize.NewEffects[string]()
	for id, name := range g.Nodes() {
		if *name == "drop" {
			fx.RemoveNode(id)
			fx.OpenNode(id, false)
		}
	}
	report := g.ApplyEffects(fx)

	fmt.Println(g.Len(), report.Applied, report.Orphaned)
	// Output:
	// 2 1 1
}
