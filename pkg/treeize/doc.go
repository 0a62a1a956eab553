// Package treeize stores an editable node graph: an arena of nodes carrying
// caller payloads, a deduplicated set of wires between typed pins, and the
// draw order used for painting and hit priority.
//
// # Handles
//
// Nodes are addressed by [NodeID], a slot index plus generation. Removing a
// node bumps its slot's generation before the slot is reused, so old handles
// report absent instead of aliasing a newer node:
//
//	g := treeize.New[string]()
//	a := g.Insert("a", geom.V(0, 0))
//	g.Remove(a)
//	b := g.Insert("b", geom.V(0, 0)) // same slot, new generation
//	_, ok := g.Get(a)                // ok == false
//
// # Wires
//
// A [Wire] joins an [OutPinID] to an [InPinID]. The wire set rejects duplicate
// pairs but a pin may carry any number of wires. Connect, Disconnect,
// DropOutputs and DropInputs are idempotent.
//
// # Deferred mutation
//
// Code that decides on mutations while ranging over [Treeize.Nodes] or
// [Treeize.Wires] records them in an [Effects] buffer and applies them
// afterwards with [Treeize.ApplyEffects]. Effects naming a node that has
// disappeared, including one removed earlier in the same batch, are skipped
// and counted in the returned [ApplyReport].
//
// Nothing in this package returns an error: stale handles resolve to absent
// values and every mutation is safe to repeat.
package treeize
