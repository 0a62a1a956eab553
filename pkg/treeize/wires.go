package treeize

import (
	"fmt"
	"iter"
	"slices"
)

// OutPinID addresses an output slot of a node.
type OutPinID struct {
	Node   NodeID `json:"node"`
	Output int    `json:"output"`
}

func (p OutPinID) String() string { return fmt.Sprintf("%s:out%d", p.Node, p.Output) }

// InPinID addresses an input slot of a node.
type InPinID struct {
	Node  NodeID `json:"node"`
	Input int    `json:"input"`
}

func (p InPinID) String() string { return fmt.Sprintf("%s:in%d", p.Node, p.Input) }

// Wire is one directed connection from an output pin to an input pin.
type Wire struct {
	Out OutPinID `json:"out"`
	In  InPinID  `json:"in"`
}

func (w Wire) String() string { return w.Out.String() + "->" + w.In.String() }

// wireSet is a deduplicated multiset of wires that iterates in insertion
// order. Removal keeps the relative order of the remaining wires.
type wireSet struct {
	list []Wire
	set  map[Wire]struct{}
}

func newWireSet() wireSet {
	return wireSet{set: make(map[Wire]struct{})}
}

func (s *wireSet) insert(w Wire) bool {
	if _, ok := s.set[w]; ok {
		return false
	}
	s.set[w] = struct{}{}
	s.list = append(s.list, w)
	return true
}

func (s *wireSet) remove(w Wire) bool {
	if _, ok := s.set[w]; !ok {
		return false
	}
	delete(s.set, w)
	s.list = slices.DeleteFunc(s.list, func(x Wire) bool { return x == w })
	return true
}

func (s *wireSet) contains(w Wire) bool {
	_, ok := s.set[w]
	return ok
}

// removeFunc drops every wire matching fn and returns how many were removed.
func (s *wireSet) removeFunc(fn func(Wire) bool) int {
	before := len(s.list)
	s.list = slices.DeleteFunc(s.list, func(w Wire) bool {
		if fn(w) {
			delete(s.set, w)
			return true
		}
		return false
	})
	return before - len(s.list)
}

func (s *wireSet) dropNode(id NodeID) int {
	return s.removeFunc(func(w Wire) bool { return w.Out.Node == id || w.In.Node == id })
}

// Connect adds the wire out->in. Connecting an existing pair is a no-op, as
// is connecting a pin of a node that is not live. It reports whether the
// wire set changed.
//
// Self-loops are allowed here; rejecting them is the viewer's policy.
func (t *Treeize[T]) Connect(out OutPinID, in InPinID) bool {
	if !t.Contains(out.Node) || !t.Contains(in.Node) {
		return false
	}
	return t.wires.insert(Wire{Out: out, In: in})
}

// Disconnect removes the wire out->in if present and reports whether it was.
func (t *Treeize[T]) Disconnect(out OutPinID, in InPinID) bool {
	return t.wires.remove(Wire{Out: out, In: in})
}

// Connected reports whether the wire out->in exists.
func (t *Treeize[T]) Connected(out OutPinID, in InPinID) bool {
	return t.wires.contains(Wire{Out: out, In: in})
}

// DropOutputs removes every wire leaving pin and returns how many were removed.
func (t *Treeize[T]) DropOutputs(pin OutPinID) int {
	return t.wires.removeFunc(func(w Wire) bool { return w.Out == pin })
}

// DropInputs removes every wire entering pin and returns how many were removed.
func (t *Treeize[T]) DropInputs(pin InPinID) int {
	return t.wires.removeFunc(func(w Wire) bool { return w.In == pin })
}

// Wires yields every wire in insertion order.
func (t *Treeize[T]) Wires() iter.Seq[Wire] {
	return func(yield func(Wire) bool) {
		for _, w := range t.wires.list {
			if !yield(w) {
				return
			}
		}
	}
}

// WireList returns a copy of the wire set in insertion order.
func (t *Treeize[T]) WireList() []Wire { return slices.Clone(t.wires.list) }

// WireCount returns the number of wires.
func (t *Treeize[T]) WireCount() int { return len(t.wires.list) }
