package treeize

import (
	"github.com/matzehuels/treeize/pkg/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// EffectKind identifies a buffered mutation.
type EffectKind int

const (
	EffectInsertNode EffectKind = iota
	EffectRemoveNode
	EffectOpenNode
	EffectConnect
	EffectDisconnect
	EffectDropOutputs
	EffectDropInputs
	EffectMoveNode
	EffectBringToTop
	EffectFunc
)

var effectNames = [...]string{
	EffectInsertNode:  "insert-node",
	EffectRemoveNode:  "remove-node",
	EffectOpenNode:    "open-node",
	EffectConnect:     "connect",
	EffectDisconnect:  "disconnect",
	EffectDropOutputs: "drop-outputs",
	EffectDropInputs:  "drop-inputs",
	EffectMoveNode:    "move-node",
	EffectBringToTop:  "bring-to-top",
	EffectFunc:        "func",
}

func (k EffectKind) String() string {
	if int(k) < len(effectNames) {
		return effectNames[k]
	}
	return "unknown"
}

// Effect is one mutation request. Only the fields relevant to Kind are set.
type Effect[T any] struct {
	Kind  EffectKind
	Node  NodeID
	Value T
	Pos   geom.Vec // insert position, or move delta for EffectMoveNode
	Open  bool
	Out   OutPinID
	In    InPinID
	Func  func(*Treeize[T])
}

// Effects is an ordered command buffer. Callers that decide on mutations
// while traversing a graph record them here and replay them with
// [Treeize.ApplyEffects] once the traversal is over.
type Effects[T any] struct {
	list []Effect[T]
}

// NewEffects returns an empty buffer.
func NewEffects[T any]() *Effects[T] { return &Effects[T]{} }

// IsEmpty reports whether no effects are queued.
func (e *Effects[T]) IsEmpty() bool { return len(e.list) == 0 }

// Len returns the number of queued effects.
func (e *Effects[T]) Len() int { return len(e.list) }

// List returns the queued effects in submission order.
func (e *Effects[T]) List() []Effect[T] { return e.list }

// Push appends a prepared effect.
func (e *Effects[T]) Push(eff Effect[T]) { e.list = append(e.list, eff) }

// Extend appends all effects of other, preserving their order.
func (e *Effects[T]) Extend(other *Effects[T]) {
	if other != nil {
		e.list = append(e.list, other.list...)
	}
}

// InsertNode queues insertion of a new open node.
func (e *Effects[T]) InsertNode(pos geom.Vec, value T) {
	e.Push(Effect[T]{Kind: EffectInsertNode, Pos: pos, Value: value})
}

// RemoveNode queues removal of a node and its wires.
func (e *Effects[T]) RemoveNode(node NodeID) {
	e.Push(Effect[T]{Kind: EffectRemoveNode, Node: node})
}

// OpenNode queues an open/close toggle.
func (e *Effects[T]) OpenNode(node NodeID, open bool) {
	e.Push(Effect[T]{Kind: EffectOpenNode, Node: node, Open: open})
}

// Connect queues a new wire.
func (e *Effects[T]) Connect(out OutPinID, in InPinID) {
	e.Push(Effect[T]{Kind: EffectConnect, Out: out, In: in})
}

// Disconnect queues removal of a wire.
func (e *Effects[T]) Disconnect(out OutPinID, in InPinID) {
	e.Push(Effect[T]{Kind: EffectDisconnect, Out: out, In: in})
}

// DropOutputs queues removal of every wire leaving pin.
func (e *Effects[T]) DropOutputs(pin OutPinID) {
	e.Push(Effect[T]{Kind: EffectDropOutputs, Out: pin})
}

// DropInputs queues removal of every wire entering pin.
func (e *Effects[T]) DropInputs(pin InPinID) {
	e.Push(Effect[T]{Kind: EffectDropInputs, In: pin})
}

// MoveNode queues a relative move.
func (e *Effects[T]) MoveNode(node NodeID, delta geom.Vec) {
	e.Push(Effect[T]{Kind: EffectMoveNode, Node: node, Pos: delta})
}

// BringToTop queues a draw order change.
func (e *Effects[T]) BringToTop(node NodeID) {
	e.Push(Effect[T]{Kind: EffectBringToTop, Node: node})
}

// Do queues an arbitrary mutation.
func (e *Effects[T]) Do(fn func(*Treeize[T])) {
	e.Push(Effect[T]{Kind: EffectFunc, Func: fn})
}

// ApplyReport summarizes one ApplyEffects pass.
type ApplyReport struct {
	Applied  int
	Orphaned int // effects skipped because a referenced node was gone
}

// ApplyEffects replays effects in submission order and empties the buffer.
// Effects referencing a node that no longer exists, including one removed
// earlier in the same batch, are skipped and counted as orphaned.
func (t *Treeize[T]) ApplyEffects(effects *Effects[T]) ApplyReport {
	var report ApplyReport
	if effects == nil {
		return report
	}
	list := effects.list
	effects.list = nil
	for _, eff := range list {
		if t.ApplyEffect(eff) {
			report.Applied++
		} else {
			report.Orphaned++
		}
	}
	return report
}

// ApplyEffect applies a single effect with the same semantics as the direct
// methods. It returns false when the effect was orphaned.
func (t *Treeize[T]) ApplyEffect(eff Effect[T]) bool {
	switch eff.Kind {
	case EffectInsertNode:
		t.Insert(eff.Value, eff.Pos)
	case EffectRemoveNode:
		if _, ok := t.Remove(eff.Node); !ok {
			return false
		}
	case EffectOpenNode:
		if !t.Contains(eff.Node) {
			return false
		}
		t.SetOpen(eff.Node, eff.Open)
	case EffectConnect:
		if !t.Contains(eff.Out.Node) || !t.Contains(eff.In.Node) {
			return false
		}
		t.Connect(eff.Out, eff.In)
	case EffectDisconnect:
		if !t.Contains(eff.Out.Node) || !t.Contains(eff.In.Node) {
			return false
		}
		t.Disconnect(eff.Out, eff.In)
	case EffectDropOutputs:
		if !t.Contains(eff.Out.Node) {
			return false
		}
		t.DropOutputs(eff.Out)
	case EffectDropInputs:
		if !t.Contains(eff.In.Node) {
			return false
		}
		t.DropInputs(eff.In)
	case EffectMoveNode:
		s := t.slot(eff.Node)
		if s == nil {
			return false
		}
		s.node.Pos = r2.Add(s.node.Pos, eff.Pos)
	case EffectBringToTop:
		if !t.Contains(eff.Node) {
			return false
		}
		t.BringToTop(eff.Node)
	case EffectFunc:
		if eff.Func != nil {
			eff.Func(t)
		}
	}
	return true
}
