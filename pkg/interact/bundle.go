package interact

import (
	"slices"

	"github.com/matzehuels/treeize/pkg/treeize"
)

// Bundle is the set of pins a new-wire drag will connect on release. Kind
// is the kind of the pending pins: a PinOut bundle waits for an input pin.
type Bundle struct {
	Kind treeize.PinKind
	Out  []treeize.OutPinID
	In   []treeize.InPinID
}

// Len returns the number of pending pins.
func (b Bundle) Len() int {
	if b.Kind == treeize.PinOut {
		return len(b.Out)
	}
	return len(b.In)
}

// Pins returns the pending pins as AnyPin values.
func (b Bundle) Pins() []treeize.AnyPin {
	pins := make([]treeize.AnyPin, 0, b.Len())
	for _, p := range b.Out {
		pins = append(pins, treeize.OutPinOf(p))
	}
	for _, p := range b.In {
		pins = append(pins, treeize.InPinOf(p))
	}
	return pins
}

// Has reports whether p is pending.
func (b Bundle) Has(p treeize.AnyPin) bool {
	if p.Kind != b.Kind {
		return false
	}
	if p.Kind == treeize.PinOut {
		return slices.Contains(b.Out, p.Out)
	}
	return slices.Contains(b.In, p.In)
}

func (b *Bundle) add(p treeize.AnyPin) {
	if p.Kind != b.Kind || b.Has(p) {
		return
	}
	if p.Kind == treeize.PinOut {
		b.Out = append(b.Out, p.Out)
	} else {
		b.In = append(b.In, p.In)
	}
}

func (b *Bundle) remove(p treeize.AnyPin) bool {
	if !b.Has(p) {
		return false
	}
	if p.Kind == treeize.PinOut {
		b.Out = slices.DeleteFunc(b.Out, func(x treeize.OutPinID) bool { return x == p.Out })
	} else {
		b.In = slices.DeleteFunc(b.In, func(x treeize.InPinID) bool { return x == p.In })
	}
	return true
}

// prune drops pins of nodes for which live returns false and reports how
// many were dropped.
func (b *Bundle) prune(live func(treeize.NodeID) bool) int {
	before := b.Len()
	b.Out = slices.DeleteFunc(b.Out, func(x treeize.OutPinID) bool { return !live(x.Node) })
	b.In = slices.DeleteFunc(b.In, func(x treeize.InPinID) bool { return !live(x.Node) })
	return before - b.Len()
}
