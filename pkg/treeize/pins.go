package treeize

// OutPin is an output pin together with the input pins currently wired to it.
type OutPin struct {
	ID      OutPinID
	Remotes []InPinID
}

// InPin is an input pin together with the output pins currently wired to it.
type InPin struct {
	ID      InPinID
	Remotes []OutPinID
}

// OutPin resolves an output pin and its remotes.
func (t *Treeize[T]) OutPin(id OutPinID) OutPin {
	return OutPin{ID: id, Remotes: t.OutRemotes(id)}
}

// InPin resolves an input pin and its remotes.
func (t *Treeize[T]) InPin(id InPinID) InPin {
	return InPin{ID: id, Remotes: t.InRemotes(id)}
}

// OutRemotes returns the input pins wired to pin, in wire order.
func (t *Treeize[T]) OutRemotes(pin OutPinID) []InPinID {
	var remotes []InPinID
	for _, w := range t.wires.list {
		if w.Out == pin {
			remotes = append(remotes, w.In)
		}
	}
	return remotes
}

// InRemotes returns the output pins wired to pin, in wire order.
func (t *Treeize[T]) InRemotes(pin InPinID) []OutPinID {
	var remotes []OutPinID
	for _, w := range t.wires.list {
		if w.In == pin {
			remotes = append(remotes, w.Out)
		}
	}
	return remotes
}

// PinKind tells input and output pins apart.
type PinKind int

const (
	PinIn PinKind = iota
	PinOut
)

func (k PinKind) String() string {
	if k == PinOut {
		return "out"
	}
	return "in"
}

// AnyPin is either an input or an output pin address.
type AnyPin struct {
	Kind PinKind
	In   InPinID
	Out  OutPinID
}

// InPinOf wraps an input pin address.
func InPinOf(id InPinID) AnyPin { return AnyPin{Kind: PinIn, In: id} }

// OutPinOf wraps an output pin address.
func OutPinOf(id OutPinID) AnyPin { return AnyPin{Kind: PinOut, Out: id} }

// Node returns the node owning the pin.
func (p AnyPin) Node() NodeID {
	if p.Kind == PinOut {
		return p.Out.Node
	}
	return p.In.Node
}

func (p AnyPin) String() string {
	if p.Kind == PinOut {
		return p.Out.String()
	}
	return p.In.String()
}

// PinCounts reports how many input and output pins a node currently exposes.
// It is supplied by the viewer; the graph never stores pin counts.
type PinCounts func(id NodeID) (inputs, outputs int)

// PruneStale removes wires whose pin index no longer exists on the node
// shape reported by counts, which happens when a viewer shrinks a node after
// it was wired. It returns the number of wires removed.
func (t *Treeize[T]) PruneStale(counts PinCounts) int {
	return t.wires.removeFunc(func(w Wire) bool {
		_, outs := counts(w.Out.Node)
		ins, _ := counts(w.In.Node)
		return w.Out.Output < 0 || w.Out.Output >= outs || w.In.Input < 0 || w.In.Input >= ins
	})
}
