package interact

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/viewer"
	"github.com/matzehuels/treeize/pkg/wire"
)

// State is the machine's current gesture.
type State int

const (
	StateIdle State = iota
	// StateDraggingOut drags a bundle of output pins towards an input.
	StateDraggingOut
	// StateDraggingIn drags a bundle of input pins towards an output.
	StateDraggingIn
	StateRectSelecting
	StateDraggingNodes
	// StateMenuPending keeps a dropped bundle until the host resolves the
	// dropped-wire menu.
	StateMenuPending
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateDraggingOut:   "dragging-out",
	StateDraggingIn:    "dragging-in",
	StateRectSelecting: "rect-selecting",
	StateDraggingNodes: "dragging-nodes",
	StateMenuPending:   "menu-pending",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// DefaultDragThreshold is the pointer travel, in screen units, that turns
// a press into a drag.
const DefaultDragThreshold = 3

// Options configures a Machine.
type Options struct {
	Wire wire.Style
	// RectContained selects only nodes fully inside the selection
	// rectangle instead of nodes touching it.
	RectContained bool
	DragThreshold float64
}

// DefaultOptions returns the stock options.
func DefaultOptions() Options {
	return Options{Wire: wire.DefaultStyle(), DragThreshold: DefaultDragThreshold}
}

type press struct {
	pos      geom.Vec
	pin      treeize.AnyPin
	onPin    bool
	node     treeize.NodeID
	onNode   bool
	dragging bool
}

// Machine is the interaction state of one graph editor. It is bound to a
// single graph and, like the graph, is driven from a single goroutine.
type Machine[T any] struct {
	g      *treeize.Treeize[T]
	v      viewer.Viewer[T]
	opts   Options
	cancel func()

	state     State
	selection *Selection
	bundle    Bundle
	press     *press
	// secondaryIdle is set while a secondary press that began in idle is
	// held; only its release drops pin wires.
	secondaryIdle bool

	rectAnchor  geom.Vec
	rectCurrent geom.Vec
	dragNode    treeize.NodeID
	last        geom.Vec
	menuPos     geom.Vec

	hoverPin     treeize.AnyPin
	hasHoverPin  bool
	hoverWire    treeize.Wire
	hasHoverWire bool
}

// New creates a machine for g. It subscribes to node removal so the
// selection never holds removed nodes; call Close to unsubscribe.
func New[T any](g *treeize.Treeize[T], v viewer.Viewer[T], opts Options) *Machine[T] {
	if opts.DragThreshold <= 0 {
		opts.DragThreshold = DefaultDragThreshold
	}
	m := &Machine[T]{g: g, v: v, opts: opts, selection: newSelection()}
	m.cancel = g.OnRemove(func(id treeize.NodeID) { m.selection.Deselect(id) })
	return m
}

// Close detaches the machine from its graph.
func (m *Machine[T]) Close() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// State returns the current gesture.
func (m *Machine[T]) State() State { return m.state }

// Selection returns the live selection set.
func (m *Machine[T]) Selection() *Selection { return m.selection }

// Bundle returns the pending pins of a wire drag or a pending menu.
func (m *Machine[T]) Bundle() (Bundle, bool) {
	switch m.state {
	case StateDraggingOut, StateDraggingIn, StateMenuPending:
		return m.bundle, true
	}
	return Bundle{}, false
}

// RectSelection returns the selection rectangle while one is drawn.
func (m *Machine[T]) RectSelection() (geom.Rect, bool) {
	if m.state != StateRectSelecting {
		return geom.Rect{}, false
	}
	return geom.RectFromPoints(m.rectAnchor, m.rectCurrent), true
}

// HoveredPin returns the pin under the pointer in the last step.
func (m *Machine[T]) HoveredPin() (treeize.AnyPin, bool) { return m.hoverPin, m.hasHoverPin }

// HoveredWire returns the wire under the pointer in the last step.
func (m *Machine[T]) HoveredWire() (treeize.Wire, bool) { return m.hoverWire, m.hasHoverWire }

// MenuPos returns where a pending bundle was dropped.
func (m *Machine[T]) MenuPos() (geom.Vec, bool) {
	return m.menuPos, m.state == StateMenuPending
}

func (m *Machine[T]) reset() {
	m.state = StateIdle
	m.bundle = Bundle{}
	m.press = nil
}

// prune forgets everything that refers to removed nodes.
func (m *Machine[T]) prune() {
	m.selection.retain(m.g.Contains)

	switch m.state {
	case StateDraggingOut, StateDraggingIn, StateMenuPending:
		if m.bundle.prune(m.g.Contains) > 0 && m.bundle.Len() == 0 {
			m.reset()
		}
	case StateDraggingNodes:
		if !m.g.Contains(m.dragNode) {
			m.reset()
		}
	}
	if p := m.press; p != nil && ((p.onNode && !m.g.Contains(p.node)) || (p.onPin && !m.g.Contains(p.pin.Node()))) {
		m.press = nil
	}
}

// Step consumes one frame of input and returns the resulting effects.
func (m *Machine[T]) Step(frame Frame, in Input) *treeize.Effects[T] {
	fx := treeize.NewEffects[T]()
	m.prune()

	idx := indexFrame(frame)
	p := in.Pointer
	m.hoverPin, m.hasHoverPin = treeize.AnyPin{}, false
	if p.Present {
		m.hoverPin, m.hasHoverPin = idx.pinAt(p.Pos)
	}

	switch m.state {
	case StateIdle:
		m.stepIdle(fx, idx, in)
	case StateDraggingOut, StateDraggingIn:
		m.stepWires(fx, idx, in)
	case StateRectSelecting:
		m.stepRect(idx, in)
	case StateDraggingNodes:
		m.stepNodes(fx, in)
	case StateMenuPending:
		if p.Primary.Pressed || p.Secondary.Pressed {
			m.DismissDroppedWire()
			m.stepIdle(fx, idx, in)
			m.secondaryIdle = false
		}
	}
	if p.Secondary.Released || !p.Secondary.Down {
		m.secondaryIdle = false
	}

	m.updateHoverWire(idx, in)
	return fx
}

func (m *Machine[T]) stepIdle(fx *treeize.Effects[T], idx *frameIndex, in Input) {
	p, mods := in.Pointer, in.Modifiers

	if p.Secondary.Pressed {
		m.secondaryIdle = true
	}
	if p.Secondary.Released && m.secondaryIdle && m.hasHoverPin {
		m.dropPinWires(fx, m.hoverPin)
	}

	if p.Primary.Pressed && p.Present {
		pr := &press{pos: p.Pos}
		if m.hasHoverPin {
			pr.pin, pr.onPin = m.hoverPin, true
		} else if id, ok := idx.nodeAt(p.Pos); ok {
			pr.node, pr.onNode = id, true
			fx.BringToTop(id)
		}
		m.press = pr
	}

	pr := m.press
	if pr == nil {
		return
	}

	if p.Primary.Down && p.Present && !pr.dragging &&
		geom.Dist(p.Pos, pr.pos) >= m.opts.DragThreshold/in.scale() {
		pr.dragging = true
		m.beginDrag(fx, pr, in)
		return
	}

	if p.Primary.Released || !p.Primary.Down {
		if !pr.dragging {
			m.click(pr, mods)
		}
		m.press = nil
	}
}

func (m *Machine[T]) click(pr *press, mods Modifiers) {
	switch {
	case pr.onNode && mods.Shift:
		m.selection.Select(pr.node, mods.Command)
	case pr.onNode && mods.Command:
		m.selection.Deselect(pr.node)
	case !pr.onNode && !pr.onPin && mods.Command:
		m.selection.Clear()
	}
}

func (m *Machine[T]) beginDrag(fx *treeize.Effects[T], pr *press, in Input) {
	mods := in.Modifiers
	switch {
	case pr.onPin:
		m.startWires(fx, pr.pin, mods)
	case pr.onNode && !mods.Shift && !mods.Command:
		m.state = StateDraggingNodes
		m.dragNode = pr.node
		m.last = pr.pos
		m.stepNodes(fx, in)
	case pr.onNode:
		m.click(pr, mods)
	case mods.Shift:
		m.state = StateRectSelecting
		m.rectAnchor = pr.pos
		m.rectCurrent = in.Pointer.Pos
	}
}

// startWires begins a new-wire drag from pin.
func (m *Machine[T]) startWires(fx *treeize.Effects[T], pin treeize.AnyPin, mods Modifiers) {
	m.press = nil
	if pin.Kind == treeize.PinIn {
		remotes := m.g.InRemotes(pin.In)
		if mods.Command && len(remotes) > 0 {
			m.bundle = Bundle{Kind: treeize.PinOut, Out: remotes}
			m.state = StateDraggingOut
			if !mods.Shift {
				fx.DropInputs(pin.In)
			}
			return
		}
		m.bundle = Bundle{Kind: treeize.PinIn, In: []treeize.InPinID{pin.In}}
		m.state = StateDraggingIn
		return
	}

	remotes := m.g.OutRemotes(pin.Out)
	if mods.Command && len(remotes) > 0 {
		m.bundle = Bundle{Kind: treeize.PinIn, In: remotes}
		m.state = StateDraggingIn
		if !mods.Shift {
			fx.DropOutputs(pin.Out)
		}
		return
	}
	m.bundle = Bundle{Kind: treeize.PinOut, Out: []treeize.OutPinID{pin.Out}}
	m.state = StateDraggingOut
}

func (m *Machine[T]) stepWires(fx *treeize.Effects[T], idx *frameIndex, in Input) {
	p, mods := in.Pointer, in.Modifiers

	if p.Secondary.Pressed {
		if m.hasHoverPin && m.bundle.remove(m.hoverPin) {
			if m.bundle.Len() == 0 {
				m.reset()
			}
			return
		}
		m.reset()
		return
	}

	if m.hasHoverPin && m.hoverPin.Kind == m.bundle.Kind {
		switch {
		case mods.Shift && !mods.Command:
			m.bundle.add(m.hoverPin)
		case !mods.Shift && mods.Command:
			m.bundle.remove(m.hoverPin)
		}
	}

	if !p.Primary.Released && p.Primary.Down {
		return
	}

	pending := m.bundle
	m.reset()
	switch {
	case m.hasHoverPin && m.hoverPin.Kind != pending.Kind:
		m.connectBundle(fx, pending, m.hoverPin)
	case !m.hasHoverPin && p.Present && pending.Len() > 0:
		if _, onNode := idx.nodeAt(p.Pos); onNode {
			return
		}
		if viewer.OffersMenu(m.g, m.v, pending.Pins()) {
			m.bundle = pending
			m.state = StateMenuPending
			m.menuPos = p.Pos
		}
	}
}

func (m *Machine[T]) connectBundle(fx *treeize.Effects[T], b Bundle, target treeize.AnyPin) {
	if b.Kind == treeize.PinOut {
		for _, out := range b.Out {
			if viewer.AllowsConnect(m.g, m.v, out, target.In) {
				fx.Connect(out, target.In)
			}
		}
		return
	}
	for _, in := range b.In {
		if viewer.AllowsConnect(m.g, m.v, target.Out, in) {
			fx.Connect(target.Out, in)
		}
	}
}

func (m *Machine[T]) dropPinWires(fx *treeize.Effects[T], pin treeize.AnyPin) {
	if pin.Kind == treeize.PinOut {
		fx.DropOutputs(pin.Out)
	} else {
		fx.DropInputs(pin.In)
	}
}

func (m *Machine[T]) stepRect(idx *frameIndex, in Input) {
	p, mods := in.Pointer, in.Modifiers
	if p.Present {
		m.rectCurrent = p.Pos
	}
	if p.Primary.Down && !p.Primary.Released {
		return
	}

	rect := geom.RectFromPoints(m.rectAnchor, m.rectCurrent)
	var hits []treeize.NodeID
	for _, n := range idx.frame.Nodes {
		if !m.g.Contains(n.ID) {
			continue
		}
		hit := rect.Intersects(n.Rect)
		if m.opts.RectContained {
			hit = rect.ContainsRect(n.Rect)
		}
		if hit {
			hits = append(hits, n.ID)
		}
	}
	if mods.Command {
		m.selection.DeselectMany(hits)
	} else {
		m.selection.SelectMany(hits, !mods.Shift)
	}
	m.reset()
}

func (m *Machine[T]) stepNodes(fx *treeize.Effects[T], in Input) {
	p := in.Pointer
	if p.Present {
		if delta := r2.Sub(p.Pos, m.last); delta != (geom.Vec{}) {
			m.moveNodes(fx, delta)
		}
		m.last = p.Pos
	}
	if p.Primary.Released || !p.Primary.Down {
		m.reset()
	}
}

// moveNodes moves the dragged node, or the whole selection in draw order
// when the dragged node is part of it.
func (m *Machine[T]) moveNodes(fx *treeize.Effects[T], delta geom.Vec) {
	if !m.selection.Contains(m.dragNode) {
		fx.MoveNode(m.dragNode, delta)
		return
	}
	for _, id := range m.g.DrawOrder() {
		if m.selection.Contains(id) {
			fx.MoveNode(id, delta)
		}
	}
}

// updateHoverWire finds the wire under the pointer when nothing else is.
// Among several hits the wire whose higher endpoint node is drawn on top
// wins; equal ranks keep the first wire in wire order.
func (m *Machine[T]) updateHoverWire(idx *frameIndex, in Input) {
	m.hoverWire, m.hasHoverWire = treeize.Wire{}, false
	p := in.Pointer
	if !p.Present || m.hasHoverPin || m.state != StateIdle {
		return
	}
	if _, onNode := idx.nodeAt(p.Pos); onNode {
		return
	}

	bestRank := -1
	for w := range m.g.Wires() {
		from, to, ok := idx.wireEnds(w)
		if !ok {
			continue
		}
		rank := max(idx.rank[w.Out.Node], idx.rank[w.In.Node])
		if rank <= bestRank {
			continue
		}
		if m.opts.Wire.HitScaled(from, to, p.Pos, in.scale()) {
			m.hoverWire, m.hasHoverWire, bestRank = w, true, rank
		}
	}
}

// AcceptDroppedWire resolves a pending dropped-wire menu by inserting a
// node with value at pos and wiring the pending pins to its first pin of
// the opposite kind.
func (m *Machine[T]) AcceptDroppedWire(value T, pos geom.Vec) *treeize.Effects[T] {
	fx := treeize.NewEffects[T]()
	if m.state != StateMenuPending {
		return fx
	}
	pending := m.bundle
	m.reset()

	v := m.v
	fx.Do(func(g *treeize.Treeize[T]) {
		id := g.Insert(value, pos)
		if pending.Kind == treeize.PinOut {
			in := treeize.InPinID{Node: id}
			for _, out := range pending.Out {
				if viewer.AllowsConnect(g, v, out, in) {
					g.Connect(out, in)
				}
			}
			return
		}
		out := treeize.OutPinID{Node: id}
		for _, in := range pending.In {
			if viewer.AllowsConnect(g, v, out, in) {
				g.Connect(out, in)
			}
		}
	})
	return fx
}

// DismissDroppedWire discards a pending dropped-wire menu.
func (m *Machine[T]) DismissDroppedWire() {
	if m.state == StateMenuPending {
		m.reset()
	}
}

// SelectedInDrawOrder returns the selection ordered bottom to top.
func (m *Machine[T]) SelectedInDrawOrder() []treeize.NodeID {
	return slices.DeleteFunc(m.g.DrawOrder(), func(id treeize.NodeID) bool {
		return !m.selection.Contains(id)
	})
}
