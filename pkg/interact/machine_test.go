package interact

import (
	"slices"
	"testing"

	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/viewer"
	"github.com/matzehuels/treeize/pkg/wire"
)

// Cards with one input and one output measure 120x60, so a node at (x, y)
// has its input pin at (x+60, y) and its output pin at (x+60, y+60).

type harness struct {
	t *testing.T
	g *treeize.Treeize[viewer.Card]
	v viewer.Cards
	m *Machine[viewer.Card]
}

func newHarness(t *testing.T, v viewer.Cards, opts Options) *harness {
	t.Helper()
	g := treeize.New[viewer.Card]()
	m := New[viewer.Card](g, v, opts)
	t.Cleanup(m.Close)
	return &harness{t: t, g: g, v: v, m: m}
}

func (h *harness) node(title string, x, y float64) treeize.NodeID {
	return h.g.Insert(viewer.Card{Title: title, Inputs: 1, Outputs: 1}, geom.V(x, y))
}

func (h *harness) step(pos geom.Vec, mods Modifiers, primary, secondary Button) treeize.ApplyReport {
	h.t.Helper()
	frame := BuildFrame[viewer.Card](h.g, h.v, nil, wire.Vertical)
	fx := h.m.Step(frame, Input{
		Pointer:   Pointer{Pos: pos, Present: true, Primary: primary, Secondary: secondary},
		Modifiers: mods,
	})
	return h.g.ApplyEffects(fx)
}

func (h *harness) press(pos geom.Vec, mods Modifiers) {
	h.step(pos, mods, Button{Down: true, Pressed: true}, Button{})
}

func (h *harness) move(pos geom.Vec, mods Modifiers) {
	h.step(pos, mods, Button{Down: true}, Button{})
}

func (h *harness) release(pos geom.Vec, mods Modifiers) {
	h.step(pos, mods, Button{Released: true}, Button{})
}

func (h *harness) drag(from, to geom.Vec, mods Modifiers) {
	h.press(from, mods)
	h.move(to, mods)
	h.release(to, mods)
}

func (h *harness) click(pos geom.Vec, mods Modifiers) {
	h.step(pos, mods, Button{Down: true, Pressed: true}, Button{})
	h.step(pos, mods, Button{Released: true}, Button{})
}

func (h *harness) secondaryClick(pos geom.Vec, primaryDown bool) {
	h.step(pos, Modifiers{}, Button{Down: primaryDown}, Button{Down: true, Pressed: true})
	h.step(pos, Modifiers{}, Button{Down: primaryDown}, Button{Released: true})
}

func outPin(n treeize.NodeID) treeize.OutPinID { return treeize.OutPinID{Node: n} }
func inPin(n treeize.NodeID) treeize.InPinID { return treeize.InPinID{Node: n} }

func (h *harness) wantWires(want ...treeize.Wire) {
	h.t.Helper()
	if got := h.g.WireList(); !slices.Equal(got, want) {
		h.t.Errorf("wires = %v, want %v", got, want)
	}
}

var (
	none    = Modifiers{}
	shift   = Modifiers{Shift: true}
	command = Modifiers{Command: true}
)

func TestConnectByDrag(t *testing.T) {
	tests := []struct {
		name     string
		from, to geom.Vec
	}{
		{"output to input", geom.V(60, 60), geom.V(60, 200)},
		{"input to output", geom.V(60, 200), geom.V(60, 60)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, viewer.Cards{}, DefaultOptions())
			a := h.node("a", 0, 0)
			b := h.node("b", 0, 200)

			h.press(tt.from, none)
			h.move(geom.V(200, 130), none)
			if s := h.m.State(); s != StateDraggingOut && s != StateDraggingIn {
				t.Fatalf("state = %v, want a wire drag", s)
			}
			h.move(tt.to, none)
			h.release(tt.to, none)

			h.wantWires(treeize.Wire{Out: outPin(a), In: inPin(b)})
			if h.m.State() != StateIdle {
				t.Errorf("state after release = %v", h.m.State())
			}
		})
	}
}

func TestReleaseOverSameKindDiscards(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	h.node("a", 0, 0)
	h.node("b", 0, 200)

	h.drag(geom.V(60, 60), geom.V(60, 260), none)
	h.wantWires()
}

func TestSelfLoopPolicy(t *testing.T) {
	for _, allow := range []bool{false, true} {
		h := newHarness(t, viewer.Cards{SelfLoops: allow}, DefaultOptions())
		a := h.node("a", 0, 0)
		h.drag(geom.V(60, 60), geom.V(60, 0), none)
		if allow {
			h.wantWires(treeize.Wire{Out: outPin(a), In: inPin(a)})
		} else {
			h.wantWires()
		}
	}
}

func TestSecondaryPressCancels(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	h.node("a", 0, 0)
	h.node("b", 0, 200)

	h.press(geom.V(60, 60), none)
	h.move(geom.V(200, 130), none)
	h.secondaryClick(geom.V(200, 130), true)
	if h.m.State() != StateIdle {
		t.Fatalf("state after cancel = %v", h.m.State())
	}
	h.move(geom.V(60, 200), none)
	h.release(geom.V(60, 200), none)
	h.wantWires()
}

func TestSecondaryCancelKeepsHoveredPinWires(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
	}{
		{"cancel over wired input", func(h *harness) {
			h.press(geom.V(360, 60), none)
			h.move(geom.V(200, 130), none)
			h.move(geom.V(60, 200), none)
		}},
		{"remove last bundle pin", func(h *harness) {
			h.press(geom.V(60, 200), none)
			h.move(geom.V(200, 130), none)
			h.move(geom.V(60, 200), none)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, viewer.Cards{}, DefaultOptions())
			a := h.node("a", 0, 0)
			b := h.node("b", 0, 200)
			h.node("c", 300, 0)
			h.g.Connect(outPin(a), inPin(b))

			tt.setup(h)
			h.secondaryClick(geom.V(60, 200), true)
			if h.m.State() != StateIdle {
				t.Fatalf("state = %v, want idle", h.m.State())
			}
			h.release(geom.V(60, 200), none)
			h.wantWires(treeize.Wire{Out: outPin(a), In: inPin(b)})

			h.secondaryClick(geom.V(60, 200), false)
			h.wantWires()
		})
	}
}

func TestRerouteRemotes(t *testing.T) {
	tests := []struct {
		name string
		mods Modifiers
		keep bool
	}{
		{"command detaches", command, false},
		{"command+shift copies", Modifiers{Command: true, Shift: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, viewer.Cards{}, DefaultOptions())
			a := h.node("a", 0, 0)
			b := h.node("b", 0, 200)
			c := h.node("c", 300, 200)
			d := h.node("d", 600, 0)
			h.g.Connect(outPin(a), inPin(b))
			h.g.Connect(outPin(a), inPin(c))

			h.press(geom.V(60, 60), tt.mods)
			h.move(geom.V(400, 100), tt.mods)

			bundle, ok := h.m.Bundle()
			if !ok || bundle.Kind != treeize.PinIn || !slices.Equal(bundle.In, []treeize.InPinID{inPin(b), inPin(c)}) {
				t.Fatalf("bundle = %+v, %v", bundle, ok)
			}
			if tt.keep != (h.g.WireCount() == 2) {
				t.Fatalf("wires after pickup = %v", h.g.WireList())
			}

			h.move(geom.V(660, 60), none)
			h.release(geom.V(660, 60), none)

			var want []treeize.Wire
			if tt.keep {
				want = append(want, treeize.Wire{Out: outPin(a), In: inPin(b)}, treeize.Wire{Out: outPin(a), In: inPin(c)})
			}
			want = append(want, treeize.Wire{Out: outPin(d), In: inPin(b)}, treeize.Wire{Out: outPin(d), In: inPin(c)})
			h.wantWires(want...)
		})
	}
}

func TestCommandOnUnwiredPinStartsSingleWire(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)
	h.node("b", 0, 200)

	h.press(geom.V(60, 60), command)
	h.move(geom.V(200, 130), command)
	bundle, _ := h.m.Bundle()
	if !slices.Equal(bundle.Out, []treeize.OutPinID{outPin(a)}) {
		t.Errorf("bundle = %+v", bundle)
	}
}

func TestBundleFanOut(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)
	c := h.node("c", 300, 0)
	e := h.node("e", 600, 0)
	d := h.node("d", 300, 300)

	h.press(geom.V(60, 60), none)
	h.move(geom.V(200, 130), none)
	h.move(geom.V(360, 60), shift) // add c.out
	h.move(geom.V(660, 60), shift) // add e.out
	h.move(geom.V(660, 60), command)
	h.move(geom.V(500, 200), none)

	bundle, _ := h.m.Bundle()
	if !slices.Equal(bundle.Out, []treeize.OutPinID{outPin(a), outPin(c)}) {
		t.Fatalf("bundle = %+v", bundle.Out)
	}

	h.move(geom.V(360, 300), none)
	h.release(geom.V(360, 300), none)
	h.wantWires(
		treeize.Wire{Out: outPin(a), In: inPin(d)},
		treeize.Wire{Out: outPin(c), In: inPin(d)},
	)
	_ = e
}

func TestSecondaryPressOnBundlePinRemovesIt(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)
	h.node("c", 300, 0)

	h.press(geom.V(60, 60), none)
	h.move(geom.V(200, 130), none)
	h.move(geom.V(360, 60), shift)
	h.secondaryClick(geom.V(360, 60), true)

	bundle, ok := h.m.Bundle()
	if !ok || !slices.Equal(bundle.Out, []treeize.OutPinID{outPin(a)}) {
		t.Errorf("bundle = %+v, %v", bundle, ok)
	}
}

func TestRemovedNodeMidDrag(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)
	b := h.node("b", 0, 200)
	c := h.node("c", 300, 0)

	h.press(geom.V(60, 60), none)
	h.move(geom.V(200, 130), none)
	h.g.Remove(a)
	h.move(geom.V(60, 200), none)

	if _, ok := h.m.Bundle(); ok {
		t.Fatal("bundle of a removed node should be discarded")
	}
	if h.m.State() != StateIdle {
		t.Errorf("state = %v, want idle", h.m.State())
	}
	h.release(geom.V(60, 200), none)
	h.wantWires()

	// A bundle that still has live pins keeps them.
	h.press(geom.V(360, 60), none)
	h.move(geom.V(200, 130), none)
	d := h.node("d", 600, 0)
	h.move(geom.V(660, 60), shift)
	h.g.Remove(d)
	h.move(geom.V(60, 200), none)
	bundle, ok := h.m.Bundle()
	if !ok || !slices.Equal(bundle.Out, []treeize.OutPinID{outPin(c)}) {
		t.Fatalf("bundle = %+v, %v", bundle, ok)
	}
	h.release(geom.V(60, 200), none)
	h.wantWires(treeize.Wire{Out: outPin(c), In: inPin(b)})
}

func TestRectSelection(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)
	b := h.node("b", 0, 200)
	c := h.node("c", 300, 200)

	h.click(geom.V(330, 230), shift)
	if !slices.Equal(h.m.Selection().IDs(), []treeize.NodeID{c}) {
		t.Fatalf("selection = %v", h.m.Selection().IDs())
	}

	h.press(geom.V(-50, -50), shift)
	h.move(geom.V(100, 250), shift)
	if r, ok := h.m.RectSelection(); !ok || r.Max != geom.V(100, 250) {
		t.Fatalf("RectSelection() = %v, %v", r, ok)
	}
	h.release(geom.V(100, 250), none)
	if got := h.m.Selection().IDs(); !slices.Equal(got, []treeize.NodeID{a, b}) {
		t.Errorf("replace: selection = %v, want [a b]", got)
	}

	h.press(geom.V(250, 150), shift)
	h.move(geom.V(500, 500), shift)
	h.release(geom.V(500, 500), shift)
	if got := h.m.Selection().IDs(); !slices.Equal(got, []treeize.NodeID{a, b, c}) {
		t.Errorf("union: selection = %v", got)
	}

	h.press(geom.V(-50, 150), shift)
	h.move(geom.V(500, 500), shift)
	h.release(geom.V(500, 500), command)
	if got := h.m.Selection().IDs(); !slices.Equal(got, []treeize.NodeID{a}) {
		t.Errorf("subtract: selection = %v", got)
	}
}

func TestRectSelectionContained(t *testing.T) {
	opts := DefaultOptions()
	opts.RectContained = true
	h := newHarness(t, viewer.Cards{}, opts)
	a := h.node("a", 0, 0)
	h.node("b", 0, 200)

	h.press(geom.V(-10, -10), shift)
	h.move(geom.V(130, 230), shift)
	h.release(geom.V(130, 230), none)
	if got := h.m.Selection().IDs(); !slices.Equal(got, []treeize.NodeID{a}) {
		t.Errorf("selection = %v, want only the fully contained node", got)
	}
}

func TestDragNodes(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)
	b := h.node("b", 0, 200)
	c := h.node("c", 300, 200)

	h.click(geom.V(30, 30), shift)
	h.click(geom.V(30, 230), shift)

	h.press(geom.V(30, 30), none)
	h.move(geom.V(35, 40), none)
	h.move(geom.V(40, 50), none)
	h.release(geom.V(40, 50), none)

	for id, want := range map[treeize.NodeID]geom.Vec{a: geom.V(10, 20), b: geom.V(10, 220), c: geom.V(300, 200)} {
		if p, _ := h.g.Pos(id); p != want {
			t.Errorf("Pos(%v) = %v, want %v", id, p, want)
		}
	}

	h.drag(geom.V(330, 230), geom.V(340, 230), none)
	if p, _ := h.g.Pos(c); p != geom.V(310, 200) {
		t.Errorf("unselected node moved to %v", p)
	}
	if p, _ := h.g.Pos(a); p != geom.V(10, 20) {
		t.Errorf("selection moved with unselected node: %v", p)
	}
	if order := h.g.DrawOrder(); order[len(order)-1] != c {
		t.Errorf("dragged node should be on top: %v", order)
	}
}

func TestClickSelection(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)
	b := h.node("b", 0, 200)
	sel := h.m.Selection()

	h.click(geom.V(30, 30), none)
	if sel.Len() != 0 {
		t.Error("plain click should not select")
	}
	h.click(geom.V(30, 30), shift)
	h.click(geom.V(30, 230), shift)
	if !slices.Equal(sel.IDs(), []treeize.NodeID{a, b}) {
		t.Fatalf("selection = %v", sel.IDs())
	}
	h.click(geom.V(30, 30), Modifiers{Shift: true, Command: true})
	if !slices.Equal(sel.IDs(), []treeize.NodeID{a}) {
		t.Errorf("shift+command click should reset: %v", sel.IDs())
	}
	h.click(geom.V(30, 30), command)
	if sel.Len() != 0 {
		t.Errorf("command click should deselect: %v", sel.IDs())
	}
	h.click(geom.V(30, 30), shift)
	h.click(geom.V(800, 800), command)
	if sel.Len() != 0 {
		t.Errorf("command click on canvas should clear: %v", sel.IDs())
	}
}

func TestSelectionPrunedOnRemove(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)
	b := h.node("b", 0, 200)
	h.m.Selection().SelectMany([]treeize.NodeID{a, b}, true)

	h.g.Remove(a)
	if h.m.Selection().Contains(a) {
		t.Error("removed node still selected")
	}
	if !slices.Equal(h.m.SelectedInDrawOrder(), []treeize.NodeID{b}) {
		t.Errorf("SelectedInDrawOrder() = %v", h.m.SelectedInDrawOrder())
	}
}

func TestSecondaryClickDropsPinWires(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)
	b := h.node("b", 0, 200)
	c := h.node("c", 300, 200)
	h.g.Connect(outPin(a), inPin(b))
	h.g.Connect(outPin(a), inPin(c))

	h.secondaryClick(geom.V(60, 200), false)
	h.wantWires(treeize.Wire{Out: outPin(a), In: inPin(c)})
	h.secondaryClick(geom.V(60, 60), false)
	h.wantWires()
}

func TestDroppedWireMenu(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		h := newHarness(t, viewer.Cards{Menu: true}, DefaultOptions())
		a := h.node("a", 0, 0)
		h.drag(geom.V(60, 60), geom.V(500, 500), none)

		if h.m.State() != StateMenuPending {
			t.Fatalf("state = %v, want menu-pending", h.m.State())
		}
		if pos, ok := h.m.MenuPos(); !ok || pos != geom.V(500, 500) {
			t.Errorf("MenuPos() = %v, %v", pos, ok)
		}

		h.g.ApplyEffects(h.m.AcceptDroppedWire(viewer.Card{Title: "new", Inputs: 1}, geom.V(500, 500)))
		if h.g.Len() != 2 || h.g.WireCount() != 1 {
			t.Fatalf("graph has %d nodes and wires %v", h.g.Len(), h.g.WireList())
		}
		w := h.g.WireList()[0]
		if w.Out != outPin(a) {
			t.Errorf("wire = %v", w)
		}
		if v, _ := h.g.Get(w.In.Node); v.Title != "new" {
			t.Errorf("wired to %q", v.Title)
		}
		if h.m.State() != StateIdle {
			t.Errorf("state after accept = %v", h.m.State())
		}
	})

	t.Run("dismiss", func(t *testing.T) {
		h := newHarness(t, viewer.Cards{Menu: true}, DefaultOptions())
		h.node("a", 0, 0)
		h.drag(geom.V(60, 60), geom.V(500, 500), none)
		h.m.DismissDroppedWire()
		if _, ok := h.m.Bundle(); ok {
			t.Error("bundle kept after dismiss")
		}
		if fx := h.m.AcceptDroppedWire(viewer.Card{}, geom.Vec{}); !fx.IsEmpty() {
			t.Error("accept without a pending menu should do nothing")
		}
	})

	t.Run("press elsewhere dismisses", func(t *testing.T) {
		h := newHarness(t, viewer.Cards{Menu: true}, DefaultOptions())
		h.node("a", 0, 0)
		h.drag(geom.V(60, 60), geom.V(500, 500), none)
		h.click(geom.V(900, 900), none)
		if h.m.State() != StateIdle {
			t.Errorf("state = %v", h.m.State())
		}
	})

	t.Run("no menu", func(t *testing.T) {
		h := newHarness(t, viewer.Cards{}, DefaultOptions())
		h.node("a", 0, 0)
		h.drag(geom.V(60, 60), geom.V(500, 500), none)
		if h.m.State() != StateIdle {
			t.Errorf("state = %v, want idle", h.m.State())
		}
	})
}

func TestDroppedWireOverNodeBody(t *testing.T) {
	h := newHarness(t, viewer.Cards{Menu: true}, DefaultOptions())
	h.node("a", 0, 0)
	h.node("b", 300, 300)

	h.drag(geom.V(60, 60), geom.V(330, 330), none)
	if h.m.State() != StateIdle {
		t.Errorf("state = %v, want idle", h.m.State())
	}
	if _, ok := h.m.Bundle(); ok {
		t.Error("bundle kept after release over a node")
	}
	h.wantWires()
}

func TestHoveredWire(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)
	b := h.node("b", 0, 200)
	e := h.node("e", 0, 400)
	ab := treeize.Wire{Out: outPin(a), In: inPin(b)}
	ae := treeize.Wire{Out: outPin(a), In: inPin(e)}
	be := treeize.Wire{Out: outPin(b), In: inPin(e)}
	h.g.Connect(ab.Out, ab.In)
	h.g.Connect(ae.Out, ae.In)
	h.g.Connect(be.Out, be.In)

	hovered := func(pos geom.Vec) (treeize.Wire, bool) {
		h.move(pos, none)
		return h.m.HoveredWire()
	}

	if w, ok := hovered(geom.V(61, 130)); !ok || w != ae {
		t.Errorf("hovered = %v, %v; want the wire into the topmost node", w, ok)
	}
	h.g.BringToTop(b)
	if w, ok := hovered(geom.V(61, 130)); !ok || w != ab {
		t.Errorf("hovered = %v, %v; want %v after raising b", w, ok, ab)
	}
	h.g.BringToTop(e)
	if w, ok := hovered(geom.V(61, 330)); !ok || w != ae {
		t.Errorf("equal rank should keep wire order: got %v, want %v", w, ae)
	}
	if _, ok := hovered(geom.V(200, 130)); ok {
		t.Error("pointer away from wires should not hover")
	}
	if _, ok := hovered(geom.V(30, 30)); ok {
		t.Error("wires under a node are not hovered")
	}
}

func TestDragThreshold(t *testing.T) {
	h := newHarness(t, viewer.Cards{}, DefaultOptions())
	a := h.node("a", 0, 0)

	h.press(geom.V(30, 30), shift)
	h.move(geom.V(31, 31), shift)
	h.release(geom.V(31, 31), shift)
	if p, _ := h.g.Pos(a); p != (geom.Vec{}) {
		t.Errorf("sub-threshold move dragged the node to %v", p)
	}
	if !h.m.Selection().Contains(a) {
		t.Error("sub-threshold press should count as a click")
	}
}

func TestBuildFrame(t *testing.T) {
	g := treeize.New[viewer.Card]()
	id := g.Insert(viewer.Card{Title: "n", Inputs: 2, Outputs: 1}, geom.V(100, 100))
	f := BuildFrame[viewer.Card](g, viewer.Cards{}, nil, wire.Vertical)

	if len(f.Nodes) != 1 || f.Nodes[0].Rect != geom.RectFromMinSize(geom.V(100, 100), geom.V(120, 60)) {
		t.Fatalf("nodes = %+v", f.Nodes)
	}
	want := []PinFrame{
		{Pin: treeize.InPinOf(treeize.InPinID{Node: id, Input: 0}), Pos: geom.V(140, 100)},
		{Pin: treeize.InPinOf(treeize.InPinID{Node: id, Input: 1}), Pos: geom.V(180, 100)},
		{Pin: treeize.OutPinOf(treeize.OutPinID{Node: id, Output: 0}), Pos: geom.V(160, 160)},
	}
	if !slices.Equal(f.Pins, want) {
		t.Errorf("pins = %+v, want %+v", f.Pins, want)
	}

	h := BuildFrame[viewer.Card](g, viewer.Cards{}, nil, wire.Horizontal)
	if h.Pins[2].Pos != geom.V(220, 130) {
		t.Errorf("horizontal output pin at %v", h.Pins[2].Pos)
	}
}
