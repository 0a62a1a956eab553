package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/treeize/pkg/interact"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/viewer"
)

// twoCards has a source above a sink, not wired.
func twoCards() *snapshot.Document[viewer.Card] {
	return &snapshot.Document[viewer.Card]{
		ID:   "0b6c1f5e-3f3c-4d8e-9a52-5d2b8f0f4f21",
		Name: "pair",
		Nodes: []snapshot.NodeRecord[viewer.Card]{
			{Value: viewer.Card{Title: "src", Outputs: 1}, Open: true},
			{Value: viewer.Card{Title: "dst", Inputs: 1}, Y: 300, Open: true},
		},
	}
}

func newTestEditor(t *testing.T, doc *snapshot.Document[viewer.Card], save saveFunc) *editorModel {
	t.Helper()
	opts := interact.DefaultOptions()
	opts.DragThreshold = 1
	m, err := newEditorModel(context.Background(), doc, editorOptions{
		Viewer:   viewer.Cards{Menu: true},
		Interact: opts,
		Save:     save,
	})
	if err != nil {
		t.Fatalf("newEditorModel() error = %v", err)
	}
	t.Cleanup(m.machine.Close)
	return m
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func mouse(col, row int, action tea.MouseAction) tea.MouseMsg {
	return tea.MouseMsg{X: col, Y: row, Action: action, Button: tea.MouseButtonLeft}
}

// pinCell returns the terminal cell drawn for pin.
func pinCell(t *testing.T, m *editorModel, pin treeize.AnyPin) (int, int) {
	t.Helper()
	for _, p := range m.frame.Pins {
		if p.Pin == pin {
			return m.toCell(p.Pos)
		}
	}
	t.Fatalf("pin %s not in frame", pin)
	return 0, 0
}

func nodeIDs(m *editorModel) (src, dst treeize.NodeID) {
	ids := m.g.NodeIDs()
	return ids[0], ids[1]
}

// drag presses at one cell, moves to another and releases there.
func drag(m *editorModel, c0, r0, c1, r1 int) {
	m.Update(mouse(c0, r0, tea.MouseActionPress))
	m.Update(mouse(c1, r1, tea.MouseActionMotion))
	m.Update(mouse(c1, r1, tea.MouseActionRelease))
}

func TestEditorWiresPinsByDrag(t *testing.T) {
	m := newTestEditor(t, twoCards(), nil)
	src, dst := nodeIDs(m)

	c0, r0 := pinCell(t, m, treeize.OutPinOf(treeize.OutPinID{Node: src}))
	c1, r1 := pinCell(t, m, treeize.InPinOf(treeize.InPinID{Node: dst}))
	drag(m, c0, r0, c1, r1)

	if !m.g.Connected(treeize.OutPinID{Node: src}, treeize.InPinID{Node: dst}) {
		t.Fatalf("drag from output to input should connect them, wires = %v", m.g.WireList())
	}
	if !m.dirty {
		t.Error("connecting should mark the document dirty")
	}
	if m.machine.State() != interact.StateIdle {
		t.Errorf("state = %s, want idle", m.machine.State())
	}
}

func TestEditorDroppedWireAddsNode(t *testing.T) {
	m := newTestEditor(t, twoCards(), nil)
	src, _ := nodeIDs(m)

	c0, r0 := pinCell(t, m, treeize.OutPinOf(treeize.OutPinID{Node: src}))
	drag(m, c0, r0, 60, 8)
	if m.machine.State() != interact.StateMenuPending {
		t.Fatalf("state = %s, want menu pending", m.machine.State())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.g.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.g.Len())
	}
	if got := m.g.OutRemotes(treeize.OutPinID{Node: src}); len(got) != 1 {
		t.Errorf("source should be wired to the new node, remotes = %v", got)
	}
}

func TestEditorDroppedWireEscape(t *testing.T) {
	m := newTestEditor(t, twoCards(), nil)
	src, _ := nodeIDs(m)

	c0, r0 := pinCell(t, m, treeize.OutPinOf(treeize.OutPinID{Node: src}))
	drag(m, c0, r0, 60, 8)
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if m.machine.State() != interact.StateIdle || m.g.Len() != 2 {
		t.Errorf("esc should discard the dropped wire: state %s, %d nodes", m.machine.State(), m.g.Len())
	}
}

func TestEditorKeys(t *testing.T) {
	t.Run("insert", func(t *testing.T) {
		m := newTestEditor(t, twoCards(), nil)
		m.Update(runeKey('a'))
		if m.g.Len() != 3 || !m.dirty {
			t.Errorf("a should insert a node: %d nodes, dirty %v", m.g.Len(), m.dirty)
		}
	})

	t.Run("delete selection", func(t *testing.T) {
		m := newTestEditor(t, twoCards(), nil)
		m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
		if m.machine.Selection().Len() != 2 {
			t.Fatalf("ctrl+a selected %d nodes, want 2", m.machine.Selection().Len())
		}
		m.Update(runeKey('x'))
		if m.g.Len() != 0 {
			t.Errorf("x should remove the selection, %d nodes left", m.g.Len())
		}
		if m.machine.Selection().Len() != 0 {
			t.Error("removed nodes should leave the selection")
		}
	})

	t.Run("toggle open", func(t *testing.T) {
		m := newTestEditor(t, twoCards(), nil)
		src, _ := nodeIDs(m)
		m.machine.Selection().Select(src, false)
		m.Update(runeKey('o'))
		if n, _ := m.g.Node(src); n.Open {
			t.Error("o should close the selected node")
		}
	})

	t.Run("shrinking pins drops wires", func(t *testing.T) {
		m := newTestEditor(t, twoCards(), nil)
		src, dst := nodeIDs(m)
		m.g.Connect(treeize.OutPinID{Node: src}, treeize.InPinID{Node: dst})
		m.machine.Selection().Select(src, false)

		m.Update(runeKey('['))
		if c, _ := m.g.Get(src); c.Outputs != 0 {
			t.Errorf("Outputs = %d, want 0", c.Outputs)
		}
		if m.g.WireCount() != 0 {
			t.Errorf("wire on the removed pin should be dropped, %d left", m.g.WireCount())
		}
	})

	t.Run("sticky modifier", func(t *testing.T) {
		m := newTestEditor(t, twoCards(), nil)
		m.Update(runeKey('m'))
		if m.mods != modShift {
			t.Errorf("mods = %s, want shift", m.mods)
		}
		m.Update(runeKey('m'))
		m.Update(runeKey('m'))
		if m.mods != modNone {
			t.Errorf("mods = %s, want none after a full cycle", m.mods)
		}
	})
}

func TestEditorRelayout(t *testing.T) {
	m := newTestEditor(t, twoCards(), nil)
	src, dst := nodeIDs(m)
	m.g.Connect(treeize.OutPinID{Node: src}, treeize.InPinID{Node: dst})

	m.Update(runeKey('l'))
	if !strings.HasPrefix(m.status, "laid out 1 root") {
		t.Errorf("status = %q", m.status)
	}
	if !m.dirty {
		t.Error("relayout should mark the document dirty")
	}
}

func TestEditorSave(t *testing.T) {
	var saved *snapshot.Document[viewer.Card]
	save := func(_ context.Context, d *snapshot.Document[viewer.Card]) (string, error) {
		saved = d
		return "pair.json", nil
	}
	m := newTestEditor(t, twoCards(), save)
	m.Update(runeKey('a'))
	m.Update(runeKey('s'))

	if saved == nil {
		t.Fatal("s should call the save function")
	}
	if saved.ID != twoCards().ID || saved.Name != "pair" {
		t.Errorf("saved document = %q %q, want the original identity", saved.ID, saved.Name)
	}
	if len(saved.Nodes) != 3 {
		t.Errorf("saved %d nodes, want 3", len(saved.Nodes))
	}
	if m.dirty {
		t.Error("saving should clear the dirty flag")
	}
	if m.status != "saved to pair.json" {
		t.Errorf("status = %q", m.status)
	}
}

func TestEditorQuitConfirmsUnsaved(t *testing.T) {
	m := newTestEditor(t, twoCards(), nil)
	if _, cmd := m.Update(runeKey('q')); cmd == nil {
		t.Fatal("q on a clean document should quit")
	}

	m.Update(runeKey('a'))
	if _, cmd := m.Update(runeKey('q')); cmd != nil {
		t.Fatal("first q with unsaved changes should ask")
	}
	if _, cmd := m.Update(runeKey('q')); cmd == nil {
		t.Fatal("second q should quit")
	}
}

func TestEditorView(t *testing.T) {
	m := newTestEditor(t, twoCards(), nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	for _, want := range []string{"pair", "2 nodes", "0 wires", "╭", "●", "○"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != 30 {
		t.Errorf("view has %d lines, want 30", lines)
	}
}
