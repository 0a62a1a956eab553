package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/interact"
	"github.com/matzehuels/treeize/pkg/layout"
	"github.com/matzehuels/treeize/pkg/observability"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/viewer"
	"github.com/matzehuels/treeize/pkg/wire"
)

// Scene units covered by one terminal cell at zoom 1.
const (
	cellWidth  = 8.0
	cellHeight = 20.0
)

// modifier modes stand in for modifier keys terminals do not report with
// mouse events.
type modMode int

const (
	modNone modMode = iota
	modShift
	modCommand
)

func (m modMode) String() string {
	return [...]string{"none", "shift", "cmd"}[m]
}

// cellClass selects the style of a canvas cell.
type cellClass uint8

const (
	classBlank cellClass = iota
	classWire
	classWireHover
	classPending
	classNode
	classNodeSelected
	classTitle
	classPin
	classPinHover
	classRect
)

var cellStyles = map[cellClass]lipgloss.Style{
	classBlank:        lipgloss.NewStyle(),
	classWire:         lipgloss.NewStyle().Foreground(colorGray),
	classWireHover:    lipgloss.NewStyle().Foreground(colorYellow).Bold(true),
	classPending:      lipgloss.NewStyle().Foreground(colorCyan),
	classNode:         lipgloss.NewStyle().Foreground(colorWhite),
	classNodeSelected: lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
	classTitle:        lipgloss.NewStyle().Foreground(colorWhite).Bold(true),
	classPin:          lipgloss.NewStyle().Foreground(colorGreen),
	classPinHover:     lipgloss.NewStyle().Foreground(colorYellow).Bold(true),
	classRect:         lipgloss.NewStyle().Foreground(colorBlue),
}

type cell struct {
	r     rune
	class cellClass
}

// saveFunc persists a captured document.
type saveFunc func(ctx context.Context, doc *snapshot.Document[viewer.Card]) (string, error)

// editorModel is the bubbletea model of "treeize edit". It owns the graph
// and the interaction machine and drives the machine with one step per
// mouse event.
type editorModel struct {
	ctx     context.Context
	g       *treeize.Treeize[viewer.Card]
	v       viewer.Cards
	machine *interact.Machine[viewer.Card]
	style   wire.Style
	layout  layout.Config
	save    saveFunc

	docID   string
	docName string

	width, height int
	origin        geom.Vec
	zoom          float64

	pointer geom.Vec
	present bool
	primary bool
	second  bool
	mods    modMode

	frame    interact.Frame
	dirty    bool
	quitting bool
	status   string
	nextID   int
}

type editorOptions struct {
	Viewer   viewer.Cards
	Interact interact.Options
	Layout   layout.Config
	Save     saveFunc
}

func newEditorModel(ctx context.Context, doc *snapshot.Document[viewer.Card], opts editorOptions) (*editorModel, error) {
	g, _, err := snapshot.Restore(doc)
	if err != nil {
		return nil, err
	}
	m := &editorModel{
		ctx:     ctx,
		g:       g,
		v:       opts.Viewer,
		style:   opts.Interact.Wire,
		layout:  opts.Layout,
		save:    opts.Save,
		docID:   doc.ID,
		docName: doc.Name,
		width:   80,
		height:  24,
		zoom:    1,
		nextID:  len(doc.Nodes) + 1,
		status:  "click and drag pins to wire, ? for keys",
	}
	m.machine = interact.New(g, m.v, opts.Interact)
	m.fit()
	m.rebuildFrame()
	return m, nil
}

func (m *editorModel) Init() tea.Cmd { return nil }

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

// canvasRows is the canvas height; the last row is the status bar.
func (m *editorModel) canvasRows() int { return max(m.height-1, 1) }

func (m *editorModel) unitsPerCell() (float64, float64) {
	return cellWidth / m.zoom, cellHeight / m.zoom
}

// toScene maps the center of a terminal cell to scene coordinates.
func (m *editorModel) toScene(col, row int) geom.Vec {
	w, h := m.unitsPerCell()
	return geom.V(m.origin.X+(float64(col)+0.5)*w, m.origin.Y+(float64(row)+0.5)*h)
}

// toCell maps a scene point to the terminal cell containing it.
func (m *editorModel) toCell(p geom.Vec) (col, row int) {
	w, h := m.unitsPerCell()
	return int(math.Floor((p.X - m.origin.X) / w)), int(math.Floor((p.Y - m.origin.Y) / h))
}

// fit moves the origin so the top-left node sits two cells from the corner.
func (m *editorModel) fit() {
	first := true
	var minPos geom.Vec
	for id := range m.g.Nodes() {
		p, _ := m.g.Pos(id)
		if first {
			minPos, first = p, false
			continue
		}
		minPos = geom.V(min(minPos.X, p.X), min(minPos.Y, p.Y))
	}
	w, h := m.unitsPerCell()
	m.origin = geom.V(minPos.X-2*w, minPos.Y-h)
}

func (m *editorModel) rebuildFrame() {
	m.frame = interact.BuildFrame(m.g, m.v, viewer.Sizes(m.g, m.v), m.style.Axis)
	w, h := m.unitsPerCell()
	m.frame.PinRadius = 0.75 * max(w, h)
}

func (m *editorModel) modifiers(msg tea.MouseMsg) interact.Modifiers {
	return interact.Modifiers{
		Shift:   msg.Shift || m.mods == modShift,
		Command: msg.Ctrl || m.mods == modCommand,
		Alt:     msg.Alt,
	}
}

// handleMouse translates a terminal mouse event into one machine step.
func (m *editorModel) handleMouse(msg tea.MouseMsg) {
	if msg.Y >= m.canvasRows() {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.pan(0, -3)
		return
	case tea.MouseButtonWheelDown:
		m.pan(0, 3)
		return
	}

	in := interact.Input{
		Pointer: interact.Pointer{
			Pos:       m.toScene(msg.X, msg.Y),
			Present:   true,
			Primary:   interact.Button{Down: m.primary},
			Secondary: interact.Button{Down: m.second},
		},
		Modifiers: m.modifiers(msg),
		Scale:     m.zoom / cellWidth,
	}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.primary = true
			in.Pointer.Primary = interact.Button{Down: true, Pressed: true}
		case tea.MouseButtonRight:
			m.second = true
			in.Pointer.Secondary = interact.Button{Down: true, Pressed: true}
		}
	case tea.MouseActionRelease:
		// Terminals often report releases without the button.
		if m.primary {
			m.primary = false
			in.Pointer.Primary = interact.Button{Released: true}
		}
		if m.second {
			m.second = false
			in.Pointer.Secondary = interact.Button{Released: true}
		}
	}
	m.pointer, m.present = in.Pointer.Pos, true
	m.step(in)
}

// step runs the machine on the current frame and applies its effects.
func (m *editorModel) step(in interact.Input) {
	fx := m.machine.Step(m.frame, in)
	m.apply(fx)
	if m.machine.State() == interact.StateMenuPending {
		m.status = "dropped wire: enter adds a node here, esc cancels"
	}
}

func (m *editorModel) apply(fx *treeize.Effects[viewer.Card]) {
	if fx.IsEmpty() {
		return
	}
	mutates := false
	for _, e := range fx.List() {
		if e.Kind != treeize.EffectBringToTop {
			mutates = true
			break
		}
	}
	report := m.g.ApplyEffects(fx)
	observability.Engine().OnEffectsApplied(m.ctx, report.Applied, report.Orphaned)
	if mutates && report.Applied > 0 {
		m.dirty = true
	}
	m.rebuildFrame()
}

func (m *editorModel) pan(cols, rows int) {
	w, h := m.unitsPerCell()
	m.origin = geom.V(m.origin.X+float64(cols)*w, m.origin.Y+float64(rows)*h)
	m.rebuildFrame()
}

// zoomBy scales around the canvas center.
func (m *editorModel) zoomBy(f float64) {
	z := min(max(m.zoom*f, 0.25), 4)
	if z == m.zoom {
		return
	}
	center := m.toScene(m.width/2, m.canvasRows()/2)
	m.zoom = z
	w, h := m.unitsPerCell()
	m.origin = geom.V(center.X-float64(m.width/2)*w, center.Y-float64(m.canvasRows()/2)*h)
	m.rebuildFrame()
}

// cursor is where keyboard insertions land: the pointer, or the canvas
// center before the mouse was used.
func (m *editorModel) cursor() geom.Vec {
	if m.present {
		return m.pointer
	}
	return m.toScene(m.width/2, m.canvasRows()/2)
}

func (m *editorModel) newCard() viewer.Card {
	c := viewer.Card{Title: fmt.Sprintf("node %d", m.nextID), Inputs: 1, Outputs: 1}
	m.nextID++
	return c
}

func (m *editorModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	fx := treeize.NewEffects[viewer.Card]()
	selected := m.machine.SelectedInDrawOrder()

	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "q":
		if m.dirty && !m.quitting {
			m.quitting = true
			m.status = "unsaved changes: s saves, q again quits"
			return nil
		}
		return tea.Quit
	case "s", "ctrl+s":
		m.saveNow()
	case "a":
		fx.InsertNode(m.cursor(), m.newCard())
	case "x", "delete", "backspace":
		for _, id := range selected {
			fx.RemoveNode(id)
		}
	case "o":
		for _, id := range selected {
			if n, ok := m.g.Node(id); ok {
				fx.OpenNode(id, !n.Open)
			}
		}
	case "]", "[", "}", "{":
		m.reshape(selected, msg.String())
	case "l":
		m.relayout(fx)
	case "enter":
		if m.machine.State() == interact.StateMenuPending {
			pos, _ := m.machine.MenuPos()
			m.apply(m.machine.AcceptDroppedWire(m.newCard(), pos))
			m.status = "node added"
		}
	case "esc":
		if m.machine.State() == interact.StateMenuPending {
			m.machine.DismissDroppedWire()
			m.status = "dropped wire discarded"
		} else {
			m.machine.Selection().Clear()
		}
	case "ctrl+a":
		m.machine.Selection().SelectMany(m.g.NodeIDs(), true)
	case "m":
		m.mods = (m.mods + 1) % 3
		m.status = "sticky modifier: " + m.mods.String()
	case "up", "k":
		m.pan(0, -2)
	case "down", "j":
		m.pan(0, 2)
	case "left", "h":
		m.pan(-4, 0)
	case "right":
		m.pan(4, 0)
	case "+", "=":
		m.zoomBy(1.25)
	case "-":
		m.zoomBy(0.8)
	case "0":
		m.zoom = 1
		m.fit()
		m.rebuildFrame()
	case "?":
		m.status = "a add · x delete · o open/close · [ ] outputs · { } inputs · l layout · m modifier · s save · q quit"
	}
	if msg.String() != "q" {
		m.quitting = false
	}
	m.apply(fx)
	return nil
}

// reshape changes pin counts of the selected cards and drops wires on pins
// that no longer exist.
func (m *editorModel) reshape(ids []treeize.NodeID, key string) {
	if len(ids) == 0 {
		m.status = "select nodes first (shift-click, or m for sticky shift)"
		return
	}
	for _, id := range ids {
		c, ok := m.g.Get(id)
		if !ok {
			continue
		}
		switch key {
		case "]":
			c.Outputs++
		case "[":
			c.Outputs = max(c.Outputs-1, 0)
		case "}":
			c.Inputs++
		case "{":
			c.Inputs = max(c.Inputs-1, 0)
		}
	}
	if n := viewer.Prune(m.g, m.v); n > 0 {
		m.status = fmt.Sprintf("removed %d wire(s) from dropped pins", n)
	}
	m.dirty = true
	m.rebuildFrame()
}

func (m *editorModel) relayout(fx *treeize.Effects[viewer.Card]) {
	fx.Do(func(g *treeize.Treeize[viewer.Card]) {
		start := time.Now()
		observability.Engine().OnLayoutStart(m.ctx, g.Len())
		res := layout.WithViewer(g, m.v, m.layout, viewer.Sizes(g, m.v))
		observability.Engine().OnLayoutComplete(m.ctx, observability.LayoutStats{
			Nodes: g.Len(), Roots: len(res.Roots), Fallback: res.Fallback, Unplaced: res.Unplaced,
		}, time.Since(start))
		switch {
		case res.Fallback:
			m.status = "layout: no roots, every node stacked at the start position"
		case res.Unplaced > 0:
			m.status = fmt.Sprintf("layout: %d node(s) not reachable from a root", res.Unplaced)
		default:
			m.status = fmt.Sprintf("laid out %d root(s)", len(res.Roots))
		}
	})
}

func (m *editorModel) document() *snapshot.Document[viewer.Card] {
	doc := snapshot.Capture(m.g)
	doc.ID, doc.Name = m.docID, m.docName
	return doc
}

func (m *editorModel) saveNow() {
	if m.save == nil {
		m.status = "nowhere to save"
		return
	}
	where, err := m.save(m.ctx, m.document())
	if err != nil {
		m.status = "save failed: " + err.Error()
		return
	}
	m.dirty = false
	m.status = "saved to " + where
}

// =============================================================================
// Drawing
// =============================================================================

type canvas struct {
	cells [][]cell
	w, h  int
}

func newCanvas(w, h int) *canvas {
	c := &canvas{cells: make([][]cell, h), w: w, h: h}
	for i := range c.cells {
		c.cells[i] = make([]cell, w)
		for j := range c.cells[i] {
			c.cells[i][j] = cell{r: ' '}
		}
	}
	return c
}

func (c *canvas) set(col, row int, r rune, class cellClass) {
	if col >= 0 && col < c.w && row >= 0 && row < c.h {
		c.cells[row][col] = cell{r: r, class: class}
	}
}

// line plots a straight segment between two cells.
func (c *canvas) line(c0, r0, c1, r1 int, class cellClass) {
	dc, dr := c1-c0, r1-r0
	steps := max(abs(dc), abs(dr))
	ch := '·'
	switch {
	case dr == 0:
		ch = '─'
	case dc == 0:
		ch = '│'
	case (dc > 0) == (dr > 0):
		ch = '╲'
	default:
		ch = '╱'
	}
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		c.set(c0+int(math.Round(t*float64(dc))), r0+int(math.Round(t*float64(dr))), ch, class)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (c *canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && row[j].class == row[start].class {
				continue
			}
			var run strings.Builder
			for _, cl := range row[start:j] {
				run.WriteRune(cl.r)
			}
			b.WriteString(cellStyles[row[start].class].Render(run.String()))
			start = j
		}
	}
	return b.String()
}

func (m *editorModel) curve(from, to geom.Vec, class cellClass, c *canvas) {
	pts := m.style.Curve(from, to).Flatten(max(m.style.Smoothness, wire.MinSmoothness))
	for i := 1; i < len(pts); i++ {
		c0, r0 := m.toCell(pts[i-1])
		c1, r1 := m.toCell(pts[i])
		c.line(c0, r0, c1, r1, class)
	}
}

func (m *editorModel) View() string {
	c := newCanvas(max(m.width, 1), m.canvasRows())

	outPos := make(map[treeize.OutPinID]geom.Vec)
	inPos := make(map[treeize.InPinID]geom.Vec)
	for _, p := range m.frame.Pins {
		if p.Pin.Kind == treeize.PinOut {
			outPos[p.Pin.Out] = p.Pos
		} else {
			inPos[p.Pin.In] = p.Pos
		}
	}

	hover, hasHover := m.machine.HoveredWire()
	for w := range m.g.Wires() {
		from, ok1 := outPos[w.Out]
		to, ok2 := inPos[w.In]
		if !ok1 || !ok2 {
			continue
		}
		class := classWire
		if hasHover && hover == w {
			class = classWireHover
		}
		m.curve(from, to, class, c)
	}

	if b, ok := m.machine.Bundle(); ok && m.present {
		for _, p := range b.Pins() {
			if p.Kind == treeize.PinOut {
				m.curve(outPos[p.Out], m.pointer, classPending, c)
			} else {
				m.curve(m.pointer, inPos[p.In], classPending, c)
			}
		}
	}

	sel := m.machine.Selection()
	for _, nf := range m.frame.Nodes {
		n, ok := m.g.Node(nf.ID)
		if !ok {
			continue
		}
		class := classNode
		if sel.Contains(nf.ID) {
			class = classNodeSelected
		}
		m.drawNode(c, nf.Rect, n, class)
	}

	hoverPin, hasHoverPin := m.machine.HoveredPin()
	for _, p := range m.frame.Pins {
		col, row := m.toCell(p.Pos)
		r, class := '○', classPin
		if p.Pin.Kind == treeize.PinOut {
			r = '●'
		}
		if hasHoverPin && hoverPin == p.Pin {
			r, class = '◉', classPinHover
		}
		c.set(col, row, r, class)
	}

	if rect, ok := m.machine.RectSelection(); ok {
		c0, r0 := m.toCell(rect.Min)
		c1, r1 := m.toCell(rect.Max)
		c.line(c0, r0, c1, r0, classRect)
		c.line(c0, r1, c1, r1, classRect)
		c.line(c0, r0, c0, r1, classRect)
		c.line(c1, r0, c1, r1, classRect)
	}
	if pos, ok := m.machine.MenuPos(); ok {
		col, row := m.toCell(pos)
		c.set(col, row, '+', classPending)
	}

	return c.String() + "\n" + m.statusBar()
}

func (m *editorModel) drawNode(c *canvas, r geom.Rect, n *treeize.Node[viewer.Card], class cellClass) {
	c0, r0 := m.toCell(r.Min)
	c1, r1 := m.toCell(r.Max)
	c1, r1 = max(c1, c0+2), max(r1, r0+1)

	h, v := '─', '│'
	if !n.Open {
		h, v = '┄', '┆'
	}
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			ch := ' '
			switch {
			case row == r0 && col == c0:
				ch = '╭'
			case row == r0 && col == c1:
				ch = '╮'
			case row == r1 && col == c0:
				ch = '╰'
			case row == r1 && col == c1:
				ch = '╯'
			case row == r0 || row == r1:
				ch = h
			case col == c0 || col == c1:
				ch = v
			}
			c.set(col, row, ch, class)
		}
	}

	title := m.v.Title(&n.Value)
	room := c1 - c0 - 1
	if room <= 0 || r1-r0 < 2 {
		return
	}
	if utf8.RuneCountInString(title) > room {
		title = string([]rune(title)[:max(room-1, 0)]) + "…"
	}
	start := c0 + 1 + (room-utf8.RuneCountInString(title))/2
	row := r0 + (r1-r0)/2
	for i, ch := range []rune(title) {
		c.set(start+i, row, ch, classTitle)
	}
}

func (m *editorModel) statusBar() string {
	name := m.docName
	if name == "" {
		name = "untitled"
	}
	if m.dirty {
		name += "*"
	}
	left := fmt.Sprintf(" %s │ %s │ %d nodes · %d wires · %d selected │ mod %s │ %.0f%% ",
		name, m.machine.State(), m.g.Len(), m.g.WireCount(), m.machine.Selection().Len(), m.mods, m.zoom*100)
	bar := StyleHighlight.Render(left) + StyleDim.Render(m.status)
	return lipgloss.NewStyle().MaxWidth(max(m.width, 1)).Render(bar)
}
