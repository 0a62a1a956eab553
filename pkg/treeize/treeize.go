package treeize

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/treeize/pkg/geom"
)

// NodeID is a generational handle into the node arena. A slot index is
// reused only after its generation has been bumped, so a stale NodeID never
// resolves to a node inserted later.
//
// The zero value never refers to a live node: generations start at 1.
type NodeID struct {
	Index uint32
	Gen   uint32
}

// String formats the handle as "index.gen".
func (id NodeID) String() string {
	return strconv.FormatUint(uint64(id.Index), 10) + "." + strconv.FormatUint(uint64(id.Gen), 10)
}

// MarshalText implements [encoding.TextMarshaler] so NodeID can key JSON maps.
func (id NodeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses the "index.gen" form produced by MarshalText.
func (id *NodeID) UnmarshalText(b []byte) error {
	idx, gen, ok := strings.Cut(string(b), ".")
	if !ok {
		return fmt.Errorf("node id %q: missing generation", b)
	}
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return fmt.Errorf("node id %q: %w", b, err)
	}
	g, err := strconv.ParseUint(gen, 10, 32)
	if err != nil {
		return fmt.Errorf("node id %q: %w", b, err)
	}
	id.Index, id.Gen = uint32(i), uint32(g)
	return nil
}

// Node is a single arena entry: the caller's payload plus display state.
// The engine never inspects Value.
type Node[T any] struct {
	Value T
	Pos   geom.Vec
	Open  bool
}

type slot[T any] struct {
	gen  uint32
	live bool
	node Node[T]
}

// Treeize owns the node arena, the wire set and the draw order of a graph.
//
// The zero value is not usable; create instances with [New]. A Treeize is
// driven by a single frame loop and is not safe for concurrent use. Nodes
// and wires must not be inserted or removed while ranging over [Treeize.Nodes]
// or [Treeize.Wires]; queue such changes in an [Effects] instead.
type Treeize[T any] struct {
	slots     []*slot[T]
	free      []uint32
	live      int
	wires     wireSet
	drawOrder []NodeID
	listeners map[int]func(NodeID)
	nextToken int
}

// New creates an empty graph.
func New[T any]() *Treeize[T] {
	return &Treeize[T]{
		wires:     newWireSet(),
		listeners: make(map[int]func(NodeID)),
	}
}

// Insert adds a node with the given payload at pos. The node starts open and
// on top of the draw order.
func (t *Treeize[T]) Insert(value T, pos geom.Vec) NodeID {
	node := Node[T]{Value: value, Pos: pos, Open: true}

	var id NodeID
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := t.slots[idx]
		s.live = true
		s.node = node
		id = NodeID{Index: idx, Gen: s.gen}
	} else {
		idx := uint32(len(t.slots))
		t.slots = append(t.slots, &slot[T]{gen: 1, live: true, node: node})
		id = NodeID{Index: idx, Gen: 1}
	}

	t.live++
	t.drawOrder = append(t.drawOrder, id)
	return id
}

// Remove deletes a node together with every wire touching one of its pins,
// takes it out of the draw order and notifies removal listeners. It returns
// the payload, or false when id is stale.
func (t *Treeize[T]) Remove(id NodeID) (T, bool) {
	s := t.slot(id)
	if s == nil {
		var zero T
		return zero, false
	}

	value := s.node.Value
	s.node = Node[T]{}
	s.live = false
	s.gen++
	t.free = append(t.free, id.Index)
	t.live--

	t.wires.dropNode(id)
	t.drawOrder = slices.DeleteFunc(t.drawOrder, func(n NodeID) bool { return n == id })

	for _, token := range t.listenerTokens() {
		if fn, ok := t.listeners[token]; ok {
			fn(id)
		}
	}
	return value, true
}

// OnRemove registers fn to be called after a node is removed. The returned
// function unregisters it.
func (t *Treeize[T]) OnRemove(fn func(NodeID)) (cancel func()) {
	token := t.nextToken
	t.nextToken++
	t.listeners[token] = fn
	return func() { delete(t.listeners, token) }
}

func (t *Treeize[T]) listenerTokens() []int {
	tokens := make([]int, 0, len(t.listeners))
	for k := range t.listeners {
		tokens = append(tokens, k)
	}
	slices.Sort(tokens)
	return tokens
}

func (t *Treeize[T]) slot(id NodeID) *slot[T] {
	if int(id.Index) >= len(t.slots) {
		return nil
	}
	s := t.slots[id.Index]
	if !s.live || s.gen != id.Gen {
		return nil
	}
	return s
}

// Contains reports whether id refers to a live node.
func (t *Treeize[T]) Contains(id NodeID) bool { return t.slot(id) != nil }

// Get returns a pointer to the node's payload, or false for a stale handle.
// Writes through the pointer modify the stored payload.
func (t *Treeize[T]) Get(id NodeID) (*T, bool) {
	s := t.slot(id)
	if s == nil {
		return nil, false
	}
	return &s.node.Value, true
}

// Node returns the full arena entry for id, or false for a stale handle.
func (t *Treeize[T]) Node(id NodeID) (*Node[T], bool) {
	s := t.slot(id)
	if s == nil {
		return nil, false
	}
	return &s.node, true
}

// Pos returns the node's top-left position.
func (t *Treeize[T]) Pos(id NodeID) (geom.Vec, bool) {
	s := t.slot(id)
	if s == nil {
		return geom.Vec{}, false
	}
	return s.node.Pos, true
}

// SetPos moves a node. Stale handles are ignored.
func (t *Treeize[T]) SetPos(id NodeID, pos geom.Vec) {
	if s := t.slot(id); s != nil {
		s.node.Pos = pos
	}
}

// SetOpen sets the collapsed/expanded state. Stale handles are ignored.
func (t *Treeize[T]) SetOpen(id NodeID, open bool) {
	if s := t.slot(id); s != nil {
		s.node.Open = open
	}
}

// Len returns the number of live nodes.
func (t *Treeize[T]) Len() int { return t.live }

// Nodes yields every live node with a pointer to its payload, in slot order.
func (t *Treeize[T]) Nodes() iter.Seq2[NodeID, *T] {
	return func(yield func(NodeID, *T) bool) {
		for i, s := range t.slots {
			if !s.live {
				continue
			}
			if !yield(NodeID{Index: uint32(i), Gen: s.gen}, &s.node.Value) {
				return
			}
		}
	}
}

// NodeIDs returns the live node handles in slot order. The slice is a copy,
// so callers may mutate the graph while ranging over it.
func (t *Treeize[T]) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, t.live)
	for id := range t.Nodes() {
		ids = append(ids, id)
	}
	return ids
}

// DrawOrder returns a copy of the paint order, bottom first.
func (t *Treeize[T]) DrawOrder() []NodeID { return slices.Clone(t.drawOrder) }

// BringToTop moves a node to the end of the draw order.
func (t *Treeize[T]) BringToTop(id NodeID) {
	if !t.Contains(id) {
		return
	}
	i := slices.Index(t.drawOrder, id)
	if i < 0 || i == len(t.drawOrder)-1 {
		return
	}
	t.drawOrder = append(slices.Delete(t.drawOrder, i, i+1), id)
}
