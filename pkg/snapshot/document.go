package snapshot

import (
	"time"

	"github.com/google/uuid"

	terrors "github.com/matzehuels/treeize/pkg/errors"
	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/treeize"
)

// Document is a serialisable graph.
type Document[T any] struct {
	ID        string          `json:"id" bson:"_id"`
	Name      string          `json:"name,omitempty" bson:"name,omitempty"`
	Nodes     []NodeRecord[T] `json:"nodes" bson:"nodes"`
	DrawOrder []int           `json:"draw_order,omitempty" bson:"draw_order,omitempty"`
	Wires     []WireRecord    `json:"wires,omitempty" bson:"wires,omitempty"`
	UpdatedAt time.Time       `json:"updated_at,omitzero" bson:"updated_at"`
}

// NodeRecord is one node of a [Document].
type NodeRecord[T any] struct {
	Value T       `json:"value" bson:"value"`
	X     float64 `json:"x" bson:"x"`
	Y     float64 `json:"y" bson:"y"`
	Open  bool    `json:"open" bson:"open"`
}

// WireRecord connects output Output of node From to input Input of node To.
// From and To index [Document.Nodes].
type WireRecord struct {
	From   int `json:"from" bson:"from"`
	Output int `json:"output" bson:"output"`
	To     int `json:"to" bson:"to"`
	Input  int `json:"input" bson:"input"`
}

// Summary describes a stored document without its contents.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Nodes     int       `json:"nodes"`
	Wires     int       `json:"wires"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// NewID returns a fresh document id.
func NewID() string { return uuid.NewString() }

// Summary returns the document's summary.
func (d *Document[T]) Summary() Summary {
	return Summary{ID: d.ID, Name: d.Name, Nodes: len(d.Nodes), Wires: len(d.Wires), UpdatedAt: d.UpdatedAt}
}

// Capture records the graph. Nodes appear in slot order. The returned
// document has no ID.
func Capture[T any](g *treeize.Treeize[T]) *Document[T] {
	ids := g.NodeIDs()
	index := make(map[treeize.NodeID]int, len(ids))
	doc := &Document[T]{Nodes: make([]NodeRecord[T], len(ids))}

	for i, id := range ids {
		n, _ := g.Node(id)
		index[id] = i
		doc.Nodes[i] = NodeRecord[T]{Value: n.Value, X: n.Pos.X, Y: n.Pos.Y, Open: n.Open}
	}
	for _, id := range g.DrawOrder() {
		doc.DrawOrder = append(doc.DrawOrder, index[id])
	}
	for w := range g.Wires() {
		doc.Wires = append(doc.Wires, WireRecord{
			From:   index[w.Out.Node],
			Output: w.Out.Output,
			To:     index[w.In.Node],
			Input:  w.In.Input,
		})
	}
	return doc
}

// Validate checks that every index in the document refers to a node and
// that the draw order, when present, lists every node exactly once.
func (d *Document[T]) Validate() error {
	n := len(d.Nodes)
	if len(d.DrawOrder) > 0 {
		if len(d.DrawOrder) != n {
			return terrors.New(terrors.ErrCodeInvalidDocument, "draw order lists %d nodes, document has %d", len(d.DrawOrder), n)
		}
		seen := make([]bool, n)
		for _, i := range d.DrawOrder {
			if i < 0 || i >= n {
				return terrors.New(terrors.ErrCodeInvalidDocument, "draw order references node %d", i)
			}
			if seen[i] {
				return terrors.New(terrors.ErrCodeInvalidDocument, "draw order repeats node %d", i)
			}
			seen[i] = true
		}
	}
	for i, w := range d.Wires {
		if w.From < 0 || w.From >= n || w.To < 0 || w.To >= n {
			return terrors.New(terrors.ErrCodeInvalidDocument, "wire %d references node outside 0..%d", i, n-1)
		}
		if w.Output < 0 || w.Input < 0 {
			return terrors.New(terrors.ErrCodeInvalidDocument, "wire %d has a negative pin index", i)
		}
	}
	return nil
}

// Restore builds a new graph from doc. The returned slice maps document
// node indices to the handles of the new graph.
func Restore[T any](doc *Document[T]) (*treeize.Treeize[T], []treeize.NodeID, error) {
	if err := doc.Validate(); err != nil {
		return nil, nil, err
	}

	g := treeize.New[T]()
	ids := make([]treeize.NodeID, len(doc.Nodes))
	for i, rec := range doc.Nodes {
		ids[i] = g.Insert(rec.Value, geom.V(rec.X, rec.Y))
		if !rec.Open {
			g.SetOpen(ids[i], false)
		}
	}
	for _, i := range doc.DrawOrder {
		g.BringToTop(ids[i])
	}
	for _, w := range doc.Wires {
		g.Connect(
			treeize.OutPinID{Node: ids[w.From], Output: w.Output},
			treeize.InPinID{Node: ids[w.To], Input: w.Input},
		)
	}
	return g, ids, nil
}
