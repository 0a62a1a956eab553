package pipeline

import (
	"encoding/json"
	"time"

	"github.com/matzehuels/treeize/pkg/cache"
	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/layout"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/treeize"
	"github.com/matzehuels/treeize/pkg/viewer"
)

// layoutRecord is the cached form of a layout: one position per document
// node index.
type layoutRecord struct {
	Positions [][2]float64 `json:"positions"`
	Roots     int          `json:"roots"`
	Fallback  bool         `json:"fallback,omitempty"`
	Unplaced  int          `json:"unplaced,omitempty"`
}

// structure is the part of a document a layout depends on. Positions,
// names and ids are left out so that moving nodes by hand does not
// invalidate the cached layout.
type structure[T any] struct {
	Values []T                   `json:"values"`
	Wires  []snapshot.WireRecord `json:"wires"`
}

// StructureHash hashes the payloads and wires of doc.
func StructureHash[T any](doc *snapshot.Document[T]) (string, error) {
	s := structure[T]{Values: make([]T, len(doc.Nodes)), Wires: doc.Wires}
	for i, n := range doc.Nodes {
		s.Values[i] = n.Value
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// DocumentHash hashes the full document content, positions included, but
// not its id, name or timestamp.
func DocumentHash[T any](doc *snapshot.Document[T]) (string, error) {
	c := *doc
	c.ID, c.Name = "", ""
	c.UpdatedAt = time.Time{}
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// LayoutKeyOpts converts a layout config to cache key options.
func LayoutKeyOpts(cfg layout.Config) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		HorizontalSpacing: cfg.HorizontalSpacing,
		VerticalSpacing:   cfg.VerticalSpacing,
		StartX:            cfg.StartPos.X,
		StartY:            cfg.StartPos.Y,
		DefaultWidth:      cfg.DefaultSize.X,
		DefaultHeight:     cfg.DefaultSize.Y,
		MaxDepth:          cfg.MaxDepth,
		Axis:              cfg.Axis.String(),
	}
}

// computeLayout lays out g with v and returns the record indexed like ids.
func computeLayout[T any](g *treeize.Treeize[T], ids []treeize.NodeID, v viewer.Viewer[T], cfg layout.Config) layoutRecord {
	res := layout.WithViewer(g, v, cfg, viewer.Sizes(g, v))
	rec := layoutRecord{
		Positions: make([][2]float64, len(ids)),
		Roots:     len(res.Roots),
		Fallback:  res.Fallback,
		Unplaced:  res.Unplaced,
	}
	for i, id := range ids {
		p := res.Positions[id]
		rec.Positions[i] = [2]float64{p.X, p.Y}
	}
	return rec
}

// applyRecord writes cached positions into g. A record for a different
// node count is rejected.
func applyRecord[T any](g *treeize.Treeize[T], ids []treeize.NodeID, rec layoutRecord) bool {
	if len(rec.Positions) != len(ids) {
		return false
	}
	for i, id := range ids {
		g.SetPos(id, geom.V(rec.Positions[i][0], rec.Positions[i][1]))
	}
	return true
}
