package layout

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/treeize/pkg/treeize"
)

// Cycles returns the groups of nodes that reach each other through valid
// wires. Such groups have no entry point the layout can use as a root, so
// hosts call Cycles after a degenerate [Result] to tell the user why.
//
// Each group is ordered by node slot, and groups are ordered by their first
// node. Self-loops are not reported.
func Cycles[T any](g *treeize.Treeize[T], hasOutput, hasInput Predicate) [][]treeize.NodeID {
	if hasOutput == nil {
		hasOutput = all
	}
	if hasInput == nil {
		hasInput = all
	}

	ids := g.NodeIDs()
	index := make(map[treeize.NodeID]int64, len(ids))
	dg := simple.NewDirectedGraph()
	for i, id := range ids {
		index[id] = int64(i)
		dg.AddNode(simple.Node(i))
	}
	for w := range g.Wires() {
		src, dst := w.Out.Node, w.In.Node
		if src == dst || !hasOutput(src) || !hasInput(dst) {
			continue
		}
		from, to := index[src], index[dst]
		if dg.HasEdgeFromTo(from, to) {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
	}

	var groups [][]int64
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		group := make([]int64, len(scc))
		for i, n := range scc {
			group[i] = n.ID()
		}
		slices.Sort(group)
		groups = append(groups, group)
	}
	slices.SortFunc(groups, func(a, b []int64) int { return cmp.Compare(a[0], b[0]) })

	out := make([][]treeize.NodeID, len(groups))
	for i, group := range groups {
		for _, n := range group {
			out[i] = append(out[i], ids[n])
		}
	}
	return out
}
