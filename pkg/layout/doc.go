// Package layout places the nodes of a treeize graph as a compact,
// non-overlapping forest.
//
// # Overview
//
// The graph store is a multigraph, but readable node editors are mostly
// trees. [Compute] derives a tree from the wires and lays it out with a
// two-pass contour algorithm:
//
//   - A wire contributes a parent/child edge only when its source node
//     exposes outputs and its target node exposes inputs (the caller's
//     predicates). Self-loops never contribute.
//   - A node is the child of its first parent in wire order. Later parents
//     and duplicate wires are ignored, so every node has at most one parent.
//   - Nodes without a parent are roots, including nodes with no wires at all.
//
// # First Walk
//
// Subtrees are built bottom-up. Each subtree carries a contour: the
// horizontal extent of the subtree at every depth, relative to the subtree
// root's center. Siblings are placed left to right; each new sibling is
// shifted right by the largest amount any shared depth requires to keep
// [Config.HorizontalSpacing] between contours. The children group is then
// centered under the parent.
//
// # Second Walk
//
// Roots are packed side by side from [Config.StartPos], each starting where
// the previous root's span ended plus the horizontal spacing. A child's top
// edge sits [Config.VerticalSpacing] below its parent's bottom edge.
//
// # Degenerate Input
//
// Layout never fails. When every node has a parent (a cycle with no entry
// point) there are no roots and every node is placed at StartPos;
// [Result.Fallback] reports this. Nodes unreachable from a root, and nodes
// below [Config.MaxDepth], are also placed at StartPos. [Cycles] lists the
// strongly connected components responsible, for callers that want to warn.
//
// Compute only reads the graph. [Apply] writes a result back, so a layout
// can be previewed or diffed before it is committed.
package layout
